package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/service"
)

type VenueHandler struct {
	Venues *service.VenueService
	Users  *service.UserService
}

func (h *VenueHandler) Register(r *gin.Engine) {
	group := r.Group("/api/venues")
	group.GET("", h.list)
	group.GET("/:id", h.get)

	r.POST("/api/users", h.register)
}

func (h *VenueHandler) list(c *gin.Context) {
	venues, err := h.Venues.List(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, venues, nil)
}

func (h *VenueHandler) get(c *gin.Context) {
	venue, err := h.Venues.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, venue, nil)
}

type registerRequest struct {
	Username string `json:"username"`
	VenueID  string `json:"venueId"`
}

func (h *VenueHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	user, err := h.Users.Register(c.Request.Context(), service.RegisterParams{
		Username: req.Username,
		VenueID:  req.VenueID,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, user, nil)
}
