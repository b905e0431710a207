package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/service"
)

type AdHandler struct {
	Ads *service.AdService
}

func (h *AdHandler) Register(r *gin.Engine) {
	group := r.Group("/api/ads")
	group.GET("/serve", h.serve)
	group.GET("/click/:id", h.click)
}

func (h *AdHandler) serve(c *gin.Context) {
	ad, err := h.Ads.Serve(c.Request.Context(), c.Query("slot"), strQueryPtr(c, "venueId"))
	if err != nil {
		Fail(c, err)
		return
	}
	// No creative for the slot is a normal outcome, not an error.
	Ok(c, ad, nil)
}

func (h *AdHandler) click(c *gin.Context) {
	target, err := h.Ads.Click(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, target)
}
