package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/auth"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/repository"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/service"
)

type NotificationHandler struct {
	Repo          repository.Repository
	Notifications *service.NotificationService
}

func (h *NotificationHandler) Register(r *gin.Engine) {
	group := r.Group("/api/notifications", auth.RequireUser(h.Repo))
	group.GET("", h.feed)
	group.POST("/read", h.markRead)
}

func (h *NotificationHandler) feed(c *gin.Context) {
	user := auth.UserFrom(c)
	feed, err := h.Notifications.Feed(c.Request.Context(), user.ID,
		boolQueryDefault(c, "unreadOnly", false),
		intQuery(c, "limit", 50),
		intQuery(c, "offset", 0))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, feed, nil)
}

type markReadRequest struct {
	IDs []string `json:"ids"`
}

func (h *NotificationHandler) markRead(c *gin.Context) {
	user := auth.UserFrom(c)
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	updated, err := h.Notifications.MarkRead(c.Request.Context(), user.ID, req.IDs)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"updated": updated}, nil)
}
