package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/service"
)

type LeaderboardHandler struct {
	Leaderboard *service.LeaderboardService
}

func (h *LeaderboardHandler) Register(r *gin.Engine) {
	r.GET("/api/leaderboard", h.top)
}

func (h *LeaderboardHandler) top(c *gin.Context) {
	entries, err := h.Leaderboard.Top(c.Request.Context(),
		strings.TrimSpace(c.Query("venueId")),
		intQuery(c, "limit", 25))
	if err != nil {
		Fail(c, err)
		return
	}
	if entries == nil {
		entries = []service.LeaderboardEntry{}
	}
	Ok(c, entries, nil)
}
