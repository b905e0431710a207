package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/auth"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/service"
)

// CronHandler exposes the scheduled jobs to an external scheduler, guarded by
// a shared secret. With no secret configured the routes answer 404.
type CronHandler struct {
	Secret     string
	AutoSettle *service.AutoSettleService
}

func (h *CronHandler) Register(r *gin.Engine) {
	group := r.Group("/api/cron", auth.CronAuth(h.Secret))
	group.POST("/auto-settle", h.autoSettle)
}

func (h *CronHandler) autoSettle(c *gin.Context) {
	result, err := h.AutoSettle.RunOnce(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, result, nil)
}
