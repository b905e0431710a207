package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/db"
)

type HealthHandler struct {
	DB      *db.DB
	Version string
}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)
}

func (h *HealthHandler) health(c *gin.Context) {
	status := "ok"
	code := http.StatusOK
	if err := db.Ping(h.DB); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":  status,
		"version": h.Version,
	})
}
