package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/auth"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/quota"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/repository"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/service"
)

type PickHandler struct {
	Repo  repository.Repository
	Picks *service.PickEngine
	Quota *quota.Tracker
}

func (h *PickHandler) Register(r *gin.Engine) {
	group := r.Group("/api/picks", auth.RequireUser(h.Repo))
	group.POST("", h.submit)
	group.GET("", h.history)
	group.GET("/quota", h.quota)
}

type submitPickRequest struct {
	PredictionID string `json:"predictionId"`
	OutcomeID    string `json:"outcomeId"`
}

func (h *PickHandler) submit(c *gin.Context) {
	user := auth.UserFrom(c)
	var req submitPickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	pick, q, err := h.Picks.Submit(c.Request.Context(), service.SubmitPickParams{
		UserID:       user.ID,
		PredictionID: req.PredictionID,
		OutcomeID:    req.OutcomeID,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"pick": pick, "quota": q}, nil)
}

func (h *PickHandler) history(c *gin.Context) {
	user := auth.UserFrom(c)
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	picks, total, err := h.Picks.History(c.Request.Context(), service.PickHistoryParams{
		UserID: user.ID,
		Status: strings.TrimSpace(c.Query("status")),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, picks, paginationMeta(limit, offset, total))
}

func (h *PickHandler) quota(c *gin.Context) {
	user := auth.UserFrom(c)
	kind := strings.TrimSpace(c.Query("kind"))
	if kind == "" {
		kind = quota.KindPredictions
	}
	q, err := h.Quota.Get(c.Request.Context(), user.ID, kind)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, q, nil)
}
