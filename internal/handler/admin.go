package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/auth"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/repository"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/service"
)

type AdminHandler struct {
	Repo     repository.Repository
	Users    *service.UserService
	Venues   *service.VenueService
	Trivia   *service.TriviaService
	Ads      *service.AdService
	Settler  *service.SettlementEngine
	Settings *service.SystemSettingsService
}

func (h *AdminHandler) Register(r *gin.Engine) {
	group := r.Group("/api/admin", auth.RequireUser(h.Repo), auth.RequireAdmin())

	group.POST("/settle", h.settle)
	group.GET("/picks/pending", h.pendingPredictions)

	group.POST("/venues", h.createVenue)

	group.GET("/users", h.listUsers)
	group.PATCH("/users/:id", h.updateUser)
	group.DELETE("/users/:id", h.deleteUser)

	group.GET("/trivia/questions", h.listQuestions)
	group.POST("/trivia/questions", h.createQuestion)
	group.PUT("/trivia/questions/:id", h.updateQuestion)
	group.DELETE("/trivia/questions/:id", h.deleteQuestion)

	group.GET("/ads", h.listAds)
	group.POST("/ads", h.createAd)
	group.PATCH("/ads/:id", h.updateAd)
	group.DELETE("/ads/:id", h.deleteAd)
	group.GET("/ads/debug", h.adSnapshot)

	group.GET("/settings", h.listSettings)
	group.PUT("/settings/:key", h.setSetting)
}

type settleRequest struct {
	PredictionID     string `json:"predictionId"`
	WinningOutcomeID string `json:"winningOutcomeId"`
	SettleAsCanceled bool   `json:"settleAsCanceled"`
}

func (h *AdminHandler) settle(c *gin.Context) {
	var req settleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	result, err := h.Settler.Settle(c.Request.Context(), service.SettleRequest{
		PredictionID:     req.PredictionID,
		WinningOutcomeID: req.WinningOutcomeID,
		SettleAsCanceled: req.SettleAsCanceled,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, result, nil)
}

func (h *AdminHandler) pendingPredictions(c *gin.Context) {
	ids, err := h.Repo.ListPendingPredictionIDs(c.Request.Context(), intQuery(c, "limit", 1000))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"predictionIds": ids}, nil)
}

type venueRequest struct {
	Name      string  `json:"name"`
	Address   *string `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    float64 `json:"radius"`
}

func (h *AdminHandler) createVenue(c *gin.Context) {
	var req venueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	venue, err := h.Venues.Create(c.Request.Context(), service.VenueParams{
		Name:      req.Name,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Radius:    req.Radius,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, venue, nil)
}

func (h *AdminHandler) listUsers(c *gin.Context) {
	limit := intQuery(c, "limit", 100)
	offset := intQuery(c, "offset", 0)
	users, total, err := h.Users.AdminList(c.Request.Context(), limit, offset)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, users, paginationMeta(limit, offset, total))
}

type updateUserRequest struct {
	Username *string `json:"username"`
	VenueID  *string `json:"venueId"`
	Points   *int    `json:"points"`
	IsAdmin  *bool   `json:"isAdmin"`
}

func (h *AdminHandler) updateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	user, err := h.Users.AdminUpdate(c.Request.Context(), service.AdminUpdateUserParams{
		UserID:   c.Param("id"),
		Username: req.Username,
		VenueID:  req.VenueID,
		Points:   req.Points,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, user, nil)
}

func (h *AdminHandler) deleteUser(c *gin.Context) {
	if err := h.Users.AdminDelete(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"deleted": true}, nil)
}

func (h *AdminHandler) listQuestions(c *gin.Context) {
	questions, err := h.Trivia.AllQuestions(c.Request.Context(), intQuery(c, "limit", 500))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, questions, nil)
}

type questionRequest struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Category      *string  `json:"category"`
	Difficulty    *string  `json:"difficulty"`
}

func (h *AdminHandler) createQuestion(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	question, err := h.Trivia.CreateQuestion(c.Request.Context(), service.QuestionParams{
		Question:      req.Question,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Category:      req.Category,
		Difficulty:    req.Difficulty,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, question, nil)
}

func (h *AdminHandler) updateQuestion(c *gin.Context) {
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	question, err := h.Trivia.UpdateQuestion(c.Request.Context(), c.Param("id"), service.QuestionParams{
		Question:      req.Question,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Category:      req.Category,
		Difficulty:    req.Difficulty,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, question, nil)
}

func (h *AdminHandler) deleteQuestion(c *gin.Context) {
	if err := h.Trivia.DeleteQuestion(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"deleted": true}, nil)
}

func (h *AdminHandler) listAds(c *gin.Context) {
	ads, err := h.Ads.List(c.Request.Context(), boolQueryDefault(c, "includeInactive", true))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, ads, nil)
}

type adRequest struct {
	Slot           string  `json:"slot"`
	VenueID        *string `json:"venueId"`
	AdvertiserName string  `json:"advertiserName"`
	ImageURL       string  `json:"imageUrl"`
	ClickURL       string  `json:"clickUrl"`
	AltText        string  `json:"altText"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Active         *bool   `json:"active"`
	StartDate      *string `json:"startDate"`
	EndDate        *string `json:"endDate"`
}

func parseTimePtr(value *string) *time.Time {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(*value)); err == nil {
		ts = ts.UTC()
		return &ts
	}
	return nil
}

func (h *AdminHandler) createAd(c *gin.Context) {
	var req adRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ad, err := h.Ads.Create(c.Request.Context(), service.AdParams{
		Slot:           req.Slot,
		VenueID:        req.VenueID,
		AdvertiserName: req.AdvertiserName,
		ImageURL:       req.ImageURL,
		ClickURL:       req.ClickURL,
		AltText:        req.AltText,
		Width:          req.Width,
		Height:         req.Height,
		Active:         req.Active,
		StartDate:      parseTimePtr(req.StartDate),
		EndDate:        parseTimePtr(req.EndDate),
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, ad, nil)
}

type updateAdRequest struct {
	Slot           *string `json:"slot"`
	VenueID        *string `json:"venueId"`
	AdvertiserName *string `json:"advertiserName"`
	ImageURL       *string `json:"imageUrl"`
	ClickURL       *string `json:"clickUrl"`
	AltText        *string `json:"altText"`
	Width          *int    `json:"width"`
	Height         *int    `json:"height"`
	Active         *bool   `json:"active"`
	StartDate      *string `json:"startDate"`
	EndDate        *string `json:"endDate"`
}

func (h *AdminHandler) updateAd(c *gin.Context) {
	var req updateAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	ad, err := h.Ads.Update(c.Request.Context(), repository.UpdateAdParams{
		AdID:           c.Param("id"),
		Slot:           req.Slot,
		VenueID:        req.VenueID,
		AdvertiserName: req.AdvertiserName,
		ImageURL:       req.ImageURL,
		ClickURL:       req.ClickURL,
		AltText:        req.AltText,
		Width:          req.Width,
		Height:         req.Height,
		Active:         req.Active,
		StartDate:      parseTimePtr(req.StartDate),
		EndDate:        parseTimePtr(req.EndDate),
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, ad, nil)
}

func (h *AdminHandler) deleteAd(c *gin.Context) {
	if err := h.Ads.Delete(c.Request.Context(), c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"deleted": true}, nil)
}

func (h *AdminHandler) adSnapshot(c *gin.Context) {
	snapshot, err := h.Ads.Snapshot(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, snapshot, nil)
}

func (h *AdminHandler) listSettings(c *gin.Context) {
	settings, err := h.Repo.ListSystemSettings(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, settings, nil)
}

type setSettingRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *AdminHandler) setSetting(c *gin.Context) {
	var req setSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	key := c.Param("key")
	if err := h.Settings.SetEnabled(c.Request.Context(), key, req.Enabled); err != nil {
		Fail(c, err)
		return
	}
	Ok(c, gin.H{"key": key, "enabled": req.Enabled}, nil)
}
