package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/apperr"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/models"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/repository"
)

// SettlementEngine resolves every pending pick for one market. It prefers the
// stored procedure (single transaction) and falls back to per-row updates when
// the procedure is not installed. The fallback decision sticks for the process
// lifetime.
type SettlementEngine struct {
	Repo   repository.Repository
	Logger *zap.Logger

	legacyOnly atomic.Bool
}

type SettleRequest struct {
	PredictionID     string
	WinningOutcomeID string
	SettleAsCanceled bool
}

type SettleResult struct {
	AffectedPicks int  `json:"affectedPicks"`
	Winners       int  `json:"winners"`
	Losers        int  `json:"losers"`
	Canceled      int  `json:"canceled"`
	UsedFallback  bool `json:"usedFallback,omitempty"`
}

// Settle requires exactly one resolution: a winning outcome, or cancellation.
func (e *SettlementEngine) Settle(ctx context.Context, req SettleRequest) (SettleResult, error) {
	predictionID := strings.TrimSpace(req.PredictionID)
	winningOutcomeID := strings.TrimSpace(req.WinningOutcomeID)
	if predictionID == "" {
		return SettleResult{}, apperr.New(apperr.KindValidation, "predictionId is required")
	}
	if (winningOutcomeID != "") == req.SettleAsCanceled {
		return SettleResult{}, apperr.New(apperr.KindValidation,
			"provide exactly one of winningOutcomeId or settleAsCanceled")
	}

	if !e.legacyOnly.Load() {
		counts, err := e.Repo.CallSettleProcedure(ctx, predictionID, winningOutcomeID, req.SettleAsCanceled)
		if err == nil {
			return SettleResult{
				AffectedPicks: counts.AffectedPicks,
				Winners:       counts.Winners,
				Losers:        counts.Losers,
				Canceled:      counts.Canceled,
			}, nil
		}
		if !repository.IsProcedureMissing(err) {
			return SettleResult{}, err
		}
		// Remember the miss so every later call skips the probe.
		e.legacyOnly.Store(true)
		if e.Logger != nil {
			e.Logger.Warn("settlement procedure missing, using legacy path",
				zap.String("prediction_id", predictionID))
		}
	}

	return e.settleLegacy(ctx, predictionID, winningOutcomeID, req.SettleAsCanceled)
}

func (e *SettlementEngine) settleLegacy(ctx context.Context, predictionID, winningOutcomeID string, canceled bool) (SettleResult, error) {
	picks, err := e.Repo.ListPendingPicksByPrediction(ctx, predictionID)
	if err != nil {
		return SettleResult{}, err
	}

	now := time.Now().UTC()
	result := SettleResult{UsedFallback: true}
	credits := map[string]int{}
	notifications := make([]models.Notification, 0, len(picks))

	for i := range picks {
		pick := &picks[i]
		status := models.PickStatusLost
		switch {
		case canceled:
			status = models.PickStatusCanceled
		case pick.OutcomeID == winningOutcomeID:
			status = models.PickStatusWon
		}

		err := e.Repo.UpdatePickStatus(ctx, repository.UpdatePickStatusParams{
			PickID:     pick.ID,
			Status:     status,
			ResolvedAt: now,
		})
		if err != nil {
			return result, err
		}
		result.AffectedPicks++

		switch status {
		case models.PickStatusWon:
			result.Winners++
			credits[pick.UserID] += pick.Points
		case models.PickStatusLost:
			result.Losers++
		case models.PickStatusCanceled:
			result.Canceled++
		}
		notifications = append(notifications, settlementNotification(pick, status, now))
	}

	for userID, delta := range credits {
		if err := e.Repo.AddUserPoints(ctx, userID, delta); err != nil {
			return result, err
		}
	}

	// Notifications are best effort; a failure here never unwinds settlement.
	if err := e.Repo.InsertNotifications(ctx, notifications); err != nil && e.Logger != nil {
		e.Logger.Warn("failed to write settlement notifications",
			zap.String("prediction_id", predictionID), zap.Error(err))
	}

	if e.Logger != nil {
		e.Logger.Info("market settled",
			zap.String("prediction_id", predictionID),
			zap.Bool("canceled", canceled),
			zap.Int("affected", result.AffectedPicks),
			zap.Int("winners", result.Winners))
	}
	return result, nil
}

func settlementNotification(pick *models.Pick, status string, now time.Time) models.Notification {
	var message, kind string
	switch status {
	case models.PickStatusWon:
		message = fmt.Sprintf("Prediction resolved: %s won. You earned %d points.", pick.OutcomeTitle, pick.Points)
		kind = models.NotificationSuccess
	case models.PickStatusCanceled:
		message = fmt.Sprintf("Prediction canceled: %s market was canceled.", pick.OutcomeTitle)
		kind = models.NotificationInfo
	default:
		message = fmt.Sprintf("Prediction resolved: %s did not win.", pick.OutcomeTitle)
		kind = models.NotificationWarning
	}
	return models.Notification{
		ID:        uuid.NewString(),
		UserID:    pick.UserID,
		Message:   message,
		Type:      kind,
		CreatedAt: now,
	}
}
