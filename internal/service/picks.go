package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/apperr"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/market"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/models"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/quota"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/repository"
)

// MarketSource is the slice of the catalog the pick and settlement paths
// need.
type MarketSource interface {
	GetByID(ctx context.Context, id string) (*market.Prediction, error)
}

// CalculatePoints converts an outcome probability (percent) into the points a
// winning pick pays out. Longshots pay more; a sure thing pays nothing.
func CalculatePoints(probability float64) int {
	points := int(math.Round(100 - probability))
	if points < 0 {
		return 0
	}
	return points
}

type PickEngine struct {
	Repo    repository.Repository
	Markets MarketSource
	Quota   *quota.Tracker
	Logger  *zap.Logger
}

type SubmitPickParams struct {
	UserID       string
	PredictionID string
	OutcomeID    string
}

// Submit validates and records one pick. The duplicate-pending rule is
// enforced twice: a pre-check for a friendly error, and the partial unique
// index for the concurrent race.
func (e *PickEngine) Submit(ctx context.Context, params SubmitPickParams) (*models.Pick, quota.Quota, error) {
	userID := strings.TrimSpace(params.UserID)
	predictionID := strings.TrimSpace(params.PredictionID)
	outcomeID := strings.TrimSpace(params.OutcomeID)
	if userID == "" || predictionID == "" || outcomeID == "" {
		return nil, quota.Quota{}, apperr.New(apperr.KindValidation, "userId, predictionId and outcomeId are required")
	}

	user, err := e.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, quota.Quota{}, err
	}
	if user == nil {
		return nil, quota.Quota{}, apperr.New(apperr.KindNotFound, "user not found")
	}

	q, allowed, err := e.Quota.Allow(ctx, userID, quota.KindPredictions)
	if err != nil {
		return nil, quota.Quota{}, err
	}
	if !allowed {
		return nil, q, rateLimitError("pick", q)
	}

	// Checked before market resolution so a pending pick on a market the
	// feed no longer serves still reports the conflict, not a lookup miss.
	pending, err := e.Repo.HasPendingPick(ctx, userID, predictionID)
	if err != nil {
		return nil, q, err
	}
	if pending {
		return nil, q, apperr.New(apperr.KindConflict, "you already have a pending pick on this market")
	}

	prediction, err := e.Markets.GetByID(ctx, predictionID)
	if err != nil {
		return nil, q, err
	}
	if prediction == nil {
		return nil, q, apperr.New(apperr.KindNotFound, "market not found")
	}
	if prediction.IsClosed || !prediction.ClosesAt.After(time.Now().UTC()) {
		return nil, q, apperr.New(apperr.KindValidation, "market is closed")
	}

	var outcome *market.Outcome
	for i := range prediction.Outcomes {
		if prediction.Outcomes[i].ID == outcomeID {
			outcome = &prediction.Outcomes[i]
			break
		}
	}
	if outcome == nil {
		return nil, q, apperr.New(apperr.KindValidation, "outcome does not belong to this market")
	}

	pick, err := e.Repo.InsertPick(ctx, repository.InsertPickParams{
		ID:           uuid.NewString(),
		UserID:       userID,
		PredictionID: predictionID,
		OutcomeID:    outcomeID,
		OutcomeTitle: outcome.Title,
		Points:       CalculatePoints(outcome.Probability),
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, q, apperr.New(apperr.KindConflict, "you already have a pending pick on this market")
		}
		return nil, q, err
	}

	if e.Logger != nil {
		e.Logger.Info("pick submitted",
			zap.String("user_id", userID),
			zap.String("prediction_id", predictionID),
			zap.String("outcome_id", outcomeID),
			zap.Int("points", pick.Points))
	}

	// Re-read so the response reflects the pick just spent.
	after, err := e.Quota.Get(ctx, userID, quota.KindPredictions)
	if err != nil {
		after = q
	}
	return pick, after, nil
}

type PickHistoryParams struct {
	UserID string
	Status string
	Limit  int
	Offset int
}

func (e *PickEngine) History(ctx context.Context, params PickHistoryParams) ([]models.Pick, int64, error) {
	userID := strings.TrimSpace(params.UserID)
	if userID == "" {
		return nil, 0, apperr.New(apperr.KindValidation, "userId is required")
	}
	status := strings.TrimSpace(params.Status)
	switch status {
	case "", models.PickStatusPending, models.PickStatusWon, models.PickStatusLost,
		models.PickStatusPush, models.PickStatusCanceled:
	default:
		return nil, 0, apperr.New(apperr.KindValidation, "unknown status filter")
	}
	return e.Repo.ListPicksByUser(ctx, repository.ListPicksParams{
		UserID: userID,
		Status: status,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
}

func rateLimitError(action string, q quota.Quota) error {
	minutes := int(math.Ceil(float64(q.WindowSecondsRemaining) / 60))
	if minutes < 1 {
		minutes = 1
	}
	return apperr.Newf(apperr.KindRateLimited,
		"Hourly %s limit reached (%d). Try again in about %d minute(s).",
		action, q.Limit, minutes)
}
