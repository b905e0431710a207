package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/market"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/repository"
)

// OutcomeResolver is the slice of the catalog auto-settlement needs.
type OutcomeResolver interface {
	ResolvedOutcomes(ctx context.Context, ids []string, threshold float64) ([]market.ResolvedOutcome, error)
}

// AutoSettleService scans markets that still hold pending picks and settles
// the ones the upstream feed reports as closed. A closed market with no
// near-certain outcome settles as canceled.
type AutoSettleService struct {
	Repo      repository.Repository
	Resolver  OutcomeResolver
	Settler   *SettlementEngine
	Settings  *SystemSettingsService
	Logger    *zap.Logger
	Threshold float64
	ScanLimit int
}

type AutoSettleResult struct {
	ScannedMarkets int `json:"scannedMarkets"`
	SettledMarkets int `json:"settledMarkets"`
	AffectedPicks  int `json:"affectedPicks"`
}

func (s *AutoSettleService) RunOnce(ctx context.Context) (AutoSettleResult, error) {
	if s.Settings != nil && !s.Settings.IsEnabled(ctx, FeatureAutoSettle, true) {
		return AutoSettleResult{}, nil
	}

	limit := s.ScanLimit
	if limit <= 0 {
		limit = 1000
	}
	ids, err := s.Repo.ListPendingPredictionIDs(ctx, limit)
	if err != nil {
		return AutoSettleResult{}, err
	}
	result := AutoSettleResult{ScannedMarkets: len(ids)}
	if len(ids) == 0 {
		return result, nil
	}

	threshold := s.Threshold
	if threshold <= 0 {
		threshold = 99.5
	}
	resolved, err := s.Resolver.ResolvedOutcomes(ctx, ids, threshold)
	if err != nil {
		return result, err
	}

	for _, entry := range resolved {
		settled, err := s.Settler.Settle(ctx, SettleRequest{
			PredictionID:     entry.PredictionID,
			WinningOutcomeID: entry.WinningOutcomeID,
			SettleAsCanceled: entry.SettleAsCanceled,
		})
		if err != nil {
			// One bad market never blocks the rest of the sweep.
			if s.Logger != nil {
				s.Logger.Warn("auto-settle failed for market",
					zap.String("prediction_id", entry.PredictionID), zap.Error(err))
			}
			continue
		}
		result.SettledMarkets++
		result.AffectedPicks += settled.AffectedPicks
	}

	if s.Logger != nil {
		s.Logger.Info("auto-settle sweep finished",
			zap.Int("scanned", result.ScannedMarkets),
			zap.Int("settled", result.SettledMarkets),
			zap.Int("picks", result.AffectedPicks))
	}
	return result, nil
}
