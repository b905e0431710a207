package service

import (
	"context"
	"testing"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/market"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/models"
)

type stubResolver struct {
	resolved []market.ResolvedOutcome
	askedIDs []string
}

func (s *stubResolver) ResolvedOutcomes(ctx context.Context, ids []string, threshold float64) ([]market.ResolvedOutcome, error) {
	s.askedIDs = ids
	return s.resolved, nil
}

func TestAutoSettle_RunOnce(t *testing.T) {
	repo := newStubRepo()
	repo.procedureErr = procedureMissingErr()
	repo.picks = []models.Pick{
		pendingPick("p1", "alice", "m1", "m1-0", "Yes", 20),
		pendingPick("p2", "bob", "m2", "m2-1", "No", 30),
		pendingPick("p3", "carol", "m3", "m3-0", "Yes", 40), // still open upstream
	}
	resolver := &stubResolver{resolved: []market.ResolvedOutcome{
		{PredictionID: "m1", WinningOutcomeID: "m1-0"},
		{PredictionID: "m2", SettleAsCanceled: true},
	}}
	svc := &AutoSettleService{
		Repo:     repo,
		Resolver: resolver,
		Settler:  &SettlementEngine{Repo: repo},
	}

	result, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if result.ScannedMarkets != 3 || result.SettledMarkets != 2 || result.AffectedPicks != 2 {
		t.Fatalf("result=%+v", result)
	}
	if len(resolver.askedIDs) != 3 {
		t.Fatalf("asked ids=%v", resolver.askedIDs)
	}
	if repo.pointCredits["alice"] != 20 {
		t.Fatalf("alice credit=%d", repo.pointCredits["alice"])
	}
	for _, p := range repo.picks {
		if p.ID == "p3" && p.Status != models.PickStatusPending {
			t.Fatalf("open market settled: %+v", p)
		}
		if p.ID == "p2" && p.Status != models.PickStatusCanceled {
			t.Fatalf("p2 status=%s want canceled", p.Status)
		}
	}
}

func TestAutoSettle_NothingPending(t *testing.T) {
	svc := &AutoSettleService{
		Repo:     newStubRepo(),
		Resolver: &stubResolver{},
		Settler:  &SettlementEngine{Repo: newStubRepo()},
	}
	result, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if result.ScannedMarkets != 0 || result.SettledMarkets != 0 {
		t.Fatalf("result=%+v", result)
	}
}
