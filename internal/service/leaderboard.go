package service

import (
	"context"
	"strings"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/apperr"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/repository"
)

type LeaderboardService struct {
	Repo repository.Repository
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Points   int    `json:"points"`
}

// Top ranks players by points, venue-scoped when venueID is set. Ties share
// order by signup time, which the repository query already fixes.
func (s *LeaderboardService) Top(ctx context.Context, venueID string, limit int) ([]LeaderboardEntry, error) {
	venueID = strings.TrimSpace(venueID)
	if venueID != "" {
		venue, err := s.Repo.GetVenueByID(ctx, venueID)
		if err != nil {
			return nil, err
		}
		if venue == nil {
			return nil, apperr.New(apperr.KindNotFound, "venue not found")
		}
	}

	users, err := s.Repo.ListUsersByVenue(ctx, venueID, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, 0, len(users))
	for i := range users {
		entries = append(entries, LeaderboardEntry{
			Rank:     i + 1,
			UserID:   users[i].ID,
			Username: users[i].Username,
			Points:   users[i].Points,
		})
	}
	return entries, nil
}
