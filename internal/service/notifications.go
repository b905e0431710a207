package service

import (
	"context"
	"strings"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/apperr"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/models"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/repository"
)

type NotificationService struct {
	Repo repository.Repository
}

type NotificationFeed struct {
	Items       []models.Notification `json:"items"`
	UnreadCount int64                 `json:"unreadCount"`
}

func (s *NotificationService) Feed(ctx context.Context, userID string, unreadOnly bool, limit, offset int) (NotificationFeed, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return NotificationFeed{}, apperr.New(apperr.KindValidation, "userId is required")
	}
	items, err := s.Repo.ListNotifications(ctx, repository.ListNotificationsParams{
		UserID:     userID,
		UnreadOnly: unreadOnly,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return NotificationFeed{}, err
	}
	unread, err := s.Repo.CountUnreadNotifications(ctx, userID)
	if err != nil {
		return NotificationFeed{}, err
	}
	if items == nil {
		items = []models.Notification{}
	}
	return NotificationFeed{Items: items, UnreadCount: unread}, nil
}

// MarkRead marks the given notifications, or all unread ones when ids is
// empty. Only the caller's own rows are touched.
func (s *NotificationService) MarkRead(ctx context.Context, userID string, ids []string) (int64, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, apperr.New(apperr.KindValidation, "userId is required")
	}
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return s.Repo.MarkNotificationsRead(ctx, userID, cleaned)
}
