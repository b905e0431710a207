// Package repository defines the persistence surface. Services depend on this
// interface; the gorm subpackage implements it against Postgres.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/models"
)

// SettleCounts is the procedure's per-market settlement summary.
type SettleCounts struct {
	AffectedPicks int
	Winners       int
	Losers        int
	Canceled      int
}

type InsertPickParams struct {
	ID           string
	UserID       string
	PredictionID string
	OutcomeID    string
	OutcomeTitle string
	Points       int
}

type ListPicksParams struct {
	UserID string
	Status string
	Limit  int
	Offset int
}

type UpdatePickStatusParams struct {
	PickID     string
	Status     string
	ResolvedAt time.Time
}

type InsertTriviaAnswerParams struct {
	UserID      string
	QuestionID  string
	Answer      int
	IsCorrect   bool
	TimeElapsed int
}

type ListNotificationsParams struct {
	UserID     string
	UnreadOnly bool
	Limit      int
	Offset     int
}

type UpdateAdParams struct {
	AdID           string
	Slot           *string
	VenueID        *string
	AdvertiserName *string
	ImageURL       *string
	ClickURL       *string
	AltText        *string
	Width          *int
	Height         *int
	Active         *bool
	StartDate      *time.Time
	EndDate        *time.Time
}

type UpdateUserParams struct {
	UserID   string
	Username *string
	VenueID  *string
	Points   *int
	IsAdmin  *bool
}

type Repository interface {
	// Users.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	InsertUser(ctx context.Context, user *models.User) error
	ListUsersByVenue(ctx context.Context, venueID string, limit int) ([]models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error)
	UpdateUserFields(ctx context.Context, params UpdateUserParams) error
	AddUserPoints(ctx context.Context, userID string, delta int) error
	DeleteUser(ctx context.Context, userID string) error

	// Venues.
	GetVenueByID(ctx context.Context, id string) (*models.Venue, error)
	ListVenues(ctx context.Context) ([]models.Venue, error)
	InsertVenue(ctx context.Context, venue *models.Venue) error

	// Picks.
	InsertPick(ctx context.Context, params InsertPickParams) (*models.Pick, error)
	HasPendingPick(ctx context.Context, userID, predictionID string) (bool, error)
	ListPicksByUser(ctx context.Context, params ListPicksParams) ([]models.Pick, int64, error)
	ListPickTimesSince(ctx context.Context, userID string, since time.Time, limit int) ([]time.Time, error)
	ListPendingPicksByPrediction(ctx context.Context, predictionID string) ([]models.Pick, error)
	ListPendingPredictionIDs(ctx context.Context, limit int) ([]string, error)
	UpdatePickStatus(ctx context.Context, params UpdatePickStatusParams) error
	CallSettleProcedure(ctx context.Context, predictionID, winningOutcomeID string, settleAsCanceled bool) (SettleCounts, error)

	// Trivia.
	GetTriviaQuestion(ctx context.Context, id string) (*models.TriviaQuestion, error)
	ListTriviaQuestions(ctx context.Context, limit int) ([]models.TriviaQuestion, error)
	InsertTriviaQuestion(ctx context.Context, q *models.TriviaQuestion) error
	UpdateTriviaQuestion(ctx context.Context, q *models.TriviaQuestion) error
	DeleteTriviaQuestion(ctx context.Context, id string) error
	InsertTriviaAnswer(ctx context.Context, params InsertTriviaAnswerParams) error
	ListTriviaAnswerTimesSince(ctx context.Context, userID string, since time.Time, limit int) ([]time.Time, error)

	// Notifications.
	InsertNotifications(ctx context.Context, notifications []models.Notification) error
	ListNotifications(ctx context.Context, params ListNotificationsParams) ([]models.Notification, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int64, error)
	MarkNotificationsRead(ctx context.Context, userID string, ids []string) (int64, error)

	// Advertisements.
	GetAdByID(ctx context.Context, id string) (*models.Advertisement, error)
	GetActiveAd(ctx context.Context, slot string, venueID *string, now time.Time) (*models.Advertisement, error)
	ListAds(ctx context.Context, includeInactive bool) ([]models.Advertisement, error)
	InsertAd(ctx context.Context, ad *models.Advertisement) error
	UpdateAd(ctx context.Context, params UpdateAdParams) error
	DeleteAd(ctx context.Context, id string) error
	InsertAdEvent(ctx context.Context, adID, eventType string) error
	IncrementAdCounter(ctx context.Context, adID, eventType string) error
	CountAdEventsSince(ctx context.Context, adID, eventType string, since time.Time) (int64, error)

	// System settings.
	GetSystemSetting(ctx context.Context, key string) (*models.SystemSetting, error)
	UpsertSystemSetting(ctx context.Context, setting *models.SystemSetting) error
	ListSystemSettings(ctx context.Context) ([]models.SystemSetting, error)
}

// IsProcedureMissing reports whether err is Postgres "undefined function"
// (42883), which marks a database without the settlement procedure installed.
func IsProcedureMissing(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42883"
}

// IsUniqueViolation reports whether err is a Postgres unique violation
// (23505), e.g. the pending-pick partial index firing under concurrency.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
