package service

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/models"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/repository"
)

// stubRepo implements the slices of the repository the services under test
// touch. Unstubbed methods panic via the embedded nil interface.
type stubRepo struct {
	repository.Repository

	users     map[string]*models.User
	venues    map[string]*models.Venue
	questions map[string]*models.TriviaQuestion
	picks     []models.Pick
	pickTimes []time.Time
	answers   []repository.InsertTriviaAnswerParams

	pointCredits  map[string]int
	notifications []models.Notification
	statusUpdates []repository.UpdatePickStatusParams

	procedureErr    error
	procedureCalls  int
	procedureCounts repository.SettleCounts

	insertPickErr error
	notifyErr     error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:        map[string]*models.User{},
		questions:    map[string]*models.TriviaQuestion{},
		pointCredits: map[string]int{},
	}
}

func (s *stubRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.users[id], nil
}

func (s *stubRepo) ListPickTimesSince(ctx context.Context, userID string, since time.Time, limit int) ([]time.Time, error) {
	out := []time.Time{}
	for _, ts := range s.pickTimes {
		if !ts.Before(since) {
			out = append(out, ts)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubRepo) ListTriviaAnswerTimesSince(ctx context.Context, userID string, since time.Time, limit int) ([]time.Time, error) {
	out := []time.Time{}
	for range s.answers {
		out = append(out, time.Now().UTC())
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubRepo) HasPendingPick(ctx context.Context, userID, predictionID string) (bool, error) {
	for _, p := range s.picks {
		if p.UserID == userID && p.PredictionID == predictionID && p.Status == models.PickStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRepo) InsertPick(ctx context.Context, params repository.InsertPickParams) (*models.Pick, error) {
	if s.insertPickErr != nil {
		return nil, s.insertPickErr
	}
	pick := models.Pick{
		ID:           params.ID,
		UserID:       params.UserID,
		PredictionID: params.PredictionID,
		OutcomeID:    params.OutcomeID,
		OutcomeTitle: params.OutcomeTitle,
		Points:       params.Points,
		Status:       models.PickStatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	s.picks = append(s.picks, pick)
	s.pickTimes = append(s.pickTimes, pick.CreatedAt)
	return &pick, nil
}

func (s *stubRepo) ListPicksByUser(ctx context.Context, params repository.ListPicksParams) ([]models.Pick, int64, error) {
	out := []models.Pick{}
	for _, p := range s.picks {
		if p.UserID != params.UserID {
			continue
		}
		if params.Status != "" && p.Status != params.Status {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (s *stubRepo) ListPendingPicksByPrediction(ctx context.Context, predictionID string) ([]models.Pick, error) {
	out := []models.Pick{}
	for _, p := range s.picks {
		if p.PredictionID == predictionID && p.Status == models.PickStatusPending {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubRepo) ListPendingPredictionIDs(ctx context.Context, limit int) ([]string, error) {
	seen := map[string]struct{}{}
	out := []string{}
	for _, p := range s.picks {
		if p.Status != models.PickStatusPending {
			continue
		}
		if _, ok := seen[p.PredictionID]; ok {
			continue
		}
		seen[p.PredictionID] = struct{}{}
		out = append(out, p.PredictionID)
	}
	return out, nil
}

func (s *stubRepo) UpdatePickStatus(ctx context.Context, params repository.UpdatePickStatusParams) error {
	s.statusUpdates = append(s.statusUpdates, params)
	for i := range s.picks {
		if s.picks[i].ID == params.PickID {
			s.picks[i].Status = params.Status
			resolvedAt := params.ResolvedAt
			s.picks[i].ResolvedAt = &resolvedAt
		}
	}
	return nil
}

func (s *stubRepo) CallSettleProcedure(ctx context.Context, predictionID, winningOutcomeID string, settleAsCanceled bool) (repository.SettleCounts, error) {
	s.procedureCalls++
	if s.procedureErr != nil {
		return repository.SettleCounts{}, s.procedureErr
	}
	return s.procedureCounts, nil
}

func (s *stubRepo) AddUserPoints(ctx context.Context, userID string, delta int) error {
	s.pointCredits[userID] += delta
	if user, ok := s.users[userID]; ok {
		user.Points += delta
	}
	return nil
}

func (s *stubRepo) InsertNotifications(ctx context.Context, notifications []models.Notification) error {
	if s.notifyErr != nil {
		return s.notifyErr
	}
	s.notifications = append(s.notifications, notifications...)
	return nil
}

func (s *stubRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) InsertUser(ctx context.Context, user *models.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *stubRepo) GetVenueByID(ctx context.Context, id string) (*models.Venue, error) {
	if s.venues == nil {
		return nil, nil
	}
	return s.venues[id], nil
}

func (s *stubRepo) UpdateUserFields(ctx context.Context, params repository.UpdateUserParams) error {
	user, ok := s.users[params.UserID]
	if !ok {
		return nil
	}
	if params.Username != nil {
		user.Username = *params.Username
	}
	if params.VenueID != nil {
		user.VenueID = *params.VenueID
	}
	if params.Points != nil {
		user.Points = *params.Points
	}
	if params.IsAdmin != nil {
		user.IsAdmin = *params.IsAdmin
	}
	return nil
}

func (s *stubRepo) GetTriviaQuestion(ctx context.Context, id string) (*models.TriviaQuestion, error) {
	return s.questions[id], nil
}

func (s *stubRepo) InsertTriviaAnswer(ctx context.Context, params repository.InsertTriviaAnswerParams) error {
	s.answers = append(s.answers, params)
	return nil
}

func procedureMissingErr() error {
	return &pgconn.PgError{Code: "42883", Message: "function settle_prediction_market does not exist"}
}

func uniqueViolationErr() error {
	return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
}
