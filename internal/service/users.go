package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/apperr"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/models"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/repository"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

type UserService struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

type RegisterParams struct {
	Username string
	VenueID  string
}

// Register creates a player inside a venue. Usernames are globally unique,
// case-insensitively.
func (s *UserService) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	username := strings.TrimSpace(params.Username)
	venueID := strings.TrimSpace(params.VenueID)
	if !usernamePattern.MatchString(username) {
		return nil, apperr.New(apperr.KindValidation,
			"username must be 3-20 characters: letters, digits, underscore")
	}
	if venueID == "" {
		return nil, apperr.New(apperr.KindValidation, "venueId is required")
	}

	venue, err := s.Repo.GetVenueByID(ctx, venueID)
	if err != nil {
		return nil, err
	}
	if venue == nil {
		return nil, apperr.New(apperr.KindNotFound, "venue not found")
	}

	existing, err := s.Repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.New(apperr.KindConflict, "username is already taken")
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Username: username,
		VenueID:  venueID,
	}
	if err := s.Repo.InsertUser(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperr.New(apperr.KindConflict, "username is already taken")
		}
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user registered",
			zap.String("user_id", user.ID), zap.String("venue_id", venueID))
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.New(apperr.KindNotFound, "user not found")
	}
	return user, nil
}

type AdminUpdateUserParams struct {
	UserID   string
	Username *string
	VenueID  *string
	Points   *int
	IsAdmin  *bool
}

// AdminUpdate applies partial updates. Point balances never go negative.
func (s *UserService) AdminUpdate(ctx context.Context, params AdminUpdateUserParams) (*models.User, error) {
	userID := strings.TrimSpace(params.UserID)
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.New(apperr.KindNotFound, "user not found")
	}

	if params.Username != nil {
		username := strings.TrimSpace(*params.Username)
		if !usernamePattern.MatchString(username) {
			return nil, apperr.New(apperr.KindValidation,
				"username must be 3-20 characters: letters, digits, underscore")
		}
		other, err := s.Repo.GetUserByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != userID {
			return nil, apperr.New(apperr.KindConflict, "username is already taken")
		}
		params.Username = &username
	}
	if params.VenueID != nil {
		venue, err := s.Repo.GetVenueByID(ctx, *params.VenueID)
		if err != nil {
			return nil, err
		}
		if venue == nil {
			return nil, apperr.New(apperr.KindNotFound, "venue not found")
		}
	}
	if params.Points != nil && *params.Points < 0 {
		zero := 0
		params.Points = &zero
	}

	err = s.Repo.UpdateUserFields(ctx, repository.UpdateUserParams{
		UserID:   userID,
		Username: params.Username,
		VenueID:  params.VenueID,
		Points:   params.Points,
		IsAdmin:  params.IsAdmin,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperr.New(apperr.KindConflict, "username is already taken")
		}
		return nil, err
	}
	return s.Repo.GetUserByID(ctx, userID)
}

func (s *UserService) AdminList(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	return s.Repo.ListUsers(ctx, limit, offset)
}

func (s *UserService) AdminDelete(ctx context.Context, userID string) error {
	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.New(apperr.KindNotFound, "user not found")
	}
	return s.Repo.DeleteUser(ctx, userID)
}

type VenueService struct {
	Repo repository.Repository
}

func (s *VenueService) List(ctx context.Context) ([]models.Venue, error) {
	venues, err := s.Repo.ListVenues(ctx)
	if err != nil {
		return nil, err
	}
	if venues == nil {
		venues = []models.Venue{}
	}
	return venues, nil
}

func (s *VenueService) Get(ctx context.Context, id string) (*models.Venue, error) {
	venue, err := s.Repo.GetVenueByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if venue == nil {
		return nil, apperr.New(apperr.KindNotFound, "venue not found")
	}
	return venue, nil
}

type VenueParams struct {
	Name      string
	Address   *string
	Latitude  float64
	Longitude float64
	Radius    float64
}

func (s *VenueService) Create(ctx context.Context, params VenueParams) (*models.Venue, error) {
	if strings.TrimSpace(params.Name) == "" {
		return nil, apperr.New(apperr.KindValidation, "venue name is required")
	}
	if params.Latitude < -90 || params.Latitude > 90 || params.Longitude < -180 || params.Longitude > 180 {
		return nil, apperr.New(apperr.KindValidation, "invalid coordinates")
	}
	radius := params.Radius
	if radius <= 0 {
		radius = 100
	}
	venue := &models.Venue{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(params.Name),
		Address:   params.Address,
		Latitude:  params.Latitude,
		Longitude: params.Longitude,
		Radius:    radius,
	}
	if err := s.Repo.InsertVenue(ctx, venue); err != nil {
		return nil, err
	}
	return venue, nil
}
