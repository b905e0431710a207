package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/apperr"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/models"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/repository"
)

type AdService struct {
	Repo   repository.Repository
	Logger *zap.Logger
}

// Serve picks the creative for a slot, preferring venue-scoped ads, and
// records the impression. Metrics failures never block ad delivery.
func (s *AdService) Serve(ctx context.Context, slot string, venueID *string) (*models.Advertisement, error) {
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return nil, apperr.New(apperr.KindValidation, "slot is required")
	}
	ad, err := s.Repo.GetActiveAd(ctx, slot, venueID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if ad == nil {
		return nil, nil
	}
	s.recordEvent(ctx, ad.ID, models.AdEventImpression)
	return ad, nil
}

// Click resolves the redirect target and records the click.
func (s *AdService) Click(ctx context.Context, adID string) (string, error) {
	adID = strings.TrimSpace(adID)
	if adID == "" {
		return "", apperr.New(apperr.KindValidation, "ad id is required")
	}
	ad, err := s.Repo.GetAdByID(ctx, adID)
	if err != nil {
		return "", err
	}
	if ad == nil {
		return "", apperr.New(apperr.KindNotFound, "ad not found")
	}
	s.recordEvent(ctx, ad.ID, models.AdEventClick)
	return ad.ClickURL, nil
}

func (s *AdService) recordEvent(ctx context.Context, adID, eventType string) {
	if err := s.Repo.InsertAdEvent(ctx, adID, eventType); err != nil && s.Logger != nil {
		s.Logger.Warn("failed to record ad event",
			zap.String("ad_id", adID), zap.String("event", eventType), zap.Error(err))
	}
	if err := s.Repo.IncrementAdCounter(ctx, adID, eventType); err != nil && s.Logger != nil {
		s.Logger.Warn("failed to bump ad counter",
			zap.String("ad_id", adID), zap.String("event", eventType), zap.Error(err))
	}
}

type AdParams struct {
	Slot           string
	VenueID        *string
	AdvertiserName string
	ImageURL       string
	ClickURL       string
	AltText        string
	Width          int
	Height         int
	Active         *bool
	StartDate      *time.Time
	EndDate        *time.Time
}

func (s *AdService) Create(ctx context.Context, params AdParams) (*models.Advertisement, error) {
	if strings.TrimSpace(params.Slot) == "" {
		return nil, apperr.New(apperr.KindValidation, "slot is required")
	}
	if strings.TrimSpace(params.ImageURL) == "" || strings.TrimSpace(params.ClickURL) == "" {
		return nil, apperr.New(apperr.KindValidation, "imageUrl and clickUrl are required")
	}
	if params.Width <= 0 || params.Height <= 0 {
		return nil, apperr.New(apperr.KindValidation, "width and height must be positive")
	}

	start := time.Now().UTC()
	if params.StartDate != nil {
		start = params.StartDate.UTC()
	}
	active := true
	if params.Active != nil {
		active = *params.Active
	}
	ad := &models.Advertisement{
		ID:             uuid.NewString(),
		Slot:           strings.TrimSpace(params.Slot),
		VenueID:        params.VenueID,
		AdvertiserName: strings.TrimSpace(params.AdvertiserName),
		ImageURL:       strings.TrimSpace(params.ImageURL),
		ClickURL:       strings.TrimSpace(params.ClickURL),
		AltText:        strings.TrimSpace(params.AltText),
		Width:          params.Width,
		Height:         params.Height,
		Active:         active,
		StartDate:      start,
		EndDate:        params.EndDate,
	}
	if err := s.Repo.InsertAd(ctx, ad); err != nil {
		return nil, err
	}
	return ad, nil
}

func (s *AdService) Update(ctx context.Context, params repository.UpdateAdParams) (*models.Advertisement, error) {
	existing, err := s.Repo.GetAdByID(ctx, params.AdID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperr.New(apperr.KindNotFound, "ad not found")
	}
	if err := s.Repo.UpdateAd(ctx, params); err != nil {
		return nil, err
	}
	return s.Repo.GetAdByID(ctx, params.AdID)
}

func (s *AdService) Delete(ctx context.Context, id string) error {
	existing, err := s.Repo.GetAdByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperr.New(apperr.KindNotFound, "ad not found")
	}
	return s.Repo.DeleteAd(ctx, id)
}

func (s *AdService) List(ctx context.Context, includeInactive bool) ([]models.Advertisement, error) {
	return s.Repo.ListAds(ctx, includeInactive)
}

type AdSnapshot struct {
	Ad               models.Advertisement `json:"ad"`
	Impressions24h   int64                `json:"impressions24h"`
	Clicks24h        int64                `json:"clicks24h"`
	LifetimeImprints int64                `json:"lifetimeImpressions"`
	LifetimeClicks   int64                `json:"lifetimeClicks"`
}

// Snapshot reports lifetime counters next to a 24h window per creative, for
// the admin debug view.
func (s *AdService) Snapshot(ctx context.Context) ([]AdSnapshot, error) {
	ads, err := s.Repo.ListAds(ctx, true)
	if err != nil {
		return nil, err
	}
	since := time.Now().UTC().Add(-24 * time.Hour)
	out := make([]AdSnapshot, 0, len(ads))
	for i := range ads {
		impressions, err := s.Repo.CountAdEventsSince(ctx, ads[i].ID, models.AdEventImpression, since)
		if err != nil {
			return nil, err
		}
		clicks, err := s.Repo.CountAdEventsSince(ctx, ads[i].ID, models.AdEventClick, since)
		if err != nil {
			return nil, err
		}
		out = append(out, AdSnapshot{
			Ad:               ads[i],
			Impressions24h:   impressions,
			Clicks24h:        clicks,
			LifetimeImprints: ads[i].Impressions,
			LifetimeClicks:   ads[i].Clicks,
		})
	}
	return out, nil
}
