package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/models"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- Users ------------------------------------------------------------------

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if s == nil || s.db == nil || strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if s == nil || s.db == nil || strings.TrimSpace(username) == "" {
		return nil, nil
	}
	var user models.User
	err := s.db.WithContext(ctx).Where("LOWER(username) = LOWER(?)", strings.TrimSpace(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) InsertUser(ctx context.Context, user *models.User) error {
	if s == nil || s.db == nil || user == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *Store) ListUsersByVenue(ctx context.Context, venueID string, limit int) ([]models.User, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.User{})
	if strings.TrimSpace(venueID) != "" {
		query = query.Where("venue_id = ?", strings.TrimSpace(venueID))
	}
	var users []models.User
	err := query.
		Order("points desc").
		Order("created_at asc").
		Limit(normalizeLimit(limit, 100)).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	if s == nil || s.db == nil {
		return nil, 0, nil
	}
	query := s.db.WithContext(ctx).Model(&models.User{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	err := query.
		Order("created_at desc").
		Limit(normalizeLimit(limit, 100)).
		Offset(normalizeOffset(offset)).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *Store) UpdateUserFields(ctx context.Context, params repository.UpdateUserParams) error {
	if s == nil || s.db == nil || strings.TrimSpace(params.UserID) == "" {
		return nil
	}
	updates := map[string]any{}
	if params.Username != nil {
		updates["username"] = strings.TrimSpace(*params.Username)
	}
	if params.VenueID != nil {
		updates["venue_id"] = *params.VenueID
	}
	if params.Points != nil {
		updates["points"] = *params.Points
	}
	if params.IsAdmin != nil {
		updates["is_admin"] = *params.IsAdmin
	}
	if len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", params.UserID).
		Updates(updates).Error
}

// AddUserPoints credits points atomically in the database, never via
// read-modify-write in Go.
func (s *Store) AddUserPoints(ctx context.Context, userID string, delta int) error {
	if s == nil || s.db == nil || strings.TrimSpace(userID) == "" || delta == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("points", gorm.Expr("points + ?", delta)).Error
}

func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	if s == nil || s.db == nil || strings.TrimSpace(userID) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Where("id = ?", userID).Delete(&models.User{}).Error
}

// --- Venues -----------------------------------------------------------------

func (s *Store) GetVenueByID(ctx context.Context, id string) (*models.Venue, error) {
	if s == nil || s.db == nil || strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var venue models.Venue
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&venue).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &venue, nil
}

func (s *Store) ListVenues(ctx context.Context) ([]models.Venue, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var venues []models.Venue
	if err := s.db.WithContext(ctx).Order("name asc").Find(&venues).Error; err != nil {
		return nil, err
	}
	return venues, nil
}

func (s *Store) InsertVenue(ctx context.Context, venue *models.Venue) error {
	if s == nil || s.db == nil || venue == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(venue).Error
}

// --- Picks ------------------------------------------------------------------

func (s *Store) InsertPick(ctx context.Context, params repository.InsertPickParams) (*models.Pick, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	pick := models.Pick{
		ID:           params.ID,
		UserID:       params.UserID,
		PredictionID: params.PredictionID,
		OutcomeID:    params.OutcomeID,
		OutcomeTitle: params.OutcomeTitle,
		Points:       params.Points,
		Status:       models.PickStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&pick).Error; err != nil {
		return nil, err
	}
	return &pick, nil
}

func (s *Store) HasPendingPick(ctx context.Context, userID, predictionID string) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Pick{}).
		Where("user_id = ?", userID).
		Where("prediction_id = ?", predictionID).
		Where("status = ?", models.PickStatusPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) ListPicksByUser(ctx context.Context, params repository.ListPicksParams) ([]models.Pick, int64, error) {
	if s == nil || s.db == nil {
		return nil, 0, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Pick{}).Where("user_id = ?", params.UserID)
	if strings.TrimSpace(params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(params.Status))
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var picks []models.Pick
	err := query.
		Order("created_at desc").
		Limit(normalizeLimit(params.Limit, 100)).
		Offset(normalizeOffset(params.Offset)).
		Find(&picks).Error
	if err != nil {
		return nil, 0, err
	}
	return picks, total, nil
}

// ListPickTimesSince returns pick creation times inside the quota window,
// oldest first, so the caller can locate the window-opening event.
func (s *Store) ListPickTimesSince(ctx context.Context, userID string, since time.Time, limit int) ([]time.Time, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var times []time.Time
	err := s.db.WithContext(ctx).
		Model(&models.Pick{}).
		Where("user_id = ?", userID).
		Where("created_at >= ?", since).
		Order("created_at asc").
		Limit(normalizeLimit(limit, 100)).
		Pluck("created_at", &times).Error
	if err != nil {
		return nil, err
	}
	return times, nil
}

func (s *Store) ListPendingPicksByPrediction(ctx context.Context, predictionID string) ([]models.Pick, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var picks []models.Pick
	err := s.db.WithContext(ctx).
		Where("prediction_id = ?", predictionID).
		Where("status = ?", models.PickStatusPending).
		Order("created_at asc").
		Find(&picks).Error
	if err != nil {
		return nil, err
	}
	return picks, nil
}

func (s *Store) ListPendingPredictionIDs(ctx context.Context, limit int) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.Pick{}).
		Where("status = ?", models.PickStatusPending).
		Distinct().
		Limit(normalizeLimit(limit, 1000)).
		Pluck("prediction_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) UpdatePickStatus(ctx context.Context, params repository.UpdatePickStatusParams) error {
	if s == nil || s.db == nil || strings.TrimSpace(params.PickID) == "" {
		return nil
	}
	resolvedAt := params.ResolvedAt
	if resolvedAt.IsZero() {
		resolvedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).
		Model(&models.Pick{}).
		Where("id = ?", params.PickID).
		Updates(map[string]any{
			"status":      params.Status,
			"resolved_at": resolvedAt,
		}).Error
}

func (s *Store) CallSettleProcedure(ctx context.Context, predictionID, winningOutcomeID string, settleAsCanceled bool) (repository.SettleCounts, error) {
	if s == nil || s.db == nil {
		return repository.SettleCounts{}, nil
	}
	var row struct {
		AffectedPicks int
		Winners       int
		Losers        int
		Canceled      int
	}
	err := s.db.WithContext(ctx).
		Raw("SELECT * FROM settle_prediction_market(?, ?, ?)", predictionID, winningOutcomeID, settleAsCanceled).
		Scan(&row).Error
	if err != nil {
		return repository.SettleCounts{}, err
	}
	return repository.SettleCounts{
		AffectedPicks: row.AffectedPicks,
		Winners:       row.Winners,
		Losers:        row.Losers,
		Canceled:      row.Canceled,
	}, nil
}

// --- Trivia -----------------------------------------------------------------

func (s *Store) GetTriviaQuestion(ctx context.Context, id string) (*models.TriviaQuestion, error) {
	if s == nil || s.db == nil || strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var question models.TriviaQuestion
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&question).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (s *Store) ListTriviaQuestions(ctx context.Context, limit int) ([]models.TriviaQuestion, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var questions []models.TriviaQuestion
	err := s.db.WithContext(ctx).
		Order("RANDOM()").
		Limit(normalizeLimit(limit, 10)).
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (s *Store) InsertTriviaQuestion(ctx context.Context, q *models.TriviaQuestion) error {
	if s == nil || s.db == nil || q == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(q).Error
}

func (s *Store) UpdateTriviaQuestion(ctx context.Context, q *models.TriviaQuestion) error {
	if s == nil || s.db == nil || q == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.TriviaQuestion{}).
		Where("id = ?", q.ID).
		Updates(map[string]any{
			"question":       q.Question,
			"options":        q.Options,
			"correct_answer": q.CorrectAnswer,
			"category":       q.Category,
			"difficulty":     q.Difficulty,
		}).Error
}

func (s *Store) DeleteTriviaQuestion(ctx context.Context, id string) error {
	if s == nil || s.db == nil || strings.TrimSpace(id) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.TriviaQuestion{}).Error
}

func (s *Store) InsertTriviaAnswer(ctx context.Context, params repository.InsertTriviaAnswerParams) error {
	if s == nil || s.db == nil {
		return nil
	}
	answer := models.TriviaAnswer{
		UserID:      params.UserID,
		QuestionID:  params.QuestionID,
		Answer:      params.Answer,
		IsCorrect:   params.IsCorrect,
		TimeElapsed: params.TimeElapsed,
	}
	return s.db.WithContext(ctx).Create(&answer).Error
}

func (s *Store) ListTriviaAnswerTimesSince(ctx context.Context, userID string, since time.Time, limit int) ([]time.Time, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var times []time.Time
	err := s.db.WithContext(ctx).
		Model(&models.TriviaAnswer{}).
		Where("user_id = ?", userID).
		Where("created_at >= ?", since).
		Order("created_at asc").
		Limit(normalizeLimit(limit, 100)).
		Pluck("created_at", &times).Error
	if err != nil {
		return nil, err
	}
	return times, nil
}

// --- Notifications ----------------------------------------------------------

func (s *Store) InsertNotifications(ctx context.Context, notifications []models.Notification) error {
	if s == nil || s.db == nil || len(notifications) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).CreateInBatches(notifications, 200).Error
}

func (s *Store) ListNotifications(ctx context.Context, params repository.ListNotificationsParams) ([]models.Notification, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ?", params.UserID)
	if params.UnreadOnly {
		query = query.Where("read = ?", false)
	}
	var items []models.Notification
	err := query.
		Order("created_at desc").
		Limit(normalizeLimit(params.Limit, 50)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountUnreadNotifications(ctx context.Context, userID string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Where("read = ?", false).
		Count(&count).Error
	return count, err
}

// MarkNotificationsRead marks the given ids, or every unread notification when
// ids is empty. It only ever touches the caller's own rows.
func (s *Store) MarkNotificationsRead(ctx context.Context, userID string, ids []string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Where("read = ?", false)
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	res := query.Update("read", true)
	return res.RowsAffected, res.Error
}

// --- Advertisements ---------------------------------------------------------

func (s *Store) GetAdByID(ctx context.Context, id string) (*models.Advertisement, error) {
	if s == nil || s.db == nil || strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var ad models.Advertisement
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&ad).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ad, nil
}

// GetActiveAd prefers a venue-scoped creative and falls back to a global one.
func (s *Store) GetActiveAd(ctx context.Context, slot string, venueID *string, now time.Time) (*models.Advertisement, error) {
	if s == nil || s.db == nil || strings.TrimSpace(slot) == "" {
		return nil, nil
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	base := func() *gorm.DB {
		return s.db.WithContext(ctx).
			Model(&models.Advertisement{}).
			Where("slot = ?", strings.TrimSpace(slot)).
			Where("active = ?", true).
			Where("start_date <= ?", now).
			Where("end_date IS NULL OR end_date >= ?", now)
	}

	var ad models.Advertisement
	if venueID != nil && strings.TrimSpace(*venueID) != "" {
		err := base().
			Where("venue_id = ?", strings.TrimSpace(*venueID)).
			Order("created_at desc").
			First(&ad).Error
		if err == nil {
			return &ad, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	err := base().
		Where("venue_id IS NULL").
		Order("created_at desc").
		First(&ad).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ad, nil
}

func (s *Store) ListAds(ctx context.Context, includeInactive bool) ([]models.Advertisement, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Advertisement{})
	if !includeInactive {
		query = query.Where("active = ?", true)
	}
	var ads []models.Advertisement
	if err := query.Order("created_at desc").Find(&ads).Error; err != nil {
		return nil, err
	}
	return ads, nil
}

func (s *Store) InsertAd(ctx context.Context, ad *models.Advertisement) error {
	if s == nil || s.db == nil || ad == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(ad).Error
}

func (s *Store) UpdateAd(ctx context.Context, params repository.UpdateAdParams) error {
	if s == nil || s.db == nil || strings.TrimSpace(params.AdID) == "" {
		return nil
	}
	updates := map[string]any{}
	if params.Slot != nil {
		updates["slot"] = strings.TrimSpace(*params.Slot)
	}
	if params.VenueID != nil {
		if strings.TrimSpace(*params.VenueID) == "" {
			updates["venue_id"] = nil
		} else {
			updates["venue_id"] = strings.TrimSpace(*params.VenueID)
		}
	}
	if params.AdvertiserName != nil {
		updates["advertiser_name"] = strings.TrimSpace(*params.AdvertiserName)
	}
	if params.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*params.ImageURL)
	}
	if params.ClickURL != nil {
		updates["click_url"] = strings.TrimSpace(*params.ClickURL)
	}
	if params.AltText != nil {
		updates["alt_text"] = strings.TrimSpace(*params.AltText)
	}
	if params.Width != nil {
		updates["width"] = *params.Width
	}
	if params.Height != nil {
		updates["height"] = *params.Height
	}
	if params.Active != nil {
		updates["active"] = *params.Active
	}
	if params.StartDate != nil {
		updates["start_date"] = *params.StartDate
	}
	if params.EndDate != nil {
		updates["end_date"] = *params.EndDate
	}
	if len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Advertisement{}).
		Where("id = ?", params.AdID).
		Updates(updates).Error
}

func (s *Store) DeleteAd(ctx context.Context, id string) error {
	if s == nil || s.db == nil || strings.TrimSpace(id) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Advertisement{}).Error
}

func (s *Store) InsertAdEvent(ctx context.Context, adID, eventType string) error {
	if s == nil || s.db == nil || strings.TrimSpace(adID) == "" {
		return nil
	}
	event := models.AdEvent{AdID: adID, EventType: eventType}
	return s.db.WithContext(ctx).Create(&event).Error
}

func (s *Store) IncrementAdCounter(ctx context.Context, adID, eventType string) error {
	if s == nil || s.db == nil || strings.TrimSpace(adID) == "" {
		return nil
	}
	column := "impressions"
	if eventType == models.AdEventClick {
		column = "clicks"
	}
	return s.db.WithContext(ctx).
		Model(&models.Advertisement{}).
		Where("id = ?", adID).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
}

func (s *Store) CountAdEventsSince(ctx context.Context, adID, eventType string, since time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.AdEvent{}).
		Where("ad_id = ?", adID).
		Where("event_type = ?", eventType).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

// --- System settings --------------------------------------------------------

func (s *Store) GetSystemSetting(ctx context.Context, key string) (*models.SystemSetting, error) {
	if s == nil || s.db == nil || strings.TrimSpace(key) == "" {
		return nil, nil
	}
	var setting models.SystemSetting
	err := s.db.WithContext(ctx).Where("key = ?", strings.TrimSpace(key)).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (s *Store) UpsertSystemSetting(ctx context.Context, setting *models.SystemSetting) error {
	if s == nil || s.db == nil || setting == nil {
		return nil
	}
	key := strings.TrimSpace(setting.Key)
	if key == "" {
		return nil
	}
	existing, err := s.GetSystemSetting(ctx, key)
	if err != nil {
		return err
	}
	if existing == nil {
		return s.db.WithContext(ctx).Create(setting).Error
	}
	return s.db.WithContext(ctx).
		Model(&models.SystemSetting{}).
		Where("key = ?", key).
		Updates(map[string]any{
			"value":       setting.Value,
			"description": setting.Description,
		}).Error
}

func (s *Store) ListSystemSettings(ctx context.Context) ([]models.SystemSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var settings []models.SystemSetting
	if err := s.db.WithContext(ctx).Order("key asc").Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
