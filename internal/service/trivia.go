package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/apperr"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/models"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/quota"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/repository"
)

type TriviaService struct {
	Repo   repository.Repository
	Quota  *quota.Tracker
	Logger *zap.Logger

	// CorrectAnswerPoints is credited atomically on a correct answer.
	CorrectAnswerPoints int
	QuestionLimit       int
}

// Question is the player-facing question shape; the correct index never
// leaves the server before the answer is submitted.
type Question struct {
	ID         string   `json:"id"`
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	Category   *string  `json:"category,omitempty"`
	Difficulty *string  `json:"difficulty,omitempty"`
}

func (s *TriviaService) Questions(ctx context.Context) ([]Question, error) {
	limit := s.QuestionLimit
	if limit <= 0 {
		limit = 10
	}
	items, err := s.Repo.ListTriviaQuestions(ctx, limit)
	if err != nil {
		return nil, err
	}
	questions := make([]Question, 0, len(items))
	for i := range items {
		questions = append(questions, Question{
			ID:         items[i].ID,
			Question:   items[i].Question,
			Options:    items[i].Options,
			Category:   items[i].Category,
			Difficulty: items[i].Difficulty,
		})
	}
	return questions, nil
}

type AnswerParams struct {
	UserID      string
	QuestionID  string
	Answer      int
	TimeElapsed int
}

type AnswerResult struct {
	Correct       bool        `json:"correct"`
	CorrectAnswer int         `json:"correctAnswer"`
	PointsAwarded int         `json:"pointsAwarded"`
	Quota         quota.Quota `json:"quota"`
}

// Answer grades one submission, logs it, and credits points on a correct
// answer. The answer log is what the trivia quota window is computed from.
func (s *TriviaService) Answer(ctx context.Context, params AnswerParams) (AnswerResult, error) {
	userID := strings.TrimSpace(params.UserID)
	questionID := strings.TrimSpace(params.QuestionID)
	if userID == "" || questionID == "" {
		return AnswerResult{}, apperr.New(apperr.KindValidation, "userId and questionId are required")
	}

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return AnswerResult{}, err
	}
	if user == nil {
		return AnswerResult{}, apperr.New(apperr.KindNotFound, "user not found")
	}

	q, allowed, err := s.Quota.Allow(ctx, userID, quota.KindTrivia)
	if err != nil {
		return AnswerResult{}, err
	}
	if !allowed {
		return AnswerResult{}, rateLimitError("trivia", q)
	}

	question, err := s.Repo.GetTriviaQuestion(ctx, questionID)
	if err != nil {
		return AnswerResult{}, err
	}
	if question == nil {
		return AnswerResult{}, apperr.New(apperr.KindNotFound, "question not found")
	}
	if params.Answer < 0 || params.Answer >= len(question.Options) {
		return AnswerResult{}, apperr.New(apperr.KindValidation, "answer index out of range")
	}

	correct := params.Answer == question.CorrectAnswer
	err = s.Repo.InsertTriviaAnswer(ctx, repository.InsertTriviaAnswerParams{
		UserID:      userID,
		QuestionID:  questionID,
		Answer:      params.Answer,
		IsCorrect:   correct,
		TimeElapsed: params.TimeElapsed,
	})
	if err != nil {
		return AnswerResult{}, err
	}

	awarded := 0
	if correct {
		awarded = s.CorrectAnswerPoints
		if awarded <= 0 {
			awarded = 10
		}
		if err := s.Repo.AddUserPoints(ctx, userID, awarded); err != nil {
			return AnswerResult{}, err
		}
	}

	if s.Logger != nil {
		s.Logger.Info("trivia answered",
			zap.String("user_id", userID),
			zap.String("question_id", questionID),
			zap.Bool("correct", correct))
	}

	after, err := s.Quota.Get(ctx, userID, quota.KindTrivia)
	if err != nil {
		after = q
	}
	return AnswerResult{
		Correct:       correct,
		CorrectAnswer: question.CorrectAnswer,
		PointsAwarded: awarded,
		Quota:         after,
	}, nil
}

type QuestionParams struct {
	Question      string
	Options       []string
	CorrectAnswer int
	Category      *string
	Difficulty    *string
}

func validateQuestion(params QuestionParams) error {
	if strings.TrimSpace(params.Question) == "" {
		return apperr.New(apperr.KindValidation, "question text is required")
	}
	if len(params.Options) < 2 {
		return apperr.New(apperr.KindValidation, "at least two options are required")
	}
	for _, opt := range params.Options {
		if strings.TrimSpace(opt) == "" {
			return apperr.New(apperr.KindValidation, "options must not be empty")
		}
	}
	if params.CorrectAnswer < 0 || params.CorrectAnswer >= len(params.Options) {
		return apperr.New(apperr.KindValidation, "correctAnswer index out of range")
	}
	return nil
}

func (s *TriviaService) CreateQuestion(ctx context.Context, params QuestionParams) (*models.TriviaQuestion, error) {
	if err := validateQuestion(params); err != nil {
		return nil, err
	}
	question := &models.TriviaQuestion{
		ID:            uuid.NewString(),
		Question:      strings.TrimSpace(params.Question),
		Options:       datatypes.NewJSONSlice(params.Options),
		CorrectAnswer: params.CorrectAnswer,
		Category:      params.Category,
		Difficulty:    params.Difficulty,
	}
	if err := s.Repo.InsertTriviaQuestion(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *TriviaService) UpdateQuestion(ctx context.Context, id string, params QuestionParams) (*models.TriviaQuestion, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.New(apperr.KindValidation, "question id is required")
	}
	if err := validateQuestion(params); err != nil {
		return nil, err
	}
	existing, err := s.Repo.GetTriviaQuestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperr.New(apperr.KindNotFound, "question not found")
	}
	existing.Question = strings.TrimSpace(params.Question)
	existing.Options = datatypes.NewJSONSlice(params.Options)
	existing.CorrectAnswer = params.CorrectAnswer
	existing.Category = params.Category
	existing.Difficulty = params.Difficulty
	if err := s.Repo.UpdateTriviaQuestion(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *TriviaService) DeleteQuestion(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperr.New(apperr.KindValidation, "question id is required")
	}
	existing, err := s.Repo.GetTriviaQuestion(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperr.New(apperr.KindNotFound, "question not found")
	}
	return s.Repo.DeleteTriviaQuestion(ctx, id)
}

// AllQuestions is the admin view and includes correct answers.
func (s *TriviaService) AllQuestions(ctx context.Context, limit int) ([]models.TriviaQuestion, error) {
	if limit <= 0 {
		limit = 500
	}
	return s.Repo.ListTriviaQuestions(ctx, limit)
}
