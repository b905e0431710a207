package service

import (
	"context"
	"testing"

	"gorm.io/datatypes"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/apperr"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/models"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/quota"
)

func newTriviaService(repo *stubRepo) *TriviaService {
	return &TriviaService{
		Repo:                repo,
		Quota:               quota.NewTracker(repo, 10, 10),
		CorrectAnswerPoints: 10,
		QuestionLimit:       10,
	}
}

func sampleQuestion(id string) *models.TriviaQuestion {
	return &models.TriviaQuestion{
		ID:            id,
		Question:      "What is the capital of France?",
		Options:       datatypes.NewJSONSlice([]string{"Berlin", "Paris", "Madrid", "Rome"}),
		CorrectAnswer: 1,
	}
}

func TestAnswer_CorrectCreditsPoints(t *testing.T) {
	repo := newStubRepo()
	repo.users["u1"] = &models.User{ID: "u1"}
	repo.questions["q1"] = sampleQuestion("q1")
	svc := newTriviaService(repo)

	result, err := svc.Answer(context.Background(), AnswerParams{
		UserID: "u1", QuestionID: "q1", Answer: 1, TimeElapsed: 4,
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !result.Correct || result.PointsAwarded != 10 {
		t.Fatalf("result=%+v", result)
	}
	if repo.pointCredits["u1"] != 10 {
		t.Fatalf("credit=%d want 10", repo.pointCredits["u1"])
	}
	if len(repo.answers) != 1 || !repo.answers[0].IsCorrect {
		t.Fatalf("answers=%+v", repo.answers)
	}
}

func TestAnswer_WrongRevealsCorrectIndex(t *testing.T) {
	repo := newStubRepo()
	repo.users["u1"] = &models.User{ID: "u1"}
	repo.questions["q1"] = sampleQuestion("q1")
	svc := newTriviaService(repo)

	result, err := svc.Answer(context.Background(), AnswerParams{
		UserID: "u1", QuestionID: "q1", Answer: 0,
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if result.Correct || result.PointsAwarded != 0 {
		t.Fatalf("result=%+v", result)
	}
	if result.CorrectAnswer != 1 {
		t.Fatalf("correctAnswer=%d want 1", result.CorrectAnswer)
	}
	if repo.pointCredits["u1"] != 0 {
		t.Fatalf("no points expected, got %d", repo.pointCredits["u1"])
	}
}

func TestAnswer_IndexOutOfRange(t *testing.T) {
	repo := newStubRepo()
	repo.users["u1"] = &models.User{ID: "u1"}
	repo.questions["q1"] = sampleQuestion("q1")
	svc := newTriviaService(repo)

	_, err := svc.Answer(context.Background(), AnswerParams{
		UserID: "u1", QuestionID: "q1", Answer: 4,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err=%v want validation", err)
	}
	if len(repo.answers) != 0 {
		t.Fatalf("invalid answer must not be logged")
	}
}

func TestAnswer_QuotaExhausted(t *testing.T) {
	repo := newStubRepo()
	repo.users["u1"] = &models.User{ID: "u1"}
	repo.questions["q1"] = sampleQuestion("q1")
	svc := newTriviaService(repo)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := svc.Answer(ctx, AnswerParams{UserID: "u1", QuestionID: "q1", Answer: 1}); err != nil {
			t.Fatalf("answer %d err=%v", i, err)
		}
	}
	_, err := svc.Answer(ctx, AnswerParams{UserID: "u1", QuestionID: "q1", Answer: 1})
	if !apperr.Is(err, apperr.KindRateLimited) {
		t.Fatalf("err=%v want rate-limited", err)
	}
}

func TestCreateQuestion_Validation(t *testing.T) {
	svc := newTriviaService(newStubRepo())
	ctx := context.Background()

	cases := []QuestionParams{
		{Question: "", Options: []string{"a", "b"}},
		{Question: "q", Options: []string{"only one"}},
		{Question: "q", Options: []string{"a", ""}},
		{Question: "q", Options: []string{"a", "b"}, CorrectAnswer: 2},
		{Question: "q", Options: []string{"a", "b"}, CorrectAnswer: -1},
	}
	for i, params := range cases {
		if _, err := svc.CreateQuestion(ctx, params); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("case %d: err=%v want validation", i, err)
		}
	}
}
