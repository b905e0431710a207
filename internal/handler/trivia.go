package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AndrewSerulneck/Trivia-Predictions/internal/auth"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/repository"
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/service"
)

type TriviaHandler struct {
	Repo   repository.Repository
	Trivia *service.TriviaService
}

func (h *TriviaHandler) Register(r *gin.Engine) {
	group := r.Group("/api/trivia", auth.RequireUser(h.Repo))
	group.GET("/questions", h.questions)
	group.POST("/answers", h.answer)
}

func (h *TriviaHandler) questions(c *gin.Context) {
	questions, err := h.Trivia.Questions(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, questions, nil)
}

type answerRequest struct {
	QuestionID  string `json:"questionId"`
	Answer      *int   `json:"answer"`
	TimeElapsed int    `json:"timeElapsed"`
}

func (h *TriviaHandler) answer(c *gin.Context) {
	user := auth.UserFrom(c)
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Answer == nil {
		Error(c, http.StatusBadRequest, "questionId and answer are required", nil)
		return
	}
	result, err := h.Trivia.Answer(c.Request.Context(), service.AnswerParams{
		UserID:      user.ID,
		QuestionID:  req.QuestionID,
		Answer:      *req.Answer,
		TimeElapsed: req.TimeElapsed,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, result, nil)
}
