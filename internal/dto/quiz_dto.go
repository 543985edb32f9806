package dto

import (
	"time"

	"github.com/codequizhub/codequizhub/internal/model"
)

// QuizQuestionRefDTO references an existing question when composing a quiz.
// Weight defaults to the question's own points when omitted.
type QuizQuestionRefDTO struct {
	QuestionID uint     `json:"question_id" binding:"required"`
	Weight     *float64 `json:"weight,omitempty" binding:"omitempty,gt=0"`
}

type QuizComposeDTO struct {
	OrganizationID  uint                 `json:"organization_id" binding:"required"`
	CreatorUserID   *uint                `json:"creator_user_id,omitempty"`
	Title           string               `json:"title" binding:"required,min=1,max=150"`
	Description     string               `json:"description,omitempty"`
	DurationMinutes int                  `json:"duration_minutes" binding:"required"`
	Questions       []QuizQuestionRefDTO `json:"questions" binding:"required,dive"`
}

type QuizQuestionResponseDTO struct {
	QuestionID uint                `json:"question_id"`
	Position   int                 `json:"position"`
	Weight     float64             `json:"weight"`
	Question   QuestionResponseDTO `json:"question,omitempty"`
}

type QuizResponseDTO struct {
	ID              uint                      `json:"id"`
	OrganizationID  uint                      `json:"organization_id"`
	Title           string                    `json:"title"`
	Description     string                    `json:"description,omitempty"`
	Status          model.QuizStatus          `json:"status"`
	DurationMinutes int                       `json:"duration_minutes"`
	PublishedAt     *time.Time                `json:"published_at,omitempty"`
	QuizQuestions   []QuizQuestionResponseDTO `json:"quiz_questions,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
}

type QuizSummaryDTO struct {
	ID              uint             `json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description,omitempty"`
	Status          model.QuizStatus `json:"status"`
	DurationMinutes int              `json:"duration_minutes"`
	QuestionCount   int              `json:"question_count"`
	CreatedAt       time.Time        `json:"created_at"`
}
