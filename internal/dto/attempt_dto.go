package dto

import (
	"time"

	"github.com/codequizhub/codequizhub/internal/model"
)

type AttemptStartDTO struct {
	UserID uint `json:"user_id" binding:"required"`
}

// AnswerSubmitDTO carries one answer for one question. Which field matters
// depends on the question type: SelectedOptionIDs for MCQ, Code and Language
// for CODING, Text for the free-text types.
type AnswerSubmitDTO struct {
	QuestionID        uint   `json:"question_id" binding:"required"`
	SelectedOptionIDs []uint `json:"selected_option_ids,omitempty"`
	Text              string `json:"text,omitempty"`
	Code              string `json:"code,omitempty"`
	Language          string `json:"language,omitempty"`
}

type AttemptFinalizeDTO struct {
	UserID uint `json:"user_id" binding:"required"`
}

type ResponseDTO struct {
	QuestionID        uint       `json:"question_id"`
	SelectedOptionIDs []uint     `json:"selected_option_ids,omitempty"`
	AnswerText        string     `json:"answer_text,omitempty"`
	SubmittedCode     string     `json:"submitted_code,omitempty"`
	CodeLanguage      string     `json:"code_language,omitempty"`
	AwardedPoints     *float64   `json:"awarded_points,omitempty"`
	IsCorrect         *bool      `json:"is_correct,omitempty"`
	Feedback          string     `json:"feedback,omitempty"`
	GradedAt          *time.Time `json:"graded_at,omitempty"`
}

type AttemptResponseDTO struct {
	ID               uint                `json:"id"`
	QuizID           uint                `json:"quiz_id"`
	UserID           uint                `json:"user_id"`
	Status           model.AttemptStatus `json:"status"`
	StartTime        time.Time           `json:"start_time"`
	Deadline         time.Time           `json:"deadline"`
	SubmittedAt      *time.Time          `json:"submitted_at,omitempty"`
	Score            *float64            `json:"score,omitempty"`
	MaxScorePossible float64             `json:"max_score_possible"`
	Responses        []ResponseDTO       `json:"responses,omitempty"`
}
