package dto

import (
	"time"

	"github.com/codequizhub/codequizhub/internal/model"
)

// QuestionOptionDTO is one MCQ choice in an authoring request.
type QuestionOptionDTO struct {
	OptionText   string `json:"option_text" binding:"required"`
	IsCorrect    bool   `json:"is_correct"`
	DisplayOrder int    `json:"display_order"`
}

// TestCaseDTO is one coding test case in an authoring request.
type TestCaseDTO struct {
	InputData      string `json:"input_data,omitempty"`
	ExpectedOutput string `json:"expected_output" binding:"required"`
	IsHidden       bool   `json:"is_hidden"`
	TimeLimitMs    *int   `json:"time_limit_ms,omitempty"`
}

// QuestionCreateDTO carries the type-specific payload for a new question:
// options for MCQ, test cases for coding, pipe-delimited acceptable answers
// for fill-in-blanks and short-answer.
type QuestionCreateDTO struct {
	OrganizationID    *uint               `json:"organization_id,omitempty"`
	CreatorUserID     *uint               `json:"creator_user_id,omitempty"`
	QuestionType      model.QuestionType  `json:"question_type" binding:"required,oneof=mcq coding fill_in_blanks short_answer"`
	QuestionText      string              `json:"question_text" binding:"required"`
	Points            float64             `json:"points" binding:"required,gt=0"`
	Difficulty        string              `json:"difficulty,omitempty"`
	IsPublic          bool                `json:"is_public"`
	CorrectAnswerText string              `json:"correct_answer_text,omitempty"`
	Explanation       string              `json:"explanation,omitempty"`
	Options           []QuestionOptionDTO `json:"options,omitempty" binding:"omitempty,dive"`
	TestCases         []TestCaseDTO       `json:"test_cases,omitempty" binding:"omitempty,dive"`
}

type QuestionOptionResponseDTO struct {
	ID           uint   `json:"id"`
	OptionText   string `json:"option_text"`
	DisplayOrder int    `json:"display_order"`
}

type QuestionResponseDTO struct {
	ID             uint                        `json:"id"`
	OrganizationID *uint                       `json:"organization_id,omitempty"`
	QuestionType   model.QuestionType          `json:"question_type"`
	QuestionText   string                      `json:"question_text"`
	Points         float64                     `json:"points"`
	Difficulty     string                      `json:"difficulty,omitempty"`
	IsPublic       bool                        `json:"is_public"`
	Explanation    string                      `json:"explanation,omitempty"`
	Options        []QuestionOptionResponseDTO `json:"options,omitempty"`
	CreatedAt      time.Time                   `json:"created_at"`
}
