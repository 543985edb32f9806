package model

import (
	"time"

	"gorm.io/gorm"
)

// Question carries grading data specific to its type: MCQ questions own
// Options, coding questions own TestCases, and fill-in-blanks/short-answer
// questions store pipe-delimited acceptable answers in CorrectAnswerText.
type Question struct {
	ID                uint           `gorm:"primarykey" json:"id"`
	OrganizationID    *uint          `json:"organization_id,omitempty" gorm:"index"` // nil when globally public
	CreatorUserID     *uint          `json:"creator_user_id,omitempty" gorm:"index"`
	QuestionType      QuestionType   `json:"question_type" gorm:"not null;index"`
	QuestionText      string         `json:"question_text" gorm:"type:text;not null"`
	Points            float64        `json:"points" gorm:"not null;default:1"`
	Difficulty        string         `json:"difficulty,omitempty" gorm:"index"` // easy, medium, hard
	IsPublic          bool           `json:"is_public" gorm:"not null;index;default:false"`
	CorrectAnswerText string         `json:"-" gorm:"type:text"` // acceptable answers, pipe-delimited
	Explanation       string         `json:"explanation,omitempty" gorm:"type:text"`
	Options           []QuestionOption `json:"options,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
	TestCases         []TestCase     `json:"test_cases,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// QuestionOption is a single MCQ choice.
type QuestionOption struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	QuestionID   uint   `json:"question_id" gorm:"not null;index"`
	OptionText   string `json:"option_text" gorm:"type:text;not null"`
	IsCorrect    bool   `json:"-" gorm:"not null;index;default:false"`
	DisplayOrder int    `json:"display_order" gorm:"not null;default:0"`
}

// TestCase is one input/expected-output pair for a coding question.
type TestCase struct {
	ID             uint   `gorm:"primarykey" json:"id"`
	QuestionID     uint   `json:"question_id" gorm:"not null;index"`
	InputData      string `json:"input_data,omitempty" gorm:"type:text"`
	ExpectedOutput string `json:"-" gorm:"type:text;not null"`
	IsHidden       bool   `json:"is_hidden" gorm:"not null;default:false"`
	TimeLimitMs    *int   `json:"time_limit_ms,omitempty"`
}

// AcceptableAnswers splits CorrectAnswerText on '|' for text-match grading.
func (q *Question) AcceptableAnswers() []string {
	return splitAnswers(q.CorrectAnswerText)
}
