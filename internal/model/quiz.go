package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Quiz is an ordered, weighted set of questions with a time limit.
// Archiving a quiz never invalidates attempts that reference it.
type Quiz struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	OrganizationID  uint           `json:"organization_id" gorm:"not null;index"`
	CreatorUserID   *uint          `json:"creator_user_id,omitempty" gorm:"index"`
	Title           string         `json:"title" gorm:"not null;index"`
	Description     string         `json:"description,omitempty"`
	Status          QuizStatus     `json:"status" gorm:"not null;index;default:'draft'"`
	DurationMinutes int            `json:"duration_minutes" gorm:"not null"`
	PublishedAt     *time.Time     `json:"published_at,omitempty"`
	QuizQuestions   []QuizQuestion `json:"quiz_questions,omitempty" gorm:"foreignKey:QuizID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// QuizQuestion links a quiz to a question with a position and a point weight.
type QuizQuestion struct {
	QuizID     uint     `json:"quiz_id" gorm:"primaryKey"`
	QuestionID uint     `json:"question_id" gorm:"primaryKey"`
	Position   int      `json:"position" gorm:"not null;default:0"`
	Weight     float64  `json:"weight" gorm:"not null;default:1"`
	Question   Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

// TotalWeight sums the point weights over all linked questions.
func (q *Quiz) TotalWeight() float64 {
	total := 0.0
	for _, qq := range q.QuizQuestions {
		total += qq.Weight
	}
	return total
}

func splitAnswers(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, "|") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
