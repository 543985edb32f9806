package model

import (
	"time"

	"gorm.io/gorm"
)

// Attempt is one student's timed run through a quiz. Deadline crossings are
// evaluated lazily on access; Score is set only once every response of a
// terminal attempt has been graded.
type Attempt struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	QuizID           uint           `json:"quiz_id" gorm:"not null;index"`
	Quiz             Quiz           `json:"quiz,omitempty" gorm:"foreignKey:QuizID"`
	UserID           uint           `json:"user_id" gorm:"not null;index"`
	Status           AttemptStatus  `json:"status" gorm:"not null;index;default:'in_progress'"`
	StartTime        time.Time      `json:"start_time" gorm:"not null"`
	Deadline         time.Time      `json:"deadline" gorm:"not null;index"`
	SubmittedAt      *time.Time     `json:"submitted_at,omitempty"`
	Score            *float64       `json:"score,omitempty"` // normalized percentage 0-100
	MaxScorePossible float64        `json:"max_score_possible"`
	Responses        []Response     `json:"responses,omitempty" gorm:"foreignKey:AttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// DeadlinePassed reports whether the attempt's time limit has elapsed.
func (a *Attempt) DeadlinePassed(now time.Time) bool {
	return now.After(a.Deadline)
}

// Response is a student's answer to one question within an attempt. The answer
// shape follows the question type; at most one response exists per question
// and resubmission before the deadline overwrites it.
type Response struct {
	ID                uint           `gorm:"primarykey" json:"id"`
	AttemptID         uint           `json:"attempt_id" gorm:"not null;index:idx_response_attempt_question,unique"`
	QuestionID        uint           `json:"question_id" gorm:"not null;index:idx_response_attempt_question,unique"`
	SelectedOptionIDs string         `json:"selected_option_ids,omitempty" gorm:"type:text"` // JSON array, MCQ only
	AnswerText        string         `json:"answer_text,omitempty" gorm:"type:text"`
	SubmittedCode     string         `json:"submitted_code,omitempty" gorm:"type:text"`
	CodeLanguage      string         `json:"code_language,omitempty"`
	AwardedPoints     *float64       `json:"awarded_points,omitempty"`
	IsCorrect         *bool          `json:"is_correct,omitempty"`
	Feedback          string         `json:"feedback,omitempty" gorm:"type:text"`
	GradedAt          *time.Time     `json:"graded_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}
