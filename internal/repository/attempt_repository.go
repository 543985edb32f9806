package repository

import (
	"errors"

	"github.com/codequizhub/codequizhub/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAttemptInFlight is returned by CreateIfNoneInFlight when the student
// already has an unfinished attempt on the same quiz.
var ErrAttemptInFlight = errors.New("attempt already in flight")

type AttemptRepository interface {
	// CreateIfNoneInFlight inserts the attempt inside a transaction that
	// first checks for an existing IN_PROGRESS attempt by the same user on
	// the same quiz, holding a row lock so two concurrent starts cannot both
	// pass the check.
	CreateIfNoneInFlight(attempt *model.Attempt) error
	FindByID(id uint) (*model.Attempt, error)
	FindByIDWithResponses(id uint) (*model.Attempt, error)
	ListByQuizAndUser(quizID, userID uint) ([]model.Attempt, error)
	ListByQuiz(quizID uint) ([]model.Attempt, error)
	// TransitionStatus moves the attempt from expected to the status carried
	// on the model, also persisting submitted_at. RowsAffected tells the
	// caller whether it won the transition.
	TransitionStatus(attempt *model.Attempt, expected model.AttemptStatus) (int64, error)
	// UpsertResponse inserts or overwrites the response for the attempt and
	// question pair. Last write wins.
	UpsertResponse(resp *model.Response) error
	UpdateResponseGrades(responses []model.Response) error
	SetFinalScore(attemptID uint, score float64, status model.AttemptStatus) error
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) CreateIfNoneInFlight(attempt *model.Attempt) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&model.Attempt{}).
			Where("quiz_id = ? AND user_id = ? AND status = ?",
				attempt.QuizID, attempt.UserID, model.AttemptInProgress).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrAttemptInFlight
		}
		return tx.Create(attempt).Error
	})
}

func (r *attemptRepository) FindByID(id uint) (*model.Attempt, error) {
	var attempt model.Attempt
	if err := r.db.First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindByIDWithResponses(id uint) (*model.Attempt, error) {
	var attempt model.Attempt
	if err := r.db.Preload("Responses").First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) ListByQuizAndUser(quizID, userID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.db.Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Order("start_time desc").Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *attemptRepository) ListByQuiz(quizID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	if err := r.db.Where("quiz_id = ?", quizID).Order("start_time desc").Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *attemptRepository) TransitionStatus(attempt *model.Attempt, expected model.AttemptStatus) (int64, error) {
	res := r.db.Model(&model.Attempt{}).
		Where("id = ? AND status = ?", attempt.ID, expected).
		Updates(map[string]interface{}{
			"status":       attempt.Status,
			"submitted_at": attempt.SubmittedAt,
		})
	return res.RowsAffected, res.Error
}

func (r *attemptRepository) UpsertResponse(resp *model.Response) error {
	// The unique index on (attempt_id, question_id) arbitrates concurrent
	// submits; the database resolves the conflict, not a prior read.
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"answer_text", "submitted_code", "code_language", "selected_option_ids", "updated_at",
		}),
	}).Create(resp).Error
}

func (r *attemptRepository) UpdateResponseGrades(responses []model.Response) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := range responses {
			resp := &responses[i]
			err := tx.Model(&model.Response{}).Where("id = ?", resp.ID).
				Updates(map[string]interface{}{
					"awarded_points": resp.AwardedPoints,
					"is_correct":     resp.IsCorrect,
					"feedback":       resp.Feedback,
					"graded_at":      resp.GradedAt,
				}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *attemptRepository) SetFinalScore(attemptID uint, score float64, status model.AttemptStatus) error {
	return r.db.Model(&model.Attempt{}).Where("id = ?", attemptID).
		Updates(map[string]interface{}{
			"score":  score,
			"status": status,
		}).Error
}
