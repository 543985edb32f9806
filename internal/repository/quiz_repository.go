package repository

import (
	"github.com/codequizhub/codequizhub/internal/model"
	"gorm.io/gorm"
)

type QuizRepository interface {
	// Create persists the quiz together with its question links.
	Create(quiz *model.Quiz) error
	FindByID(id uint) (*model.Quiz, error)
	// FindByIDWithQuestions eager loads the question links in position order,
	// each with its full question, options and test cases.
	FindByIDWithQuestions(id uint) (*model.Quiz, error)
	ListByOrganization(orgID uint) ([]model.Quiz, error)
	ListByOrganizationAndStatus(orgID uint, status model.QuizStatus) ([]model.Quiz, error)
	// UpdateStatusIf transitions the quiz status only from the expected one.
	UpdateStatusIf(quiz *model.Quiz, expected model.QuizStatus) (int64, error)
}

type quizRepository struct {
	db *gorm.DB
}

func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) Create(quiz *model.Quiz) error {
	return r.db.Create(quiz).Error
}

func (r *quizRepository) FindByID(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := r.db.First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepository) FindByIDWithQuestions(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.db.
		Preload("QuizQuestions", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("QuizQuestions.Question").
		Preload("QuizQuestions.Question.Options", func(db *gorm.DB) *gorm.DB { return db.Order("display_order asc") }).
		Preload("QuizQuestions.Question.TestCases").
		First(&quiz, id).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *quizRepository) ListByOrganization(orgID uint) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	if err := r.db.Where("organization_id = ?", orgID).Order("created_at desc").Find(&quizzes).Error; err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (r *quizRepository) ListByOrganizationAndStatus(orgID uint, status model.QuizStatus) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.db.Where("organization_id = ? AND status = ?", orgID, status).
		Order("created_at desc").Find(&quizzes).Error
	if err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (r *quizRepository) UpdateStatusIf(quiz *model.Quiz, expected model.QuizStatus) (int64, error) {
	res := r.db.Model(&model.Quiz{}).
		Where("id = ? AND status = ?", quiz.ID, expected).
		Updates(map[string]interface{}{
			"status":       quiz.Status,
			"published_at": quiz.PublishedAt,
		})
	return res.RowsAffected, res.Error
}
