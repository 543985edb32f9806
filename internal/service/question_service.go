package service

import (
	"errors"
	"fmt"

	"github.com/codequizhub/codequizhub/internal/dto"
	"github.com/codequizhub/codequizhub/internal/model"
	"github.com/codequizhub/codequizhub/internal/repository"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// QuestionService manages the question bank. Creation validates the
// type-specific payload so every stored question is gradeable.
type QuestionService interface {
	AddQuestion(req dto.QuestionCreateDTO) (*dto.QuestionResponseDTO, error)
	GetQuestion(id uint) (*dto.QuestionResponseDTO, error)
	ListOrganizationQuestions(orgID uint) ([]dto.QuestionResponseDTO, error)
	ListPublicQuestions() ([]dto.QuestionResponseDTO, error)
	// DeleteQuestion soft deletes; quizzes already referencing the question
	// keep grading against the stored copy.
	DeleteQuestion(id uint) error
}

type questionService struct {
	questionRepo repository.QuestionRepository
}

func NewQuestionService(questionRepo repository.QuestionRepository) QuestionService {
	return &questionService{questionRepo: questionRepo}
}

func (s *questionService) AddQuestion(req dto.QuestionCreateDTO) (*dto.QuestionResponseDTO, error) {
	if req.Points <= 0 {
		return nil, fmt.Errorf("points must be positive: %w", ErrInvalidQuestionPayload)
	}

	question := model.Question{
		OrganizationID:    req.OrganizationID,
		CreatorUserID:     req.CreatorUserID,
		QuestionType:      req.QuestionType,
		QuestionText:      req.QuestionText,
		Points:            req.Points,
		Difficulty:        req.Difficulty,
		IsPublic:          req.IsPublic,
		CorrectAnswerText: req.CorrectAnswerText,
		Explanation:       req.Explanation,
	}

	switch req.QuestionType {
	case model.QuestionMCQ:
		if len(req.Options) < 2 {
			return nil, fmt.Errorf("mcq question needs at least two options: %w", ErrInvalidQuestionPayload)
		}
		correct := 0
		for i, opt := range req.Options {
			if opt.IsCorrect {
				correct++
			}
			order := opt.DisplayOrder
			if order == 0 {
				order = i + 1
			}
			question.Options = append(question.Options, model.QuestionOption{
				OptionText:   opt.OptionText,
				IsCorrect:    opt.IsCorrect,
				DisplayOrder: order,
			})
		}
		if correct == 0 {
			return nil, fmt.Errorf("mcq question needs at least one correct option: %w", ErrInvalidQuestionPayload)
		}
	case model.QuestionCoding:
		if len(req.TestCases) == 0 {
			return nil, fmt.Errorf("coding question needs at least one test case: %w", ErrInvalidQuestionPayload)
		}
		for _, tc := range req.TestCases {
			if tc.TimeLimitMs != nil && *tc.TimeLimitMs <= 0 {
				return nil, fmt.Errorf("test case time limit must be positive: %w", ErrInvalidQuestionPayload)
			}
			question.TestCases = append(question.TestCases, model.TestCase{
				InputData:      tc.InputData,
				ExpectedOutput: tc.ExpectedOutput,
				IsHidden:       tc.IsHidden,
				TimeLimitMs:    tc.TimeLimitMs,
			})
		}
	case model.QuestionFillInBlanks, model.QuestionShortAnswer:
		if len(question.AcceptableAnswers()) == 0 {
			return nil, fmt.Errorf("%s question needs at least one acceptable answer: %w", req.QuestionType, ErrInvalidQuestionPayload)
		}
	default:
		return nil, fmt.Errorf("unknown question type %q: %w", req.QuestionType, ErrInvalidQuestionPayload)
	}

	if err := s.questionRepo.Create(&question); err != nil {
		log.Error().Err(err).Str("type", string(req.QuestionType)).Msg("AddQuestion: failed to create question")
		return nil, fmt.Errorf("creating question: %w", err)
	}
	log.Info().Uint("questionID", question.ID).Str("type", string(question.QuestionType)).Msg("Question created")

	return s.toDTO(&question)
}

func (s *questionService) GetQuestion(id uint) (*dto.QuestionResponseDTO, error) {
	question, err := s.questionRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("question %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("loading question %d: %w", id, err)
	}
	return s.toDTO(question)
}

func (s *questionService) ListOrganizationQuestions(orgID uint) ([]dto.QuestionResponseDTO, error) {
	questions, err := s.questionRepo.ListByOrganization(orgID)
	if err != nil {
		return nil, fmt.Errorf("listing questions for organization %d: %w", orgID, err)
	}
	return s.toDTOs(questions)
}

func (s *questionService) ListPublicQuestions() ([]dto.QuestionResponseDTO, error) {
	questions, err := s.questionRepo.ListPublic()
	if err != nil {
		return nil, fmt.Errorf("listing public questions: %w", err)
	}
	return s.toDTOs(questions)
}

func (s *questionService) DeleteQuestion(id uint) error {
	if _, err := s.questionRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("question %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("loading question %d: %w", id, err)
	}
	if err := s.questionRepo.Delete(id); err != nil {
		log.Error().Err(err).Uint("questionID", id).Msg("DeleteQuestion: failed to delete question")
		return fmt.Errorf("deleting question %d: %w", id, err)
	}
	log.Info().Uint("questionID", id).Msg("Question deleted")
	return nil
}

// toDTO strips the grading data: option correctness, expected outputs and
// acceptable answers never leave the service layer.
func (s *questionService) toDTO(q *model.Question) (*dto.QuestionResponseDTO, error) {
	var resp dto.QuestionResponseDTO
	if err := copier.Copy(&resp, q); err != nil {
		return nil, fmt.Errorf("preparing question response: %w", err)
	}
	resp.Options = make([]dto.QuestionOptionResponseDTO, 0, len(q.Options))
	for _, opt := range q.Options {
		resp.Options = append(resp.Options, dto.QuestionOptionResponseDTO{
			ID:           opt.ID,
			OptionText:   opt.OptionText,
			DisplayOrder: opt.DisplayOrder,
		})
	}
	return &resp, nil
}

func (s *questionService) toDTOs(questions []model.Question) ([]dto.QuestionResponseDTO, error) {
	dtos := make([]dto.QuestionResponseDTO, 0, len(questions))
	for i := range questions {
		d, err := s.toDTO(&questions[i])
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, *d)
	}
	return dtos, nil
}
