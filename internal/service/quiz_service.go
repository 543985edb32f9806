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

// QuizService composes quizzes from bank questions and drives the
// draft/published/archived lifecycle. Only published quizzes accept attempts;
// archiving stops new attempts without touching existing ones.
type QuizService interface {
	ComposeQuiz(req dto.QuizComposeDTO) (*dto.QuizResponseDTO, error)
	Publish(quizID uint) (*dto.QuizResponseDTO, error)
	Archive(quizID uint) (*dto.QuizResponseDTO, error)
	GetQuiz(quizID uint) (*dto.QuizResponseDTO, error)
	ListOrganizationQuizzes(orgID uint) ([]dto.QuizSummaryDTO, error)
	ListPublishedQuizzes(orgID uint) ([]dto.QuizSummaryDTO, error)
}

type quizService struct {
	quizRepo     repository.QuizRepository
	questionRepo repository.QuestionRepository
	clock        Clock
}

func NewQuizService(quizRepo repository.QuizRepository, questionRepo repository.QuestionRepository, clock Clock) QuizService {
	return &quizService{quizRepo: quizRepo, questionRepo: questionRepo, clock: clock}
}

func (s *quizService) ComposeQuiz(req dto.QuizComposeDTO) (*dto.QuizResponseDTO, error) {
	if req.DurationMinutes <= 0 {
		return nil, fmt.Errorf("duration %d minutes: %w", req.DurationMinutes, ErrInvalidDuration)
	}
	if len(req.Questions) == 0 {
		return nil, ErrEmptyQuiz
	}

	ids := make([]uint, 0, len(req.Questions))
	seen := make(map[uint]bool)
	for _, ref := range req.Questions {
		if seen[ref.QuestionID] {
			return nil, fmt.Errorf("question %d referenced twice: %w", ref.QuestionID, ErrInvalidQuestionPayload)
		}
		seen[ref.QuestionID] = true
		ids = append(ids, ref.QuestionID)
	}
	questions, err := s.questionRepo.FindByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("loading quiz questions: %w", err)
	}
	questionMap := make(map[uint]model.Question, len(questions))
	for _, q := range questions {
		questionMap[q.ID] = q
	}

	quiz := model.Quiz{
		OrganizationID:  req.OrganizationID,
		CreatorUserID:   req.CreatorUserID,
		Title:           req.Title,
		Description:     req.Description,
		Status:          model.QuizDraft,
		DurationMinutes: req.DurationMinutes,
	}
	for i, ref := range req.Questions {
		question, ok := questionMap[ref.QuestionID]
		if !ok {
			return nil, fmt.Errorf("question %d: %w", ref.QuestionID, ErrNotFound)
		}
		// Non-public questions stay inside their owning organization.
		if !question.IsPublic && (question.OrganizationID == nil || *question.OrganizationID != req.OrganizationID) {
			return nil, fmt.Errorf("question %d belongs to another organization: %w", ref.QuestionID, ErrForbidden)
		}
		weight := question.Points
		if ref.Weight != nil {
			weight = *ref.Weight
		}
		quiz.QuizQuestions = append(quiz.QuizQuestions, model.QuizQuestion{
			QuestionID: ref.QuestionID,
			Position:   i + 1,
			Weight:     weight,
		})
	}

	if err := s.quizRepo.Create(&quiz); err != nil {
		log.Error().Err(err).Uint("orgID", req.OrganizationID).Msg("ComposeQuiz: failed to create quiz")
		return nil, fmt.Errorf("creating quiz: %w", err)
	}
	log.Info().Uint("quizID", quiz.ID).Int("questions", len(quiz.QuizQuestions)).Msg("Quiz composed")

	return s.GetQuiz(quiz.ID)
}

func (s *quizService) Publish(quizID uint) (*dto.QuizResponseDTO, error) {
	quiz, err := s.quizRepo.FindByIDWithQuestions(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("quiz %d: %w", quizID, ErrNotFound)
		}
		return nil, fmt.Errorf("loading quiz %d: %w", quizID, err)
	}
	if len(quiz.QuizQuestions) == 0 {
		return nil, fmt.Errorf("quiz %d: %w", quizID, ErrEmptyQuiz)
	}
	now := s.clock()
	quiz.Status = model.QuizPublished
	quiz.PublishedAt = &now

	affected, err := s.quizRepo.UpdateStatusIf(quiz, model.QuizDraft)
	if err != nil {
		return nil, fmt.Errorf("publishing quiz %d: %w", quizID, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("quiz %d is not a draft: %w", quizID, ErrInvalidTransition)
	}
	log.Info().Uint("quizID", quizID).Msg("Quiz published")

	return s.GetQuiz(quizID)
}

func (s *quizService) Archive(quizID uint) (*dto.QuizResponseDTO, error) {
	quiz, err := s.findQuiz(quizID)
	if err != nil {
		return nil, err
	}
	quiz.Status = model.QuizArchived

	affected, err := s.quizRepo.UpdateStatusIf(quiz, model.QuizPublished)
	if err != nil {
		return nil, fmt.Errorf("archiving quiz %d: %w", quizID, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("quiz %d is not published: %w", quizID, ErrInvalidTransition)
	}
	log.Info().Uint("quizID", quizID).Msg("Quiz archived")

	return s.GetQuiz(quizID)
}

func (s *quizService) GetQuiz(quizID uint) (*dto.QuizResponseDTO, error) {
	quiz, err := s.quizRepo.FindByIDWithQuestions(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("quiz %d: %w", quizID, ErrNotFound)
		}
		return nil, fmt.Errorf("loading quiz %d: %w", quizID, err)
	}

	var resp dto.QuizResponseDTO
	if err := copier.Copy(&resp, quiz); err != nil {
		return nil, fmt.Errorf("preparing quiz response: %w", err)
	}
	resp.QuizQuestions = make([]dto.QuizQuestionResponseDTO, 0, len(quiz.QuizQuestions))
	for _, qq := range quiz.QuizQuestions {
		var qDTO dto.QuestionResponseDTO
		if err := copier.Copy(&qDTO, &qq.Question); err != nil {
			return nil, fmt.Errorf("preparing quiz question response: %w", err)
		}
		qDTO.Options = make([]dto.QuestionOptionResponseDTO, 0, len(qq.Question.Options))
		for _, opt := range qq.Question.Options {
			qDTO.Options = append(qDTO.Options, dto.QuestionOptionResponseDTO{
				ID:           opt.ID,
				OptionText:   opt.OptionText,
				DisplayOrder: opt.DisplayOrder,
			})
		}
		resp.QuizQuestions = append(resp.QuizQuestions, dto.QuizQuestionResponseDTO{
			QuestionID: qq.QuestionID,
			Position:   qq.Position,
			Weight:     qq.Weight,
			Question:   qDTO,
		})
	}
	return &resp, nil
}

func (s *quizService) ListOrganizationQuizzes(orgID uint) ([]dto.QuizSummaryDTO, error) {
	quizzes, err := s.quizRepo.ListByOrganization(orgID)
	if err != nil {
		return nil, fmt.Errorf("listing quizzes for organization %d: %w", orgID, err)
	}
	return s.toSummaries(quizzes)
}

func (s *quizService) ListPublishedQuizzes(orgID uint) ([]dto.QuizSummaryDTO, error) {
	quizzes, err := s.quizRepo.ListByOrganizationAndStatus(orgID, model.QuizPublished)
	if err != nil {
		return nil, fmt.Errorf("listing published quizzes for organization %d: %w", orgID, err)
	}
	return s.toSummaries(quizzes)
}

func (s *quizService) findQuiz(quizID uint) (*model.Quiz, error) {
	quiz, err := s.quizRepo.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("quiz %d: %w", quizID, ErrNotFound)
		}
		return nil, fmt.Errorf("loading quiz %d: %w", quizID, err)
	}
	return quiz, nil
}

func (s *quizService) toSummaries(quizzes []model.Quiz) ([]dto.QuizSummaryDTO, error) {
	dtos := make([]dto.QuizSummaryDTO, 0, len(quizzes))
	for i := range quizzes {
		var summary dto.QuizSummaryDTO
		if err := copier.Copy(&summary, &quizzes[i]); err != nil {
			return nil, fmt.Errorf("preparing quiz summary: %w", err)
		}
		summary.QuestionCount = len(quizzes[i].QuizQuestions)
		dtos = append(dtos, summary)
	}
	return dtos, nil
}
