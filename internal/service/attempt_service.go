package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/codequizhub/codequizhub/internal/dto"
	"github.com/codequizhub/codequizhub/internal/model"
	"github.com/codequizhub/codequizhub/internal/repository"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AttemptService drives the timed quiz attempt lifecycle. Deadlines are
// evaluated lazily: any read or write that observes a passed deadline
// finalizes the attempt as timed out and grades it. Finalization is
// idempotent, a second caller gets the already stored result.
type AttemptService interface {
	// StartAttempt opens a timed attempt. An earlier attempt whose deadline
	// passed unobserved is timed out first so it cannot block the new one.
	StartAttempt(ctx context.Context, quizID uint, req dto.AttemptStartDTO) (*dto.AttemptResponseDTO, error)
	// SubmitResponse records or overwrites the answer to one question.
	// Last write before the deadline wins.
	SubmitResponse(ctx context.Context, attemptID, userID uint, req dto.AnswerSubmitDTO) (*dto.AttemptResponseDTO, error)
	// FinalizeAttempt submits the attempt and grades every response.
	FinalizeAttempt(ctx context.Context, attemptID, userID uint) (*dto.AttemptResponseDTO, error)
	// GetAttempt returns the attempt, first timing it out if its deadline
	// has passed unobserved.
	GetAttempt(ctx context.Context, attemptID, userID uint) (*dto.AttemptResponseDTO, error)
	ListUserAttempts(quizID, userID uint) ([]dto.AttemptResponseDTO, error)
}

type attemptService struct {
	attemptRepo repository.AttemptRepository
	quizRepo    repository.QuizRepository
	userRepo    repository.UserRepository
	grading     GradingService
	feedback    FeedbackService
	clock       Clock
}

func NewAttemptService(
	attemptRepo repository.AttemptRepository,
	quizRepo repository.QuizRepository,
	userRepo repository.UserRepository,
	grading GradingService,
	feedback FeedbackService,
	clock Clock,
) AttemptService {
	return &attemptService{
		attemptRepo: attemptRepo,
		quizRepo:    quizRepo,
		userRepo:    userRepo,
		grading:     grading,
		feedback:    feedback,
		clock:       clock,
	}
}

func (s *attemptService) StartAttempt(ctx context.Context, quizID uint, req dto.AttemptStartDTO) (*dto.AttemptResponseDTO, error) {
	quiz, err := s.quizRepo.FindByIDWithQuestions(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("quiz %d: %w", quizID, ErrNotFound)
		}
		return nil, fmt.Errorf("loading quiz %d: %w", quizID, err)
	}
	if quiz.Status != model.QuizPublished {
		return nil, fmt.Errorf("quiz %d is %s: %w", quizID, quiz.Status, ErrQuizNotPublished)
	}

	user, err := s.userRepo.FindByID(req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", req.UserID, ErrNotFound)
		}
		return nil, fmt.Errorf("loading user %d: %w", req.UserID, err)
	}
	if user.Credentials.Role != model.RoleStudent {
		return nil, fmt.Errorf("user %d is not a student: %w", req.UserID, ErrForbidden)
	}
	if user.OrganizationID == nil || *user.OrganizationID != quiz.OrganizationID {
		return nil, fmt.Errorf("user %d does not belong to organization %d: %w", req.UserID, quiz.OrganizationID, ErrForbidden)
	}

	now := s.clock()

	// A stale in-progress attempt past its deadline is timed out here, the
	// same way SubmitResponse and GetAttempt do it, so the in-flight check
	// below only sees attempts that are genuinely still running.
	previous, err := s.attemptRepo.ListByQuizAndUser(quizID, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("listing attempts for quiz %d, user %d: %w", quizID, req.UserID, err)
	}
	for i := range previous {
		p := &previous[i]
		if p.Status == model.AttemptInProgress && p.DeadlinePassed(now) {
			if _, err := s.finalize(ctx, p, model.AttemptTimedOut); err != nil {
				return nil, err
			}
		}
	}

	attempt := model.Attempt{
		QuizID:           quizID,
		UserID:           req.UserID,
		Status:           model.AttemptInProgress,
		StartTime:        now,
		Deadline:         now.Add(time.Duration(quiz.DurationMinutes) * time.Minute),
		MaxScorePossible: quiz.TotalWeight(),
	}
	if err := s.attemptRepo.CreateIfNoneInFlight(&attempt); err != nil {
		if errors.Is(err, repository.ErrAttemptInFlight) {
			return nil, fmt.Errorf("quiz %d, user %d: %w", quizID, req.UserID, ErrAttemptInProgress)
		}
		log.Error().Err(err).Uint("quizID", quizID).Uint("userID", req.UserID).Msg("StartAttempt: failed to create attempt")
		return nil, fmt.Errorf("starting attempt: %w", err)
	}
	log.Info().Uint("attemptID", attempt.ID).Uint("quizID", quizID).Uint("userID", req.UserID).Time("deadline", attempt.Deadline).Msg("Attempt started")

	return s.toDTO(&attempt)
}

func (s *attemptService) SubmitResponse(ctx context.Context, attemptID, userID uint, req dto.AnswerSubmitDTO) (*dto.AttemptResponseDTO, error) {
	attempt, err := s.findAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, fmt.Errorf("attempt %d does not belong to user %d: %w", attemptID, userID, ErrForbidden)
	}
	if attempt.Status != model.AttemptInProgress {
		return nil, fmt.Errorf("attempt %d is %s: %w", attemptID, attempt.Status, ErrAttemptNotActive)
	}
	if attempt.DeadlinePassed(s.clock()) {
		if _, err := s.finalize(ctx, attempt, model.AttemptTimedOut); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("attempt %d deadline has passed: %w", attemptID, ErrAttemptNotActive)
	}

	quiz, err := s.quizRepo.FindByIDWithQuestions(attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("loading quiz %d: %w", attempt.QuizID, err)
	}
	var inQuiz bool
	for _, qq := range quiz.QuizQuestions {
		if qq.QuestionID == req.QuestionID {
			inQuiz = true
			break
		}
	}
	if !inQuiz {
		return nil, fmt.Errorf("question %d is not part of quiz %d: %w", req.QuestionID, attempt.QuizID, ErrNotFound)
	}

	resp := model.Response{
		AttemptID:     attemptID,
		QuestionID:    req.QuestionID,
		AnswerText:    req.Text,
		SubmittedCode: req.Code,
		CodeLanguage:  req.Language,
	}
	if len(req.SelectedOptionIDs) > 0 {
		encoded, err := json.Marshal(req.SelectedOptionIDs)
		if err != nil {
			return nil, fmt.Errorf("encoding option selection: %w", err)
		}
		resp.SelectedOptionIDs = string(encoded)
	}
	if err := s.attemptRepo.UpsertResponse(&resp); err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Uint("questionID", req.QuestionID).Msg("SubmitResponse: failed to store response")
		return nil, fmt.Errorf("storing response: %w", err)
	}
	log.Debug().Uint("attemptID", attemptID).Uint("questionID", req.QuestionID).Msg("Response recorded")

	reloaded, err := s.attemptRepo.FindByIDWithResponses(attemptID)
	if err != nil {
		return nil, fmt.Errorf("reloading attempt %d: %w", attemptID, err)
	}
	return s.toDTO(reloaded)
}

func (s *attemptService) FinalizeAttempt(ctx context.Context, attemptID, userID uint) (*dto.AttemptResponseDTO, error) {
	attempt, err := s.findAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, fmt.Errorf("attempt %d does not belong to user %d: %w", attemptID, userID, ErrForbidden)
	}
	if attempt.Status.Terminal() {
		// Already finalized, return the stored result.
		return s.toDTO(attempt)
	}

	target := model.AttemptSubmitted
	if attempt.DeadlinePassed(s.clock()) {
		target = model.AttemptTimedOut
	}
	return s.finalize(ctx, attempt, target)
}

func (s *attemptService) GetAttempt(ctx context.Context, attemptID, userID uint) (*dto.AttemptResponseDTO, error) {
	attempt, err := s.findAttempt(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, fmt.Errorf("attempt %d does not belong to user %d: %w", attemptID, userID, ErrForbidden)
	}
	if attempt.Status == model.AttemptInProgress && attempt.DeadlinePassed(s.clock()) {
		return s.finalize(ctx, attempt, model.AttemptTimedOut)
	}
	return s.toDTO(attempt)
}

func (s *attemptService) ListUserAttempts(quizID, userID uint) ([]dto.AttemptResponseDTO, error) {
	attempts, err := s.attemptRepo.ListByQuizAndUser(quizID, userID)
	if err != nil {
		return nil, fmt.Errorf("listing attempts for quiz %d, user %d: %w", quizID, userID, err)
	}
	now := s.clock()
	dtos := make([]dto.AttemptResponseDTO, 0, len(attempts))
	for i := range attempts {
		a := attempts[i]
		// Report the effective status without writing; the next accessor
		// that touches the attempt persists the timeout.
		if a.Status == model.AttemptInProgress && a.DeadlinePassed(now) {
			a.Status = model.AttemptTimedOut
		}
		d, err := s.toDTO(&a)
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, *d)
	}
	return dtos, nil
}

// responseGradingResult carries one graded response out of the fan-out.
type responseGradingResult struct {
	graded        model.Response
	originalIndex int
	err           error
}

// finalize moves the attempt to target and grades every stored response.
// The status transition is conditional on the attempt still being in
// progress; the loser of a concurrent finalize returns the winner's result.
func (s *attemptService) finalize(ctx context.Context, attempt *model.Attempt, target model.AttemptStatus) (*dto.AttemptResponseDTO, error) {
	now := s.clock()
	attempt.Status = target
	attempt.SubmittedAt = &now

	affected, err := s.attemptRepo.TransitionStatus(attempt, model.AttemptInProgress)
	if err != nil {
		return nil, fmt.Errorf("finalizing attempt %d: %w", attempt.ID, err)
	}
	if affected == 0 {
		stored, err := s.attemptRepo.FindByIDWithResponses(attempt.ID)
		if err != nil {
			return nil, fmt.Errorf("reloading attempt %d: %w", attempt.ID, err)
		}
		return s.toDTO(stored)
	}
	log.Info().Uint("attemptID", attempt.ID).Str("status", string(target)).Msg("Attempt finalized, grading")

	quiz, err := s.quizRepo.FindByIDWithQuestions(attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("loading quiz %d for grading: %w", attempt.QuizID, err)
	}
	questionMap := make(map[uint]model.QuizQuestion, len(quiz.QuizQuestions))
	for _, qq := range quiz.QuizQuestions {
		questionMap[qq.QuestionID] = qq
	}

	loaded, err := s.attemptRepo.FindByIDWithResponses(attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("loading responses for attempt %d: %w", attempt.ID, err)
	}
	responses := loaded.Responses

	var wg sync.WaitGroup
	resultsChan := make(chan responseGradingResult, len(responses))
	for i := range responses {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			resp := responses[idx]
			qq, ok := questionMap[resp.QuestionID]
			if !ok {
				resultsChan <- responseGradingResult{
					originalIndex: idx,
					err:           fmt.Errorf("response %d references question %d not in quiz %d: %w", resp.ID, resp.QuestionID, quiz.ID, ErrDataIntegrity),
				}
				return
			}
			result, gradeErr := s.grading.Grade(ctx, &qq.Question, qq.Weight, &resp)
			if gradeErr != nil {
				resultsChan <- responseGradingResult{originalIndex: idx, err: gradeErr}
				return
			}
			gradedAt := s.clock()
			resp.AwardedPoints = &result.AwardedPoints
			resp.IsCorrect = &result.IsCorrect
			resp.Feedback = result.Feedback
			resp.GradedAt = &gradedAt
			resultsChan <- responseGradingResult{graded: resp, originalIndex: idx}
		}(i)
	}
	wg.Wait()
	close(resultsChan)

	totalAwarded := 0.0
	graded := make([]model.Response, len(responses))
	for result := range resultsChan {
		if result.err != nil {
			log.Error().Err(result.err).Uint("attemptID", attempt.ID).Msg("finalize: grading failed")
			return nil, result.err
		}
		graded[result.originalIndex] = result.graded
		if result.graded.AwardedPoints != nil {
			totalAwarded += *result.graded.AwardedPoints
		}
	}

	if err := s.attemptRepo.UpdateResponseGrades(graded); err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("finalize: failed to persist grades")
		return nil, fmt.Errorf("persisting grades for attempt %d: %w", attempt.ID, err)
	}

	// Unanswered questions contribute zero to the numerator but their weight
	// stays in the denominator.
	score := 0.0
	if total := quiz.TotalWeight(); total > 0 {
		score = totalAwarded / total * 100
	}
	// A deadline-driven finalize rests as timed_out; graded is reserved for
	// explicit submissions. Both carry a score.
	finalStatus := model.AttemptGraded
	if target == model.AttemptTimedOut {
		finalStatus = model.AttemptTimedOut
	}
	if err := s.attemptRepo.SetFinalScore(attempt.ID, score, finalStatus); err != nil {
		log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("finalize: failed to store final score")
		return nil, fmt.Errorf("storing final score for attempt %d: %w", attempt.ID, err)
	}
	log.Info().Uint("attemptID", attempt.ID).Float64("score", score).Msg("Attempt graded")

	if s.feedback != nil {
		s.feedback.AttachSummary(ctx, attempt.ID, quiz, graded, score)
	}

	final, err := s.attemptRepo.FindByIDWithResponses(attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("reloading graded attempt %d: %w", attempt.ID, err)
	}
	return s.toDTO(final)
}

func (s *attemptService) findAttempt(attemptID uint) (*model.Attempt, error) {
	attempt, err := s.attemptRepo.FindByIDWithResponses(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("attempt %d: %w", attemptID, ErrNotFound)
		}
		return nil, fmt.Errorf("loading attempt %d: %w", attemptID, err)
	}
	return attempt, nil
}

func (s *attemptService) toDTO(attempt *model.Attempt) (*dto.AttemptResponseDTO, error) {
	var resp dto.AttemptResponseDTO
	if err := copier.Copy(&resp, attempt); err != nil {
		return nil, fmt.Errorf("preparing attempt response: %w", err)
	}
	resp.Responses = make([]dto.ResponseDTO, 0, len(attempt.Responses))
	for _, r := range attempt.Responses {
		var rDTO dto.ResponseDTO
		if err := copier.Copy(&rDTO, &r); err != nil {
			return nil, fmt.Errorf("preparing response entry: %w", err)
		}
		if r.SelectedOptionIDs != "" {
			var ids []uint
			if err := json.Unmarshal([]byte(r.SelectedOptionIDs), &ids); err == nil {
				rDTO.SelectedOptionIDs = ids
			}
		}
		resp.Responses = append(resp.Responses, rDTO)
	}
	return &resp, nil
}
