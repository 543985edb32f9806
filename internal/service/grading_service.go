package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/codequizhub/codequizhub/internal/model"
	"github.com/rs/zerolog/log"
)

// CodeExecutor runs submitted code against one test case's input and returns
// its stdout. Implementations are expected to honor ctx cancellation.
type CodeExecutor interface {
	Run(ctx context.Context, language, code, input string) (string, error)
}

// ScoreResult is the outcome of grading a single response.
type ScoreResult struct {
	AwardedPoints float64
	IsCorrect     bool
	Feedback      string
}

// GradingService scores one response against its question. Malformed or
// missing answers are never errors, they score zero; an error return means
// grading itself could not proceed.
type GradingService interface {
	Grade(ctx context.Context, question *model.Question, weight float64, resp *model.Response) (ScoreResult, error)
}

type gradingService struct {
	executor       CodeExecutor
	defaultTimeout time.Duration
}

func NewGradingService(executor CodeExecutor, defaultCaseTimeout time.Duration) GradingService {
	return &gradingService{executor: executor, defaultTimeout: defaultCaseTimeout}
}

func (s *gradingService) Grade(ctx context.Context, question *model.Question, weight float64, resp *model.Response) (ScoreResult, error) {
	switch question.QuestionType {
	case model.QuestionMCQ:
		return s.gradeMCQ(question, weight, resp), nil
	case model.QuestionCoding:
		return s.gradeCoding(ctx, question, weight, resp), nil
	case model.QuestionFillInBlanks, model.QuestionShortAnswer:
		return s.gradeText(question, weight, resp), nil
	default:
		return ScoreResult{}, fmt.Errorf("question %d has unknown type %q: %w", question.ID, question.QuestionType, ErrDataIntegrity)
	}
}

// gradeMCQ awards the full weight only when the selected options exactly
// match the correct set. There is no partial credit.
func (s *gradingService) gradeMCQ(question *model.Question, weight float64, resp *model.Response) ScoreResult {
	var selected []uint
	if resp.SelectedOptionIDs != "" {
		if err := json.Unmarshal([]byte(resp.SelectedOptionIDs), &selected); err != nil {
			log.Warn().Err(err).Uint("questionID", question.ID).Msg("gradeMCQ: malformed option selection, scoring zero")
			return ScoreResult{Feedback: "answer could not be read"}
		}
	}

	valid := make(map[uint]bool, len(question.Options))
	correct := make(map[uint]bool)
	for _, opt := range question.Options {
		valid[opt.ID] = true
		if opt.IsCorrect {
			correct[opt.ID] = true
		}
	}

	selectedSet := make(map[uint]bool, len(selected))
	for _, id := range selected {
		if !valid[id] {
			// Option from some other question, the selection cannot match.
			return ScoreResult{}
		}
		selectedSet[id] = true
	}
	if len(selectedSet) != len(correct) {
		return ScoreResult{}
	}
	for id := range correct {
		if !selectedSet[id] {
			return ScoreResult{}
		}
	}
	return ScoreResult{AwardedPoints: weight, IsCorrect: true}
}

// gradeCoding runs every test case and awards weight scaled by the pass
// ratio. A case that errors or exceeds its time limit counts as failed,
// never as a grading failure.
func (s *gradingService) gradeCoding(ctx context.Context, question *model.Question, weight float64, resp *model.Response) ScoreResult {
	total := len(question.TestCases)
	if total == 0 {
		log.Warn().Uint("questionID", question.ID).Msg("gradeCoding: coding question without test cases, scoring zero")
		return ScoreResult{Feedback: "no test cases available"}
	}
	if strings.TrimSpace(resp.SubmittedCode) == "" {
		return ScoreResult{Feedback: "no code submitted"}
	}

	passed := 0
	for _, tc := range question.TestCases {
		timeout := s.defaultTimeout
		if tc.TimeLimitMs != nil {
			timeout = time.Duration(*tc.TimeLimitMs) * time.Millisecond
		}
		caseCtx, cancel := context.WithTimeout(ctx, timeout)
		output, err := s.executor.Run(caseCtx, resp.CodeLanguage, resp.SubmittedCode, tc.InputData)
		cancel()
		if err != nil {
			log.Debug().Err(err).Uint("questionID", question.ID).Uint("testCaseID", tc.ID).Msg("gradeCoding: test case did not pass")
			continue
		}
		if strings.TrimSpace(output) == strings.TrimSpace(tc.ExpectedOutput) {
			passed++
		}
	}

	return ScoreResult{
		AwardedPoints: weight * float64(passed) / float64(total),
		IsCorrect:     passed == total,
		Feedback:      fmt.Sprintf("passed %d of %d test cases", passed, total),
	}
}

// gradeText compares the trimmed, lowercased answer against each acceptable
// answer from the question.
func (s *gradingService) gradeText(question *model.Question, weight float64, resp *model.Response) ScoreResult {
	answer := normalizeAnswer(resp.AnswerText)
	if answer == "" {
		return ScoreResult{}
	}
	for _, acceptable := range question.AcceptableAnswers() {
		if answer == normalizeAnswer(acceptable) {
			return ScoreResult{AwardedPoints: weight, IsCorrect: true}
		}
	}
	return ScoreResult{}
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// unavailableCodeExecutor stands in when no judge is configured. Every run
// fails, so coding cases score zero instead of blocking grading.
type unavailableCodeExecutor struct{}

func NewUnavailableCodeExecutor() CodeExecutor {
	return unavailableCodeExecutor{}
}

func (unavailableCodeExecutor) Run(ctx context.Context, language, code, input string) (string, error) {
	return "", fmt.Errorf("no code executor configured")
}
