package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/codequizhub/codequizhub/config"
	"github.com/codequizhub/codequizhub/internal/model"
	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// FeedbackService generates a short study-advice summary for a graded
// attempt. It is strictly best effort: grading and scoring never depend on
// it, and failures are only logged.
type FeedbackService interface {
	AttachSummary(ctx context.Context, attemptID uint, quiz *model.Quiz, graded []model.Response, score float64)
}

type feedbackService struct {
	client *genai.GenerativeModel
	repo   feedbackSink
}

// feedbackSink is the slice of the attempt store the feedback writer needs.
type feedbackSink interface {
	UpdateResponseGrades(responses []model.Response) error
}

func NewFeedbackService(cfg *config.Config, repo feedbackSink) (FeedbackService, error) {
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Attempt feedback summaries will be skipped.")
		return &feedbackService{repo: repo}, nil
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	return &feedbackService{client: client.GenerativeModel("gemini-1.5-flash"), repo: repo}, nil
}

func (s *feedbackService) AttachSummary(ctx context.Context, attemptID uint, quiz *model.Quiz, graded []model.Response, score float64) {
	if s.client == nil || len(graded) == 0 {
		return
	}

	questionText := make(map[uint]string, len(quiz.QuizQuestions))
	for _, qq := range quiz.QuizQuestions {
		questionText[qq.QuestionID] = qq.Question.QuestionText
	}

	var prompt strings.Builder
	prompt.WriteString("You are a tutor reviewing a student's graded quiz. ")
	prompt.WriteString(fmt.Sprintf("The quiz is titled %q and the student scored %.1f%%.\n", quiz.Title, score))
	prompt.WriteString("For each incorrectly answered question below, write one short, encouraging sentence of study advice. Keep the whole reply under 120 words.\n\n")
	missed := 0
	for _, r := range graded {
		if r.IsCorrect != nil && *r.IsCorrect {
			continue
		}
		missed++
		prompt.WriteString(fmt.Sprintf("Question: %s\n", questionText[r.QuestionID]))
	}
	if missed == 0 {
		return
	}

	resp, err := s.client.GenerateContent(ctx, genai.Text(prompt.String()))
	if err != nil {
		log.Warn().Err(err).Uint("attemptID", attemptID).Msg("AttachSummary: feedback generation failed")
		return
	}
	summary := extractText(resp)
	if summary == "" {
		return
	}

	// Append the advice to the first missed response's feedback so it rides
	// along in the attempt detail view.
	for i := range graded {
		if graded[i].IsCorrect != nil && *graded[i].IsCorrect {
			continue
		}
		if graded[i].Feedback != "" {
			graded[i].Feedback += "\n"
		}
		graded[i].Feedback += summary
		if err := s.repo.UpdateResponseGrades(graded[i : i+1]); err != nil {
			log.Warn().Err(err).Uint("attemptID", attemptID).Msg("AttachSummary: failed to store feedback summary")
		}
		return
	}
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String())
}
