package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codequizhub/codequizhub/internal/dto"
	"github.com/codequizhub/codequizhub/internal/model"
)

type attemptFixture struct {
	attempts *fakeAttemptRepo
	quizzes  *fakeQuizRepo
	users    *fakeUserRepo
	svc      AttemptService
	now      time.Time
	quizID   uint
	userID   uint
}

func (f *attemptFixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// newAttemptFixture seeds one approved organization's student and a published
// quiz worth 10 points: an MCQ at weight 4 and a short answer at weight 6.
func newAttemptFixture(t *testing.T) *attemptFixture {
	t.Helper()

	f := &attemptFixture{
		attempts: newFakeAttemptRepo(),
		quizzes:  newFakeQuizRepo(),
		users:    newFakeUserRepo(),
		now:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	orgID := uint(1)
	student := f.users.add(model.User{
		Email:          "student@example.edu",
		OrganizationID: &orgID,
		Credentials:    model.Credentials{Role: model.RoleStudent, IsActive: true},
	})
	f.userID = student.ID

	mcq := model.Question{
		ID:           10,
		QuestionType: model.QuestionMCQ,
		Points:       4,
		Options: []model.QuestionOption{
			{ID: 101, IsCorrect: true},
			{ID: 102},
		},
	}
	short := model.Question{
		ID:                11,
		QuestionType:      model.QuestionShortAnswer,
		Points:            6,
		CorrectAnswerText: "blue",
	}
	quiz := f.quizzes.add(model.Quiz{
		OrganizationID:  orgID,
		Title:           "Color theory",
		Status:          model.QuizPublished,
		DurationMinutes: 30,
		QuizQuestions: []model.QuizQuestion{
			{QuestionID: mcq.ID, Position: 1, Weight: 4, Question: mcq},
			{QuestionID: short.ID, Position: 2, Weight: 6, Question: short},
		},
	})
	f.quizID = quiz.ID

	grading := NewGradingService(NewUnavailableCodeExecutor(), time.Second)
	f.svc = NewAttemptService(f.attempts, f.quizzes, f.users, grading, nil, func() time.Time { return f.now })
	return f
}

func TestStartAttemptSetsDeadlineAndMaxScore(t *testing.T) {
	f := newAttemptFixture(t)

	attempt, err := f.svc.StartAttempt(context.Background(), f.quizID, dto.AttemptStartDTO{UserID: f.userID})
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if attempt.Status != model.AttemptInProgress {
		t.Errorf("status = %s, want in_progress", attempt.Status)
	}
	wantDeadline := f.now.Add(30 * time.Minute)
	if !attempt.Deadline.Equal(wantDeadline) {
		t.Errorf("deadline = %v, want %v", attempt.Deadline, wantDeadline)
	}
	if attempt.MaxScorePossible != 10 {
		t.Errorf("max score = %v, want 10", attempt.MaxScorePossible)
	}
}

func TestStartAttemptRejectsUnpublishedQuiz(t *testing.T) {
	f := newAttemptFixture(t)
	draft := f.quizzes.add(model.Quiz{
		OrganizationID:  1,
		Status:          model.QuizDraft,
		DurationMinutes: 30,
		QuizQuestions:   []model.QuizQuestion{{QuestionID: 10, Weight: 4}},
	})

	_, err := f.svc.StartAttempt(context.Background(), draft.ID, dto.AttemptStartDTO{UserID: f.userID})
	if !errors.Is(err, ErrQuizNotPublished) {
		t.Fatalf("err = %v, want ErrQuizNotPublished", err)
	}
}

func TestStartAttemptRequiresStudentOfQuizOrganization(t *testing.T) {
	f := newAttemptFixture(t)

	orgID := uint(1)
	teacher := f.users.add(model.User{
		OrganizationID: &orgID,
		Credentials:    model.Credentials{Role: model.RoleTeacher, IsActive: true},
	})
	if _, err := f.svc.StartAttempt(context.Background(), f.quizID, dto.AttemptStartDTO{UserID: teacher.ID}); !errors.Is(err, ErrForbidden) {
		t.Errorf("teacher start err = %v, want ErrForbidden", err)
	}

	otherOrg := uint(2)
	outsider := f.users.add(model.User{
		OrganizationID: &otherOrg,
		Credentials:    model.Credentials{Role: model.RoleStudent, IsActive: true},
	})
	if _, err := f.svc.StartAttempt(context.Background(), f.quizID, dto.AttemptStartDTO{UserID: outsider.ID}); !errors.Is(err, ErrForbidden) {
		t.Errorf("outsider start err = %v, want ErrForbidden", err)
	}
}

func TestStartAttemptAllowsOneInFlightPerQuiz(t *testing.T) {
	f := newAttemptFixture(t)

	first, err := f.svc.StartAttempt(context.Background(), f.quizID, dto.AttemptStartDTO{UserID: f.userID})
	if err != nil {
		t.Fatalf("first StartAttempt: %v", err)
	}
	if _, err := f.svc.StartAttempt(context.Background(), f.quizID, dto.AttemptStartDTO{UserID: f.userID}); !errors.Is(err, ErrAttemptInProgress) {
		t.Fatalf("second start err = %v, want ErrAttemptInProgress", err)
	}

	// Once the first attempt is finalized a new one may start.
	if _, err := f.svc.FinalizeAttempt(context.Background(), first.ID, f.userID); err != nil {
		t.Fatalf("FinalizeAttempt: %v", err)
	}
	if _, err := f.svc.StartAttempt(context.Background(), f.quizID, dto.AttemptStartDTO{UserID: f.userID}); err != nil {
		t.Fatalf("start after finalize: %v", err)
	}
}

func TestSubmitResponseRejectsQuestionOutsideQuiz(t *testing.T) {
	f := newAttemptFixture(t)
	attempt, err := f.svc.StartAttempt(context.Background(), f.quizID, dto.AttemptStartDTO{UserID: f.userID})
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	_, err = f.svc.SubmitResponse(context.Background(), attempt.ID, f.userID, dto.AnswerSubmitDTO{QuestionID: 999, Text: "blue"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSubmitResponseLastWriteWins(t *testing.T) {
	f := newAttemptFixture(t)
	attempt, err := f.svc.StartAttempt(context.Background(), f.quizID, dto.AttemptStartDTO{UserID: f.userID})
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	if _, err := f.svc.SubmitResponse(context.Background(), attempt.ID, f.userID, dto.AnswerSubmitDTO{QuestionID: 11, Text: "red"}); err != nil {
		t.Fatalf("first SubmitResponse: %v", err)
	}
	updated, err := f.svc.SubmitResponse(context.Background(), attempt.ID, f.userID, dto.AnswerSubmitDTO{QuestionID: 11, Text: "blue"})
	if err != nil {
		t.Fatalf("second SubmitResponse: %v", err)
	}

	if len(updated.Responses) != 1 {
		t.Fatalf("responses = %d, want 1 (resubmission overwrites)", len(updated.Responses))
	}
	if updated.Responses[0].AnswerText != "blue" {
		t.Errorf("answer = %q, want the later write", updated.Responses[0].AnswerText)
	}
}

func TestSubmitResponseAfterDeadlineTimesOutAttempt(t *testing.T) {
	f := newAttemptFixture(t)
	attempt, err := f.svc.StartAttempt(context.Background(), f.quizID, dto.AttemptStartDTO{UserID: f.userID})
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	f.advance(31 * time.Minute)
	_, err = f.svc.SubmitResponse(context.Background(), attempt.ID, f.userID, dto.AnswerSubmitDTO{QuestionID: 11, Text: "blue"})
	if !errors.Is(err, ErrAttemptNotActive) {
		t.Fatalf("err = %v, want ErrAttemptNotActive", err)
	}

	// The deadline crossing finalized and scored the attempt as a side effect.
	stored, err := f.svc.GetAttempt(context.Background(), attempt.ID, f.userID)
	if err != nil {
		t.Fatalf("GetAttempt: %v", err)
	}
	if stored.Status != model.AttemptTimedOut {
		t.Errorf("status = %s, want timed_out", stored.Status)
	}
	if stored.Score == nil || *stored.Score != 0 {
		t.Errorf("score = %v, want 0 for an unanswered attempt", stored.Score)
	}
}

func TestStartAttemptTimesOutExpiredAttempt(t *testing.T) {
	f := newAttemptFixture(t)
	first, err := f.svc.StartAttempt(context.Background(), f.quizID, dto.AttemptStartDTO{UserID: f.userID})
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	// The first attempt expires without any further call touching it. The
	// next start must not be blocked by the stale in_progress row.
	f.advance(31 * time.Minute)
	second, err := f.svc.StartAttempt(context.Background(), f.quizID, dto.AttemptStartDTO{UserID: f.userID})
	if err != nil {
		t.Fatalf("StartAttempt after expired attempt: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected a fresh attempt, got the expired one")
	}

	stored, err := f.svc.GetAttempt(context.Background(), first.ID, f.userID)
	if err != nil {
		t.Fatalf("GetAttempt: %v", err)
	}
	if stored.Status != model.AttemptTimedOut {
		t.Errorf("expired attempt status = %s, want timed_out", stored.Status)
	}
	if stored.Score == nil || *stored.Score != 0 {
		t.Errorf("expired attempt score = %v, want 0", stored.Score)
	}
}

func TestFinalizeGradesAndNormalizesScore(t *testing.T) {
	f := newAttemptFixture(t)
	attempt, err := f.svc.StartAttempt(context.Background(), f.quizID, dto.AttemptStartDTO{UserID: f.userID})
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	if _, err := f.svc.SubmitResponse(context.Background(), attempt.ID, f.userID, dto.AnswerSubmitDTO{QuestionID: 10, SelectedOptionIDs: []uint{101}}); err != nil {
		t.Fatalf("submit mcq: %v", err)
	}
	if _, err := f.svc.SubmitResponse(context.Background(), attempt.ID, f.userID, dto.AnswerSubmitDTO{QuestionID: 11, Text: "red"}); err != nil {
		t.Fatalf("submit text: %v", err)
	}

	graded, err := f.svc.FinalizeAttempt(context.Background(), attempt.ID, f.userID)
	if err != nil {
		t.Fatalf("FinalizeAttempt: %v", err)
	}
	if graded.Status != model.AttemptGraded {
		t.Errorf("status = %s, want graded", graded.Status)
	}
	// Correct MCQ at weight 4, wrong text at weight 6: 4 of 10 points.
	if graded.Score == nil || *graded.Score != 40 {
		t.Fatalf("score = %v, want 40", graded.Score)
	}
	if graded.SubmittedAt == nil {
		t.Error("submitted_at not set")
	}
	for _, r := range graded.Responses {
		if r.AwardedPoints == nil || r.IsCorrect == nil || r.GradedAt == nil {
			t.Errorf("response for question %d not fully graded: %+v", r.QuestionID, r)
		}
	}
}

func TestFinalizeCountsUnansweredWeightInDenominator(t *testing.T) {
	f := newAttemptFixture(t)
	attempt, err := f.svc.StartAttempt(context.Background(), f.quizID, dto.AttemptStartDTO{UserID: f.userID})
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	// Only the short answer, correctly. The untouched MCQ still weighs in.
	if _, err := f.svc.SubmitResponse(context.Background(), attempt.ID, f.userID, dto.AnswerSubmitDTO{QuestionID: 11, Text: "Blue "}); err != nil {
		t.Fatalf("SubmitResponse: %v", err)
	}
	graded, err := f.svc.FinalizeAttempt(context.Background(), attempt.ID, f.userID)
	if err != nil {
		t.Fatalf("FinalizeAttempt: %v", err)
	}
	if graded.Score == nil || *graded.Score != 60 {
		t.Fatalf("score = %v, want 60", graded.Score)
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	f := newAttemptFixture(t)
	attempt, err := f.svc.StartAttempt(context.Background(), f.quizID, dto.AttemptStartDTO{UserID: f.userID})
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if _, err := f.svc.SubmitResponse(context.Background(), attempt.ID, f.userID, dto.AnswerSubmitDTO{QuestionID: 10, SelectedOptionIDs: []uint{101}}); err != nil {
		t.Fatalf("SubmitResponse: %v", err)
	}

	first, err := f.svc.FinalizeAttempt(context.Background(), attempt.ID, f.userID)
	if err != nil {
		t.Fatalf("first FinalizeAttempt: %v", err)
	}
	second, err := f.svc.FinalizeAttempt(context.Background(), attempt.ID, f.userID)
	if err != nil {
		t.Fatalf("second FinalizeAttempt: %v", err)
	}
	if second.Status != first.Status || second.Score == nil || *second.Score != *first.Score {
		t.Errorf("second finalize returned %+v, want the stored result %+v", second, first)
	}
}

func TestGetAttemptEnforcesOwnership(t *testing.T) {
	f := newAttemptFixture(t)
	attempt, err := f.svc.StartAttempt(context.Background(), f.quizID, dto.AttemptStartDTO{UserID: f.userID})
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	orgID := uint(1)
	other := f.users.add(model.User{
		OrganizationID: &orgID,
		Credentials:    model.Credentials{Role: model.RoleStudent, IsActive: true},
	})
	if _, err := f.svc.GetAttempt(context.Background(), attempt.ID, other.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestListUserAttempts(t *testing.T) {
	f := newAttemptFixture(t)
	attempt, err := f.svc.StartAttempt(context.Background(), f.quizID, dto.AttemptStartDTO{UserID: f.userID})
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if _, err := f.svc.FinalizeAttempt(context.Background(), attempt.ID, f.userID); err != nil {
		t.Fatalf("FinalizeAttempt: %v", err)
	}
	if _, err := f.svc.StartAttempt(context.Background(), f.quizID, dto.AttemptStartDTO{UserID: f.userID}); err != nil {
		t.Fatalf("second StartAttempt: %v", err)
	}

	attempts, err := f.svc.ListUserAttempts(f.quizID, f.userID)
	if err != nil {
		t.Fatalf("ListUserAttempts: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(attempts))
	}
}

func TestListUserAttemptsReportsEffectiveStatus(t *testing.T) {
	f := newAttemptFixture(t)
	attempt, err := f.svc.StartAttempt(context.Background(), f.quizID, dto.AttemptStartDTO{UserID: f.userID})
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	f.advance(31 * time.Minute)
	attempts, err := f.svc.ListUserAttempts(f.quizID, f.userID)
	if err != nil {
		t.Fatalf("ListUserAttempts: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("attempts = %d, want 1", len(attempts))
	}
	if attempts[0].Status != model.AttemptTimedOut {
		t.Errorf("listed status = %s, want timed_out", attempts[0].Status)
	}

	// Listing is display only, the stored row is untouched until an
	// accessor finalizes it.
	stored, ok := f.attempts.attempts[attempt.ID]
	if !ok {
		t.Fatalf("attempt %d missing from repository", attempt.ID)
	}
	if stored.Status != model.AttemptInProgress {
		t.Errorf("stored status = %s, want in_progress", stored.Status)
	}
}
