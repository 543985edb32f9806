package model

import (
	"testing"
	"time"
)

func TestAcceptableAnswersSplitsAndTrims(t *testing.T) {
	q := Question{CorrectAnswerText: " Paris | City of Light ||paris "}
	got := q.AcceptableAnswers()
	want := []string{"Paris", "City of Light", "paris"}
	if len(got) != len(want) {
		t.Fatalf("answers = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("answers[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	empty := Question{}
	if answers := empty.AcceptableAnswers(); len(answers) != 0 {
		t.Errorf("empty text gave %v, want none", answers)
	}
}

func TestQuizTotalWeight(t *testing.T) {
	quiz := Quiz{QuizQuestions: []QuizQuestion{{Weight: 2}, {Weight: 3.5}, {Weight: 4.5}}}
	if total := quiz.TotalWeight(); total != 10 {
		t.Errorf("total = %v, want 10", total)
	}
	if total := (&Quiz{}).TotalWeight(); total != 0 {
		t.Errorf("empty quiz total = %v, want 0", total)
	}
}

func TestAttemptDeadlinePassed(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a := Attempt{Deadline: deadline}
	if a.DeadlinePassed(deadline) {
		t.Error("the deadline instant itself is still in time")
	}
	if !a.DeadlinePassed(deadline.Add(time.Second)) {
		t.Error("one second past the deadline must count as passed")
	}
}

func TestTerminalStatuses(t *testing.T) {
	if AttemptInProgress.Terminal() {
		t.Error("in_progress is not terminal")
	}
	for _, s := range []AttemptStatus{AttemptSubmitted, AttemptGraded, AttemptTimedOut} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	if InvitationPending.Terminal() {
		t.Error("pending is not terminal")
	}
	for _, s := range []InvitationStatus{InvitationAccepted, InvitationDeclined, InvitationExpired, InvitationCancelled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestCredentialsPasswordRoundTrip(t *testing.T) {
	var c Credentials
	if err := c.SetPassword("s3cret-pass"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if c.PasswordHash == "s3cret-pass" {
		t.Fatal("password stored in plain text")
	}
	if !c.CheckPassword("s3cret-pass") {
		t.Error("correct password rejected")
	}
	if c.CheckPassword("wrong-pass") {
		t.Error("wrong password accepted")
	}
}
