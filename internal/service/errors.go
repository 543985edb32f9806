package service

import (
	"errors"
	"time"
)

// Sentinel errors returned by the service layer. Controllers map these to
// HTTP status codes with errors.Is, so wrapped variants still match.
var (
	ErrNotFound                  = errors.New("resource not found")
	ErrForbidden                 = errors.New("actor not allowed to perform this action")
	ErrDuplicateName             = errors.New("name already in use")
	ErrDuplicateCredentials      = errors.New("username or email already in use")
	ErrInvalidTransition         = errors.New("invalid status transition")
	ErrInvalidRole               = errors.New("role not allowed here")
	ErrInvitationExpired         = errors.New("invitation has expired")
	ErrInvitationAlreadyResolved = errors.New("invitation already resolved")
	ErrInvalidQuestionPayload    = errors.New("question payload invalid for its type")
	ErrEmptyQuiz                 = errors.New("quiz must contain at least one question")
	ErrInvalidDuration           = errors.New("quiz duration must be positive")
	ErrQuizNotPublished          = errors.New("quiz is not published")
	ErrAttemptInProgress         = errors.New("an attempt is already in progress for this quiz")
	ErrAttemptNotActive          = errors.New("attempt is no longer active")
	ErrDataIntegrity             = errors.New("stored data is inconsistent")
)

// Clock supplies the current time. Production wiring passes time.Now; tests
// pass a fixed function so deadline and expiry checks are deterministic.
type Clock func() time.Time
