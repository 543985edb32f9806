package controller

import (
	"errors"
	"net/http"

	"github.com/codequizhub/codequizhub/internal/dto"
	"github.com/codequizhub/codequizhub/internal/service"
	"github.com/gin-gonic/gin"
)

// WriteError maps a service error to an HTTP status and writes the error
// body. Sentinel errors are matched with errors.Is so wrapped variants map
// the same way; anything unrecognized is a 500.
func WriteError(ctx *gin.Context, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrDuplicateName), errors.Is(err, service.ErrDuplicateCredentials):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInvitationAlreadyResolved),
		errors.Is(err, service.ErrAttemptInProgress),
		errors.Is(err, service.ErrAttemptNotActive):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvitationExpired):
		status = http.StatusGone
	case errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidQuestionPayload),
		errors.Is(err, service.ErrEmptyQuiz),
		errors.Is(err, service.ErrInvalidDuration),
		errors.Is(err, service.ErrQuizNotPublished):
		status = http.StatusUnprocessableEntity
	}
	ctx.JSON(status, dto.ErrorResponse{Message: message, Details: []string{err.Error()}})
}
