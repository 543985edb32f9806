package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codequizhub/codequizhub/internal/dto"
	"github.com/codequizhub/codequizhub/internal/service"
	"github.com/gin-gonic/gin"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err  error
		want int
	}{
		{service.ErrNotFound, http.StatusNotFound},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrDuplicateName, http.StatusConflict},
		{service.ErrDuplicateCredentials, http.StatusConflict},
		{service.ErrInvalidTransition, http.StatusConflict},
		{service.ErrInvitationAlreadyResolved, http.StatusConflict},
		{service.ErrAttemptInProgress, http.StatusConflict},
		{service.ErrAttemptNotActive, http.StatusConflict},
		{service.ErrInvitationExpired, http.StatusGone},
		{service.ErrInvalidRole, http.StatusUnprocessableEntity},
		{service.ErrInvalidQuestionPayload, http.StatusUnprocessableEntity},
		{service.ErrEmptyQuiz, http.StatusUnprocessableEntity},
		{service.ErrInvalidDuration, http.StatusUnprocessableEntity},
		{service.ErrQuizNotPublished, http.StatusUnprocessableEntity},
		{fmt.Errorf("database exploded"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			recorder := httptest.NewRecorder()
			ctx, _ := gin.CreateTestContext(recorder)

			// Services return wrapped sentinels, the mapping must see through.
			WriteError(ctx, fmt.Errorf("operation failed: %w", tc.err), "operation failed")

			if recorder.Code != tc.want {
				t.Errorf("status = %d, want %d", recorder.Code, tc.want)
			}
			var body dto.ErrorResponse
			if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if body.Message != "operation failed" {
				t.Errorf("message = %q", body.Message)
			}
			if len(body.Details) == 0 {
				t.Error("details missing the underlying error")
			}
		})
	}
}
