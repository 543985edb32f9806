package student

import (
	"net/http"
	"strconv"

	"github.com/codequizhub/codequizhub/internal/controller"
	"github.com/codequizhub/codequizhub/internal/dto"
	"github.com/codequizhub/codequizhub/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// StudentController covers the student-facing surface: joining by
// invitation, browsing published quizzes and running timed attempts.
type StudentController struct {
	invService     service.InvitationService
	quizService    service.QuizService
	attemptService service.AttemptService
}

func NewStudentController(invService service.InvitationService, quizService service.QuizService, attemptService service.AttemptService) *StudentController {
	return &StudentController{
		invService:     invService,
		quizService:    quizService,
		attemptService: attemptService,
	}
}

// ResolveInvitation godoc
// @Summary Look up an invitation by token
// @Description Reports the invitation's effective status. A pending invitation past its deadline shows as expired.
// @Tags Invitations
// @Produce json
// @Param token path string true "Invitation token"
// @Success 200 {object} dto.InvitationResponseDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /invitations/{token} [get]
func (c *StudentController) ResolveInvitation(ctx *gin.Context) {
	resp, err := c.invService.Resolve(ctx.Param("token"))
	if err != nil {
		controller.WriteError(ctx, err, "Failed to resolve invitation")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// AcceptInvitation godoc
// @Summary Accept an invitation and create the account
// @Description Atomically creates the invited user with active credentials and resolves the invitation. Exactly one accept can succeed per invitation.
// @Tags Invitations
// @Accept json
// @Produce json
// @Param acceptance body dto.InvitationAcceptDTO true "Token and new account details"
// @Success 201 {object} dto.UserResponseDTO
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Invitation already resolved, or credentials taken"
// @Failure 410 {object} dto.ErrorResponse "Invitation expired"
// @Router /invitations/accept [post]
func (c *StudentController) AcceptInvitation(ctx *gin.Context) {
	var req dto.InvitationAcceptDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("AcceptInvitation: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.invService.Accept(req)
	if err != nil {
		log.Error().Err(err).Msg("AcceptInvitation: Service error")
		controller.WriteError(ctx, err, "Failed to accept invitation")
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// ListPublishedQuizzes godoc
// @Summary List quizzes open for attempts in an organization
// @Tags Attempts
// @Produce json
// @Param organization_id query int true "Organization ID"
// @Success 200 {array} dto.QuizSummaryDTO
// @Router /quizzes [get]
func (c *StudentController) ListPublishedQuizzes(ctx *gin.Context) {
	orgID, ok := c.queryID(ctx, "organization_id")
	if !ok {
		return
	}
	resp, err := c.quizService.ListPublishedQuizzes(orgID)
	if err != nil {
		controller.WriteError(ctx, err, "Failed to list published quizzes")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// StartAttempt godoc
// @Summary Start a timed attempt on a published quiz
// @Description The deadline is fixed at start time plus the quiz duration. A student can have at most one attempt in progress per quiz.
// @Tags Attempts
// @Accept json
// @Produce json
// @Param quiz_id path int true "Quiz ID"
// @Param start body dto.AttemptStartDTO true "Attempting student"
// @Success 201 {object} dto.AttemptResponseDTO
// @Failure 403 {object} dto.ErrorResponse "Not a student of the quiz's organization"
// @Failure 409 {object} dto.ErrorResponse "An attempt is already in progress"
// @Failure 422 {object} dto.ErrorResponse "Quiz is not published"
// @Router /quizzes/{quiz_id}/attempts [post]
func (c *StudentController) StartAttempt(ctx *gin.Context) {
	quizID, ok := c.pathID(ctx, "quiz_id")
	if !ok {
		return
	}
	var req dto.AttemptStartDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.attemptService.StartAttempt(ctx.Request.Context(), quizID, req)
	if err != nil {
		log.Error().Err(err).Uint("quizID", quizID).Uint("userID", req.UserID).Msg("StartAttempt: Service error")
		controller.WriteError(ctx, err, "Failed to start attempt")
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// SubmitAnswer godoc
// @Summary Submit or overwrite an answer within an attempt
// @Description Last write before the deadline wins. Submitting after the deadline finalizes the attempt as timed out and is rejected.
// @Tags Attempts
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param user_id query int true "Attempting student"
// @Param answer body dto.AnswerSubmitDTO true "Answer payload, shaped by the question type"
// @Success 200 {object} dto.AttemptResponseDTO
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Attempt is no longer active"
// @Router /attempts/{attempt_id}/responses [post]
func (c *StudentController) SubmitAnswer(ctx *gin.Context) {
	attemptID, userID, ok := c.attemptAndUser(ctx)
	if !ok {
		return
	}
	var req dto.AnswerSubmitDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.attemptService.SubmitResponse(ctx.Request.Context(), attemptID, userID, req)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("SubmitAnswer: Service error")
		controller.WriteError(ctx, err, "Failed to submit answer")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// FinalizeAttempt godoc
// @Summary Submit the attempt for grading
// @Description Grades every response and computes the normalized score. Finalizing an already finalized attempt returns the stored result.
// @Tags Attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param user_id query int true "Attempting student"
// @Success 200 {object} dto.AttemptResponseDTO
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /attempts/{attempt_id}/finalize [post]
func (c *StudentController) FinalizeAttempt(ctx *gin.Context) {
	attemptID, userID, ok := c.attemptAndUser(ctx)
	if !ok {
		return
	}
	resp, err := c.attemptService.FinalizeAttempt(ctx.Request.Context(), attemptID, userID)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("FinalizeAttempt: Service error")
		controller.WriteError(ctx, err, "Failed to finalize attempt")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetAttempt godoc
// @Summary Get an attempt's current state
// @Description Reading an in-progress attempt whose deadline has passed times it out and grades it.
// @Tags Attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param user_id query int true "Attempting student"
// @Success 200 {object} dto.AttemptResponseDTO
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /attempts/{attempt_id} [get]
func (c *StudentController) GetAttempt(ctx *gin.Context) {
	attemptID, userID, ok := c.attemptAndUser(ctx)
	if !ok {
		return
	}
	resp, err := c.attemptService.GetAttempt(ctx.Request.Context(), attemptID, userID)
	if err != nil {
		controller.WriteError(ctx, err, "Failed to load attempt")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListMyAttempts godoc
// @Summary List a student's attempts for a quiz
// @Tags Attempts
// @Produce json
// @Param quiz_id path int true "Quiz ID"
// @Param user_id query int true "Student"
// @Success 200 {array} dto.AttemptResponseDTO
// @Router /quizzes/{quiz_id}/my-attempts [get]
func (c *StudentController) ListMyAttempts(ctx *gin.Context) {
	quizID, ok := c.pathID(ctx, "quiz_id")
	if !ok {
		return
	}
	userID, ok := c.queryID(ctx, "user_id")
	if !ok {
		return
	}
	resp, err := c.attemptService.ListUserAttempts(quizID, userID)
	if err != nil {
		controller.WriteError(ctx, err, "Failed to list attempts")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

func (c *StudentController) attemptAndUser(ctx *gin.Context) (uint, uint, bool) {
	attemptID, ok := c.pathID(ctx, "attempt_id")
	if !ok {
		return 0, 0, false
	}
	userID, ok := c.queryID(ctx, "user_id")
	if !ok {
		return 0, 0, false
	}
	return attemptID, userID, true
}

func (c *StudentController) pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func (c *StudentController) queryID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Query(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid or missing " + name})
		return 0, false
	}
	return uint(id), true
}
