package org

import (
	"net/http"

	"github.com/codequizhub/codequizhub/internal/controller"
	"github.com/codequizhub/codequizhub/internal/dto"
	"github.com/codequizhub/codequizhub/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ContentController handles question authoring and quiz composition for
// teachers and organization admins.
type ContentController struct {
	questionService service.QuestionService
	quizService     service.QuizService
}

func NewContentController(questionService service.QuestionService, quizService service.QuizService) *ContentController {
	return &ContentController{questionService: questionService, quizService: quizService}
}

// CreateQuestion godoc
// @Summary Add a question to the bank
// @Description The payload is validated against the question type: MCQ needs options with at least one correct, coding needs test cases, text types need acceptable answers.
// @Tags Content - Questions
// @Accept json
// @Produce json
// @Param question body dto.QuestionCreateDTO true "Question data"
// @Success 201 {object} dto.QuestionResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse "Payload invalid for the question type"
// @Router /org/questions [post]
func (c *ContentController) CreateQuestion(ctx *gin.Context) {
	var req dto.QuestionCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("CreateQuestion: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.questionService.AddQuestion(req)
	if err != nil {
		log.Error().Err(err).Str("type", string(req.QuestionType)).Msg("CreateQuestion: Service error")
		controller.WriteError(ctx, err, "Failed to create question")
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// GetQuestion godoc
// @Summary Get a question
// @Description Correct answers, option correctness and expected outputs are never included.
// @Tags Content - Questions
// @Produce json
// @Param question_id path int true "Question ID"
// @Success 200 {object} dto.QuestionResponseDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /org/questions/{question_id} [get]
func (c *ContentController) GetQuestion(ctx *gin.Context) {
	questionID, ok := pathID(ctx, "question_id")
	if !ok {
		return
	}
	resp, err := c.questionService.GetQuestion(questionID)
	if err != nil {
		controller.WriteError(ctx, err, "Failed to load question")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListOrganizationQuestions godoc
// @Summary List an organization's questions
// @Tags Content - Questions
// @Produce json
// @Param organization_id query int true "Organization ID"
// @Success 200 {array} dto.QuestionResponseDTO
// @Router /org/questions [get]
func (c *ContentController) ListOrganizationQuestions(ctx *gin.Context) {
	orgID, ok := queryID(ctx, "organization_id")
	if !ok {
		return
	}
	resp, err := c.questionService.ListOrganizationQuestions(orgID)
	if err != nil {
		controller.WriteError(ctx, err, "Failed to list questions")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListPublicQuestions godoc
// @Summary List globally shared questions
// @Tags Content - Questions
// @Produce json
// @Success 200 {array} dto.QuestionResponseDTO
// @Router /questions [get]
func (c *ContentController) ListPublicQuestions(ctx *gin.Context) {
	resp, err := c.questionService.ListPublicQuestions()
	if err != nil {
		controller.WriteError(ctx, err, "Failed to list public questions")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// DeleteQuestion godoc
// @Summary Delete a question from the bank
// @Description Soft delete. Quizzes already referencing the question keep grading against the stored copy.
// @Tags Content - Questions
// @Produce json
// @Param question_id path int true "Question ID"
// @Success 200 {object} dto.Ack
// @Failure 404 {object} dto.ErrorResponse
// @Router /org/questions/{question_id} [delete]
func (c *ContentController) DeleteQuestion(ctx *gin.Context) {
	questionID, ok := pathID(ctx, "question_id")
	if !ok {
		return
	}
	if err := c.questionService.DeleteQuestion(questionID); err != nil {
		log.Error().Err(err).Uint("questionID", questionID).Msg("DeleteQuestion: Service error")
		controller.WriteError(ctx, err, "Failed to delete question")
		return
	}
	ctx.JSON(http.StatusOK, dto.Ack{OK: true})
}

// ComposeQuiz godoc
// @Summary Compose a quiz from bank questions
// @Description Creates a draft quiz. Question weights default to the question's own points when omitted.
// @Tags Content - Quizzes
// @Accept json
// @Produce json
// @Param quiz body dto.QuizComposeDTO true "Quiz composition"
// @Success 201 {object} dto.QuizResponseDTO
// @Failure 404 {object} dto.ErrorResponse "A referenced question does not exist"
// @Failure 422 {object} dto.ErrorResponse "Empty quiz or non-positive duration"
// @Router /org/quizzes [post]
func (c *ContentController) ComposeQuiz(ctx *gin.Context) {
	var req dto.QuizComposeDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("ComposeQuiz: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.quizService.ComposeQuiz(req)
	if err != nil {
		log.Error().Err(err).Uint("orgID", req.OrganizationID).Msg("ComposeQuiz: Service error")
		controller.WriteError(ctx, err, "Failed to compose quiz")
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// GetQuiz godoc
// @Summary Get a quiz with its questions
// @Tags Content - Quizzes
// @Produce json
// @Param quiz_id path int true "Quiz ID"
// @Success 200 {object} dto.QuizResponseDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /org/quizzes/{quiz_id} [get]
func (c *ContentController) GetQuiz(ctx *gin.Context) {
	quizID, ok := pathID(ctx, "quiz_id")
	if !ok {
		return
	}
	resp, err := c.quizService.GetQuiz(quizID)
	if err != nil {
		controller.WriteError(ctx, err, "Failed to load quiz")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListOrganizationQuizzes godoc
// @Summary List an organization's quizzes
// @Tags Content - Quizzes
// @Produce json
// @Param organization_id query int true "Organization ID"
// @Success 200 {array} dto.QuizSummaryDTO
// @Router /org/quizzes [get]
func (c *ContentController) ListOrganizationQuizzes(ctx *gin.Context) {
	orgID, ok := queryID(ctx, "organization_id")
	if !ok {
		return
	}
	resp, err := c.quizService.ListOrganizationQuizzes(orgID)
	if err != nil {
		controller.WriteError(ctx, err, "Failed to list quizzes")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// PublishQuiz godoc
// @Summary Publish a draft quiz
// @Tags Content - Quizzes
// @Produce json
// @Param quiz_id path int true "Quiz ID"
// @Success 200 {object} dto.QuizResponseDTO
// @Failure 409 {object} dto.ErrorResponse "Quiz is not a draft"
// @Router /org/quizzes/{quiz_id}/publish [post]
func (c *ContentController) PublishQuiz(ctx *gin.Context) {
	quizID, ok := pathID(ctx, "quiz_id")
	if !ok {
		return
	}
	resp, err := c.quizService.Publish(quizID)
	if err != nil {
		log.Error().Err(err).Uint("quizID", quizID).Msg("PublishQuiz: Service error")
		controller.WriteError(ctx, err, "Failed to publish quiz")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ArchiveQuiz godoc
// @Summary Archive a published quiz
// @Description Stops new attempts. Attempts already in progress are unaffected.
// @Tags Content - Quizzes
// @Produce json
// @Param quiz_id path int true "Quiz ID"
// @Success 200 {object} dto.QuizResponseDTO
// @Failure 409 {object} dto.ErrorResponse "Quiz is not published"
// @Router /org/quizzes/{quiz_id}/archive [post]
func (c *ContentController) ArchiveQuiz(ctx *gin.Context) {
	quizID, ok := pathID(ctx, "quiz_id")
	if !ok {
		return
	}
	resp, err := c.quizService.Archive(quizID)
	if err != nil {
		log.Error().Err(err).Uint("quizID", quizID).Msg("ArchiveQuiz: Service error")
		controller.WriteError(ctx, err, "Failed to archive quiz")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
