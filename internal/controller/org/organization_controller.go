package org

import (
	"net/http"
	"strconv"

	"github.com/codequizhub/codequizhub/internal/controller"
	"github.com/codequizhub/codequizhub/internal/dto"
	"github.com/codequizhub/codequizhub/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// OrganizationController handles organization registration and the
// invitation workflow run by organization admins.
type OrganizationController struct {
	orgService service.OrganizationService
	invService service.InvitationService
}

func NewOrganizationController(orgService service.OrganizationService, invService service.InvitationService) *OrganizationController {
	return &OrganizationController{orgService: orgService, invService: invService}
}

// RegisterOrganization godoc
// @Summary Register a new organization
// @Description Creates the organization and its admin account in pending state. The admin cannot log in until a platform admin approves.
// @Tags Organizations
// @Accept json
// @Produce json
// @Param registration body dto.OrganizationRegisterDTO true "Organization and admin account details"
// @Success 201 {object} dto.OrganizationResponseDTO
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Name, username or email already taken"
// @Router /organizations/register [post]
func (c *OrganizationController) RegisterOrganization(ctx *gin.Context) {
	var req dto.OrganizationRegisterDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("RegisterOrganization: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.orgService.Register(req)
	if err != nil {
		log.Error().Err(err).Str("name", req.Name).Msg("RegisterOrganization: Service error")
		controller.WriteError(ctx, err, "Failed to register organization")
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// GetOrganization godoc
// @Summary Get an organization
// @Tags Organizations
// @Produce json
// @Param org_id path int true "Organization ID"
// @Success 200 {object} dto.OrganizationResponseDTO
// @Failure 404 {object} dto.ErrorResponse
// @Router /organizations/{org_id} [get]
func (c *OrganizationController) GetOrganization(ctx *gin.Context) {
	orgID, ok := pathID(ctx, "org_id")
	if !ok {
		return
	}
	resp, err := c.orgService.GetByID(orgID)
	if err != nil {
		controller.WriteError(ctx, err, "Failed to load organization")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// CreateInvitation godoc
// @Summary Invite a teacher or student into an organization
// @Description Issues a single-use invitation token with an expiry. Only the organization's admin may invite.
// @Tags Organizations - Invitations
// @Accept json
// @Produce json
// @Param invitation body dto.InvitationCreateDTO true "Invitation details"
// @Success 201 {object} dto.InvitationResponseDTO
// @Failure 403 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse "Role is not teacher or student"
// @Router /org/invitations [post]
func (c *OrganizationController) CreateInvitation(ctx *gin.Context) {
	var req dto.InvitationCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("CreateInvitation: Failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.invService.Invite(req)
	if err != nil {
		log.Error().Err(err).Uint("orgID", req.OrganizationID).Msg("CreateInvitation: Service error")
		controller.WriteError(ctx, err, "Failed to create invitation")
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// ListInvitations godoc
// @Summary List an organization's invitations
// @Description Pending invitations past their deadline are reported as expired.
// @Tags Organizations - Invitations
// @Produce json
// @Param organization_id query int true "Organization ID"
// @Param actor_user_id query int true "Acting organization admin"
// @Success 200 {array} dto.InvitationResponseDTO
// @Failure 403 {object} dto.ErrorResponse
// @Router /org/invitations [get]
func (c *OrganizationController) ListInvitations(ctx *gin.Context) {
	orgID, ok := queryID(ctx, "organization_id")
	if !ok {
		return
	}
	actorID, ok := queryID(ctx, "actor_user_id")
	if !ok {
		return
	}
	resp, err := c.invService.ListByOrganization(orgID, actorID)
	if err != nil {
		controller.WriteError(ctx, err, "Failed to list invitations")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// CancelInvitation godoc
// @Summary Cancel a pending invitation
// @Tags Organizations - Invitations
// @Accept json
// @Produce json
// @Param invitation_id path int true "Invitation ID"
// @Param actor body dto.ActorDTO true "Acting organization admin"
// @Success 200 {object} dto.InvitationResponseDTO
// @Failure 403 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Invitation already resolved"
// @Failure 410 {object} dto.ErrorResponse "Invitation expired"
// @Router /org/invitations/{invitation_id}/cancel [post]
func (c *OrganizationController) CancelInvitation(ctx *gin.Context) {
	invID, ok := pathID(ctx, "invitation_id")
	if !ok {
		return
	}
	var actor dto.ActorDTO
	if err := ctx.ShouldBindJSON(&actor); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}
	resp, err := c.invService.Cancel(invID, actor.ActorUserID)
	if err != nil {
		log.Error().Err(err).Uint("invitationID", invID).Msg("CancelInvitation: Service error")
		controller.WriteError(ctx, err, "Failed to cancel invitation")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func queryID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Query(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid or missing " + name})
		return 0, false
	}
	return uint(id), true
}
