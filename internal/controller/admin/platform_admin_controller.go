package admin

import (
	"net/http"
	"strconv"

	"github.com/codequizhub/codequizhub/internal/controller"
	"github.com/codequizhub/codequizhub/internal/dto"
	"github.com/codequizhub/codequizhub/internal/model"
	"github.com/codequizhub/codequizhub/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// PlatformAdminController exposes the organization approval workflow to
// platform administrators.
type PlatformAdminController struct {
	orgService service.OrganizationService
}

func NewPlatformAdminController(orgService service.OrganizationService) *PlatformAdminController {
	return &PlatformAdminController{orgService: orgService}
}

// ListOrganizations godoc
// @Summary (Admin) List organizations by approval status
// @Tags Admin - Organizations
// @Produce json
// @Param status query string false "pending (default), approved or rejected"
// @Success 200 {array} dto.OrganizationResponseDTO
// @Failure 500 {object} dto.ErrorResponse
// @Router /admin/organizations [get]
func (c *PlatformAdminController) ListOrganizations(ctx *gin.Context) {
	status := model.OrgApprovalStatus(ctx.DefaultQuery("status", string(model.OrgPending)))
	orgs, err := c.orgService.ListByStatus(status)
	if err != nil {
		log.Error().Err(err).Str("status", string(status)).Msg("ListOrganizations: Service error")
		controller.WriteError(ctx, err, "Failed to list organizations")
		return
	}
	ctx.JSON(http.StatusOK, orgs)
}

// ApproveOrganization godoc
// @Summary (Admin) Approve a pending organization
// @Description Approves the organization and activates its admin's login.
// @Tags Admin - Organizations
// @Accept json
// @Produce json
// @Param org_id path int true "Organization ID"
// @Param actor body dto.ActorDTO true "Acting platform admin"
// @Success 200 {object} dto.OrganizationResponseDTO
// @Failure 403 {object} dto.ErrorResponse "Actor is not a platform admin"
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Organization is not pending"
// @Router /admin/organizations/{org_id}/approve [post]
func (c *PlatformAdminController) ApproveOrganization(ctx *gin.Context) {
	orgID, actor, ok := c.orgAndActor(ctx)
	if !ok {
		return
	}
	resp, err := c.orgService.Approve(orgID, actor.ActorUserID)
	if err != nil {
		log.Error().Err(err).Uint("orgID", orgID).Msg("ApproveOrganization: Service error")
		controller.WriteError(ctx, err, "Failed to approve organization")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// RejectOrganization godoc
// @Summary (Admin) Reject a pending organization
// @Tags Admin - Organizations
// @Accept json
// @Produce json
// @Param org_id path int true "Organization ID"
// @Param actor body dto.ActorDTO true "Acting platform admin"
// @Success 200 {object} dto.OrganizationResponseDTO
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Organization is not pending"
// @Router /admin/organizations/{org_id}/reject [post]
func (c *PlatformAdminController) RejectOrganization(ctx *gin.Context) {
	orgID, actor, ok := c.orgAndActor(ctx)
	if !ok {
		return
	}
	resp, err := c.orgService.Reject(orgID, actor.ActorUserID)
	if err != nil {
		log.Error().Err(err).Uint("orgID", orgID).Msg("RejectOrganization: Service error")
		controller.WriteError(ctx, err, "Failed to reject organization")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ResetRejectedOrganization godoc
// @Summary (Admin) Move a rejected organization back to pending
// @Tags Admin - Organizations
// @Accept json
// @Produce json
// @Param org_id path int true "Organization ID"
// @Param actor body dto.ActorDTO true "Acting platform admin"
// @Success 200 {object} dto.OrganizationResponseDTO
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Organization is not rejected"
// @Router /admin/organizations/{org_id}/reset [post]
func (c *PlatformAdminController) ResetRejectedOrganization(ctx *gin.Context) {
	orgID, actor, ok := c.orgAndActor(ctx)
	if !ok {
		return
	}
	resp, err := c.orgService.ResetRejected(orgID, actor.ActorUserID)
	if err != nil {
		log.Error().Err(err).Uint("orgID", orgID).Msg("ResetRejectedOrganization: Service error")
		controller.WriteError(ctx, err, "Failed to reset organization")
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ActivateMembers godoc
// @Summary (Admin) Activate an approved organization's member accounts
// @Description Second admission step after approval. Idempotent; already active accounts are untouched.
// @Tags Admin - Organizations
// @Accept json
// @Produce json
// @Param org_id path int true "Organization ID"
// @Param actor body dto.ActorDTO true "Acting platform admin"
// @Success 200 {object} dto.Ack
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Organization is not approved"
// @Router /admin/organizations/{org_id}/activate-members [post]
func (c *PlatformAdminController) ActivateMembers(ctx *gin.Context) {
	orgID, actor, ok := c.orgAndActor(ctx)
	if !ok {
		return
	}
	activated, err := c.orgService.ActivateMembers(orgID, actor.ActorUserID)
	if err != nil {
		log.Error().Err(err).Uint("orgID", orgID).Msg("ActivateMembers: Service error")
		controller.WriteError(ctx, err, "Failed to activate organization members")
		return
	}
	log.Info().Uint("orgID", orgID).Int64("activated", activated).Msg("Members activated")
	ctx.JSON(http.StatusOK, dto.Ack{OK: true})
}

func (c *PlatformAdminController) orgAndActor(ctx *gin.Context) (uint, dto.ActorDTO, bool) {
	id, err := strconv.ParseUint(ctx.Param("org_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid organization ID"})
		return 0, dto.ActorDTO{}, false
	}
	var actor dto.ActorDTO
	if err := ctx.ShouldBindJSON(&actor); err != nil {
		log.Warn().Err(err).Msg("Failed to bind actor body")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return 0, dto.ActorDTO{}, false
	}
	return uint(id), actor, true
}
