package service

import (
	"errors"
	"fmt"

	"github.com/codequizhub/codequizhub/internal/dto"
	"github.com/codequizhub/codequizhub/internal/model"
	"github.com/codequizhub/codequizhub/internal/repository"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// OrganizationService manages the organization registration and approval
// workflow. A registration creates the organization together with its admin
// user whose credentials stay inactive until a platform admin approves.
type OrganizationService interface {
	Register(req dto.OrganizationRegisterDTO) (*dto.OrganizationResponseDTO, error)
	Approve(orgID, actorUserID uint) (*dto.OrganizationResponseDTO, error)
	Reject(orgID, actorUserID uint) (*dto.OrganizationResponseDTO, error)
	// ResetRejected moves a rejected organization back to pending so it can
	// be re-reviewed. Platform admin only.
	ResetRejected(orgID, actorUserID uint) (*dto.OrganizationResponseDTO, error)
	// ActivateMembers enables login for the approved organization's member
	// accounts. Approval alone does not activate anyone; this is the
	// explicit, idempotent second admission step.
	ActivateMembers(orgID, actorUserID uint) (int64, error)
	GetByID(orgID uint) (*dto.OrganizationResponseDTO, error)
	ListByStatus(status model.OrgApprovalStatus) ([]dto.OrganizationResponseDTO, error)
}

type organizationService struct {
	orgRepo  repository.OrganizationRepository
	userRepo repository.UserRepository
	clock    Clock
}

func NewOrganizationService(orgRepo repository.OrganizationRepository, userRepo repository.UserRepository, clock Clock) OrganizationService {
	return &organizationService{orgRepo: orgRepo, userRepo: userRepo, clock: clock}
}

func (s *organizationService) Register(req dto.OrganizationRegisterDTO) (*dto.OrganizationResponseDTO, error) {
	if _, err := s.orgRepo.FindByName(req.Name); err == nil {
		return nil, fmt.Errorf("organization %q: %w", req.Name, ErrDuplicateName)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("checking organization name: %w", err)
	}

	creds := model.Credentials{
		Username: req.AdminUsername,
		Role:     model.RoleOrganization,
		IsActive: false,
	}
	if err := creds.SetPassword(req.AdminPassword); err != nil {
		return nil, fmt.Errorf("hashing admin password: %w", err)
	}
	org := model.Organization{
		Name:           req.Name,
		Description:    req.Description,
		ApprovalStatus: model.OrgPending,
		RequestedAt:    s.clock(),
	}
	admin := model.User{
		Email:       req.AdminEmail,
		DisplayName: req.AdminName,
	}

	if err := s.orgRepo.CreateWithAdmin(&org, &admin, &creds); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("registering organization: %w", ErrDuplicateCredentials)
		}
		log.Error().Err(err).Str("name", req.Name).Msg("Register: failed to create organization with admin")
		return nil, fmt.Errorf("registering organization: %w", err)
	}
	log.Info().Uint("orgID", org.ID).Str("name", org.Name).Msg("Organization registered, awaiting approval")

	return s.toDTO(&org)
}

func (s *organizationService) Approve(orgID, actorUserID uint) (*dto.OrganizationResponseDTO, error) {
	if err := s.requirePlatformAdmin(actorUserID); err != nil {
		return nil, err
	}
	org, err := s.findOrg(orgID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	org.ApprovalStatus = model.OrgApproved
	org.ApprovedAt = &now
	org.RejectedAt = nil
	org.ApprovedByAdminID = &actorUserID

	affected, err := s.orgRepo.UpdateStatusIf(org, model.OrgPending)
	if err != nil {
		return nil, fmt.Errorf("approving organization %d: %w", orgID, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("organization %d is not pending: %w", orgID, ErrInvalidTransition)
	}
	// Approval does not log anyone in yet; member credentials stay inactive
	// until ActivateMembers runs.
	log.Info().Uint("orgID", orgID).Uint("actorID", actorUserID).Msg("Organization approved")

	return s.toDTO(org)
}

func (s *organizationService) Reject(orgID, actorUserID uint) (*dto.OrganizationResponseDTO, error) {
	if err := s.requirePlatformAdmin(actorUserID); err != nil {
		return nil, err
	}
	org, err := s.findOrg(orgID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	org.ApprovalStatus = model.OrgRejected
	org.RejectedAt = &now
	org.ApprovedAt = nil
	org.ApprovedByAdminID = &actorUserID

	affected, err := s.orgRepo.UpdateStatusIf(org, model.OrgPending)
	if err != nil {
		return nil, fmt.Errorf("rejecting organization %d: %w", orgID, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("organization %d is not pending: %w", orgID, ErrInvalidTransition)
	}
	log.Info().Uint("orgID", orgID).Uint("actorID", actorUserID).Msg("Organization rejected")

	return s.toDTO(org)
}

func (s *organizationService) ResetRejected(orgID, actorUserID uint) (*dto.OrganizationResponseDTO, error) {
	if err := s.requirePlatformAdmin(actorUserID); err != nil {
		return nil, err
	}
	org, err := s.findOrg(orgID)
	if err != nil {
		return nil, err
	}

	org.ApprovalStatus = model.OrgPending
	org.ApprovedAt = nil
	org.RejectedAt = nil
	org.ApprovedByAdminID = nil

	affected, err := s.orgRepo.UpdateStatusIf(org, model.OrgRejected)
	if err != nil {
		return nil, fmt.Errorf("resetting organization %d: %w", orgID, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("organization %d is not rejected: %w", orgID, ErrInvalidTransition)
	}
	log.Info().Uint("orgID", orgID).Uint("actorID", actorUserID).Msg("Rejected organization moved back to pending")

	return s.toDTO(org)
}

func (s *organizationService) GetByID(orgID uint) (*dto.OrganizationResponseDTO, error) {
	org, err := s.findOrg(orgID)
	if err != nil {
		return nil, err
	}
	return s.toDTO(org)
}

func (s *organizationService) ActivateMembers(orgID, actorUserID uint) (int64, error) {
	if err := s.requirePlatformAdmin(actorUserID); err != nil {
		return 0, err
	}
	org, err := s.findOrg(orgID)
	if err != nil {
		return 0, err
	}
	if org.ApprovalStatus != model.OrgApproved {
		return 0, fmt.Errorf("organization %d is %s, not approved: %w", orgID, org.ApprovalStatus, ErrInvalidTransition)
	}

	activated, err := s.orgRepo.ActivateMemberCredentials(orgID)
	if err != nil {
		log.Error().Err(err).Uint("orgID", orgID).Msg("ActivateMembers: failed to activate credentials")
		return 0, fmt.Errorf("activating members of organization %d: %w", orgID, err)
	}
	log.Info().Uint("orgID", orgID).Int64("activated", activated).Msg("Organization members activated")
	return activated, nil
}

func (s *organizationService) ListByStatus(status model.OrgApprovalStatus) ([]dto.OrganizationResponseDTO, error) {
	orgs, err := s.orgRepo.ListByStatus(status)
	if err != nil {
		return nil, fmt.Errorf("listing %s organizations: %w", status, err)
	}
	dtos := make([]dto.OrganizationResponseDTO, 0, len(orgs))
	for i := range orgs {
		d, err := s.toDTO(&orgs[i])
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, *d)
	}
	return dtos, nil
}

func (s *organizationService) findOrg(orgID uint) (*model.Organization, error) {
	org, err := s.orgRepo.FindByID(orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("organization %d: %w", orgID, ErrNotFound)
		}
		return nil, fmt.Errorf("loading organization %d: %w", orgID, err)
	}
	return org, nil
}

func (s *organizationService) requirePlatformAdmin(actorUserID uint) error {
	actor, err := s.userRepo.FindByID(actorUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("actor %d: %w", actorUserID, ErrNotFound)
		}
		return fmt.Errorf("loading actor %d: %w", actorUserID, err)
	}
	if actor.Credentials.Role != model.RoleAdmin {
		return fmt.Errorf("actor %d is not a platform admin: %w", actorUserID, ErrForbidden)
	}
	return nil
}

func (s *organizationService) toDTO(org *model.Organization) (*dto.OrganizationResponseDTO, error) {
	var resp dto.OrganizationResponseDTO
	if err := copier.Copy(&resp, org); err != nil {
		return nil, fmt.Errorf("preparing organization response: %w", err)
	}
	return &resp, nil
}
