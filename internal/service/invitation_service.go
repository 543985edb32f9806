package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/codequizhub/codequizhub/internal/dto"
	"github.com/codequizhub/codequizhub/internal/model"
	"github.com/codequizhub/codequizhub/internal/repository"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// InvitationService manages invitations of teachers and students into an
// organization. Expiry is evaluated lazily: nothing scans for overdue
// invitations, the deadline is checked whenever one is touched.
type InvitationService interface {
	Invite(req dto.InvitationCreateDTO) (*dto.InvitationResponseDTO, error)
	// Resolve looks an invitation up by token and reports its effective
	// status. A pending invitation past its deadline is reported as expired
	// without being written back.
	Resolve(token string) (*dto.InvitationResponseDTO, error)
	Accept(req dto.InvitationAcceptDTO) (*dto.UserResponseDTO, error)
	Cancel(invitationID, actorUserID uint) (*dto.InvitationResponseDTO, error)
	ListByOrganization(orgID, actorUserID uint) ([]dto.InvitationResponseDTO, error)
}

type invitationService struct {
	invRepo    repository.InvitationRepository
	orgRepo    repository.OrganizationRepository
	userRepo   repository.UserRepository
	clock      Clock
	defaultTTL time.Duration
}

func NewInvitationService(
	invRepo repository.InvitationRepository,
	orgRepo repository.OrganizationRepository,
	userRepo repository.UserRepository,
	clock Clock,
	defaultTTL time.Duration,
) InvitationService {
	return &invitationService{
		invRepo:    invRepo,
		orgRepo:    orgRepo,
		userRepo:   userRepo,
		clock:      clock,
		defaultTTL: defaultTTL,
	}
}

func (s *invitationService) Invite(req dto.InvitationCreateDTO) (*dto.InvitationResponseDTO, error) {
	if req.Role != model.RoleTeacher && req.Role != model.RoleStudent {
		return nil, fmt.Errorf("cannot invite as %q: %w", req.Role, ErrInvalidRole)
	}
	if err := s.requireOrgAdmin(req.ActorUserID, req.OrganizationID); err != nil {
		return nil, err
	}
	org, err := s.orgRepo.FindByID(req.OrganizationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("organization %d: %w", req.OrganizationID, ErrNotFound)
		}
		return nil, fmt.Errorf("loading organization %d: %w", req.OrganizationID, err)
	}
	if org.ApprovalStatus != model.OrgApproved {
		return nil, fmt.Errorf("organization %d is not approved: %w", org.ID, ErrInvalidTransition)
	}

	ttl := s.defaultTTL
	if req.TTLHours > 0 {
		ttl = time.Duration(req.TTLHours) * time.Hour
	}
	now := s.clock()
	inv := model.Invitation{
		OrganizationID: req.OrganizationID,
		InviteeEmail:   req.InviteeEmail,
		InvitedAsRole:  req.Role,
		Token:          uuid.NewString(),
		Status:         model.InvitationPending,
		ExpiresAt:      now.Add(ttl),
		InviterUserID:  &req.ActorUserID,
	}
	if err := s.invRepo.Create(&inv); err != nil {
		log.Error().Err(err).Uint("orgID", req.OrganizationID).Msg("Invite: failed to create invitation")
		return nil, fmt.Errorf("creating invitation: %w", err)
	}
	log.Info().Uint("invitationID", inv.ID).Str("email", inv.InviteeEmail).Str("role", string(inv.InvitedAsRole)).Msg("Invitation created")

	return s.toDTO(&inv)
}

func (s *invitationService) Resolve(token string) (*dto.InvitationResponseDTO, error) {
	inv, err := s.findByToken(token)
	if err != nil {
		return nil, err
	}
	resp, err := s.toDTO(inv)
	if err != nil {
		return nil, err
	}
	if inv.Status == model.InvitationPending && s.clock().After(inv.ExpiresAt) {
		resp.Status = model.InvitationExpired
	}
	return resp, nil
}

func (s *invitationService) Accept(req dto.InvitationAcceptDTO) (*dto.UserResponseDTO, error) {
	inv, err := s.findByToken(req.Token)
	if err != nil {
		return nil, err
	}
	if inv.Status != model.InvitationPending {
		return nil, fmt.Errorf("invitation %d is %s: %w", inv.ID, inv.Status, ErrInvitationAlreadyResolved)
	}
	if s.clock().After(inv.ExpiresAt) {
		if err := s.persistExpired(inv); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("invitation %d: %w", inv.ID, ErrInvitationExpired)
	}

	creds := model.Credentials{
		Username: req.Username,
		Role:     inv.InvitedAsRole,
		IsActive: true,
	}
	if err := creds.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	now := s.clock()
	user := model.User{
		Email:          req.Email,
		DisplayName:    req.DisplayName,
		OrganizationID: &inv.OrganizationID,
	}
	if inv.InvitedAsRole == model.RoleStudent {
		user.StudentCode = req.StudentCode
		user.EnrollmentDate = &now
	}

	inv.Status = model.InvitationAccepted
	inv.AcceptedAt = &now
	affected, err := s.invRepo.AcceptWithUser(inv, &user, &creds)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("accepting invitation %d: %w", inv.ID, ErrDuplicateCredentials)
		}
		log.Error().Err(err).Uint("invitationID", inv.ID).Msg("Accept: transaction failed")
		return nil, fmt.Errorf("accepting invitation %d: %w", inv.ID, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("invitation %d: %w", inv.ID, ErrInvitationAlreadyResolved)
	}
	log.Info().Uint("invitationID", inv.ID).Uint("userID", user.ID).Msg("Invitation accepted")

	var resp dto.UserResponseDTO
	if err := copier.Copy(&resp, &user); err != nil {
		return nil, fmt.Errorf("preparing user response: %w", err)
	}
	resp.Role = inv.InvitedAsRole
	return &resp, nil
}

func (s *invitationService) Cancel(invitationID, actorUserID uint) (*dto.InvitationResponseDTO, error) {
	inv, err := s.invRepo.FindByID(invitationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invitation %d: %w", invitationID, ErrNotFound)
		}
		return nil, fmt.Errorf("loading invitation %d: %w", invitationID, err)
	}
	if err := s.requireOrgAdmin(actorUserID, inv.OrganizationID); err != nil {
		return nil, err
	}
	if inv.Status != model.InvitationPending {
		return nil, fmt.Errorf("invitation %d is %s: %w", inv.ID, inv.Status, ErrInvitationAlreadyResolved)
	}
	if s.clock().After(inv.ExpiresAt) {
		if err := s.persistExpired(inv); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("invitation %d: %w", inv.ID, ErrInvitationExpired)
	}

	inv.Status = model.InvitationCancelled
	affected, err := s.invRepo.UpdateStatusIf(inv, model.InvitationPending)
	if err != nil {
		return nil, fmt.Errorf("cancelling invitation %d: %w", inv.ID, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("invitation %d: %w", inv.ID, ErrInvitationAlreadyResolved)
	}
	log.Info().Uint("invitationID", inv.ID).Uint("actorID", actorUserID).Msg("Invitation cancelled")

	return s.toDTO(inv)
}

func (s *invitationService) ListByOrganization(orgID, actorUserID uint) ([]dto.InvitationResponseDTO, error) {
	if err := s.requireOrgAdmin(actorUserID, orgID); err != nil {
		return nil, err
	}
	invs, err := s.invRepo.ListByOrganization(orgID)
	if err != nil {
		return nil, fmt.Errorf("listing invitations for organization %d: %w", orgID, err)
	}
	now := s.clock()
	dtos := make([]dto.InvitationResponseDTO, 0, len(invs))
	for i := range invs {
		d, err := s.toDTO(&invs[i])
		if err != nil {
			return nil, err
		}
		if invs[i].Status == model.InvitationPending && now.After(invs[i].ExpiresAt) {
			d.Status = model.InvitationExpired
		}
		dtos = append(dtos, *d)
	}
	return dtos, nil
}

// persistExpired records the lazy pending to expired transition. Losing the
// race to another writer is fine, the invitation is terminal either way.
func (s *invitationService) persistExpired(inv *model.Invitation) error {
	expired := *inv
	expired.Status = model.InvitationExpired
	if _, err := s.invRepo.UpdateStatusIf(&expired, model.InvitationPending); err != nil {
		return fmt.Errorf("expiring invitation %d: %w", inv.ID, err)
	}
	return nil
}

func (s *invitationService) findByToken(token string) (*model.Invitation, error) {
	inv, err := s.invRepo.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invitation token: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("loading invitation by token: %w", err)
	}
	return inv, nil
}

func (s *invitationService) requireOrgAdmin(actorUserID, orgID uint) error {
	actor, err := s.userRepo.FindByID(actorUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("actor %d: %w", actorUserID, ErrNotFound)
		}
		return fmt.Errorf("loading actor %d: %w", actorUserID, err)
	}
	if actor.Credentials.Role != model.RoleOrganization || actor.OrganizationID == nil || *actor.OrganizationID != orgID {
		return fmt.Errorf("actor %d is not an admin of organization %d: %w", actorUserID, orgID, ErrForbidden)
	}
	return nil
}

func (s *invitationService) toDTO(inv *model.Invitation) (*dto.InvitationResponseDTO, error) {
	var resp dto.InvitationResponseDTO
	if err := copier.Copy(&resp, inv); err != nil {
		return nil, fmt.Errorf("preparing invitation response: %w", err)
	}
	return &resp, nil
}
