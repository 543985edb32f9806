package dto

import (
	"time"

	"github.com/codequizhub/codequizhub/internal/model"
)

// InvitationCreateDTO invites an email address to join an organization as a
// teacher or student. TTLHours defaults to the configured invitation TTL.
type InvitationCreateDTO struct {
	OrganizationID uint           `json:"organization_id" binding:"required"`
	InviteeEmail   string         `json:"invitee_email" binding:"required,email"`
	Role           model.UserRole `json:"role" binding:"required,oneof=teacher student"`
	TTLHours       int            `json:"ttl_hours,omitempty"`
	ActorUserID    uint           `json:"actor_user_id" binding:"required"`
}

type InvitationResponseDTO struct {
	ID             uint                   `json:"id"`
	OrganizationID uint                   `json:"organization_id"`
	InviteeEmail   string                 `json:"invitee_email"`
	InvitedAsRole  model.UserRole         `json:"invited_as_role"`
	Token          string                 `json:"token"`
	Status         model.InvitationStatus `json:"status"`
	ExpiresAt      time.Time              `json:"expires_at"`
	CreatedAt      time.Time              `json:"created_at"`
}

// InvitationAcceptDTO creates the invited user account and resolves the
// invitation in one atomic step.
type InvitationAcceptDTO struct {
	Token       string `json:"token" binding:"required"`
	Username    string `json:"username" binding:"required,min=3,max=80"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name,omitempty"`
	StudentCode string `json:"student_code,omitempty"`
}
