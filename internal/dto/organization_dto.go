package dto

import (
	"time"

	"github.com/codequizhub/codequizhub/internal/model"
)

// OrganizationRegisterDTO registers a new organization together with its
// admin account. Both are created atomically, in pending approval state.
type OrganizationRegisterDTO struct {
	Name          string `json:"name" binding:"required,min=2,max=100"`
	Description   string `json:"description,omitempty"`
	AdminUsername string `json:"admin_username" binding:"required,min=3,max=80"`
	AdminEmail    string `json:"admin_email" binding:"required,email"`
	AdminPassword string `json:"admin_password" binding:"required,min=8"`
	AdminName     string `json:"admin_name,omitempty"`
}

type OrganizationResponseDTO struct {
	ID             uint                    `json:"id"`
	Name           string                  `json:"name"`
	Description    string                  `json:"description,omitempty"`
	ApprovalStatus model.OrgApprovalStatus `json:"approval_status"`
	RequestedAt    time.Time               `json:"requested_at"`
	ApprovedAt     *time.Time              `json:"approved_at,omitempty"`
	RejectedAt     *time.Time              `json:"rejected_at,omitempty"`
	AdminUserID    *uint                   `json:"admin_user_id,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
}

type UserResponseDTO struct {
	ID             uint           `json:"id"`
	Email          string         `json:"email"`
	DisplayName    string         `json:"display_name,omitempty"`
	Role           model.UserRole `json:"role"`
	OrganizationID *uint          `json:"organization_id,omitempty"`
	StudentCode    string         `json:"student_code,omitempty"`
	EnrollmentDate *time.Time     `json:"enrollment_date,omitempty"`
}

// ActorDTO carries the acting user's id for privileged operations. Session
// management is outside the core; the routing layer supplies the identity.
type ActorDTO struct {
	ActorUserID uint `json:"actor_user_id" binding:"required"`
}
