package model

import (
	"time"

	"gorm.io/gorm"
)

// Invitation records an offer to join an organization as teacher or student.
// Expiry is lazy: a pending invitation past ExpiresAt reads as expired and the
// next accept/cancel touching it persists that state.
type Invitation struct {
	ID               uint             `gorm:"primarykey" json:"id"`
	OrganizationID   uint             `json:"organization_id" gorm:"not null;index"`
	InviteeEmail     string           `json:"invitee_email" gorm:"not null;index"`
	InvitedAsRole    UserRole         `json:"invited_as_role" gorm:"not null;default:'student'"`
	Token            string           `json:"token" gorm:"not null;uniqueIndex"`
	Status           InvitationStatus `json:"status" gorm:"not null;index;default:'pending'"`
	ExpiresAt        time.Time        `json:"expires_at" gorm:"not null"`
	InviterUserID    *uint            `json:"inviter_user_id,omitempty" gorm:"index"`
	AcceptedByUserID *uint            `json:"accepted_by_user_id,omitempty" gorm:"index"`
	AcceptedAt       *time.Time       `json:"accepted_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	DeletedAt        gorm.DeletedAt   `gorm:"index" json:"-"`
}
