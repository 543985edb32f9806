package model

import (
	"time"

	"gorm.io/gorm"
)

// Organization is a college/company tenant. It registers in pending state and
// must be approved by a platform admin before its members can be activated.
type Organization struct {
	ID                uint              `gorm:"primarykey" json:"id"`
	Name              string            `json:"name" gorm:"not null;uniqueIndex"`
	Description       string            `json:"description,omitempty"`
	ApprovalStatus    OrgApprovalStatus `json:"approval_status" gorm:"not null;index;default:'pending'"`
	RequestedAt       time.Time         `json:"requested_at" gorm:"not null"`
	ApprovedAt        *time.Time        `json:"approved_at,omitempty"`
	RejectedAt        *time.Time        `json:"rejected_at,omitempty"`
	ApprovedByAdminID *uint             `json:"approved_by_admin_id,omitempty" gorm:"index"`
	AdminUserID       *uint             `json:"admin_user_id,omitempty" gorm:"uniqueIndex"`
	AdminUser         *User             `json:"admin_user,omitempty" gorm:"foreignKey:AdminUserID"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	DeletedAt         gorm.DeletedAt    `gorm:"index" json:"-"`
}
