package model

import (
	"time"

	"gorm.io/gorm"
)

// User is the profile side of an account, linked 1:1 with Credentials.
// OrganizationID is nil for individual users.
type User struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	CredentialsID  uint           `json:"credentials_id" gorm:"not null;uniqueIndex"`
	Credentials    Credentials    `json:"credentials,omitempty" gorm:"foreignKey:CredentialsID"`
	Email          string         `json:"email" gorm:"not null;uniqueIndex"`
	DisplayName    string         `json:"display_name"`
	OrganizationID *uint          `json:"organization_id,omitempty" gorm:"index"`
	StudentCode    string         `json:"student_code,omitempty" gorm:"index"` // roll number / employee id
	EnrollmentDate *time.Time     `json:"enrollment_date,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
