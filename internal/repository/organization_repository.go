package repository

import (
	"github.com/codequizhub/codequizhub/internal/model"
	"gorm.io/gorm"
)

type OrganizationRepository interface {
	// CreateWithAdmin persists the organization together with its pending
	// admin user and credentials in one transaction, so a failure on any
	// row leaves no partial registration behind.
	CreateWithAdmin(org *model.Organization, admin *model.User, creds *model.Credentials) error
	FindByID(id uint) (*model.Organization, error)
	FindByName(name string) (*model.Organization, error)
	ListByStatus(status model.OrgApprovalStatus) ([]model.Organization, error)
	// UpdateStatusIf flips the approval status only when the stored row still
	// carries the expected one. Returns the number of rows changed, so the
	// caller can detect a lost race without a second read.
	UpdateStatusIf(org *model.Organization, expected model.OrgApprovalStatus) (int64, error)
	// ActivateMemberCredentials enables login for every member of the
	// organization. Already-active rows are unaffected, so the call is
	// idempotent.
	ActivateMemberCredentials(orgID uint) (int64, error)
}

type organizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) CreateWithAdmin(org *model.Organization, admin *model.User, creds *model.Credentials) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(creds).Error; err != nil {
			return err
		}
		if err := tx.Create(org).Error; err != nil {
			return err
		}
		admin.CredentialsID = creds.ID
		admin.OrganizationID = &org.ID
		if err := tx.Create(admin).Error; err != nil {
			return err
		}
		org.AdminUserID = &admin.ID
		return tx.Model(org).Update("admin_user_id", admin.ID).Error
	})
}

func (r *organizationRepository) FindByID(id uint) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.Preload("AdminUser").Preload("AdminUser.Credentials").First(&org, id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) FindByName(name string) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.Where("name = ?", name).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) ListByStatus(status model.OrgApprovalStatus) ([]model.Organization, error) {
	var orgs []model.Organization
	if err := r.db.Where("approval_status = ?", status).Order("requested_at asc").Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

func (r *organizationRepository) UpdateStatusIf(org *model.Organization, expected model.OrgApprovalStatus) (int64, error) {
	res := r.db.Model(&model.Organization{}).
		Where("id = ? AND approval_status = ?", org.ID, expected).
		Updates(map[string]interface{}{
			"approval_status":      org.ApprovalStatus,
			"approved_at":          org.ApprovedAt,
			"rejected_at":          org.RejectedAt,
			"approved_by_admin_id": org.ApprovedByAdminID,
		})
	return res.RowsAffected, res.Error
}

func (r *organizationRepository) ActivateMemberCredentials(orgID uint) (int64, error) {
	memberCreds := r.db.Model(&model.User{}).Select("credentials_id").Where("organization_id = ?", orgID)
	res := r.db.Model(&model.Credentials{}).
		Where("id IN (?) AND is_active = ?", memberCreds, false).
		Update("is_active", true)
	return res.RowsAffected, res.Error
}
