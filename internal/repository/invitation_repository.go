package repository

import (
	"errors"

	"github.com/codequizhub/codequizhub/internal/model"
	"gorm.io/gorm"
)

// errAcceptLost aborts the accept transaction when another caller already
// resolved the invitation, rolling back the freshly created user rows.
var errAcceptLost = errors.New("invitation already resolved")

type InvitationRepository interface {
	Create(inv *model.Invitation) error
	FindByID(id uint) (*model.Invitation, error)
	FindByToken(token string) (*model.Invitation, error)
	ListByOrganization(orgID uint) ([]model.Invitation, error)
	// UpdateStatusIf persists the invitation's new status only when the
	// stored row still holds the expected one. RowsAffected reports whether
	// this caller won the transition.
	UpdateStatusIf(inv *model.Invitation, expected model.InvitationStatus) (int64, error)
	// AcceptWithUser marks the invitation accepted and creates the invited
	// user with active credentials in one transaction. The conditional update
	// runs inside the transaction, so a concurrent accept rolls back the user
	// rows of whichever caller lost.
	AcceptWithUser(inv *model.Invitation, user *model.User, creds *model.Credentials) (int64, error)
}

type invitationRepository struct {
	db *gorm.DB
}

func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

func (r *invitationRepository) Create(inv *model.Invitation) error {
	return r.db.Create(inv).Error
}

func (r *invitationRepository) FindByID(id uint) (*model.Invitation, error) {
	var inv model.Invitation
	if err := r.db.First(&inv, id).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invitationRepository) FindByToken(token string) (*model.Invitation, error) {
	var inv model.Invitation
	if err := r.db.Where("token = ?", token).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invitationRepository) ListByOrganization(orgID uint) ([]model.Invitation, error) {
	var invs []model.Invitation
	if err := r.db.Where("organization_id = ?", orgID).Order("created_at desc").Find(&invs).Error; err != nil {
		return nil, err
	}
	return invs, nil
}

func (r *invitationRepository) UpdateStatusIf(inv *model.Invitation, expected model.InvitationStatus) (int64, error) {
	res := r.db.Model(&model.Invitation{}).
		Where("id = ? AND status = ?", inv.ID, expected).
		Updates(map[string]interface{}{
			"status":              inv.Status,
			"accepted_by_user_id": inv.AcceptedByUserID,
			"accepted_at":         inv.AcceptedAt,
		})
	return res.RowsAffected, res.Error
}

func (r *invitationRepository) AcceptWithUser(inv *model.Invitation, user *model.User, creds *model.Credentials) (int64, error) {
	var affected int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(creds).Error; err != nil {
			return err
		}
		user.CredentialsID = creds.ID
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		inv.AcceptedByUserID = &user.ID
		res := tx.Model(&model.Invitation{}).
			Where("id = ? AND status = ?", inv.ID, model.InvitationPending).
			Updates(map[string]interface{}{
				"status":              inv.Status,
				"accepted_by_user_id": inv.AcceptedByUserID,
				"accepted_at":         inv.AcceptedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		if affected == 0 {
			return errAcceptLost
		}
		return nil
	})
	if errors.Is(err, errAcceptLost) {
		return 0, nil
	}
	return affected, err
}
