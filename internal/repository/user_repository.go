package repository

import (
	"github.com/codequizhub/codequizhub/internal/model"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(user *model.User) error
	FindByID(id uint) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	FindCredentialsByUsername(username string) (*model.Credentials, error)
	ListByOrganization(orgID uint) ([]model.User, error)
	Update(user *model.User) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.db.Preload("Credentials").First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Preload("Credentials").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindCredentialsByUsername(username string) (*model.Credentials, error) {
	var creds model.Credentials
	if err := r.db.Where("username = ?", username).First(&creds).Error; err != nil {
		return nil, err
	}
	return &creds, nil
}

func (r *userRepository) ListByOrganization(orgID uint) ([]model.User, error) {
	var users []model.User
	if err := r.db.Where("organization_id = ?", orgID).Order("created_at asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}
