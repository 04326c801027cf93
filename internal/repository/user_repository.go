package repository

import (
	"time"

	"coursegate_backend/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *UserRepository) Update(user *model.User) error {
	return r.DB.Save(user).Error
}

func (r *UserRepository) UpdateLastSeen(userID uint) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_seen", time.Now()).
		Error
}

func (r *UserRepository) SetFullAccess(userID uint, fullAccess bool) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update("full_access", fullAccess).
		Error
}

// FindFullAccessIDs returns users carrying the full-access flag, for
// broadcast targeting. Admin accounts are excluded unless asked for.
func (r *UserRepository) FindFullAccessIDs(includeAdmins bool) ([]uint, error) {
	q := r.DB.Model(&model.User{}).
		Where("full_access = ? AND disabled = ?", true, false)
	if !includeAdmins {
		q = q.Where("role <> ?", model.Admin)
	}

	var ids []uint
	err := q.Pluck("id", &ids).Error
	return ids, err
}
