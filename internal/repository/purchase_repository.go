package repository

import (
	"time"

	"coursegate_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseRepository struct {
	DB *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{DB: db}
}

// Create inserts the purchase unless the provider event was seen before.
// Returns false when the unique index on provider_event_id swallowed the
// insert, which callers treat as redelivery, not error.
func (r *PurchaseRepository) Create(p *model.Purchase) (bool, error) {
	res := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_event_id"}},
		DoNothing: true,
	}).Create(p)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PurchaseRepository) FindByID(id uint) (*model.Purchase, error) {
	var p model.Purchase
	err := r.DB.First(&p, id).Error
	return &p, err
}

func (r *PurchaseRepository) FindByProviderEventID(eventID string) (*model.Purchase, error) {
	var p model.Purchase
	err := r.DB.Where("provider_event_id = ?", eventID).First(&p).Error
	return &p, err
}

func (r *PurchaseRepository) FindActiveByUser(userID uint) ([]model.Purchase, error) {
	var purchases []model.Purchase
	err := r.DB.Where("user_id = ? AND status = ?", userID, model.PurchaseActive).
		Find(&purchases).Error
	return purchases, err
}

// FindAllActive returns every active purchase, for reverse entitlement scans
// (course → users) during notification targeting.
func (r *PurchaseRepository) FindAllActive() ([]model.Purchase, error) {
	var purchases []model.Purchase
	err := r.DB.Where("status = ?", model.PurchaseActive).Find(&purchases).Error
	return purchases, err
}

// Revoke flips active→revoked. The status column guard keeps the transition
// one-way; revoking an already revoked purchase affects no rows.
func (r *PurchaseRepository) Revoke(id uint) (bool, error) {
	now := time.Now()
	res := r.DB.Model(&model.Purchase{}).
		Where("id = ? AND status = ?", id, model.PurchaseActive).
		Updates(map[string]interface{}{
			"status":     model.PurchaseRevoked,
			"revoked_at": now,
		})
	return res.RowsAffected > 0, res.Error
}
