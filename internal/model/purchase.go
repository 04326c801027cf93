package model

import "time"

type PurchaseStatus string

const (
	PurchaseActive  PurchaseStatus = "active"
	PurchaseRevoked PurchaseStatus = "revoked"
)

// Purchase is a completed transaction entitling a user to course access.
// ProductName is the payment provider's free-text product label; it is
// mapped onto a course slug at entitlement-check time, never stored resolved,
// so the mapping table can change without rewriting history.
type Purchase struct {
	BaseModel
	UserID uint `gorm:"index;not null" json:"userId"`
	// ProviderEventID is the payment gateway's event identifier; the unique
	// index makes webhook intake idempotent under redelivery.
	ProviderEventID string         `gorm:"size:100;uniqueIndex" json:"providerEventId"`
	ProductID       string         `gorm:"size:100" json:"productId"`
	ProductName     string         `gorm:"size:255;not null" json:"productName"`
	Status          PurchaseStatus `gorm:"size:20;default:'active';index" json:"status"`
	RevokedAt       *time.Time     `json:"revokedAt,omitempty"`
}

func (Purchase) TableName() string {
	return "purchases"
}
