package service

import (
	"fmt"
	"time"

	"coursegate_backend/internal/model"
	"coursegate_backend/internal/repository"
	"coursegate_backend/internal/util"
	"coursegate_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentEvent is the normalized shape of a payment-webhook delivery.
// Gateway protocol details (signatures, retries, envelope) live outside;
// by the time an event reaches here it is trusted.
type PaymentEvent struct {
	EventID     string    `json:"eventId" binding:"required"`
	UserID      uint      `json:"userId" binding:"required"`
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName" binding:"required"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// PurchaseService records purchases and triggers the enrollment side
// effects: drip scheduling and entitlement-cache invalidation.
type PurchaseService struct {
	PurchaseRepo *repository.PurchaseRepository
	UserRepo     *repository.UserRepository
	Matcher      ProductMatcher
	Drip         *DripService
	Entitlement  *EntitlementService
}

func NewPurchaseService(
	purchaseRepo *repository.PurchaseRepository,
	userRepo *repository.UserRepository,
	matcher ProductMatcher,
	drip *DripService,
	entitlement *EntitlementService,
) *PurchaseService {
	return &PurchaseService{
		PurchaseRepo: purchaseRepo,
		UserRepo:     userRepo,
		Matcher:      matcher,
		Drip:         drip,
		Entitlement:  entitlement,
	}
}

// HandlePaymentEvent records the purchase and, when the product maps to a
// course, anchors the user's drip timeline at the purchase time. Redelivered
// events (same provider event id) are success, not error, and must not
// reset an existing timeline; ScheduleCourse is idempotent on its own.
func (s *PurchaseService) HandlePaymentEvent(evt PaymentEvent) (*model.Purchase, error) {
	if _, err := s.UserRepo.FindByID(evt.UserID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("user %d: %w", evt.UserID, util.ErrNotFound)
		}
		return nil, err
	}

	occurredAt := evt.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	purchase := &model.Purchase{
		UserID:          evt.UserID,
		ProviderEventID: evt.EventID,
		ProductID:       evt.ProductID,
		ProductName:     evt.ProductName,
		Status:          model.PurchaseActive,
	}

	created, err := s.PurchaseRepo.Create(purchase)
	if err != nil {
		return nil, err
	}
	if !created {
		// Webhook redelivery: hand back the original record.
		existing, err := s.PurchaseRepo.FindByProviderEventID(evt.EventID)
		if err != nil {
			return nil, err
		}
		logger.Log.Info("payment event redelivered",
			zap.String("eventID", evt.EventID),
			zap.Uint("purchaseID", existing.ID))
		return existing, nil
	}

	s.Entitlement.InvalidateUser(evt.UserID)

	if slug, ok := s.Matcher.Resolve(evt.ProductName); ok {
		if err := s.Drip.ScheduleCourse(evt.UserID, slug, occurredAt); err != nil {
			// The purchase stands; scheduling is retried on next access or
			// webhook redelivery rather than failing the intake.
			logger.Log.Error("drip scheduling failed after purchase",
				zap.Uint("userID", evt.UserID),
				zap.String("course", slug),
				zap.Error(err))
		}
	} else {
		logger.Log.Warn("purchase product matched no course",
			zap.String("productName", evt.ProductName),
			zap.Uint("userID", evt.UserID))
	}

	return purchase, nil
}

// Revoke flips a purchase to revoked (one-way) and drops the user's cached
// entitlement. Revoking twice is a conflict, surfaced as such.
func (s *PurchaseService) Revoke(purchaseID uint) error {
	purchase, err := s.PurchaseRepo.FindByID(purchaseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("purchase %d: %w", purchaseID, util.ErrNotFound)
		}
		return err
	}

	flipped, err := s.PurchaseRepo.Revoke(purchaseID)
	if err != nil {
		return err
	}
	if !flipped {
		return fmt.Errorf("purchase %d already revoked: %w", purchaseID, util.ErrConflict)
	}

	s.Entitlement.InvalidateUser(purchase.UserID)

	logger.Log.Info("purchase revoked",
		zap.Uint("purchaseID", purchaseID),
		zap.Uint("userID", purchase.UserID))
	return nil
}

func (s *PurchaseService) ListForUser(userID uint) ([]model.Purchase, error) {
	return s.PurchaseRepo.FindActiveByUser(userID)
}
