package service

import (
	"fmt"
	"time"

	"coursegate_backend/internal/model"
	"coursegate_backend/internal/repository"
	"coursegate_backend/internal/util"
	"coursegate_backend/pkg/logger"
	"coursegate_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SendResult reports a broadcast's fan-out outcome.
type SendResult struct {
	NotificationID string `json:"notificationId"`
	Requested      int    `json:"requested"`
	Created        int    `json:"created"`
}

// NotificationService computes recipient sets and fans out delivery rows.
// Actual push/email transport is someone else's problem; this only records
// intent, and transport failures never roll back targeting.
type NotificationService struct {
	NotificationRepo *repository.NotificationRepository
	UserRepo         *repository.UserRepository
	Entitlement      *EntitlementService
	// IncludeAdmins: whether kind=all broadcasts also reach admin accounts.
	IncludeAdmins bool

	now func() time.Time
}

func NewNotificationService(
	notificationRepo *repository.NotificationRepository,
	userRepo *repository.UserRepository,
	entitlement *EntitlementService,
	includeAdmins bool,
) *NotificationService {
	return &NotificationService{
		NotificationRepo: notificationRepo,
		UserRepo:         userRepo,
		Entitlement:      entitlement,
		IncludeAdmins:    includeAdmins,
		now:              time.Now,
	}
}

// ResolveRecipients computes the exact recipient set for a broadcast intent.
//   - single: {targetID}; missing or unknown target is an error
//   - course: every user with an active purchase entitling them to targetID
//   - all:    every full-access user (admins per the IncludeAdmins policy)
func (s *NotificationService) ResolveRecipients(kind model.RecipientKind, targetID string) ([]uint, error) {
	switch kind {
	case model.RecipientSingle:
		if targetID == "" {
			return nil, fmt.Errorf("single recipient requires a target id: %w", util.ErrInvalidInput)
		}
		userID := util.MustParseUint(targetID)
		if userID == 0 {
			return nil, fmt.Errorf("invalid target user id %q: %w", targetID, util.ErrInvalidInput)
		}
		if _, err := s.UserRepo.FindByID(userID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, fmt.Errorf("user %d: %w", userID, util.ErrNotFound)
			}
			return nil, fmt.Errorf("fetch user: %w", util.ErrUpstreamUnavailable)
		}
		return []uint{userID}, nil

	case model.RecipientCourse:
		if targetID == "" {
			return nil, fmt.Errorf("course recipient requires a course slug: %w", util.ErrInvalidInput)
		}
		return s.Entitlement.EntitledUserIDs(targetID)

	case model.RecipientAll:
		ids, err := s.UserRepo.FindFullAccessIDs(s.IncludeAdmins)
		if err != nil {
			return nil, fmt.Errorf("fetch users: %w", util.ErrUpstreamUnavailable)
		}
		return ids, nil

	default:
		return nil, fmt.Errorf("unknown recipient kind %q: %w", kind, util.ErrInvalidInput)
	}
}

// Send resolves recipients fully, writes the immutable record, then fans out
// one delivery row per recipient best-effort. A shortfall surfaces as
// *util.PartialFanoutError with the missing user ids so the caller can retry
// exactly those, never the whole set.
func (s *NotificationService) Send(senderID uint, kind model.RecipientKind, targetID, title, body string) (*SendResult, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", util.ErrInvalidInput)
	}

	// The recipient set is fixed before any row is written, so a purchase
	// mutating mid-fan-out cannot produce a half-old half-new audience.
	recipients, err := s.ResolveRecipients(kind, targetID)
	if err != nil {
		return nil, err
	}

	record := &model.NotificationRecord{
		RecipientType: kind,
		TargetID:      targetID,
		Title:         title,
		Body:          body,
		CreatedBy:     senderID,
	}
	if err := s.NotificationRepo.CreateRecord(record); err != nil {
		return nil, err
	}

	created := 0
	var missing []uint
	for _, userID := range recipients {
		// An existing row counts as delivered: retries fill gaps only.
		if _, err := s.NotificationRepo.CreateUserNotification(userID, record.ID); err != nil {
			logger.Log.Error("notification fan-out row failed",
				zap.String("notificationID", record.ID),
				zap.Uint("userID", userID),
				zap.Error(err))
			missing = append(missing, userID)
			continue
		}
		created++
	}

	monitoring.NotificationsFanout.WithLabelValues(string(kind)).Add(float64(created))

	logger.Log.Info("notification sent",
		zap.String("notificationID", record.ID),
		zap.String("kind", string(kind)),
		zap.Uint("senderID", senderID),
		zap.Int("recipients", len(recipients)),
		zap.Int("created", created))

	result := &SendResult{
		NotificationID: record.ID,
		Requested:      len(recipients),
		Created:        created,
	}
	if created < len(recipients) {
		return result, &util.PartialFanoutError{
			NotificationID: record.ID,
			Requested:      len(recipients),
			Created:        created,
			Missing:        missing,
		}
	}
	return result, nil
}

// RetryFanout re-runs delivery-row creation for specific recipients of an
// existing record. Rows that already exist are untouched.
func (s *NotificationService) RetryFanout(notificationID string, userIDs []uint) (*SendResult, error) {
	record, err := s.NotificationRepo.FindRecord(notificationID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("notification %s: %w", notificationID, util.ErrNotFound)
		}
		return nil, err
	}

	created := 0
	for _, userID := range userIDs {
		if _, err := s.NotificationRepo.CreateUserNotification(userID, record.ID); err != nil {
			continue
		}
		created++
	}

	total, err := s.NotificationRepo.CountByNotification(record.ID)
	if err != nil {
		return nil, err
	}
	return &SendResult{
		NotificationID: record.ID,
		Requested:      len(userIDs),
		Created:        int(total),
	}, nil
}

func (s *NotificationService) Inbox(userID uint, limit int) ([]repository.UserInbox, error) {
	return s.NotificationRepo.ListByUser(userID, limit)
}

func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	return s.NotificationRepo.UnreadCount(userID)
}

// MarkRead is one-way; marking twice keeps the first timestamp and reports
// whether this call did the flip.
func (s *NotificationService) MarkRead(userID uint, notificationID string) (bool, error) {
	return s.NotificationRepo.MarkRead(userID, notificationID, s.now())
}
