package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"coursegate_backend/internal/model"
	"coursegate_backend/internal/repository"
	"coursegate_backend/internal/util"
	"coursegate_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EntitlementService decides whether a user may view a course. It is the
// single authority both directions: user → entitled slugs, and
// slug → entitled users (notification targeting).
//
// Any store failure resolves to deny with ErrUpstreamUnavailable; the
// resolver never answers "unknown" and never persists a denial.
type EntitlementService struct {
	UserRepo     *repository.UserRepository
	PurchaseRepo *repository.PurchaseRepository
	Matcher      ProductMatcher
	Redis        *redis.Client
	CacheTTL     time.Duration
}

func NewEntitlementService(
	userRepo *repository.UserRepository,
	purchaseRepo *repository.PurchaseRepository,
	matcher ProductMatcher,
	rdb *redis.Client,
	cacheTTL time.Duration,
) *EntitlementService {
	return &EntitlementService{
		UserRepo:     userRepo,
		PurchaseRepo: purchaseRepo,
		Matcher:      matcher,
		Redis:        rdb,
		CacheTTL:     cacheTTL,
	}
}

// HasAccess reports whether the user may view the course. Full access and
// admin role short-circuit before any purchase I/O.
func (s *EntitlementService) HasAccess(userID uint, courseSlug string) (bool, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, fmt.Errorf("user %d: %w", userID, util.ErrNotFound)
		}
		return false, fmt.Errorf("fetch user: %w", util.ErrUpstreamUnavailable)
	}

	if user.FullAccess || user.Role == model.Admin {
		return true, nil
	}

	slugs, err := s.EntitledSlugs(userID)
	if err != nil {
		return false, err
	}

	for _, slug := range slugs {
		if slug == courseSlug {
			return true, nil
		}
	}
	return false, nil
}

// EntitledSlugs maps the user's active purchases onto course slugs with set
// semantics: one purchase contributes at most one slug, duplicates collapse.
func (s *EntitlementService) EntitledSlugs(userID uint) ([]string, error) {
	if cached, ok := s.cacheGet(userID); ok {
		return cached, nil
	}

	purchases, err := s.PurchaseRepo.FindActiveByUser(userID)
	if err != nil {
		// Fail closed: the caller sees a retryable error, never "no access".
		return nil, fmt.Errorf("fetch purchases: %w", util.ErrUpstreamUnavailable)
	}

	set := make(map[string]struct{})
	for _, p := range purchases {
		if slug, ok := s.Matcher.Resolve(p.ProductName); ok {
			set[slug] = struct{}{}
		}
	}

	slugs := make([]string, 0, len(set))
	for slug := range set {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	s.cacheSet(userID, slugs)
	return slugs, nil
}

// EntitledUserIDs is the reverse scan: every user whose active purchases
// entitle them to the course. Revoked purchases never contribute.
func (s *EntitlementService) EntitledUserIDs(courseSlug string) ([]uint, error) {
	purchases, err := s.PurchaseRepo.FindAllActive()
	if err != nil {
		return nil, fmt.Errorf("fetch purchases: %w", util.ErrUpstreamUnavailable)
	}

	set := make(map[uint]struct{})
	for _, p := range purchases {
		slug, ok := s.Matcher.Resolve(p.ProductName)
		if ok && slug == courseSlug {
			set[p.UserID] = struct{}{}
		}
	}

	ids := make([]uint, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// InvalidateUser drops the cached resolution after a purchase write.
func (s *EntitlementService) InvalidateUser(userID uint) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(context.Background(), s.cacheKey(userID)).Err(); err != nil {
		logger.Log.Warn("entitlement cache invalidation failed", zap.Uint("userID", userID), zap.Error(err))
	}
}

// The matcher generation is part of the key, so a product-map reload
// orphans every old entry at once.
func (s *EntitlementService) cacheKey(userID uint) string {
	return fmt.Sprintf("entitlement:g%d:user:%d", s.Matcher.Generation(), userID)
}

func (s *EntitlementService) cacheGet(userID uint) ([]string, bool) {
	if s.Redis == nil {
		return nil, false
	}
	val, err := s.Redis.Get(context.Background(), s.cacheKey(userID)).Result()
	if err != nil {
		return nil, false
	}
	if val == "" {
		return []string{}, true
	}
	return strings.Split(val, ","), true
}

func (s *EntitlementService) cacheSet(userID uint, slugs []string) {
	if s.Redis == nil {
		return
	}
	// Only successful resolutions are cached; errors must stay retryable.
	err := s.Redis.Set(context.Background(), s.cacheKey(userID), strings.Join(slugs, ","), s.CacheTTL).Err()
	if err != nil {
		logger.Log.Warn("entitlement cache write failed", zap.Uint("userID", userID), zap.Error(err))
	}
}
