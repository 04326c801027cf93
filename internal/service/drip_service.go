package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"coursegate_backend/internal/model"
	"coursegate_backend/internal/repository"
	"coursegate_backend/internal/util"
	"coursegate_backend/pkg/logger"
	"coursegate_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// releaseChannel carries "userID:moduleID" messages whenever a module's
// timeline passes. Subscribers use it to invalidate cached module lists,
// standing in for a store-level change feed.
const releaseChannel = "coursegate:module_released"

// DripService owns the per-user release timeline. State machine per
// (user, module): NotCreated → Locked → Released → Completed. The timeline
// is anchored once at enrollment; Released is always recomputable from
// ReleaseAt, and Completed is only set by the progress aggregator.
type DripService struct {
	ReleaseRepo *repository.ReleaseRepository
	CatalogRepo *repository.CatalogRepository
	Redis       *redis.Client

	// now is swappable for tests.
	now func() time.Time
}

func NewDripService(
	releaseRepo *repository.ReleaseRepository,
	catalogRepo *repository.CatalogRepository,
	rdb *redis.Client,
) *DripService {
	return &DripService{
		ReleaseRepo: releaseRepo,
		CatalogRepo: catalogRepo,
		Redis:       rdb,
		now:         time.Now,
	}
}

// ScheduleCourse bulk-creates the user's release timeline for every module
// of the course, anchored at enrolledAt. Idempotent as a whole: if the user
// already has any release for the course the call is a no-op, and the
// unique (user_id, module_id) index guards the create itself against a
// concurrent duplicate enrollment.
func (s *DripService) ScheduleCourse(userID uint, courseSlug string, enrolledAt time.Time) error {
	course, err := s.CatalogRepo.FindCourseBySlug(courseSlug)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("course %s: %w", courseSlug, util.ErrNotFound)
		}
		return err
	}

	existing, err := s.ReleaseRepo.CountByUserCourse(userID, courseSlug)
	if err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	modules, err := s.CatalogRepo.ListModulesByCourse(course.ID)
	if err != nil {
		return err
	}

	releases := make([]model.ModuleRelease, 0, len(modules))
	for _, m := range modules {
		releaseAt := enrolledAt.AddDate(0, 0, m.DripOffsetDays)
		releases = append(releases, model.ModuleRelease{
			UserID:       userID,
			ModuleID:     m.ID,
			CourseSlug:   courseSlug,
			ModuleNumber: m.Number,
			ReleaseAt:    releaseAt,
			Released:     !enrolledAt.Before(releaseAt),
		})
	}

	if err := s.ReleaseRepo.BulkCreate(releases); err != nil {
		return err
	}

	logger.Log.Info("drip schedule created",
		zap.Uint("userID", userID),
		zap.String("course", courseSlug),
		zap.Int("modules", len(releases)))
	return nil
}

// IsModuleUnlocked answers the read-time question "may this user see module
// content now". No release record means the user never enrolled: locked.
func (s *DripService) IsModuleUnlocked(userID, moduleID uint) (bool, error) {
	release, err := s.ReleaseRepo.FindByUserModule(userID, moduleID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}
	return release.IsReleasedAt(s.now()), nil
}

// UserTimeline returns the user's releases for a course with the released
// state recomputed against now, regardless of what the stored flag says.
func (s *DripService) UserTimeline(userID uint, courseSlug string) ([]model.ModuleRelease, error) {
	releases, err := s.ReleaseRepo.ListByUserCourse(userID, courseSlug)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range releases {
		releases[i].Released = releases[i].IsReleasedAt(now)
	}
	return releases, nil
}

// ReconcileReleases brings stale stored flags in line with the timeline and
// publishes one change event per newly released module. Runs on a ticker;
// correctness never depends on it because reads recompute.
func (s *DripService) ReconcileReleases() error {
	newly, err := s.ReleaseRepo.FindNewlyReleased(s.now())
	if err != nil {
		return err
	}
	if len(newly) == 0 {
		return nil
	}

	ids := make([]uint, len(newly))
	for i, rel := range newly {
		ids[i] = rel.ID
	}
	if err := s.ReleaseRepo.MarkReleased(ids); err != nil {
		return err
	}

	monitoring.ModulesReleased.Add(float64(len(newly)))

	if s.Redis != nil {
		ctx := context.Background()
		for _, rel := range newly {
			msg := strconv.FormatUint(uint64(rel.UserID), 10) + ":" + strconv.FormatUint(uint64(rel.ModuleID), 10)
			if err := s.Redis.Publish(ctx, releaseChannel, msg).Err(); err != nil {
				logger.Log.Warn("release event publish failed", zap.Error(err))
			}
		}
	}

	logger.Log.Info("release reconcile", zap.Int("released", len(newly)))
	return nil
}

// SubscribeReleaseChanges invokes fn for each release event until ctx is
// done. Callers hang cache invalidation off this.
func (s *DripService) SubscribeReleaseChanges(ctx context.Context, fn func(payload string)) {
	if s.Redis == nil {
		return
	}
	sub := s.Redis.Subscribe(ctx, releaseChannel)
	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				fn(msg.Payload)
			}
		}
	}()
}
