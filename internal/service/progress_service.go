package service

import (
	"fmt"
	"math"
	"time"

	"coursegate_backend/internal/model"
	"coursegate_backend/internal/repository"
	"coursegate_backend/internal/util"
	"coursegate_backend/pkg/logger"
	"coursegate_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LessonCompletionThreshold is the watch percentage at which a lesson counts
// as completed. One threshold everywhere; the same value gates the completed
// flag and the rollups built on it.
const LessonCompletionThreshold = 90

// WatchResult tells the client what a watch report changed.
type WatchResult struct {
	Percentage      int  `json:"percentage"`
	LessonCompleted bool `json:"lessonCompleted"` // true only on the crossing call
	ModuleCompleted bool `json:"moduleCompleted"`
}

// CourseProgress is the read-side aggregate for one course.
type CourseProgress struct {
	CourseSlug       string `json:"courseSlug"`
	TotalLessons     int    `json:"totalLessons"`
	CompletedLessons int    `json:"completedLessons"`
	Percentage       int    `json:"percentage"`
}

// ProgressService turns lesson-watch telemetry into completion state.
// Every mutation is a conditional write so concurrent reports for the same
// (user, lesson) serialize on the store, not in memory.
type ProgressService struct {
	ProgressRepo *repository.ProgressRepository
	CatalogRepo  *repository.CatalogRepository
	ReleaseRepo  *repository.ReleaseRepository
	StatsRepo    *repository.StatsRepository

	now func() time.Time
}

func NewProgressService(
	progressRepo *repository.ProgressRepository,
	catalogRepo *repository.CatalogRepository,
	releaseRepo *repository.ReleaseRepository,
	statsRepo *repository.StatsRepository,
) *ProgressService {
	return &ProgressService{
		ProgressRepo: progressRepo,
		CatalogRepo:  catalogRepo,
		ReleaseRepo:  releaseRepo,
		StatsRepo:    statsRepo,
		now:          time.Now,
	}
}

// RecordWatch applies one telemetry report. Rules:
//   - percentage outside [0,100] is rejected, not clamped
//   - stored percentage only ever rises (max of all reports)
//   - completion fires exactly once, detected by the conditional update on
//     the previous persisted flag, never inferred from the incoming value
//   - on the completion transition the per-user counter is incremented and
//     module completion is evaluated
func (s *ProgressService) RecordWatch(userID, lessonID uint, percentage int) (*WatchResult, error) {
	if percentage < 0 || percentage > 100 {
		return nil, fmt.Errorf("percentage %d out of range [0,100]: %w", percentage, util.ErrInvalidInput)
	}

	lesson, err := s.CatalogRepo.FindLessonByID(lessonID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("lesson %d: %w", lessonID, util.ErrNotFound)
		}
		return nil, err
	}

	now := s.now()

	seed := model.LessonProgress{
		UserID:          userID,
		LessonID:        lessonID,
		WatchPercentage: percentage,
		LastWatchedAt:   now,
	}
	if err := s.ProgressRepo.InsertIfAbsent(&seed); err != nil {
		return nil, err
	}

	// Monotonic max; a lower or equal report leaves the stored value alone.
	if err := s.ProgressRepo.RaisePercentage(userID, lessonID, percentage); err != nil {
		return nil, err
	}
	if err := s.ProgressRepo.TouchLastWatched(userID, lessonID, now); err != nil {
		return nil, err
	}

	result := &WatchResult{}

	if percentage >= LessonCompletionThreshold {
		crossed, err := s.ProgressRepo.MarkCompleted(userID, lessonID, now)
		if err != nil {
			return nil, err
		}
		if crossed {
			result.LessonCompleted = true
			monitoring.LessonsCompleted.Inc()

			if err := s.StatsRepo.IncrementCompletedLessons(userID); err != nil {
				return nil, err
			}

			completed, err := s.checkModuleCompletion(userID, lesson.ModuleID, now)
			if err != nil {
				return nil, err
			}
			result.ModuleCompleted = completed

			logger.Log.Info("lesson completed",
				zap.Uint("userID", userID),
				zap.Uint("lessonID", lessonID),
				zap.Bool("moduleCompleted", completed))
		}
	}

	current, err := s.ProgressRepo.Find(userID, lessonID)
	if err != nil {
		return nil, err
	}
	result.Percentage = current.WatchPercentage

	return result, nil
}

// checkModuleCompletion runs only on a lesson-completion transition. When
// every lesson of the module is completed it marks the user's ModuleRelease;
// the conditional update makes a re-check of an already completed module a
// no-op.
func (s *ProgressService) checkModuleCompletion(userID, moduleID uint, at time.Time) (bool, error) {
	lessonIDs, err := s.CatalogRepo.ListLessonIDsByModule(moduleID)
	if err != nil {
		return false, err
	}
	if len(lessonIDs) == 0 {
		return false, nil
	}

	completed, err := s.ProgressRepo.CountCompletedIn(userID, lessonIDs)
	if err != nil {
		return false, err
	}
	if completed < int64(len(lessonIDs)) {
		return false, nil
	}

	if _, err := s.ReleaseRepo.MarkCompleted(userID, moduleID, at); err != nil {
		return false, err
	}
	return true, nil
}

// CourseProgressFor aggregates completion over every lesson of the course.
// Pure read side; zero lessons yields 0, never a division error.
func (s *ProgressService) CourseProgressFor(userID uint, courseSlug string) (*CourseProgress, error) {
	course, err := s.CatalogRepo.FindCourseBySlug(courseSlug)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("course %s: %w", courseSlug, util.ErrNotFound)
		}
		return nil, err
	}

	lessonIDs, err := s.CatalogRepo.ListLessonIDsByCourse(course.ID)
	if err != nil {
		return nil, err
	}

	progress := &CourseProgress{
		CourseSlug:   courseSlug,
		TotalLessons: len(lessonIDs),
	}
	if len(lessonIDs) == 0 {
		return progress, nil
	}

	completed, err := s.ProgressRepo.CountCompletedIn(userID, lessonIDs)
	if err != nil {
		return nil, err
	}

	progress.CompletedLessons = int(completed)
	progress.Percentage = int(math.Round(100 * float64(completed) / float64(len(lessonIDs))))
	return progress, nil
}

// LessonProgressMap returns per-lesson progress for rendering a module page.
func (s *ProgressService) LessonProgressMap(userID uint, lessonIDs []uint) (map[uint]model.LessonProgress, error) {
	rows, err := s.ProgressRepo.ListByUser(userID, lessonIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]model.LessonProgress, len(rows))
	for _, row := range rows {
		out[row.LessonID] = row
	}
	return out, nil
}

// Stats exposes the display counter.
func (s *ProgressService) Stats(userID uint) (*model.UserStats, error) {
	return s.StatsRepo.Find(userID)
}
