package repository

import (
	"time"

	"coursegate_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) Find(userID, lessonID uint) (*model.LessonProgress, error) {
	var lp model.LessonProgress
	err := r.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&lp).Error
	return &lp, err
}

// InsertIfAbsent seeds the progress row. Concurrent first watches race on
// the (user_id, lesson_id) unique index; the loser's insert is swallowed and
// both proceed through the conditional updates below.
func (r *ProgressRepository) InsertIfAbsent(lp *model.LessonProgress) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoNothing: true,
	}).Create(lp).Error
}

// RaisePercentage applies the monotonic max rule as a compare-and-set:
// the WHERE guard means a concurrent higher report can never be overwritten
// by a lower one.
func (r *ProgressRepository) RaisePercentage(userID, lessonID uint, percentage int) error {
	return r.DB.Model(&model.LessonProgress{}).
		Where("user_id = ? AND lesson_id = ? AND watch_percentage < ?", userID, lessonID, percentage).
		Update("watch_percentage", percentage).Error
}

func (r *ProgressRepository) TouchLastWatched(userID, lessonID uint, at time.Time) error {
	return r.DB.Model(&model.LessonProgress{}).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		Update("last_watched_at", at).Error
}

// MarkCompleted performs the one-way false→true completion transition.
// RowsAffected tells the caller whether THIS call crossed the threshold;
// that is what keeps the downstream counter from double-firing.
func (r *ProgressRepository) MarkCompleted(userID, lessonID uint, at time.Time) (bool, error) {
	res := r.DB.Model(&model.LessonProgress{}).
		Where("user_id = ? AND lesson_id = ? AND completed = ?", userID, lessonID, false).
		Updates(map[string]interface{}{
			"completed":    true,
			"completed_at": at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *ProgressRepository) CountCompletedIn(userID uint, lessonIDs []uint) (int64, error) {
	if len(lessonIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.DB.Model(&model.LessonProgress{}).
		Where("user_id = ? AND lesson_id IN ? AND completed = ?", userID, lessonIDs, true).
		Count(&count).Error
	return count, err
}

func (r *ProgressRepository) ListByUser(userID uint, lessonIDs []uint) ([]model.LessonProgress, error) {
	if len(lessonIDs) == 0 {
		return nil, nil
	}
	var rows []model.LessonProgress
	err := r.DB.Where("user_id = ? AND lesson_id IN ?", userID, lessonIDs).
		Find(&rows).Error
	return rows, err
}
