package repository

import (
	"time"

	"coursegate_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReleaseRepository struct {
	DB *gorm.DB
}

func NewReleaseRepository(db *gorm.DB) *ReleaseRepository {
	return &ReleaseRepository{DB: db}
}

// BulkCreate inserts the whole release timeline for one enrollment.
// ON CONFLICT DO NOTHING on (user_id, module_id) makes concurrent
// double-enrollment safe: the second writer's rows are swallowed and the
// original timestamps stand.
func (r *ReleaseRepository) BulkCreate(releases []model.ModuleRelease) error {
	if len(releases) == 0 {
		return nil
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "module_id"}},
		DoNothing: true,
	}).Create(&releases).Error
}

func (r *ReleaseRepository) CountByUserCourse(userID uint, courseSlug string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ModuleRelease{}).
		Where("user_id = ? AND course_slug = ?", userID, courseSlug).
		Count(&count).Error
	return count, err
}

func (r *ReleaseRepository) ListByUserCourse(userID uint, courseSlug string) ([]model.ModuleRelease, error) {
	var releases []model.ModuleRelease
	err := r.DB.Where("user_id = ? AND course_slug = ?", userID, courseSlug).
		Order("module_number ASC").
		Find(&releases).Error
	return releases, err
}

func (r *ReleaseRepository) FindByUserModule(userID, moduleID uint) (*model.ModuleRelease, error) {
	var release model.ModuleRelease
	err := r.DB.Where("user_id = ? AND module_id = ?", userID, moduleID).
		First(&release).Error
	return &release, err
}

// MarkCompleted sets the completed flag once. The completed=false guard
// makes re-checking an already completed module a harmless no-op.
func (r *ReleaseRepository) MarkCompleted(userID, moduleID uint, at time.Time) (bool, error) {
	res := r.DB.Model(&model.ModuleRelease{}).
		Where("user_id = ? AND module_id = ? AND completed = ?", userID, moduleID, false).
		Updates(map[string]interface{}{
			"completed":    true,
			"completed_at": at,
		})
	return res.RowsAffected > 0, res.Error
}

// FindNewlyReleased returns rows whose timeline has passed but whose stored
// flag still says locked. The reconcile sweep flips them and emits change
// events; readers never depend on the flag alone.
func (r *ReleaseRepository) FindNewlyReleased(now time.Time) ([]model.ModuleRelease, error) {
	var releases []model.ModuleRelease
	err := r.DB.Where("released = ? AND release_at <= ?", false, now).
		Find(&releases).Error
	return releases, err
}

func (r *ReleaseRepository) MarkReleased(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.DB.Model(&model.ModuleRelease{}).
		Where("id IN ?", ids).
		Update("released", true).Error
}
