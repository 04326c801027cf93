package repository

import (
	"coursegate_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StatsRepository struct {
	DB *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{DB: db}
}

// IncrementCompletedLessons bumps the display counter as a single in-store
// increment, creating the row on first use. Read-then-write would lose
// updates under concurrent completions.
func (r *StatsRepository) IncrementCompletedLessons(userID uint) error {
	stats := model.UserStats{UserID: userID, CompletedLessons: 1}
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"completed_lessons": gorm.Expr("completed_lessons + ?", 1),
		}),
	}).Create(&stats).Error
}

func (r *StatsRepository) Find(userID uint) (*model.UserStats, error) {
	var stats model.UserStats
	err := r.DB.Where("user_id = ?", userID).First(&stats).Error
	if err == gorm.ErrRecordNotFound {
		return &model.UserStats{UserID: userID}, nil
	}
	return &stats, err
}
