package model

import "time"

// LessonProgress holds the furthest watch position ever observed for one
// (user, lesson) pair. WatchPercentage is monotonic non-decreasing and
// Completed is one-way false→true; both rules are enforced with conditional
// updates, not read-modify-write.
type LessonProgress struct {
	BaseModel
	UserID          uint       `gorm:"uniqueIndex:idx_user_lesson;not null" json:"userId"`
	LessonID        uint       `gorm:"uniqueIndex:idx_user_lesson;not null" json:"lessonId"`
	WatchPercentage int        `gorm:"default:0" json:"watchPercentage"`
	Completed       bool       `gorm:"default:false" json:"completed"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	LastWatchedAt   time.Time  `json:"lastWatchedAt"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}

// UserStats carries per-user display counters. CompletedLessons is only ever
// touched with an atomic in-store increment.
type UserStats struct {
	BaseModel
	UserID           uint `gorm:"uniqueIndex;not null" json:"userId"`
	CompletedLessons int  `gorm:"default:0" json:"completedLessons"`
}

func (UserStats) TableName() string {
	return "user_stats"
}
