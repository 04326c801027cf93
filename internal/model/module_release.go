package model

import "time"

// ModuleRelease is the per-user unlock record for one course module.
// ReleaseAt is anchored once at enrollment and never recomputed, so outages
// or clock skew cannot shift a user's unlock calendar.
//
// Released is derived: the authoritative check is now >= ReleaseAt at read
// time. The stored flag only exists so change feeds and queries can see the
// transition; a reconcile sweep keeps it in line with the comparison.
type ModuleRelease struct {
	BaseModel
	UserID       uint       `gorm:"uniqueIndex:idx_user_module;not null" json:"userId"`
	ModuleID     uint       `gorm:"uniqueIndex:idx_user_module;not null" json:"moduleId"`
	CourseSlug   string     `gorm:"size:100;index;not null" json:"courseSlug"`
	ModuleNumber int        `gorm:"not null" json:"moduleNumber"`
	ReleaseAt    time.Time  `gorm:"not null" json:"releaseAt"`
	Released     bool       `gorm:"default:false" json:"released"`
	Completed    bool       `gorm:"default:false" json:"completed"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

func (ModuleRelease) TableName() string {
	return "module_releases"
}

// IsReleasedAt is the read-time unlock check. Prefer this over the stored
// Released flag, which may lag until the next reconcile sweep.
func (m *ModuleRelease) IsReleasedAt(now time.Time) bool {
	return !now.Before(m.ReleaseAt)
}
