package model

// Catalog entities. The decision engine treats these as read-only input;
// only admin endpoints write them.

type Course struct {
	BaseModel
	Slug        string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	CoverURL    string `gorm:"size:255" json:"coverUrl"`
	Position    int    `gorm:"default:0" json:"position"`
	Published   bool   `gorm:"default:false" json:"published"`
}

func (Course) TableName() string {
	return "courses"
}

type CourseModule struct {
	BaseModel
	CourseID    uint   `gorm:"index;not null" json:"courseId"`
	Number      int    `gorm:"not null" json:"number"` // 1..N within the course
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	// DripOffsetDays anchors this module's release relative to enrollment.
	// Module 1 ships with offset 0.
	DripOffsetDays int `gorm:"default:0" json:"dripOffsetDays"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}

type Lesson struct {
	BaseModel
	ModuleID        uint   `gorm:"index;not null" json:"moduleId"`
	Position        int    `gorm:"default:0" json:"position"`
	Title           string `gorm:"size:255;not null" json:"title"`
	Description     string `gorm:"type:text" json:"description"`
	VideoURL        string `gorm:"size:255" json:"videoUrl"`
	DurationSeconds int    `gorm:"default:0" json:"durationSeconds"`
}

func (Lesson) TableName() string {
	return "lessons"
}

type Material struct {
	BaseModel
	LessonID    uint   `gorm:"index;not null" json:"lessonId"`
	Title       string `gorm:"size:255;not null" json:"title"`
	FileURL     string `gorm:"size:255;not null" json:"fileUrl"`
	ContentType string `gorm:"size:100" json:"contentType"`
	Size        int64  `gorm:"default:0" json:"size"`
}

func (Material) TableName() string {
	return "materials"
}
