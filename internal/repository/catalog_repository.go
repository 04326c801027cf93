package repository

import (
	"coursegate_backend/internal/model"

	"gorm.io/gorm"
)

type CatalogRepository struct {
	DB *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{DB: db}
}

func (r *CatalogRepository) CreateCourse(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CatalogRepository) FindCourseBySlug(slug string) (*model.Course, error) {
	var course model.Course
	err := r.DB.Where("slug = ?", slug).First(&course).Error
	return &course, err
}

func (r *CatalogRepository) ListCourses() ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.Order("position ASC, id ASC").Find(&courses).Error
	return courses, err
}

func (r *CatalogRepository) CreateModule(m *model.CourseModule) error {
	return r.DB.Create(m).Error
}

func (r *CatalogRepository) FindModuleByID(id uint) (*model.CourseModule, error) {
	var m model.CourseModule
	err := r.DB.First(&m, id).Error
	return &m, err
}

// ListModulesByCourse returns the course's modules in drip order.
func (r *CatalogRepository) ListModulesByCourse(courseID uint) ([]model.CourseModule, error) {
	var modules []model.CourseModule
	err := r.DB.Where("course_id = ?", courseID).
		Order("number ASC").
		Find(&modules).Error
	return modules, err
}

func (r *CatalogRepository) CreateLesson(lesson *model.Lesson) error {
	return r.DB.Create(lesson).Error
}

func (r *CatalogRepository) FindLessonByID(id uint) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.DB.First(&lesson, id).Error
	return &lesson, err
}

func (r *CatalogRepository) ListLessonsByModule(moduleID uint) ([]model.Lesson, error) {
	var lessons []model.Lesson
	err := r.DB.Where("module_id = ?", moduleID).
		Order("position ASC, id ASC").
		Find(&lessons).Error
	return lessons, err
}

func (r *CatalogRepository) ListLessonIDsByModule(moduleID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.Lesson{}).
		Where("module_id = ?", moduleID).
		Pluck("id", &ids).Error
	return ids, err
}

// ListLessonIDsByCourse collects every lesson under every module of the
// course, for course-level progress aggregation.
func (r *CatalogRepository) ListLessonIDsByCourse(courseID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.Lesson{}).
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("course_modules.course_id = ?", courseID).
		Pluck("lessons.id", &ids).Error
	return ids, err
}

func (r *CatalogRepository) CreateMaterial(m *model.Material) error {
	return r.DB.Create(m).Error
}

func (r *CatalogRepository) ListMaterialsByLesson(lessonID uint) ([]model.Material, error) {
	var materials []model.Material
	err := r.DB.Where("lesson_id = ?", lessonID).Find(&materials).Error
	return materials, err
}
