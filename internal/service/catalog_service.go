package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"coursegate_backend/internal/model"
	"coursegate_backend/internal/repository"
	"coursegate_backend/internal/util"
	"coursegate_backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CatalogService is the admin write side of the catalog. The decision
// engine only ever reads what this creates.
type CatalogService struct {
	CatalogRepo *repository.CatalogRepository
	Storage     *StorageService
}

func NewCatalogService(catalogRepo *repository.CatalogRepository, storage *StorageService) *CatalogService {
	return &CatalogService{
		CatalogRepo: catalogRepo,
		Storage:     storage,
	}
}

type CreateCourseRequest struct {
	Slug        string `json:"slug" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Position    int    `json:"position"`
	Published   bool   `json:"published"`
}

type CreateModuleRequest struct {
	CourseSlug     string `json:"courseSlug" binding:"required"`
	Number         int    `json:"number" binding:"required,min=1"`
	Title          string `json:"title" binding:"required"`
	Description    string `json:"description"`
	DripOffsetDays int    `json:"dripOffsetDays" binding:"min=0"`
}

type CreateLessonRequest struct {
	ModuleID    uint   `json:"moduleId" binding:"required"`
	Position    int    `json:"position"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	VideoURL    string `json:"videoUrl"`
	// VideoPath, when set, points at a local file to probe for duration.
	VideoPath string `json:"videoPath"`
}

func (s *CatalogService) CreateCourse(req CreateCourseRequest) (*model.Course, error) {
	course := &model.Course{
		Slug:        strings.ToLower(req.Slug),
		Title:       req.Title,
		Description: req.Description,
		Position:    req.Position,
		Published:   req.Published,
	}
	if err := s.CatalogRepo.CreateCourse(course); err != nil {
		return nil, err
	}
	return course, nil
}

// CreateModule appends a module to the course's drip sequence. Offsets must
// not regress: module N+1 cannot unlock before module N.
func (s *CatalogService) CreateModule(req CreateModuleRequest) (*model.CourseModule, error) {
	course, err := s.CatalogRepo.FindCourseBySlug(req.CourseSlug)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("course %s: %w", req.CourseSlug, util.ErrNotFound)
		}
		return nil, err
	}

	existing, err := s.CatalogRepo.ListModulesByCourse(course.ID)
	if err != nil {
		return nil, err
	}
	for _, m := range existing {
		if m.Number == req.Number {
			return nil, fmt.Errorf("module number %d already exists: %w", req.Number, util.ErrConflict)
		}
		if m.Number < req.Number && m.DripOffsetDays > req.DripOffsetDays {
			return nil, fmt.Errorf("drip offset %d regresses below module %d: %w", req.DripOffsetDays, m.Number, util.ErrInvalidInput)
		}
	}

	module := &model.CourseModule{
		CourseID:       course.ID,
		Number:         req.Number,
		Title:          req.Title,
		Description:    req.Description,
		DripOffsetDays: req.DripOffsetDays,
	}
	if err := s.CatalogRepo.CreateModule(module); err != nil {
		return nil, err
	}
	return module, nil
}

func (s *CatalogService) CreateLesson(req CreateLessonRequest) (*model.Lesson, error) {
	if _, err := s.CatalogRepo.FindModuleByID(req.ModuleID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("module %d: %w", req.ModuleID, util.ErrNotFound)
		}
		return nil, err
	}

	lesson := &model.Lesson{
		ModuleID:    req.ModuleID,
		Position:    req.Position,
		Title:       req.Title,
		Description: req.Description,
		VideoURL:    req.VideoURL,
	}

	if req.VideoPath != "" {
		info, err := util.GetVideoInfo(req.VideoPath)
		if err != nil {
			logger.Log.Warn("video probe failed, duration left unset",
				zap.String("path", req.VideoPath), zap.Error(err))
		} else {
			lesson.DurationSeconds = int(info.Duration)
		}
	}

	if err := s.CatalogRepo.CreateLesson(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

// UploadMaterial stores a lesson attachment and records it.
func (s *CatalogService) UploadMaterial(ctx context.Context, lessonID uint, title string, file *multipart.FileHeader) (*model.Material, error) {
	if _, err := s.CatalogRepo.FindLessonByID(lessonID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("lesson %d: %w", lessonID, util.ErrNotFound)
		}
		return nil, err
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = util.MimeOctetStream
	}

	filename := "materials/" + uuid.New().String() + filepath.Ext(file.Filename)
	url, err := s.Storage.Upload(ctx, filename, src, file.Size, contentType)
	if err != nil {
		return nil, err
	}

	material := &model.Material{
		LessonID:    lessonID,
		Title:       title,
		FileURL:     url,
		ContentType: contentType,
		Size:        file.Size,
	}
	if err := s.CatalogRepo.CreateMaterial(material); err != nil {
		return nil, err
	}
	return material, nil
}

func (s *CatalogService) ListMaterials(lessonID uint) ([]model.Material, error) {
	return s.CatalogRepo.ListMaterialsByLesson(lessonID)
}
