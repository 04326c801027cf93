package service

import (
	"fmt"

	"coursegate_backend/internal/model"
	"coursegate_backend/internal/repository"
	"coursegate_backend/internal/util"

	"gorm.io/gorm"
)

// CourseService is the member-facing read side: catalog views filtered by
// entitlement and drip state. Locked modules keep their title and release
// date but carry no lessons.
type CourseService struct {
	CatalogRepo *repository.CatalogRepository
	Entitlement *EntitlementService
	Drip        *DripService
	Progress    *ProgressService
}

func NewCourseService(
	catalogRepo *repository.CatalogRepository,
	entitlement *EntitlementService,
	drip *DripService,
	progress *ProgressService,
) *CourseService {
	return &CourseService{
		CatalogRepo: catalogRepo,
		Entitlement: entitlement,
		Drip:        drip,
		Progress:    progress,
	}
}

type CourseListing struct {
	model.Course
	Entitled bool `json:"entitled"`
}

type LessonView struct {
	model.Lesson
	WatchPercentage int  `json:"watchPercentage"`
	Completed       bool `json:"completed"`
}

type ModuleView struct {
	ID          uint         `json:"id"`
	Number      int          `json:"number"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Released    bool         `json:"released"`
	ReleaseAt   string       `json:"releaseAt,omitempty"`
	Completed   bool         `json:"completed"`
	Lessons     []LessonView `json:"lessons"` // empty while locked
}

type CourseView struct {
	Course   model.Course    `json:"course"`
	Progress *CourseProgress `json:"progress"`
	Modules  []ModuleView    `json:"modules"`
}

// ListCourses shows the whole published catalog with the caller's
// entitlement flag per course. An upstream failure during the entitlement
// scan propagates so the client retries rather than rendering a wrong
// locked state.
func (s *CourseService) ListCourses(userID uint) ([]CourseListing, error) {
	courses, err := s.CatalogRepo.ListCourses()
	if err != nil {
		return nil, err
	}

	listings := make([]CourseListing, 0, len(courses))
	for _, course := range courses {
		if !course.Published {
			continue
		}
		entitled, err := s.Entitlement.HasAccess(userID, course.Slug)
		if err != nil {
			return nil, err
		}
		listings = append(listings, CourseListing{Course: course, Entitled: entitled})
	}
	return listings, nil
}

// GetCourseForUser assembles the gated course page. Denied entitlement is a
// permission error, not an empty page, so the client can render the
// locked/redirect state.
func (s *CourseService) GetCourseForUser(userID uint, courseSlug string) (*CourseView, error) {
	entitled, err := s.Entitlement.HasAccess(userID, courseSlug)
	if err != nil {
		return nil, err
	}
	if !entitled {
		return nil, fmt.Errorf("course %s: %w", courseSlug, util.ErrPermissionDenied)
	}

	course, err := s.CatalogRepo.FindCourseBySlug(courseSlug)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("course %s: %w", courseSlug, util.ErrNotFound)
		}
		return nil, err
	}

	timeline, err := s.Drip.UserTimeline(userID, courseSlug)
	if err != nil {
		return nil, err
	}
	releaseByModule := make(map[uint]model.ModuleRelease, len(timeline))
	for _, rel := range timeline {
		releaseByModule[rel.ModuleID] = rel
	}

	modules, err := s.CatalogRepo.ListModulesByCourse(course.ID)
	if err != nil {
		return nil, err
	}

	views := make([]ModuleView, 0, len(modules))
	for _, m := range modules {
		view := ModuleView{
			ID:          m.ID,
			Number:      m.Number,
			Title:       m.Title,
			Description: m.Description,
		}

		rel, scheduled := releaseByModule[m.ID]
		if scheduled {
			view.Released = rel.Released
			view.Completed = rel.Completed
			view.ReleaseAt = rel.ReleaseAt.Format(util.TimeFormat)
		} else {
			// Full-access and admin users have no drip timeline; everything
			// is open to them.
			view.Released = true
		}

		if view.Released {
			lessons, err := s.CatalogRepo.ListLessonsByModule(m.ID)
			if err != nil {
				return nil, err
			}
			ids := make([]uint, len(lessons))
			for i, l := range lessons {
				ids[i] = l.ID
			}
			progressMap, err := s.Progress.LessonProgressMap(userID, ids)
			if err != nil {
				return nil, err
			}
			view.Lessons = make([]LessonView, len(lessons))
			for i, l := range lessons {
				lv := LessonView{Lesson: l}
				if p, ok := progressMap[l.ID]; ok {
					lv.WatchPercentage = p.WatchPercentage
					lv.Completed = p.Completed
				}
				view.Lessons[i] = lv
			}
		}

		views = append(views, view)
	}

	progress, err := s.Progress.CourseProgressFor(userID, courseSlug)
	if err != nil {
		return nil, err
	}

	return &CourseView{
		Course:   *course,
		Progress: progress,
		Modules:  views,
	}, nil
}
