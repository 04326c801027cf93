package service

import (
	"errors"
	"testing"
	"time"

	"coursegate_backend/internal/model"
	"coursegate_backend/internal/util"
)

func newCourseService(env *testEnv) *CourseService {
	return NewCourseService(env.catalog, env.entitlement, env.drip, env.progressSvc)
}

func TestListCoursesEntitlementFlags(t *testing.T) {
	env := newTestEnv(t, testMappings)
	svc := newCourseService(env)
	user := env.mustCreateUser(t, "alice", model.Member, false)

	env.mustCreateCourse(t, "video-course", []int{0}, 1)
	env.mustCreateCourse(t, "bootcamp", []int{0}, 1)

	// Unpublished courses stay invisible.
	hidden := &model.Course{Slug: "draft", Title: "draft", Published: false}
	if err := env.catalog.CreateCourse(hidden); err != nil {
		t.Fatalf("create draft: %v", err)
	}

	env.mustCreatePurchase(t, user.ID, "evt-1", "Video Course")

	listings, err := svc.ListCourses(user.ID)
	if err != nil {
		t.Fatalf("ListCourses: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("listings = %d, want 2 (draft hidden)", len(listings))
	}

	flags := map[string]bool{}
	for _, l := range listings {
		flags[l.Slug] = l.Entitled
	}
	if !flags["video-course"] || flags["bootcamp"] {
		t.Fatalf("entitled flags = %v", flags)
	}
}

func TestGetCourseForUserDeniesUnentitled(t *testing.T) {
	env := newTestEnv(t, testMappings)
	svc := newCourseService(env)
	user := env.mustCreateUser(t, "bob", model.Member, false)
	env.mustCreateCourse(t, "video-course", []int{0}, 1)

	_, err := svc.GetCourseForUser(user.ID, "video-course")
	if !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
}

func TestGetCourseForUserHidesLockedLessons(t *testing.T) {
	env := newTestEnv(t, testMappings)
	svc := newCourseService(env)
	user := env.mustCreateUser(t, "carol", model.Member, false)
	env.mustCreateCourse(t, "video-course", []int{0, 10}, 2)
	env.mustCreatePurchase(t, user.ID, "evt-1", "Video Course")

	enrolledAt := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	if err := env.drip.ScheduleCourse(user.ID, "video-course", enrolledAt); err != nil {
		t.Fatalf("ScheduleCourse: %v", err)
	}
	env.drip.now = func() time.Time { return enrolledAt.AddDate(0, 0, 1) }

	view, err := svc.GetCourseForUser(user.ID, "video-course")
	if err != nil {
		t.Fatalf("GetCourseForUser: %v", err)
	}
	if len(view.Modules) != 2 {
		t.Fatalf("modules = %d, want 2", len(view.Modules))
	}

	open, locked := view.Modules[0], view.Modules[1]
	if !open.Released || len(open.Lessons) != 2 {
		t.Fatalf("open module: released=%v lessons=%d", open.Released, len(open.Lessons))
	}
	if locked.Released {
		t.Fatal("offset-10 module released on day 1")
	}
	// Locked modules keep title and release date but expose no lessons.
	if len(locked.Lessons) != 0 {
		t.Fatalf("locked module leaked %d lessons", len(locked.Lessons))
	}
	if locked.Title == "" || locked.ReleaseAt == "" {
		t.Fatalf("locked module missing metadata: %+v", locked)
	}
}

func TestGetCourseForUserFullAccessWithoutTimeline(t *testing.T) {
	env := newTestEnv(t, testMappings)
	svc := newCourseService(env)
	user := env.mustCreateUser(t, "dave", model.Member, true)
	env.mustCreateCourse(t, "video-course", []int{0, 30}, 1)

	// Full access, never enrolled: every module reads as released.
	view, err := svc.GetCourseForUser(user.ID, "video-course")
	if err != nil {
		t.Fatalf("GetCourseForUser: %v", err)
	}
	for _, m := range view.Modules {
		if !m.Released {
			t.Fatalf("module %d locked for full-access user", m.Number)
		}
		if len(m.Lessons) != 1 {
			t.Fatalf("module %d lessons = %d, want 1", m.Number, len(m.Lessons))
		}
	}
}

func TestGetCourseForUserCarriesProgress(t *testing.T) {
	env := newTestEnv(t, testMappings)
	svc := newCourseService(env)
	user := env.mustCreateUser(t, "erin", model.Member, false)
	_, _, lessons := env.mustCreateCourse(t, "video-course", []int{0}, 2)
	env.mustCreatePurchase(t, user.ID, "evt-1", "Video Course")

	if err := env.drip.ScheduleCourse(user.ID, "video-course", time.Now()); err != nil {
		t.Fatalf("ScheduleCourse: %v", err)
	}
	if _, err := env.progressSvc.RecordWatch(user.ID, lessons[0].ID, 95); err != nil {
		t.Fatalf("RecordWatch: %v", err)
	}

	view, err := svc.GetCourseForUser(user.ID, "video-course")
	if err != nil {
		t.Fatalf("GetCourseForUser: %v", err)
	}
	if view.Progress.CompletedLessons != 1 || view.Progress.Percentage != 50 {
		t.Fatalf("progress = %+v, want 1 completed / 50%%", view.Progress)
	}

	lv := view.Modules[0].Lessons[0]
	if lv.WatchPercentage != 95 || !lv.Completed {
		t.Fatalf("lesson view = %+v, want 95%% completed", lv)
	}
}
