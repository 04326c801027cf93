package service

import (
	"errors"
	"testing"
	"time"

	"coursegate_backend/internal/model"
	"coursegate_backend/internal/util"
)

func TestRecordWatchRejectsOutOfRange(t *testing.T) {
	env := newTestEnv(t, testMappings)
	user := env.mustCreateUser(t, "alice", model.Member, false)
	_, _, lessons := env.mustCreateCourse(t, "video-course", []int{0}, 1)

	for _, pct := range []int{-1, 101, 250} {
		_, err := env.progressSvc.RecordWatch(user.ID, lessons[0].ID, pct)
		if !errors.Is(err, util.ErrInvalidInput) {
			t.Errorf("RecordWatch(%d) err = %v, want ErrInvalidInput", pct, err)
		}
	}
}

func TestRecordWatchUnknownLesson(t *testing.T) {
	env := newTestEnv(t, testMappings)
	user := env.mustCreateUser(t, "bob", model.Member, false)

	_, err := env.progressSvc.RecordWatch(user.ID, 9999, 50)
	if !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestRecordWatchMonotonic(t *testing.T) {
	env := newTestEnv(t, testMappings)
	user := env.mustCreateUser(t, "carol", model.Member, false)
	_, _, lessons := env.mustCreateCourse(t, "video-course", []int{0}, 2)
	lesson := lessons[0]

	// Out-of-order reports; the stored value is the running max.
	reports := []struct {
		pct           int
		wantStored    int
		wantCompleted bool
	}{
		{30, 30, false},
		{70, 70, false},
		{50, 70, false}, // lower report never lowers the stored value
		{90, 90, true},  // threshold crossing fires exactly here
	}

	for _, r := range reports {
		result, err := env.progressSvc.RecordWatch(user.ID, lesson.ID, r.pct)
		if err != nil {
			t.Fatalf("RecordWatch(%d): %v", r.pct, err)
		}
		if result.Percentage != r.wantStored {
			t.Errorf("after report %d: stored = %d, want %d", r.pct, result.Percentage, r.wantStored)
		}
		if result.LessonCompleted != r.wantCompleted {
			t.Errorf("after report %d: LessonCompleted = %v, want %v", r.pct, result.LessonCompleted, r.wantCompleted)
		}
	}
}

func TestCompletionFiresExactlyOnce(t *testing.T) {
	env := newTestEnv(t, testMappings)
	user := env.mustCreateUser(t, "dave", model.Member, false)
	_, _, lessons := env.mustCreateCourse(t, "video-course", []int{0}, 2)
	lesson := lessons[0]

	completions := 0
	for i := 0; i < 10; i++ {
		result, err := env.progressSvc.RecordWatch(user.ID, lesson.ID, 95)
		if err != nil {
			t.Fatalf("RecordWatch replay %d: %v", i, err)
		}
		if result.LessonCompleted {
			completions++
		}
	}
	if completions != 1 {
		t.Fatalf("completion fired %d times across replays, want 1", completions)
	}

	stats, err := env.progressSvc.Stats(user.ID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.CompletedLessons != 1 {
		t.Fatalf("CompletedLessons = %d, want 1", stats.CompletedLessons)
	}
}

func TestModuleCompletion(t *testing.T) {
	env := newTestEnv(t, testMappings)
	user := env.mustCreateUser(t, "erin", model.Member, false)
	_, modules, lessons := env.mustCreateCourse(t, "video-course", []int{0}, 2)

	if err := env.drip.ScheduleCourse(user.ID, "video-course", time.Now()); err != nil {
		t.Fatalf("ScheduleCourse: %v", err)
	}

	result, err := env.progressSvc.RecordWatch(user.ID, lessons[0].ID, 100)
	if err != nil {
		t.Fatalf("RecordWatch lesson 1: %v", err)
	}
	if result.ModuleCompleted {
		t.Fatal("module completed with one of two lessons done")
	}

	result, err = env.progressSvc.RecordWatch(user.ID, lessons[1].ID, 92)
	if err != nil {
		t.Fatalf("RecordWatch lesson 2: %v", err)
	}
	if !result.ModuleCompleted {
		t.Fatal("module should complete when the last lesson crosses the threshold")
	}

	release, err := env.releases.FindByUserModule(user.ID, modules[0].ID)
	if err != nil {
		t.Fatalf("FindByUserModule: %v", err)
	}
	if !release.Completed || release.CompletedAt == nil {
		t.Fatalf("release row not marked completed: %+v", release)
	}
}

func TestCourseProgressAggregation(t *testing.T) {
	env := newTestEnv(t, testMappings)
	user := env.mustCreateUser(t, "frank", model.Member, false)
	_, _, lessons := env.mustCreateCourse(t, "video-course", []int{0, 2}, 2)

	progress, err := env.progressSvc.CourseProgressFor(user.ID, "video-course")
	if err != nil {
		t.Fatalf("CourseProgressFor: %v", err)
	}
	if progress.TotalLessons != 4 || progress.CompletedLessons != 0 || progress.Percentage != 0 {
		t.Fatalf("empty progress = %+v", progress)
	}

	// Complete one of four lessons: 25%.
	if _, err := env.progressSvc.RecordWatch(user.ID, lessons[0].ID, 100); err != nil {
		t.Fatalf("RecordWatch: %v", err)
	}
	// 80% watch is below threshold and counts for nothing.
	if _, err := env.progressSvc.RecordWatch(user.ID, lessons[1].ID, 80); err != nil {
		t.Fatalf("RecordWatch: %v", err)
	}

	progress, err = env.progressSvc.CourseProgressFor(user.ID, "video-course")
	if err != nil {
		t.Fatalf("CourseProgressFor: %v", err)
	}
	if progress.CompletedLessons != 1 || progress.Percentage != 25 {
		t.Fatalf("progress = %+v, want 1 completed / 25%%", progress)
	}
}

func TestCourseProgressZeroLessons(t *testing.T) {
	env := newTestEnv(t, testMappings)
	user := env.mustCreateUser(t, "grace", model.Member, false)
	env.mustCreateCourse(t, "empty-course", []int{0}, 0)

	progress, err := env.progressSvc.CourseProgressFor(user.ID, "empty-course")
	if err != nil {
		t.Fatalf("CourseProgressFor: %v", err)
	}
	if progress.TotalLessons != 0 || progress.Percentage != 0 {
		t.Fatalf("zero-lesson progress = %+v, want zeros", progress)
	}
}
