package service

import (
	"testing"
	"time"

	"coursegate_backend/internal/model"
)

func TestScheduleCourseAnchorsTimeline(t *testing.T) {
	env := newTestEnv(t, testMappings)
	user := env.mustCreateUser(t, "alice", model.Member, false)
	_, modules, _ := env.mustCreateCourse(t, "video-course", []int{0, 2, 4}, 1)

	enrolledAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := env.drip.ScheduleCourse(user.ID, "video-course", enrolledAt); err != nil {
		t.Fatalf("ScheduleCourse: %v", err)
	}

	timelineAt := func(now time.Time) []model.ModuleRelease {
		env.drip.now = func() time.Time { return now }
		releases, err := env.drip.UserTimeline(user.ID, "video-course")
		if err != nil {
			t.Fatalf("UserTimeline: %v", err)
		}
		return releases
	}

	releases := timelineAt(enrolledAt)
	if len(releases) != len(modules) {
		t.Fatalf("got %d releases, want %d", len(releases), len(modules))
	}
	for i, rel := range releases {
		wantAt := enrolledAt.AddDate(0, 0, []int{0, 2, 4}[i])
		if !rel.ReleaseAt.Equal(wantAt) {
			t.Errorf("module %d ReleaseAt = %v, want %v", rel.ModuleNumber, rel.ReleaseAt, wantAt)
		}
	}

	// At enrollment only the offset-0 module is open.
	if !releases[0].Released || releases[1].Released || releases[2].Released {
		t.Fatalf("released flags at T0 = %v %v %v, want true false false",
			releases[0].Released, releases[1].Released, releases[2].Released)
	}

	// Two days in, the second module opens; recomputed, not stored.
	releases = timelineAt(enrolledAt.AddDate(0, 0, 2))
	if !releases[0].Released || !releases[1].Released || releases[2].Released {
		t.Fatalf("released flags at T0+2d = %v %v %v, want true true false",
			releases[0].Released, releases[1].Released, releases[2].Released)
	}
}

func TestScheduleCourseIdempotent(t *testing.T) {
	env := newTestEnv(t, testMappings)
	user := env.mustCreateUser(t, "bob", model.Member, false)
	env.mustCreateCourse(t, "video-course", []int{0, 7}, 1)

	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := env.drip.ScheduleCourse(user.ID, "video-course", first); err != nil {
		t.Fatalf("first ScheduleCourse: %v", err)
	}

	// A later re-enrollment attempt must not move the anchor.
	if err := env.drip.ScheduleCourse(user.ID, "video-course", first.AddDate(0, 1, 0)); err != nil {
		t.Fatalf("second ScheduleCourse: %v", err)
	}

	releases, err := env.releases.ListByUserCourse(user.ID, "video-course")
	if err != nil {
		t.Fatalf("ListByUserCourse: %v", err)
	}
	if len(releases) != 2 {
		t.Fatalf("got %d releases after double schedule, want 2", len(releases))
	}
	if !releases[0].ReleaseAt.Equal(first) {
		t.Fatalf("anchor moved: ReleaseAt = %v, want %v", releases[0].ReleaseAt, first)
	}
}

func TestScheduleCourseUnknownCourse(t *testing.T) {
	env := newTestEnv(t, testMappings)
	user := env.mustCreateUser(t, "carol", model.Member, false)

	if err := env.drip.ScheduleCourse(user.ID, "no-such-course", time.Now()); err == nil {
		t.Fatal("scheduling an unknown course should fail")
	}
}

func TestIsModuleUnlocked(t *testing.T) {
	env := newTestEnv(t, testMappings)
	user := env.mustCreateUser(t, "dave", model.Member, false)
	_, modules, _ := env.mustCreateCourse(t, "video-course", []int{0, 5}, 1)

	enrolledAt := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := env.drip.ScheduleCourse(user.ID, "video-course", enrolledAt); err != nil {
		t.Fatalf("ScheduleCourse: %v", err)
	}

	env.drip.now = func() time.Time { return enrolledAt.AddDate(0, 0, 1) }

	if ok, _ := env.drip.IsModuleUnlocked(user.ID, modules[0].ID); !ok {
		t.Fatal("offset-0 module should be unlocked")
	}
	if ok, _ := env.drip.IsModuleUnlocked(user.ID, modules[1].ID); ok {
		t.Fatal("offset-5 module should still be locked on day 1")
	}

	// A user without a timeline record is locked out entirely.
	other := env.mustCreateUser(t, "erin", model.Member, false)
	if ok, _ := env.drip.IsModuleUnlocked(other.ID, modules[0].ID); ok {
		t.Fatal("unenrolled user must see the module locked")
	}
}

func TestReconcileReleasesFlipsStaleFlags(t *testing.T) {
	env := newTestEnv(t, testMappings)
	user := env.mustCreateUser(t, "frank", model.Member, false)
	env.mustCreateCourse(t, "video-course", []int{0, 2}, 1)

	enrolledAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	if err := env.drip.ScheduleCourse(user.ID, "video-course", enrolledAt); err != nil {
		t.Fatalf("ScheduleCourse: %v", err)
	}

	// Three days later the sweep should flip the offset-2 row.
	env.drip.now = func() time.Time { return enrolledAt.AddDate(0, 0, 3) }
	if err := env.drip.ReconcileReleases(); err != nil {
		t.Fatalf("ReconcileReleases: %v", err)
	}

	releases, err := env.releases.ListByUserCourse(user.ID, "video-course")
	if err != nil {
		t.Fatalf("ListByUserCourse: %v", err)
	}
	for _, rel := range releases {
		if !rel.Released {
			t.Fatalf("module %d stored flag still false after reconcile", rel.ModuleNumber)
		}
	}

	// A second sweep finds nothing to do.
	if err := env.drip.ReconcileReleases(); err != nil {
		t.Fatalf("second ReconcileReleases: %v", err)
	}
}
