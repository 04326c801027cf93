package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"coursegate_backend/internal/config"
	"coursegate_backend/internal/model"
	"coursegate_backend/internal/repository"
	"coursegate_backend/pkg/database"
	"coursegate_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	logger.Log = zap.NewNop()
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type testEnv struct {
	db *gorm.DB

	users         *repository.UserRepository
	purchases     *repository.PurchaseRepository
	catalog       *repository.CatalogRepository
	releases      *repository.ReleaseRepository
	progress      *repository.ProgressRepository
	stats         *repository.StatsRepository
	notifications *repository.NotificationRepository

	matcher     *SubstringMatcher
	entitlement *EntitlementService
	drip        *DripService
	progressSvc *ProgressService
}

func newTestEnv(t *testing.T, mappings []config.ProductMapping) *testEnv {
	t.Helper()

	db := newTestDB(t)
	env := &testEnv{
		db:            db,
		users:         repository.NewUserRepository(db),
		purchases:     repository.NewPurchaseRepository(db),
		catalog:       repository.NewCatalogRepository(db),
		releases:      repository.NewReleaseRepository(db),
		progress:      repository.NewProgressRepository(db),
		stats:         repository.NewStatsRepository(db),
		notifications: repository.NewNotificationRepository(db),
	}

	env.matcher = NewSubstringMatcher(mappings)
	env.entitlement = NewEntitlementService(env.users, env.purchases, env.matcher, nil, time.Minute)
	env.drip = NewDripService(env.releases, env.catalog, nil)
	env.progressSvc = NewProgressService(env.progress, env.catalog, env.releases, env.stats)

	return env
}

func (e *testEnv) mustCreateUser(t *testing.T, name string, role model.UserRole, fullAccess bool) *model.User {
	t.Helper()
	user := &model.User{
		Name:       name,
		Email:      name + "@example.com",
		Password:   "hashed",
		Role:       role,
		FullAccess: fullAccess,
	}
	if err := e.users.Create(user); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return user
}

func (e *testEnv) mustCreatePurchase(t *testing.T, userID uint, eventID, productName string) *model.Purchase {
	t.Helper()
	p := &model.Purchase{
		UserID:          userID,
		ProviderEventID: eventID,
		ProductName:     productName,
		Status:          model.PurchaseActive,
	}
	created, err := e.purchases.Create(p)
	if err != nil {
		t.Fatalf("create purchase %s: %v", eventID, err)
	}
	if !created {
		t.Fatalf("purchase %s unexpectedly deduplicated", eventID)
	}
	return p
}

// mustCreateCourse builds a course with one module per offset and
// lessonsPerModule lessons in each.
func (e *testEnv) mustCreateCourse(t *testing.T, slug string, offsets []int, lessonsPerModule int) (*model.Course, []model.CourseModule, []model.Lesson) {
	t.Helper()

	course := &model.Course{Slug: slug, Title: slug, Published: true}
	if err := e.catalog.CreateCourse(course); err != nil {
		t.Fatalf("create course %s: %v", slug, err)
	}

	var modules []model.CourseModule
	var lessons []model.Lesson
	for i, offset := range offsets {
		m := model.CourseModule{
			CourseID:       course.ID,
			Number:         i + 1,
			Title:          fmt.Sprintf("Module %d", i+1),
			DripOffsetDays: offset,
		}
		if err := e.catalog.CreateModule(&m); err != nil {
			t.Fatalf("create module %d: %v", i+1, err)
		}
		modules = append(modules, m)

		for j := 0; j < lessonsPerModule; j++ {
			l := model.Lesson{
				ModuleID: m.ID,
				Position: j + 1,
				Title:    fmt.Sprintf("Lesson %d.%d", i+1, j+1),
			}
			if err := e.catalog.CreateLesson(&l); err != nil {
				t.Fatalf("create lesson %d.%d: %v", i+1, j+1, err)
			}
			lessons = append(lessons, l)
		}
	}
	return course, modules, lessons
}
