package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursegate_backend/internal/config"
	"coursegate_backend/internal/controller"
	"coursegate_backend/internal/repository"
	"coursegate_backend/internal/service"
	"coursegate_backend/pkg/database"
	"coursegate_backend/pkg/logger"
	"coursegate_backend/pkg/monitoring"
	"coursegate_backend/pkg/security"
	"coursegate_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config  *config.Config
	Router  *gin.Engine
	DB      *gorm.DB
	Redis   *redis.Client
	Matcher *service.SubstringMatcher

	services *services
	cancelBg context.CancelFunc
}

type repositories struct {
	user         *repository.UserRepository
	purchase     *repository.PurchaseRepository
	catalog      *repository.CatalogRepository
	release      *repository.ReleaseRepository
	progress     *repository.ProgressRepository
	stats        *repository.StatsRepository
	notification *repository.NotificationRepository
}

type services struct {
	auth         *service.AuthService
	storage      *service.StorageService
	catalog      *service.CatalogService
	entitlement  *service.EntitlementService
	drip         *service.DripService
	progress     *service.ProgressService
	notification *service.NotificationService
	purchase     *service.PurchaseService
	course       *service.CourseService
}

type controllers struct {
	auth         *controller.AuthController
	course       *controller.CourseController
	progress     *controller.ProgressController
	notification *controller.NotificationController
	admin        *controller.AdminController
	webhook      *controller.WebhookController
	health       *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		purchase:     repository.NewPurchaseRepository(db),
		catalog:      repository.NewCatalogRepository(db),
		release:      repository.NewReleaseRepository(db),
		progress:     repository.NewProgressRepository(db),
		stats:        repository.NewStatsRepository(db),
		notification: repository.NewNotificationRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	a.Matcher = service.NewSubstringMatcher(cfg.Entitlements.ProductMap)

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.catalog = service.NewCatalogService(repos.catalog, s.storage)

	cacheTTL := time.Duration(cfg.Entitlements.CacheTTLSeconds) * time.Second
	s.entitlement = service.NewEntitlementService(repos.user, repos.purchase, a.Matcher, rdb, cacheTTL)
	s.drip = service.NewDripService(repos.release, repos.catalog, rdb)
	s.progress = service.NewProgressService(repos.progress, repos.catalog, repos.release, repos.stats)
	s.notification = service.NewNotificationService(repos.notification, repos.user, s.entitlement, cfg.Notifications.IncludeAdmins)
	s.purchase = service.NewPurchaseService(repos.purchase, repos.user, a.Matcher, s.drip, s.entitlement)
	s.course = service.NewCourseService(repos.catalog, s.entitlement, s.drip, s.progress)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		course:       controller.NewCourseController(s.course, s.catalog, s.progress),
		progress:     controller.NewProgressController(s.progress, s.drip),
		notification: controller.NewNotificationController(s.notification),
		admin:        controller.NewAdminController(s.catalog, s.purchase),
		webhook:      controller.NewWebhookController(s.purchase),
		health:       controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks runs the release reconcile sweep. Reads recompute
// released state on their own; the sweep only keeps stored flags and the
// change feed current.
func (a *App) startBackgroundTasks(ctx context.Context, s *services) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.drip.ReconcileReleases(); err != nil {
					logger.Log.Error("release reconcile error", zap.Error(err))
				}
			}
		}
	}()

	s.drip.SubscribeReleaseChanges(ctx, func(payload string) {
		logger.Log.Debug("module released", zap.String("event", payload))
	})
}

// ReloadConfig applies a hot-reloaded config. Only the product map and the
// broadcast policy are swappable at runtime.
func (a *App) ReloadConfig(cfg *config.Config) {
	a.Matcher.Reload(cfg.Entitlements.ProductMap)
	a.services.notification.IncludeAdmins = cfg.Notifications.IncludeAdmins
	logger.Log.Info("config reloaded",
		zap.Int("productMappings", len(cfg.Entitlements.ProductMap)))
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	// Release mode skips auto-migration unless forced from the command line.
	if cfg.Server.Mode != "release" || cfg.ForceMigrate || cfg.MigrateOnly {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Log.Info("Database migration completed")
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Warn("Redis unavailable, running without cache", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("coursegate", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	app.cancelBg = cancel
	app.startBackgroundTasks(bgCtx, services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.cancelBg != nil {
		a.cancelBg()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
