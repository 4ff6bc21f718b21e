package app

import (
	"copilot_inside_backend/internal/catalog"
	"copilot_inside_backend/internal/config"
	"copilot_inside_backend/internal/controller"
	"copilot_inside_backend/internal/repository"
	"copilot_inside_backend/internal/service"
	"copilot_inside_backend/pkg/configwatcher"
	"copilot_inside_backend/pkg/database"
	"copilot_inside_backend/pkg/logger"
	"copilot_inside_backend/pkg/monitoring"
	"copilot_inside_backend/pkg/security"
	"copilot_inside_backend/pkg/tracing"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	Catalog *catalog.Catalog

	services *services
}

type repositories struct {
	user       *repository.UserRepository
	progress   *repository.ProgressRepository
	rating     *repository.RatingRepository
	event      *repository.EventRepository
	chat       *repository.ChatRepository
	submission *repository.SubmissionRepository
}

type services struct {
	auth       *service.AuthService
	user       *service.UserService
	storage    *service.StorageService
	progress   *service.ProgressService
	rating     *service.RatingService
	grading    *service.GradingService
	chat       *service.ChatService
	submission *service.SubmissionService
	analytics  *service.AnalyticsService
}

type controllers struct {
	auth       *controller.AuthController
	learning   *controller.LearningController
	progress   *controller.ProgressController
	chat       *controller.ChatController
	submission *controller.SubmissionController
	manager    *controller.ManagerController
	health     *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		progress:   repository.NewProgressRepository(db),
		rating:     repository.NewRatingRepository(db),
		event:      repository.NewEventRepository(db),
		chat:       repository.NewChatRepository(db, rdb),
		submission: repository.NewSubmissionRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, cat *catalog.Catalog) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)
	s.grading = service.NewGradingService(cfg.AI)
	s.progress = service.NewProgressService(repos.progress, repos.event, cat)
	s.rating = service.NewRatingService(repos.rating, s.progress)
	s.chat = service.NewChatService(repos.chat, s.grading)
	s.submission = service.NewSubmissionService(repos.submission, s.storage, s.grading, s.progress)
	s.analytics = service.NewAnalyticsService(repos.user, repos.progress, repos.rating, repos.event, s.progress)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth, s.user),
		learning:   controller.NewLearningController(s.progress, s.rating),
		progress:   controller.NewProgressController(s.progress),
		chat:       controller.NewChatController(s.chat),
		submission: controller.NewSubmissionController(s.submission),
		manager:    controller.NewManagerController(s.analytics, s.user),
		health:     controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 6000
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

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	// 课程目录启动时加载一次，校验失败直接拒绝启动
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		logger.Log.Fatal("Failed to load course catalog", zap.String("path", cfg.Catalog.Path), zap.Error(err))
	}
	logger.Log.Info("Course catalog loaded",
		zap.String("path", cfg.Catalog.Path), zap.Int("modules", len(cat.Modules)))

	app := &App{
		Config:  cfg,
		DB:      db,
		Redis:   rdb,
		Catalog: cat,
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg, cat)
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
		_, err := tracing.InitTracer("copilot-inside", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	// 目录文件热更新：重载成功后换给进度服务
	go configwatcher.WatchCatalog(cfg.Catalog.Path, services.progress.SetCatalog)

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

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Log.Sync()
	log.Println("Server exiting")
}
