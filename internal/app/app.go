package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"editorial_composer/internal/cms"
	"editorial_composer/internal/config"
	"editorial_composer/internal/controller"
	"editorial_composer/internal/middleware"
	"editorial_composer/internal/repository"
	"editorial_composer/internal/service"
	"editorial_composer/pkg/configwatcher"
	"editorial_composer/pkg/database"
	"editorial_composer/pkg/logger"
	"editorial_composer/pkg/monitoring"
	"editorial_composer/pkg/security"
	"editorial_composer/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config  *config.Config
	Router  *gin.Engine
	DB      *gorm.DB
	Redis   *redis.Client
	CMS     *cms.Client
	Service *service.EditorService

	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type controllers struct {
	draft      *controller.DraftController
	page       *controller.EditorPageController
	submission *controller.SubmissionController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initDraftRepository(cfg *config.Config) repository.DraftRepository {
	if a.Redis != nil {
		return repository.NewRedisDraftRepository(a.Redis, time.Duration(cfg.Redis.TTLHours)*time.Hour)
	}
	return repository.NewMemoryDraftRepository()
}

func (a *App) initControllers() *controllers {
	return &controllers{
		draft:      controller.NewDraftController(a.Service),
		page:       controller.NewEditorPageController(a.Service),
		submission: controller.NewSubmissionController(a.Service),
		health:     controller.NewHealthController(a.DB, a.Redis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	if cfg.RateLimit.MaxRequests > 0 {
		router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))
	}

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// NewApp connects the stores and builds the router. Close releases what it opened.
func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}

	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("initialize redis: %w", err)
		}
		app.Redis = rdb
	}

	if err := monitoring.Init(nil); err != nil {
		app.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("initialize tracing: %w", err)
		}
		app.tracer = tp
	}

	app.CMS = cms.NewClient(cfg.CMS)
	app.Service = service.NewEditorService(
		app.initDraftRepository(cfg),
		repository.NewSubmissionRepository(db),
		app.CMS,
	)
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		app.CMS.SetEndpoints(newCfg.CMS)
		logger.Log.Info("CMS endpoints updated",
			zap.String("editorial", newCfg.CMS.EditorialURL()),
			zap.String("daily", newCfg.CMS.DailyURL()))
	})

	router := gin.New()
	router.Use(middleware.AccessLog(), gin.Recovery())
	router.SetHTMLTemplate(controller.Templates())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, app.initControllers())

	return app, nil
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	if a.Config.File != "" {
		go func() {
			if err := configwatcher.Watch(ctx, a.Config.File, a.applyConfig); err != nil {
				logger.Log.Error("Config watcher stopped", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Log.Info("Server exiting")
	return nil
}

func (a *App) Close() {
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Log.Error("Failed to close redis", zap.Error(err))
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
	_ = logger.Log.Sync()
}
