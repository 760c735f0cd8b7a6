package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-telehealth-booking/config"
	deliveryHttp "go-telehealth-booking/internal/delivery/http"
	"go-telehealth-booking/internal/delivery/http/handler"
	"go-telehealth-booking/internal/delivery/http/middleware"
	"go-telehealth-booking/internal/domain/lifecycle"
	"go-telehealth-booking/internal/infrastructure/cache"
	"go-telehealth-booking/internal/infrastructure/database"
	"go-telehealth-booking/internal/repository"
	"go-telehealth-booking/internal/service"
	"go-telehealth-booking/internal/usecase"
	"go-telehealth-booking/pkg/jwt"
	"go-telehealth-booking/pkg/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server
	Sweeper     *service.LifecycleSweeper
	Notifier    service.AppointmentNotifier
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	log := setupLogger(cfg.App.LogLevel)
	app.Log = log
	log.Info("Configuration loaded successfully")

	if cfg.DB.AutoMigrate {
		if err := database.RunMigrations(cfg.DB, log); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis, log)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient

	app.initialize(cfg, log, db, redisClient)

	return app, nil
}

// setupLogger configures a JSON logrus logger at the given level
func setupLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	return log
}

// initialize wires repositories, usecases, handlers, the HTTP server and the sweeper
func (app *App) initialize(cfg *config.Config, log *logrus.Logger, db *gorm.DB, redisClient *redis.Client) {
	policy := lifecycle.Policy{
		Grace:           cfg.Lifecycle.Grace,
		SlotGranularity: cfg.Lifecycle.SlotGranularity,
		Location:        cfg.App.Location(),
	}
	clock := lifecycle.Clock(time.Now)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := service.NewMetrics(registry)

	jwtService := jwt.NewJWTService(cfg.JWT)
	customValidator := validator.NewValidator()
	tx := database.NewTransactor(db)

	// Initialize repositories
	appointmentRepo := repository.NewAppointmentRepository()
	availabilityRepo := repository.NewAvailabilityRepository()
	doctorProfileRepo := repository.NewDoctorProfileRepository()
	medicalRecordRepo := repository.NewMedicalRecordRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	auditService := service.NewAuditService(log, auditLogRepo)
	notifier := service.NewAppointmentNotifier(
		service.NewRedisNotificationPort(redisClient), log, metrics, policy, clock, cfg.Notification.Timeout,
	)
	app.Notifier = notifier

	// Initialize usecases
	bookingUsecase := usecase.NewBookingUsecase(tx, log, policy, clock,
		doctorProfileRepo, availabilityRepo, appointmentRepo, auditService, notifier, metrics)
	appointmentUsecase := usecase.NewAppointmentUsecase(tx, log, policy, clock,
		appointmentRepo, medicalRecordRepo, auditService, notifier, metrics)
	availabilityUsecase := usecase.NewAvailabilityUsecase(tx, log, policy, clock,
		doctorProfileRepo, availabilityRepo, appointmentRepo, auditService)
	medicalRecordUsecase := usecase.NewMedicalRecordUsecase(tx, log, appointmentRepo, medicalRecordRepo, auditService)
	sweepUsecase := usecase.NewLifecycleSweepUsecase(tx, log, policy, clock, cfg.Sweeper.BatchSize,
		appointmentRepo, auditService, notifier, metrics)
	auditLogUsecase := usecase.NewAuditLogUsecase(tx, log, auditLogRepo)

	// Initialize handlers
	appointmentHandler := handler.NewAppointmentHandler(bookingUsecase, appointmentUsecase, customValidator)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityUsecase, customValidator)
	medicalRecordHandler := handler.NewMedicalRecordHandler(medicalRecordUsecase, customValidator)
	lifecycleHandler := handler.NewLifecycleHandler(sweepUsecase)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)
	healthHandler := handler.NewHealthHandler(map[string]handler.HealthCheck{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	})

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, redisClient, log)
	corsMiddleware := middleware.NewCORSMiddleware()
	metricsMiddleware := middleware.NewMetricsMiddleware(metrics)

	// Initialize router
	router := deliveryHttp.NewRouter(
		appointmentHandler,
		availabilityHandler,
		medicalRecordHandler,
		lifecycleHandler,
		auditLogHandler,
		healthHandler,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		authMiddleware,
		corsMiddleware,
		metricsMiddleware,
	)

	app.Server = &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Sweeper.Enabled {
		app.Sweeper = service.NewLifecycleSweeper(sweepUsecase, log, cfg.Sweeper.Interval)
	}
}

// Run starts the HTTP server and the lifecycle sweeper and blocks until an
// interrupt signal arrives or one of them fails.
func (app *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if app.Sweeper != nil {
		g.Go(func() error {
			return app.Sweeper.Run(gctx)
		})
	} else {
		app.Log.Info("Lifecycle sweeper disabled")
	}

	g.Go(func() error {
		<-gctx.Done()
		app.Log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := app.Server.Shutdown(shutdownCtx); err != nil {
			app.Log.Errorf("Server forced to shutdown: %v", err)
		}
		return nil
	})

	err := g.Wait()

	app.Close()
	app.Log.Info("Server shutdown complete")

	return err
}

// Close waits for in-flight notifications and closes connections
func (app *App) Close() {
	if app.Notifier != nil {
		app.Notifier.Wait()
	}

	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
