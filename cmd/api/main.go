package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/enrollment-api/internal/auth"
	"github.com/noah-isme/enrollment-api/internal/config"
	"github.com/noah-isme/enrollment-api/internal/database"
	"github.com/noah-isme/enrollment-api/internal/handler"
	"github.com/noah-isme/enrollment-api/internal/middleware"
	"github.com/noah-isme/enrollment-api/internal/repository"
	"github.com/noah-isme/enrollment-api/internal/router"
	"github.com/noah-isme/enrollment-api/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level).With().Str("service", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to nats")
	}
	if natsConn != nil {
		defer natsConn.Drain()
	}

	var demoStores *repository.DemoStores
	if cfg.DemoEnabled {
		var kv repository.KeyValueStore
		if redisClient != nil {
			kv = repository.NewRedisKeyValueStore(redisClient, cfg.DemoSessionTTL)
		} else {
			logger.Warn().Msg("redis not configured; demo sessions are kept in process memory")
			kv = repository.NewMemoryKeyValueStore(cfg.DemoSessionTTL)
		}

		demoStores, err = repository.NewDemoStores(kv, repository.DemoIdentities{
			Admin:      cfg.DemoAdminID,
			Instructor: cfg.DemoInstructorID,
			Student:    cfg.DemoStudentID,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialise demo mode")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	validate := validator.New(validator.WithRequiredStructEnabled())
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL, cfg.AppName)
	stores := service.NewStoreSelector(repository.NewGormStore(db), demoStores)

	activityService := service.NewActivityService(stores, redisClient, cfg.EventChannel, natsConn, logger)
	activityService.Start(ctx)

	profileService := service.NewProfileService(stores, activityService, validate, redisClient, cfg.LookupCacheTTL, logger)
	authService := service.NewAuthService(db, stores, tokens, activityService, validate, logger)
	studentService := service.NewStudentService(stores, validate, logger)
	instructorService := service.NewInstructorService(stores, validate, logger)
	courseService := service.NewCourseService(stores, activityService, validate, logger)
	enrollmentService := service.NewEnrollmentService(stores, activityService, validate, logger)
	dashboardService := service.NewDashboardService(stores, profileService, cfg.DashboardLogLimit, logger)

	if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Fatal().Err(err).Msg("failed to bootstrap admin account")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, logger),
		ProfileHandler:    handler.NewProfileHandler(profileService, logger),
		StudentHandler:    handler.NewStudentHandler(studentService, logger),
		InstructorHandler: handler.NewInstructorHandler(instructorService, logger),
		CourseHandler:     handler.NewCourseHandler(courseService, logger),
		EnrollmentHandler: handler.NewEnrollmentHandler(
			enrollmentService,
			middleware.RateLimit("enroll", cfg.EnrollRateLimit, cfg.EnrollRateWindow),
			logger,
		),
		AdminHandler:     handler.NewAdminHandler(enrollmentService, activityService, logger),
		DashboardHandler: handler.NewDashboardHandler(dashboardService, logger),
		JWTMiddleware:    middleware.JWTProtected(tokens),
		HealthChecks:     healthChecks(db, redisClient),
	})

	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Bool("demo", cfg.DemoEnabled).Msg("starting server")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, cancel, logger)
}

func healthChecks(db *gorm.DB, redisClient *redis.Client) []handler.DependencyCheck {
	checks := []handler.DependencyCheck{{
		Name: "postgres",
		Check: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	if redisClient != nil {
		checks = append(checks, handler.DependencyCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}
	return checks
}

func waitForShutdown(app *fiber.App, stopWorkers context.CancelFunc, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
