package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assessment-api/internal/config"
	"github.com/noah-isme/gema-assessment-api/internal/database"
	"github.com/noah-isme/gema-assessment-api/internal/events"
	"github.com/noah-isme/gema-assessment-api/internal/grading"
	"github.com/noah-isme/gema-assessment-api/internal/handler"
	"github.com/noah-isme/gema-assessment-api/internal/middleware"
	"github.com/noah-isme/gema-assessment-api/internal/repository"
	"github.com/noah-isme/gema-assessment-api/internal/router"
	"github.com/noah-isme/gema-assessment-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	level := zerolog.DebugLevel
	if cfg.IsProduction() {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	if redisClient == nil {
		logger.Warn().Msg("redis disabled, grading events will not be published to redis")
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn == nil {
		logger.Warn().Msg("nats disabled, grading events will not be published to nats")
	}

	publisher := events.MultiPublisher{
		events.NewRedisPublisher(redisClient, cfg.EventsChannel),
		events.NewNATSPublisher(natsConn, cfg.EventsChannel),
	}

	validate := service.NewValidator()
	lifecycle := service.LifecycleConfig{
		ConflictRetries:        cfg.ConflictRetries,
		AllowedAttachmentTypes: cfg.AllowedAttachmentTypes,
	}

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	attemptRepo := repository.NewQuizAttemptRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, validate, logger)
	submissionService := service.NewSubmissionService(assignmentRepo, submissionRepo, validate, activityService, publisher, grading.SystemClock, lifecycle, logger)
	attemptService := service.NewAttemptService(quizRepo, attemptRepo, validate, activityService, publisher, grading.SystemClock, lifecycle, logger)
	statsService := service.NewStatsService(assignmentRepo, submissionRepo, quizRepo, attemptRepo, grading.SystemClock, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		AttemptHandler:    handler.NewAttemptHandler(attemptService, logger),
		StatsHandler:      handler.NewStatsHandler(statsService, logger),
		ActivityHandler:   handler.NewActivityHandler(activityService, logger),
		HealthProbes:      healthProbes(db, redisClient),
		Logger:            logger,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Msg("starting http server")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, logger, redisClient, natsConn)
}

func healthProbes(db *gorm.DB, redisClient *redis.Client) map[string]handler.HealthProbe {
	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			conn, err := db.DB()
			if err != nil {
				return err
			}
			return conn.PingContext(ctx)
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return probes
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger, redisClient *redis.Client, natsConn *nats.Conn) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if natsConn != nil {
		if err := natsConn.Drain(); err != nil {
			logger.Warn().Err(err).Msg("failed to drain nats connection")
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close redis client")
		}
	}

	logger.Info().Msg("server stopped")
}
