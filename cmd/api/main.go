package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/innova-space-edu/exam-mira-api/internal/config"
	"github.com/innova-space-edu/exam-mira-api/internal/database"
	"github.com/innova-space-edu/exam-mira-api/internal/events"
	"github.com/innova-space-edu/exam-mira-api/internal/handler"
	"github.com/innova-space-edu/exam-mira-api/internal/middleware"
	"github.com/innova-space-edu/exam-mira-api/internal/models"
	"github.com/innova-space-edu/exam-mira-api/internal/repository"
	"github.com/innova-space-edu/exam-mira-api/internal/router"
	"github.com/innova-space-edu/exam-mira-api/internal/schema"
	"github.com/innova-space-edu/exam-mira-api/internal/service"
	"github.com/innova-space-edu/exam-mira-api/pkg/ai"
	cloud "github.com/innova-space-edu/exam-mira-api/pkg/cloudinary"
	"github.com/innova-space-edu/exam-mira-api/pkg/ocr"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Exam{}, &models.ExamItem{},
		&models.Submission{}, &models.SubmissionSlide{},
		&models.GradeReport{}, &models.ItemScore{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Redis, NATS, Cloudinary and the OpenRouter key are all optional. The
	// grading pipeline degrades rather than refuse to boot without them.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured, report caching disabled")
	}

	var publisher events.Publisher
	if cfg.NatsURL != "" {
		natsConn, err := database.ConnectNATS(cfg.NatsURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
		publisher = events.NewNATSPublisher(natsConn, events.DefaultGradedSubject, logger)
	} else {
		logger.Warn().Msg("nats url not configured, graded events disabled")
	}

	var archiver service.SnapshotArchiver
	if cfg.CloudinaryCloudName != "" {
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		archiver = uploader
	} else {
		logger.Warn().Msg("cloudinary not configured, snapshot archival disabled")
	}

	var grader ai.Grader
	var completer ai.ChatCompleter
	if cfg.OpenRouterAPIKey != "" {
		openRouterGrader, err := ai.NewOpenRouterGrader(ai.OpenRouterConfig{
			APIKey:      cfg.OpenRouterAPIKey,
			BaseURL:     cfg.OpenRouterBaseURL,
			Model:       cfg.GraderModel,
			Temperature: cfg.GraderTemperature,
			Timeout:     cfg.GraderTimeout,
			Logger:      logger,
		})
		if err != nil {
			log.Fatalf("failed to create grader client: %v", err)
		}
		grader = openRouterGrader

		chatClient, err := ai.NewOpenRouterChat(ai.OpenRouterConfig{
			APIKey:  cfg.OpenRouterAPIKey,
			BaseURL: cfg.OpenRouterBaseURL,
			Model:   cfg.GraderModel,
			Timeout: cfg.GraderTimeout,
		})
		if err != nil {
			log.Fatalf("failed to create chat client: %v", err)
		}
		completer = chatClient
	} else {
		logger.Warn().Msg("openrouter api key not configured, rubric grading falls back to placeholders")
	}

	extractor := ocr.NewClient(ocr.Config{
		APIKey:   cfg.OCRSpaceAPIKey,
		Language: cfg.OCRLanguage,
		Timeout:  cfg.OCRTimeout,
		Logger:   logger,
	})

	examValidator, err := schema.NewExamValidator()
	if err != nil {
		log.Fatalf("failed to compile exam schema: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	examRepo := repository.NewExamRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	reportRepo := repository.NewReportRepository(db)

	examService := service.NewExamService(examRepo, validate, examValidator, logger)
	submissionService := service.NewSubmissionService(submissionRepo, examRepo, archiver, validate, logger)
	gradingService := service.NewGradingService(extractor, grader, submissionRepo, reportRepo, redisClient, cfg.ReportCacheTTL, publisher, logger)
	chatService := service.NewChatService(completer, validate, logger)

	gradingHandler := handler.NewGradingHandler(gradingService, logger)
	chatHandler := handler.NewChatHandler(chatService, logger)
	examHandler := handler.NewExamHandler(examService, logger)
	submissionHandler := handler.NewSubmissionHandler(submissionService, gradingService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		GradingHandler:    gradingHandler,
		ChatHandler:       chatHandler,
		ExamHandler:       examHandler,
		SubmissionHandler: submissionHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
