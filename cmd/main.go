package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/gamejam/config"
	"github.com/Dosada05/gamejam/db"
	"github.com/Dosada05/gamejam/handlers"
	"github.com/Dosada05/gamejam/realtime"
	"github.com/Dosada05/gamejam/repositories"
	api "github.com/Dosada05/gamejam/routes"
	"github.com/Dosada05/gamejam/services"
	"github.com/Dosada05/gamejam/storage"
	"github.com/go-chi/chi/v5"
)

const notifyTimeout = 30 * time.Second

// @title Game Jam API
// @version 1.0
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("mail_mode", cfg.MailMode))

	dbConn, err := db.Connect(context.Background(), cfg.DatabaseURL, cfg.DBPool)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), time.Minute)
	err = db.Migrate(migrateCtx, dbConn)
	cancelMigrate()
	if err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	var uploader storage.FileUploader
	if cfg.StorageEnabled() {
		uploader, err = storage.NewCloudflareR2Uploader(context.Background(), storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("R2 storage not configured, submissions accept links only")
	}

	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	wsHub := realtime.NewHub(logger)
	go wsHub.Run(appCtx)
	logger.Info("WebSocket Hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	tokenRepo := repositories.NewPostgresResetTokenRepository(dbConn)
	submissionRepo := repositories.NewPostgresSubmissionRepository(dbConn)
	announcementRepo := repositories.NewPostgresAnnouncementRepository(dbConn)
	messageRepo := repositories.NewPostgresMessageRepository(dbConn)
	statsRepo := repositories.NewPostgresStatsRepository(dbConn)

	sessions := services.NewSessionManager(cfg.JWTSecretKey, cfg.SessionTTL, cfg.CookieSecure)
	notifier := services.NewAsyncNotifier(services.NewNotifier(cfg, logger), notifyTimeout, logger)

	authService := services.NewAuthService(dbConn, userRepo, tokenRepo, sessions, notifier, cfg, logger)
	teamService := services.NewTeamService(dbConn, teamRepo, userRepo, logger)
	submissionService := services.NewSubmissionService(submissionRepo, teamRepo, userRepo, uploader, logger)
	announcementService := services.NewAnnouncementService(announcementRepo, logger)
	messageService := services.NewMessageService(messageRepo, userRepo, wsHub, logger)
	dashboardService := services.NewDashboardService(statsRepo)
	adminUserService := services.NewAdminUserService(userRepo)
	logger.Info("Services initialized")

	go services.NewTokenCleanup(tokenRepo, cfg.TokenCleanupInterval, logger).Run(appCtx)

	router := chi.NewRouter()
	api.SetupRoutes(router, sessions, cfg.CORSAllowedOrigins, api.Handlers{
		Auth:         handlers.NewAuthHandler(authService, sessions),
		Team:         handlers.NewTeamHandler(teamService),
		Submission:   handlers.NewSubmissionHandler(submissionService),
		Announcement: handlers.NewAnnouncementHandler(announcementService),
		Message:      handlers.NewMessageHandler(messageService),
		Admin:        handlers.NewAdminHandler(adminUserService, authService, dashboardService),
		WebSocket:    handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins),
	})
	logger.Info("Routes configured")

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		stopApp()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
