package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"realtywizard/server/config"
	"realtywizard/server/internal/api"
	"realtywizard/server/internal/database"
	"realtywizard/server/internal/flags"
	"realtywizard/server/internal/gallery"
	"realtywizard/server/internal/generation"
	"realtywizard/server/internal/geocoding"
	"realtywizard/server/internal/imagestore"
	"realtywizard/server/internal/persistence"
	"realtywizard/server/internal/processor"
	"realtywizard/server/internal/queue"
	"realtywizard/server/internal/scheduler"
	"realtywizard/server/internal/session"
	"realtywizard/server/internal/telegram"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.WithError(err).Fatal("Failed to create database directory")
		}
	}
	logger.Infof("Using database at: %s", cfg.Database.Path)

	media, err := imagestore.NewDiskStore(cfg.Media.Dir, cfg.Media.BaseURL, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize media store")
	}

	db, err := database.NewDatabase(cfg.Database.Path, media, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	var generator generation.Generator
	if cfg.Generation.OpenAIKey != "" {
		generator = generation.NewOpenAIGenerator(cfg.Generation.OpenAIKey, cfg.Generation.Model)
	} else {
		logger.Warn("OPENAI_API_KEY not set, description generation is disabled")
	}

	fallback := flags.Tenant{
		MCMVEnabled:      cfg.Flags.MCMVEnabled,
		ApprovalRequired: cfg.Flags.ApprovalRequired,
	}
	var flagProvider flags.Provider = flags.NewStatic(fallback)
	if cfg.Flags.LaunchDarklyKey != "" {
		ld, err := flags.NewLaunchDarkly(cfg.Flags.LaunchDarklyKey, cfg.Flags.InitTimeout, fallback, logger)
		if err != nil {
			logger.WithError(err).Error("LaunchDarkly unavailable, using static flags")
		} else {
			defer ld.Close()
			flagProvider = ld
		}
	}

	sessions := session.NewRegistry(logger)
	defer sessions.CloseAll()

	sched := scheduler.NewScheduler(sessions, cfg.Sessions.IdleTTL, logger)

	var enqueuer persistence.Enqueuer
	if cfg.Geocoding.Enabled {
		cacheDir := cfg.Geocoding.CacheDir
		if cacheDir == "" {
			cacheDir = filepath.Join(os.TempDir(), "realtywizard", "geocode_cache")
		}
		geocoder := geocoding.NewGeocoder(logger, cacheDir, geocoding.WithUserAgent(cfg.Geocoding.UserAgent))

		propertyQueue := queue.NewPropertyQueue(cfg.BatchProcessing.QueueSize, logger)
		batchProcessor := processor.NewBatchProcessor(db.GetDB(), geocoder, propertyQueue, cfg, logger)
		batchProcessor.Start()
		defer batchProcessor.Stop()

		enqueuer = propertyQueue
		sched.EnableBackfill(db, propertyQueue, cfg.Geocoding.BackfillBatch)
	}

	if err := sched.Register(cfg.Sessions.SweepSpec, cfg.Geocoding.BackfillSpec); err != nil {
		logger.WithError(err).Fatal("Failed to register scheduled jobs")
	}
	sched.Start()
	defer sched.Stop()

	notifier := telegram.NewService(telegram.Config{
		Enabled:  cfg.Telegram.Enabled,
		BotToken: cfg.Telegram.BotToken,
		ChatID:   cfg.Telegram.ChatID,
	}, logger)

	handler := api.NewHandler(api.Deps{
		Store: db,
		Quota: func(tenantID string) gallery.QuotaChecker {
			return db.Quota(tenantID, cfg.Gallery.QuotaGB)
		},
		Generator: generator,
		Flags:     flagProvider,
		Lookup:    geocoding.NewCEPClient(cfg.Geocoding.ViaCEPURL, logger),
		Queue:     enqueuer,
		Sessions:  sessions,
		Notifier:  notifier,
		Limits: gallery.Limits{
			MaxFileBytes: cfg.Gallery.MaxFileBytes,
			Width:        cfg.Gallery.Width,
			Height:       cfg.Gallery.Height,
		},
		MaxVariants:       cfg.Generation.MaxVariants,
		GenerationTimeout: cfg.Generation.Timeout,
		Logger:            logger,
	})

	if logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Tenant-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Static(cfg.Media.BaseURL, media.Dir())
	api.SetupRoutes(router, handler)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
}
