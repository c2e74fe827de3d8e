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

	"github.com/redis/go-redis/v9"

	"github.com/sfxdeve/padel-fantasy/brackets"
	"github.com/sfxdeve/padel-fantasy/config"
	"github.com/sfxdeve/padel-fantasy/db"
	"github.com/sfxdeve/padel-fantasy/handlers"
	"github.com/sfxdeve/padel-fantasy/realtime"
	"github.com/sfxdeve/padel-fantasy/repositories"
	"github.com/sfxdeve/padel-fantasy/routes"
	"github.com/sfxdeve/padel-fantasy/services"
	"github.com/sfxdeve/padel-fantasy/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("failed to parse redis URL", slog.Any("error", err))
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	var uploader storage.FileUploader
	if cfg.R2Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
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
		logger.Warn("R2 storage not configured, photo uploads disabled")
	}

	wsHub := realtime.NewHub(logger)
	go wsHub.Run()

	subscriberCtx, cancelSubscriber := context.WithCancel(context.Background())
	defer cancelSubscriber()
	subscriber := realtime.NewSubscriber(redisClient, wsHub, logger)
	go subscriber.Run(subscriberCtx)

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	athleteRepo := repositories.NewPostgresAthleteRepository(dbConn)
	pairRepo := repositories.NewPostgresPairRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	pointsRepo := repositories.NewPostgresAthletePointsRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	lineupRepo := repositories.NewPostgresLineupRepository(dbConn)
	teamRepo := repositories.NewPostgresFantasyTeamRepository(dbConn)
	leagueRepo := repositories.NewPostgresLeagueRepository(dbConn)
	standingRepo := repositories.NewPostgresStandingRepository(dbConn)

	progressionService, err := services.NewProgressionService(matchRepo, brackets.StandardDraw(), logger)
	if err != nil {
		logger.Error("failed to initialize bracket progression", slog.Any("error", err))
		os.Exit(1)
	}

	notifier := realtime.NewRedisNotifier(redisClient, logger)
	txBeginner := repositories.NewTxBeginner(dbConn)
	cascadeService := services.NewCascadeService(
		txBeginner,
		matchRepo,
		pairRepo,
		athleteRepo,
		pointsRepo,
		lineupRepo,
		teamRepo,
		leagueRepo,
		standingRepo,
		tournamentRepo,
		progressionService,
		notifier,
		logger,
	)
	cascadeRunner := services.NewCascadeRunner(cascadeService, cfg.CascadeWorkers, cfg.CascadeQueueSize, logger)
	defer cascadeRunner.Stop()

	authService := services.NewAuthService(userRepo, cfg.JWTSecretKey, cfg.JWTTokenTTL)
	matchService := services.NewMatchService(dbConn, matchRepo, pointsRepo, cascadeRunner, logger)
	lineupService := services.NewLineupService(dbConn, lineupRepo, teamRepo, athleteRepo, tournamentRepo, logger)
	priceService := services.NewPriceService(txBeginner, tournamentRepo, athleteRepo, pointsRepo, logger)
	standingsService := services.NewStandingsService(leagueRepo, standingRepo)
	athleteService := services.NewAthleteService(athleteRepo, uploader, logger)

	scheduler := services.NewScheduler(tournamentRepo, lineupService, priceService, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	defer scheduler.Stop()

	router := routes.InitRoutes(routes.Handlers{
		Auth:      handlers.NewAuthHandler(authService),
		Match:     handlers.NewMatchHandler(matchService),
		Standings: handlers.NewStandingsHandler(standingsService),
		Lineup:    handlers.NewLineupHandler(lineupService),
		Athlete:   handlers.NewAthleteHandler(athleteService),
		WebSocket: handlers.NewWebSocketHandler(wsHub, logger),
	}, cfg.JWTSecretKey)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
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
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
	}
	logger.Info("application exited")
}
