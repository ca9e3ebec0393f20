package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tcc/task-manager-api/internal/api"
	"github.com/tcc/task-manager-api/internal/core/service"
	"github.com/tcc/task-manager-api/internal/core/token"
	"github.com/tcc/task-manager-api/internal/infrastructure/config"
	mongodb "github.com/tcc/task-manager-api/internal/infrastructure/db/mongo"
	redisdb "github.com/tcc/task-manager-api/internal/infrastructure/db/redis"
	"github.com/tcc/task-manager-api/internal/infrastructure/queue"
	"github.com/tcc/task-manager-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title           Task Manager API
// @version         1.0
// @description     Task and project management backend with JWT authentication.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "task-manager-api",
	})

	// A weak signing secret is a misconfiguration, not a runtime condition.
	codec, err := token.New(token.Config{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("token codec initialisation failed")
	}

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	userRepo := mongodb.NewUserRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("user index creation failed")
	}
	taskRepo := mongodb.NewTaskRepository(db)
	if err := taskRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("task index creation failed")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	// Activity pipeline: service behind a sharded dispatcher so audit entries
	// for the same task are always written in order.
	activityRepo := mongodb.NewActivityRepository(db)
	dedup := redisdb.NewDedupChecker(rdb)
	activityService := service.NewActivityService(activityRepo, dedup, log)
	dispatcher := queue.NewDispatcher(cfg.ActivityWorkers, activityService, log)
	dispatcher.Start(ctx)

	e := api.NewRouter(api.Dependencies{
		Log:        log,
		Codec:      codec,
		Mongo:      db,
		Redis:      rdb,
		Dispatcher: dispatcher,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
