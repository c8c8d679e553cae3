package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/sillychess/internal/api"
	"github.com/vytor/sillychess/internal/config"
	"github.com/vytor/sillychess/internal/db"
	"github.com/vytor/sillychess/internal/engine"
	"github.com/vytor/sillychess/internal/jobs"
	"github.com/vytor/sillychess/internal/logger"
	"github.com/vytor/sillychess/internal/repository/sqlite"
	"github.com/vytor/sillychess/internal/services"
	"github.com/vytor/sillychess/internal/sessions"
	"github.com/vytor/sillychess/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithFormat(cfg.LogFormat),
		logger.WithColors(cfg.LogFormat != "json"),
	)
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	log.Info("===========================================")
	log.Info("Silly Chess Server Starting")
	log.Info("===========================================")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("redis_url_set=%t", cfg.RedisURL != "")
	log.Debug("session_ttl_sec=%d", cfg.SessionTTLSec)
	log.Debug("stockfish_path=%s", cfg.StockfishPath)
	log.Debug("stockfish_depth=%d", cfg.StockfishDepth)
	log.Debug("engine_pool_size=%d", cfg.EnginePoolSize)
	log.Debug("smart_move_probability=%.2f", cfg.SmartMoveProbability)
	log.Debug("archive_worker_count=%d", cfg.ArchiveWorkerCount)
	log.Debug("archive_queue_size=%d", cfg.ArchiveQueueSize)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	readyChecks := map[string]api.Checker{"database": database.Ping}
	ttl := time.Duration(cfg.SessionTTLSec) * time.Second

	var store sessions.Store
	if cfg.RedisURL != "" {
		redisStore, err := sessions.OpenRedis(context.Background(), cfg.RedisURL, ttl)
		if err != nil {
			log.Error("failed to connect to redis: %v", err)
			os.Exit(1)
		}
		defer redisStore.Close()
		store = redisStore
		readyChecks["redis"] = redisStore.Ping
	} else {
		log.Warn("REDIS_URL not set, games are kept in memory")
		store = sessions.NewMemoryStore(ttl)
	}

	// Without Stockfish every engine reply is a random legal move.
	var smart engine.BestMover
	pool, err := engine.NewEnginePool(cfg.StockfishPath, cfg.EnginePoolSize)
	if err != nil {
		log.Warn("stockfish unavailable, engine will play random moves: %v", err)
	} else {
		defer pool.Close()
		smart = pool
	}
	selector := engine.NewSelector(smart, cfg.StockfishDepth, cfg.SmartMoveProbability)

	archiveRepo := sqlite.NewArchiveRepository(database.DB)
	archivePool := worker.NewPool(cfg.ArchiveWorkerCount, cfg.ArchiveQueueSize)
	archivePool.Start(context.Background())

	gameService := services.NewGameService(
		store,
		selector,
		archiveRepo,
		jobs.NewWorkerQueue(archivePool, archiveRepo),
	)

	srv := &api.Server{
		GameService:    gameService,
		ReadyChecks:    readyChecks,
		RequestTimeout: 30 * time.Second,
		CookieMaxAge:   ttl,
		SecureCookies:  cfg.SecureCookies,
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Debug("draining archive pool")
	archivePool.Stop()

	log.Info("===========================================")
	log.Info("Silly Chess Server Stopped")
	log.Info("===========================================")
}
