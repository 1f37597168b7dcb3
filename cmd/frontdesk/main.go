package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/clinic-queue/internal/config"
	"github.com/hackgods/clinic-queue/internal/frontdesk"
	"github.com/hackgods/clinic-queue/internal/logging"
	"github.com/hackgods/clinic-queue/internal/queue"
	redisclient "github.com/hackgods/clinic-queue/internal/redis"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Init("frontdesk", "dev")
		log.Fatal().Err(err).Msg("config load error")
	}

	logging.Init("frontdesk", cfg.Env)
	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.FrontdeskPort).
		Str("api_base_url", cfg.APIBaseURL).
		Dur("fetch_interval", cfg.FetchInterval).
		Msg("frontdesk starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		rdb    *redis.Client
		store  queue.MetaStore
		locker redisclient.Locker
	)
	if cfg.RedisAddr != "" {
		rdb, err = redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection error")
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error().Err(err).Msg("error closing redis")
			}
		}()
		store = queue.NewRedisMetaStore(rdb, cfg.QueueNamespace)
		locker = redisclient.NewRedisLocker(rdb, cfg.LockTTL)
		log.Info().Msg("connected to Redis, queue metadata is durable")
	} else {
		store = queue.NewMemoryMetaStore()
		locker = redisclient.NewNopLocker()
		log.Warn().Msg("no Redis configured, queue positions reset on restart")
	}

	loc := time.Local
	if cfg.Timezone != "" {
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatal().Err(err).Str("timezone", cfg.Timezone).Msg("invalid timezone")
		}
	}

	remote := queue.NewHTTPRemote(cfg.APIBaseURL)
	manager := queue.NewManager(store, remote, locker, loc)

	// Initial fetch; the backend may still be coming up, the ticker retries.
	if err := manager.Reconcile(rootCtx); err != nil {
		log.Warn().Err(err).Msg("initial reconcile failed")
	}

	go refreshLoop(rootCtx, manager, cfg.FetchInterval)

	router := frontdesk.NewRouter(frontdesk.RouterConfig{
		Manager: manager,
		Remote:  remote,
		Redis:   rdb,
		Env:     cfg.Env,
		Version: version,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.FrontdeskPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutting down frontdesk")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func refreshLoop(ctx context.Context, manager *queue.Manager, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
			start := time.Now()
			if err := manager.Reconcile(runCtx); err != nil {
				log.Warn().Err(err).Msg("reconcile error")
			} else {
				log.Debug().Dur("took", time.Since(start)).Msg("reconcile complete")
			}
			cancel()
		}
	}
}
