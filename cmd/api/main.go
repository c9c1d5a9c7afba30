package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"invite_portal_backend/internal/config"
	"invite_portal_backend/internal/email"
	"invite_portal_backend/internal/events"
	apphttp "invite_portal_backend/internal/http"
	"invite_portal_backend/internal/http/router"
	"invite_portal_backend/internal/invites"
	"invite_portal_backend/internal/invites/progress"
	"invite_portal_backend/internal/invites/service"
	"invite_portal_backend/internal/scheduler"
	"invite_portal_backend/internal/storage"
	"invite_portal_backend/migrations"
	"invite_portal_backend/platform/db"
	"invite_portal_backend/platform/logger"
	"invite_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Redis backs progress snapshots and the per-tenant dispatch lock;
	// without it both fall back to in-process state.
	var (
		progressStore progress.Store = progress.NewMemoryStore()
		locker        service.Locker
	)
	redisClient, err := newRedisClient(cfg)
	if err != nil {
		log.Error("failed to initialize redis client", "error", err)
		panic("failed to initialize redis client: " + err.Error())
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		progressStore = progress.NewRedisStore(redisClient)
		locker = service.NewRedisLocker(redisClient)
		log.Info("redis connected", "usage", "progress snapshots, dispatch locks")
	} else {
		log.Warn("REDIS_URL not configured; using in-memory progress store")
	}

	emailQueue, closeQueue := initEmailQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// Upload archive storage (MinIO)
	var archiver storage.Archiver = storage.NoopArchiver{}
	if cfg.IsMinIOEnabled() {
		var minioArchiver *storage.MinIOArchiver
		if err := withRetry(ctx, log, "storage archiver", 5, 2*time.Second, func() error {
			a, err := storage.NewMinIOArchiver(ctx, cfg)
			if err != nil {
				return err
			}
			minioArchiver = a
			return nil
		}); err != nil {
			log.Error("failed to initialize storage archiver", "error", err)
			panic("failed to initialize storage archiver: " + err.Error())
		}
		archiver = minioArchiver
		log.Info("storage archiver initialized", "bucket", cfg.GetMinioBucketUploadArchive())
	} else {
		log.Warn("MinIO not configured; upload archiving disabled")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	invitesModule := invites.NewModule(invites.Deps{
		Pool:          pool,
		EventBus:      eventBus,
		EmailQueue:    emailQueue,
		Sender:        sender,
		Archiver:      archiver,
		ProgressStore: progressStore,
		Locker:        locker,
		Validator:     val,
		AppBaseURL:    cfg.GetAppBaseURL(),
		UploadMax:     cfg.GetUploadMaxBytes(),
		Logger:        log,
	})
	invitesModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			invitesModule,
		},
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initEmailQueue(cfg *config.Config, log *logger.Logger) (scheduler.EmailQueue, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; invitation emails will not be sent")
		return nil, nil
	}

	queueClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize email queue client", "error", err)
		return nil, nil
	}

	return queueClient, func() {
		_ = queueClient.Close()
	}
}

func newRedisClient(cfg *config.Config) (redis.UniversalClient, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	if cfg.RedisTLSInsecure && opt.TLSConfig != nil {
		opt.TLSConfig.InsecureSkipVerify = true
	}

	return redis.NewClient(opt), nil
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
