package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	inboxhandler "github.com/prosektorweb/inbox-api/domains/inbox/be/handler"
	inboxrepo "github.com/prosektorweb/inbox-api/domains/inbox/be/repo"
	inboxservice "github.com/prosektorweb/inbox-api/domains/inbox/be/service"
	"github.com/prosektorweb/inbox-api/platform/logging"
	platformmiddleware "github.com/prosektorweb/inbox-api/platform/middleware"
	"github.com/prosektorweb/inbox-api/platform/persistence"
	"github.com/prosektorweb/inbox-api/platform/ratelimit"
	tenantmiddleware "github.com/prosektorweb/inbox-api/platform/tenant/middleware"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL     string        `env:"DATABASE_URL,required"`
	AuthProvider    string        `env:"AUTH_PROVIDER" envDefault:"firebase"` // firebase | dev
	RedisURL        string        `env:"REDIS_URL"`                           // empty falls back to the in-memory limiter
	RateLimitMax    int           `env:"RATE_LIMIT_MAX" envDefault:"60"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	ExportCap       int           `env:"EXPORT_CAP" envDefault:"2000"`
	MembershipTTL   time.Duration `env:"MEMBERSHIP_CACHE_TTL" envDefault:"1m"`
}

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewLogger(logging.Config{
		Component: "inbox-api",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	store, err := persistence.NewInboxStore(pool)
	if err != nil {
		logger.Fatal("init inbox store", zap.Error(err))
	}

	limiter, closeLimiter := buildLimiter(ctx, cfg, logger)
	defer closeLimiter()

	inboxRepo := inboxrepo.NewPostgres(store)
	inboxService, err := inboxservice.New(inboxRepo, limiter, inboxservice.Config{
		ExportCap: cfg.ExportCap,
	})
	if err != nil {
		logger.Fatal("init inbox service", zap.Error(err))
	}
	inboxHTTPHandler := inboxhandler.New(inboxService, logger)

	authMiddleware := buildAuthMiddleware(ctx, cfg, logger)

	rootRouter := chi.NewRouter()

	rootRouter.Use(
		platformmiddleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(cfg.RequestTimeout),
		platformmiddleware.DefaultCORS(),
	)

	rootRouter.Use(logging.RequestLogger(logger))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	apiRouter := chi.NewRouter()
	apiRouter.Use(authMiddleware)
	apiRouter.Use(platformmiddleware.RequestTrace)
	apiRouter.Use(tenantmiddleware.WithMembership(store, tenantmiddleware.Config{
		CacheTTL: cfg.MembershipTTL,
	}))

	apiRouter.Mount("/inbox", inboxHTTPHandler.Routes())

	apiRouter.Group(func(r chi.Router) {
		r.Use(tenantmiddleware.RequireAdmin)
		r.Get("/admin/inbox/summary", inboxHTTPHandler.Summary)
	})

	rootRouter.Mount("/api/v1", apiRouter)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting inbox api server", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// buildLimiter wires the rate-limit backend: Redis when configured so counters
// are shared across instances, in-memory otherwise.
func buildLimiter(ctx context.Context, cfg config, logger *zap.Logger) (ratelimit.Limiter, func()) {
	limitCfg := ratelimit.Config{Limit: cfg.RateLimitMax, Window: cfg.RateLimitWindow}

	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set; using in-memory rate limiter (single instance only)")
		return ratelimit.NewMemory(limitCfg), func() {}
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("parse redis url", zap.Error(err))
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal("ping redis", zap.Error(err))
	}

	return ratelimit.NewRedis(client, limitCfg), func() {
		_ = client.Close()
	}
}
