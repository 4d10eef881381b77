package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-cms/internal/audit"
	"portfolio-cms/internal/auth"
	"portfolio-cms/internal/blob"
	"portfolio-cms/internal/config"
	"portfolio-cms/internal/content"
	"portfolio-cms/internal/directory"
	"portfolio-cms/internal/httpapi"
	"portfolio-cms/internal/schema"
	"portfolio-cms/pkg/logger"
	"portfolio-cms/pkg/metrics"
	"portfolio-cms/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	defer logger.Sync(log)
	zap.ReplaceGlobals(log)

	if err := run(rootCtx, stop, cfg, log); err != nil {
		log.Error("api stopped", zap.Error(err))
		logger.Sync(log)
		os.Exit(1)
	}
}

func run(ctx context.Context, stop context.CancelFunc, cfg *config.Config, log *zap.Logger) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		return fmt.Errorf("auth init: %w", err)
	}

	db, err := utils.OpenPostgres(ctx, utils.PostgresDriver, cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		return fmt.Errorf("postgres init: %w", err)
	}
	defer db.Close()

	if !cfg.IsProduction() {
		if err := schema.Apply(ctx, db); err != nil {
			return fmt.Errorf("schema apply: %w", err)
		}
		log.Info("schema applied")
	}

	rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr(), Password: cfg.Redis.Password})
	if err != nil {
		return fmt.Errorf("redis init: %w", err)
	}
	defer rdb.Close()

	var store content.Store
	switch cfg.Content.Backend {
	case config.BackendMongo:
		ms, err := content.OpenMongo(ctx, cfg.Mongo.URI, cfg.Content.DatabaseID)
		if err != nil {
			return fmt.Errorf("mongo init: %w", err)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ms.Close(closeCtx)
		}()
		store = ms
	default:
		store = content.NewPostgresStore(db, cfg.Content.DatabaseID)
	}

	files, err := blob.NewMinioStore(ctx, blob.MinioConfig{
		Endpoint:      cfg.Storage.Endpoint,
		AccessKey:     cfg.Storage.AccessKey,
		SecretKey:     cfg.Storage.SecretKey,
		Bucket:        cfg.Storage.BucketID,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
	})
	if err != nil {
		return fmt.Errorf("storage init: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	dir := directory.NewPostgresDirectory(db, directory.BcryptHasher{})
	h := &httpapi.Handlers{
		Auth:      authManager,
		Gate:      auth.NewGate(dir),
		Directory: dir,
		Content: content.NewService(store,
			content.WithCache(content.NewRedisCache(rdb, cfg.Content.PublicCacheTTL)),
			content.WithScope(cfg.Content.DatabaseID),
			content.WithLogger(log),
		),
		Files:   blob.NewService(files, cfg.Storage.BucketID),
		Audit:   audit.NewService(audit.NewPostgresRepo(db), cfg.Content.DatabaseID),
		Metrics: m,
	}
	if cfg.Content.ContactRateLimit > 0 {
		h.Limiter = httpapi.NewRedisRateLimiter(rdb, "cms:"+cfg.Content.DatabaseID, cfg.Content.ContactRateLimit, cfg.Content.ContactRateWindow)
	}

	r, err := httpapi.NewEngine(cfg.App.TrustedProxies)
	if err != nil {
		return err
	}
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(m.Middleware())
	registerRoutes(r, h, m, db)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Env),
			zap.String("backend", cfg.Content.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
