package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/complaint-service/internal/api/http"
	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/scan"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/storage"
	"github.com/spec-kit/complaint-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	if pg.PoolHandle() == nil {
		logger.Fatal("POSTGRES_DSN is required")
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics(nil)

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	complaintRepo := repository.NewComplaintRepository(pool)
	reportRepo := repository.NewScanReportRepository(pool)

	store, err := storage.NewVettedStore(cfg.Storage.VettedDir)
	if err != nil {
		logger.Fatal("failed to prepare vetted storage", zap.Error(err))
	}

	scanner := newScanner(cfg, redis, logger)

	dispatcher := events.NewInMemoryDispatcher(logger)
	notifications := service.NewNotificationService(logger, cfg.Notification)
	notifyWorker := worker.StartNotificationWorker(ctx, dispatcher, notifications, logger, 2)

	authService := service.NewAuthService(cfg.Auth, userRepo)
	scanService := service.NewScanService(scanner, reportRepo, metrics, logger)
	complaintService := service.NewComplaintService(service.ComplaintDependencies{
		Complaints:        complaintRepo,
		Users:             userRepo,
		Scans:             scanService,
		Store:             store,
		Dispatcher:        dispatcher,
		AllowedExtensions: cfg.Storage.AllowedExtensions,
		Logger:            logger,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.Storage.MaxUploadBytes(),
		Immutable:    true,
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	var redisPinger handlers.Pinger
	if redis.Enabled() {
		redisPinger = redis
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisPinger),
		Users:          handlers.NewUsersHandler(authService),
		Complaints:     handlers.NewComplaintsHandler(complaintService),
		Scans:          handlers.NewScansHandler(scanService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	notifyWorker.Stop()
}

// newScanner returns a scanner with no reputation backend when scanning is
// switched off or no API key is set; attachments are then refused.
func newScanner(cfg *config.Config, redis *persistence.Redis, logger *zap.Logger) *scan.Scanner {
	if !cfg.Scan.Enabled || cfg.Scan.APIKey == "" {
		logger.Warn("attachment scanning disabled; submissions with files will be refused")
		return scan.NewScanner(nil, nil, logger)
	}

	var cache scan.VerdictCache
	if redis.Enabled() {
		cache = scan.NewRedisVerdictCache(redis.Client, cfg.Redis.VerdictCacheTTL, logger)
	}
	return scan.NewScanner(scan.NewClient(cfg.Scan, logger), cache, logger)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
