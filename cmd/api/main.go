package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/medical-portal/internal/api/http"
	"github.com/spec-kit/medical-portal/internal/api/http/handlers"
	"github.com/spec-kit/medical-portal/internal/auth"
	"github.com/spec-kit/medical-portal/internal/config"
	"github.com/spec-kit/medical-portal/internal/events"
	"github.com/spec-kit/medical-portal/internal/observability"
	"github.com/spec-kit/medical-portal/internal/persistence"
	"github.com/spec-kit/medical-portal/internal/repository"
	"github.com/spec-kit/medical-portal/internal/service"
	"github.com/spec-kit/medical-portal/internal/worker"
	"github.com/spec-kit/medical-portal/pkg/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	sentryEnabled := cfg.Sentry.DSN != ""
	if sentryEnabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.App.Env,
			Release:     cfg.App.Version,
		}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
			sentryEnabled = false
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, err := persistence.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer kv.Close() //nolint:errcheck

	store := repository.NewStore(kv)
	dispatcher := events.NewInMemoryDispatcher()
	stopWorker := worker.StartNotificationWorker(dispatcher, cfg.Notification, logger)
	defer stopWorker()

	deps := service.Dependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Validator:  validator.NewValidator(),
		Logger:     logger,
	}
	userService := service.NewUserService(deps)
	requestService := service.NewRequestService(deps)
	fileService := service.NewFileService(deps)

	var revocations auth.RevocationList
	if cfg.Storage.Driver == config.StorageRedis {
		rdb := persistence.NewRedis(cfg.Redis, logger)
		defer rdb.Close()
		revocations = auth.NewRedisRevocationList(rdb.Client, cfg.Redis.KeyPrefix)
	}
	authService, err := service.NewAuthService(cfg.Auth, revocations, logger)
	if err != nil {
		logger.Fatal("failed to init auth", zap.Error(err))
	}
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userService, authService.Revocations(), cfg.Auth.CookieName)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.App.BodyLimitBytes,
	})
	metrics := observability.NewMetrics(cfg.App.Name)
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:      logger,
		Metrics:     metrics,
		Timeout:     cfg.App.RequestTimeout(),
		CORSOrigins: cfg.App.CORSOrigins,
		Sentry:      sentryEnabled,
	})

	cookie := handlers.SessionCookie{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure}
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, store),
		Users:          handlers.NewUsersHandler(userService, authService, cookie),
		Requests:       handlers.NewRequestsHandler(requestService, fileService),
		AdminUsers:     handlers.NewAdminUsersHandler(authService, userService, requestService, cookie),
		AdminRequests:  handlers.NewAdminRequestsHandler(requestService, fileService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
