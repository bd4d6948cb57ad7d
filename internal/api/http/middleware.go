package http

import (
	"context"
	"runtime/debug"
	"time"

	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/spec-kit/medical-portal/internal/observability"
	apperrors "github.com/spec-kit/medical-portal/pkg/util/errorutil"
)

// MiddlewareConfig bundles the global middleware settings.
type MiddlewareConfig struct {
	Logger      *zap.Logger
	Metrics     *observability.Metrics
	Timeout     time.Duration
	CORSOrigins string
	// Sentry enables the Sentry hub middleware. sentry.Init must have run.
	Sentry bool
}

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, cfg MiddlewareConfig) {
	app.Use(requestid.New())
	if cfg.Sentry {
		app.Use(sentryfiber.New(sentryfiber.Options{Repanic: true}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: cfg.CORSOrigins != "" && cfg.CORSOrigins != "*",
	}))
	app.Use(observability.RequestLogger(cfg.Logger, cfg.Metrics))
	app.Use(errorHandlingMiddleware(cfg.Logger, cfg.Metrics))
	if cfg.Timeout > 0 {
		app.Use(requestTimeoutMiddleware(cfg.Timeout))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				err = renderError(c, err, logger, metrics)
			}
		}()
		return c.Next()
	}
}

func renderError(c *fiber.Ctx, err error, logger *zap.Logger, metrics *observability.Metrics) error {
	var domainErr *apperrors.DomainError
	if fiberErr, ok := err.(*fiber.Error); ok {
		// routing errors such as 404 and 405 raised by fiber itself
		domainErr = apperrors.NewDomainError("HTTP_ERROR", fiberErr.Message, fiberErr.Code, nil)
	} else {
		domainErr = apperrors.ToDomainError(err)
	}

	metrics.RecordError(routeOf(c), c.Method(), domainErr.Code)

	body := fiber.Map{
		"code":    domainErr.Code,
		"message": domainErr.Message,
	}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}
	if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.Path()), zap.Error(domainErr))
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(domainErr)
		}
	}
	return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": body})
}

func routeOf(c *fiber.Ctx) string {
	if route := c.Route(); route != nil && route.Path != "" {
		return route.Path
	}
	return c.Path()
}
