package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	gommonlog "github.com/labstack/gommon/log"
	"golang.org/x/time/rate"
)

const (
	defaultMaxUploadSize = "16M"
	defaultUploadRate    = 5
)

type ServerOptions struct {
	// MaxUploadSize is an echo BodyLimit size such as "16M".
	MaxUploadSize string
	// UploadRate is uploads per second allowed per client IP.
	UploadRate  float64
	CSVEncoding string
}

// NewServer wires middleware and routes around a session. The caller starts it.
func NewServer(opts ServerOptions, session *Session, logger *slog.Logger) *echo.Echo {
	if opts.MaxUploadSize == "" {
		opts.MaxUploadSize = defaultMaxUploadSize
	}
	if opts.UploadRate <= 0 {
		opts.UploadRate = defaultUploadRate
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}
	e.Logger.SetLevel(echoLevel(logger))

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelError
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			logger.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.CORS())

	h := NewHandler(session, logger, opts.CSVEncoding)
	h.RegisterRoutes(e,
		middleware.BodyLimit(opts.MaxUploadSize),
		middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(opts.UploadRate))),
	)

	return e
}

// echoLevel keeps echo's internal logger in step with the slog level.
func echoLevel(logger *slog.Logger) gommonlog.Lvl {
	ctx := context.Background()
	switch {
	case logger.Enabled(ctx, slog.LevelDebug):
		return gommonlog.DEBUG
	case logger.Enabled(ctx, slog.LevelInfo):
		return gommonlog.INFO
	case logger.Enabled(ctx, slog.LevelWarn):
		return gommonlog.WARN
	default:
		return gommonlog.ERROR
	}
}
