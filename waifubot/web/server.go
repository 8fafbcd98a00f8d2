// Package web serves the bot's operational HTTP endpoints.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ellavondegurechaff/waifubot/waifubot/trade"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const pingTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsSource exposes the live trade registry counters.
type StatsSource interface {
	Stats() trade.RegistryStats
}

type Server struct {
	app     *fiber.App
	db      Pinger
	stats   StatsSource
	version string
	commit  string
}

// New builds the server. db may be nil, in which case /healthz skips the
// database check.
func New(stats StatsSource, db Pinger, version, commit string) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "waifubot",
			DisableStartupMessage: true,
			ErrorHandler:          errorHandler,
		}),
		db:      db,
		stats:   stats,
		version: version,
		commit:  commit,
	}

	s.app.Use(recover.New())
	s.app.Use(requestLogger())

	s.app.Get("/healthz", s.health)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	s.app.Get("/api/trades/stats", s.tradeStats)
	return s
}

func (s *Server) App() *fiber.App {
	return s.app
}

// Run listens on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting ops HTTP server",
			slog.String("type", "web"),
			slog.String("address", addr))
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.app.ShutdownWithContext(shutdownCtx)
	}
}

func (s *Server) health(c *fiber.Ctx) error {
	status := fiber.Map{
		"status":  "healthy",
		"version": s.version,
		"commit":  s.commit,
	}
	if s.db != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), pingTimeout)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			slog.Warn("Health check failed",
				slog.String("type", "web"),
				slog.Any("error", err))
			status["status"] = "unhealthy"
			status["database"] = err.Error()
			return c.Status(http.StatusServiceUnavailable).JSON(status)
		}
		status["database"] = "ok"
	}
	return c.JSON(status)
}

func (s *Server) tradeStats(c *fiber.Ctx) error {
	return c.JSON(s.stats.Stats())
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := http.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		level := slog.LevelDebug
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}
		slog.Log(c.UserContext(), level, "HTTP request",
			slog.String("type", "web"),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)))
		return err
	}
}
