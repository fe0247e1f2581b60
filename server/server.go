package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Stevem319/Stevechatravel/metrics"
	"github.com/Stevem319/Stevechatravel/utils"
)

// Config controls the HTTP listener
type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// New builds the echo instance with all routes registered. m may be nil.
func New(h *FlightHandler, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	e.GET("/health", HealthHandler)
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}

	api := e.Group("/api/v1")
	api.GET("/flights", h.Flights)
	api.GET("/flights/options", h.Options)
	api.GET("/flights/export.csv", h.ExportCSV)
	api.GET("/routes", h.Routes)
	api.GET("/points", h.Points)
	api.GET("/runs", h.Runs)

	return e
}

// Run serves e until ctx is cancelled, then shuts down gracefully
func Run(ctx context.Context, e *echo.Echo, cfg Config, logger *utils.Logger) error {
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting dashboard API on port %s", cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("Shutting down dashboard API")
	return e.Shutdown(shutdownCtx)
}
