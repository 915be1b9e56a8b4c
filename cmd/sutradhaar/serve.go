package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/sutradhaar/internal/app"
	"github.com/dukerupert/sutradhaar/internal/server"
)

const sweepInterval = time.Minute

type ServeCmd struct {
	Port string `help:"Override SUTRADHAAR_PORT."`
}

func (c *ServeCmd) Run(ctx *Context) error {
	cfg := ctx.Config
	if c.Port != "" {
		cfg.Port = c.Port
	}
	logger := ctx.Logger
	if !cfg.AuthEnabled() {
		logger.Warn("SUTRADHAAR_JWT_SECRET not set, only guests can sign in")
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.New(a).Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweep(runCtx, a)

	errc := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", "http://localhost:"+cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return err
		}
	case <-runCtx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	return nil
}

// sweep runs the periodic cleanups until ctx is done.
func sweep(ctx context.Context, a *app.App) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.Sessions.Sweep(a.Config.SessionTTL); n > 0 {
				a.Logger.Info("swept editing sessions", "count", n)
			}
			if n := a.Calculators.Sweep(a.Config.SessionTTL); n > 0 {
				a.Logger.Debug("swept idle calculators", "count", n)
			}
			if n := a.RateLimiter.Cleanup(); n > 0 {
				a.Logger.Debug("cleaned rate limit entries", "count", n)
			}
		}
	}
}
