package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// startHTTPServer starts the HTTP server and blocks until shutdown.
// It handles graceful shutdown on SIGINT and SIGTERM, draining in-flight
// requests before releasing application resources.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	serverAddr := fmt.Sprintf(":%d", app.config.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", "addr", serverAddr)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			app.logger.Error("graceful shutdown failed, forcing close", "error", err)
			if closeErr := server.Close(); closeErr != nil {
				return fmt.Errorf("could not stop server: %w", closeErr)
			}
		}

		app.cleanup()
		app.logger.Info("server stopped")
	}

	return nil
}
