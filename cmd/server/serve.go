package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"appointment-booking-api/internal/auth"
	"appointment-booking-api/internal/booking"
	"appointment-booking-api/internal/grpcsvc"
	"appointment-booking-api/internal/handler"
	"appointment-booking-api/internal/logging"
	"appointment-booking-api/internal/middleware"
	"appointment-booking-api/internal/notify"
	"appointment-booking-api/internal/relay"
)

const (
	shutdownTimeout     = 10 * time.Second
	healthProbeInterval = 15 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the HTTP API and websocket endpoint, plus the grpc health
service when server.grpc_addr is set. Schema migrations run first.

The server runs until interrupted (Ctrl+C) or it receives SIGTERM.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Logging, version)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, release, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer release()
	if err := repo.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("store ready", "driver", cfg.Database.Driver)

	keys, err := auth.NewKeyVerifier(cfg.Security.APIKey, cfg.Security.APIKeyHash)
	if err != nil {
		return fmt.Errorf("api key: %w", err)
	}

	relays, err := relay.Open(cfg.Relays, logger)
	if err != nil {
		return err
	}
	defer relay.CloseAll(relays, logger)

	hub := notify.NewHub(cfg.Notify.SendTimeout, logger, relay.Sinks(relays)...)

	var limiter *middleware.RateLimiter
	if cfg.Security.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.Security.RateLimit.RPS, cfg.Security.RateLimit.Burst)
		defer limiter.Close()
	}

	svc := booking.New(repo)
	h := handler.New(svc, hub, keys, logger, handler.Options{
		WebSocket:  cfg.WebSocket,
		SendBuffer: cfg.Notify.BufferSize,
		Limiter:    limiter,
	})

	httpSrv := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      h.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	errCh := make(chan error, 2)
	go func() {
		logger.Info("http listening", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	var health *grpcsvc.Server
	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		health = grpcsvc.New(svc, limiter, logger)
		go health.Watch(ctx, healthProbeInterval)
		go func() {
			logger.Info("grpc health listening", "addr", cfg.Server.GRPCAddr)
			if err := health.GRPC().Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errCh:
		logger.Error("server failed", "error", err)
	}

	if health != nil {
		health.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	drain(shutdownCtx, httpSrv, hub, logger)
	return err
}

// drain stops the HTTP server and disconnects every subscriber. Hijacked
// websocket connections are not tracked by Shutdown, so the hub is emptied
// before it, and again after it for upgrades that were still in flight.
func drain(ctx context.Context, srv *http.Server, hub *notify.Hub, logger *logging.Logger) {
	srv.SetKeepAlivesEnabled(false)
	hub.Shutdown()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	hub.Shutdown()
}
