// Package grpcsvc serves the standard grpc health protocol so orchestrators
// can probe the service without speaking HTTP.
package grpcsvc

import (
	"context"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"appointment-booking-api/internal/logging"
	"appointment-booking-api/internal/middleware"
)

// ServiceName is reported alongside the overall ("") status.
const ServiceName = "appointments"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	grpc   *grpc.Server
	health *health.Server
	db     Pinger
	logger *logging.Logger

	// 0 until the first probe, then 1 serving or 2 not serving
	last atomic.Int32
}

// New registers the health service on a fresh grpc server. rl may be nil.
func New(db Pinger, rl *middleware.RateLimiter, logger *logging.Logger) *Server {
	var opts []grpc.ServerOption
	if rl != nil {
		opts = append(opts, grpc.ChainUnaryInterceptor(middleware.RateLimit(rl)))
	}
	s := &Server{
		grpc:   grpc.NewServer(opts...),
		health: health.NewServer(),
		db:     db,
		logger: logger.With("component", "grpc"),
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// GRPC exposes the underlying server for Serve.
func (s *Server) GRPC() *grpc.Server { return s.grpc }

// Probe pings the store once and publishes the result.
func (s *Server) Probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	ok := s.db.Ping(ctx) == nil
	next := int32(2)
	if ok {
		next = 1
	}
	if s.last.Swap(next) != next {
		s.logger.Info("health changed", "serving", ok)
	}

	if ok {
		s.set(healthpb.HealthCheckResponse_SERVING)
	} else {
		s.set(healthpb.HealthCheckResponse_NOT_SERVING)
	}
}

// Watch probes every interval until ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	s.Probe(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Probe(ctx)
		}
	}
}

// Stop flips every service to NOT_SERVING and drains in-flight calls.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

func (s *Server) set(st healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}
