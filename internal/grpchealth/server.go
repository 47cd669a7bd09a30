// Package grpchealth publishes per-domain fetch health over the standard
// gRPC health checking protocol.
package grpchealth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/tinytelemetry/hllstatus/internal/model"
)

// ServicePrefix namespaces the per-domain health services.
const ServicePrefix = "hllstatus."

// ServiceName returns the health service name for d, e.g. "hllstatus.identity".
func ServiceName(d model.Domain) string {
	return ServicePrefix + d.String()
}

// Server serves grpc.health.v1. It is a poller.Observer: each completed
// fetch flips its domain between SERVING and NOT_SERVING, and the overall
// ("") service is SERVING only while every domain is.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	logger     *slog.Logger

	mu      sync.Mutex
	serving map[model.Domain]bool
}

// New listens on addr and registers the health service. Nothing is served
// until Serve is called.
func New(addr string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("grpchealth: listen on %s: %w", addr, err)
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	s := &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		logger:     logger.With("component", "grpchealth"),
		serving:    make(map[model.Domain]bool, len(model.Domains)),
	}
	for _, d := range model.Domains {
		healthServer.SetServingStatus(ServiceName(d), grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	}
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return s, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// ObserveFetch records the outcome of one fetch. It never blocks.
func (s *Server) ObserveFetch(domain model.Domain, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok := err == nil
	if prev, seen := s.serving[domain]; seen && prev == ok {
		return
	}
	s.serving[domain] = ok
	s.health.SetServingStatus(ServiceName(domain), servingStatus(ok))

	all := true
	for _, d := range model.Domains {
		if !s.serving[d] {
			all = false
			break
		}
	}
	s.health.SetServingStatus("", servingStatus(all))
}

func servingStatus(ok bool) grpc_health_v1.HealthCheckResponse_ServingStatus {
	if ok {
		return grpc_health_v1.HealthCheckResponse_SERVING
	}
	return grpc_health_v1.HealthCheckResponse_NOT_SERVING
}

// Serve runs the gRPC server until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("grpchealth: server is nil")
	}
	defer s.Close()

	s.logger.Info("listening", "addr", s.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("grpchealth: serve: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("grpchealth: serve: %w", err)
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	s.health.Shutdown()
	s.grpcServer.Stop()
	_ = s.listener.Close()
}
