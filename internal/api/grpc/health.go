// Package grpc exposes the standard gRPC health service for probes. Each live
// view reports SERVING once it has loaded and while none of its streams failed.
package grpc

import (
	"errors"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"ecodefill-backend/internal/logger"
	"ecodefill-backend/internal/roster"
	"ecodefill-backend/internal/telemetry"
)

const (
	ServiceRoster    = "ecodefill.v1.Roster"
	ServiceTelemetry = "ecodefill.v1.Telemetry"
)

type RosterWatcher interface {
	Watch(fn func(roster.State)) (cancel func())
}

type TelemetryWatcher interface {
	Watch(fn func(telemetry.State)) (cancel func())
}

type Server struct {
	grpc   *grpc.Server
	health *health.Server

	mu      sync.Mutex
	serving map[string]bool
	cancels []func()
}

func NewServer() *Server {
	s := &Server{
		grpc:    grpc.NewServer(),
		health:  health.NewServer(),
		serving: make(map[string]bool),
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	reflection.Register(s.grpc)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Health is the underlying health service, exposed for in-process checks.
func (s *Server) Health() healthpb.HealthServer {
	return s.health
}

func (s *Server) TrackRoster(r RosterWatcher) {
	s.track(ServiceRoster)
	cancel := r.Watch(func(st roster.State) {
		s.set(ServiceRoster, !st.Loading && !st.Degraded)
	})
	s.mu.Lock()
	s.cancels = append(s.cancels, cancel)
	s.mu.Unlock()
}

func (s *Server) TrackTelemetry(t TelemetryWatcher) {
	s.track(ServiceTelemetry)
	cancel := t.Watch(func(st telemetry.State) {
		s.set(ServiceTelemetry, !st.Loading && !st.Degraded)
	})
	s.mu.Lock()
	s.cancels = append(s.cancels, cancel)
	s.mu.Unlock()
}

func (s *Server) track(service string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.serving[service]; !ok {
		s.serving[service] = false
		s.health.SetServingStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)
		s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	}
}

// set records one view's health; the overall status is SERVING only when
// every tracked view is.
func (s *Server) set(service string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, known := s.serving[service]; known && prev == ok {
		return
	}
	s.serving[service] = ok
	s.health.SetServingStatus(service, servingStatus(ok))

	overall := true
	for _, v := range s.serving {
		overall = overall && v
	}
	s.health.SetServingStatus("", servingStatus(overall))
	logger.Info("Health changed", "service", service, "serving", ok, "overall", overall)
}

func servingStatus(ok bool) healthpb.HealthCheckResponse_ServingStatus {
	if ok {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}

// Serve blocks until Stop is called. A stopped server is not an error.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (s *Server) Stop() {
	s.mu.Lock()
	cancels := s.cancels
	s.cancels = nil
	s.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
