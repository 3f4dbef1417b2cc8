package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"ecodefill-backend/internal/roster"
	"ecodefill-backend/internal/telemetry"
)

type fakeRoster struct {
	fn        func(roster.State)
	cancelled bool
}

func (f *fakeRoster) Watch(fn func(roster.State)) func() {
	f.fn = fn
	fn(roster.State{Loading: true})
	return func() { f.cancelled = true }
}

type fakeTelemetry struct {
	fn func(telemetry.State)
}

func (f *fakeTelemetry) Watch(fn func(telemetry.State)) func() {
	f.fn = fn
	fn(telemetry.State{Loading: true})
	return func() {}
}

func check(t *testing.T, s *Server, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := s.Health().Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHealthMirrorsViews(t *testing.T) {
	s := NewServer()
	r := &fakeRoster{}
	m := &fakeTelemetry{}
	s.TrackRoster(r)
	s.TrackTelemetry(m)

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, s, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, s, ServiceRoster))

	r.fn(roster.State{Version: 1})
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, s, ServiceRoster))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, s, ""))

	m.fn(telemetry.State{Version: 1})
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, s, ""))

	r.fn(roster.State{Version: 2, Degraded: true})
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, s, ServiceRoster))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, s, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, s, ServiceTelemetry))

	s.Stop()
	assert.True(t, r.cancelled)
}

func TestServe_OverTCP(t *testing.T) {
	s := NewServer()
	r := &fakeRoster{}
	s.TrackRoster(r)
	r.fn(roster.State{Version: 1})

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	served := make(chan error, 1)
	go func() { served <- s.Serve(lis) }()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceRoster})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	s.Stop()
	assert.NoError(t, <-served)
}
