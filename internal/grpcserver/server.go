// Package grpcserver serves the standard gRPC health service for the digest.
//
// The overall service is reported as ServiceName. Each search profile has
// its own service name whose status follows the outcome of its latest run,
// so load balancers and probes can tell a stuck profile from a dead process.
package grpcserver

import (
	"context"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"jobmate/digest-service/internal/config"
	"jobmate/digest-service/internal/model"
)

// ServiceName is the health service name of the process as a whole.
const ServiceName = "digest-service"

// ProfileService is the health service name of one profile.
func ProfileService(profileID string) string {
	return "digest." + profileID
}

// Runner executes one digest cycle for a profile.
type Runner interface {
	Run(ctx context.Context, p config.Profile) (model.Digest, error)
}

// Server wraps a grpc.Server with the health service registered.
type Server struct {
	srv    *grpc.Server
	health *health.Server
	log    *slog.Logger
}

// NewServer registers the health service. Profiles start as UNKNOWN until
// their first run finishes.
func NewServer(profiles []config.Profile, log *slog.Logger) *Server {
	s := &Server{
		srv:    grpc.NewServer(),
		health: health.NewServer(),
		log:    log.With("component", "grpc"),
	}
	healthpb.RegisterHealthServer(s.srv, s.health)

	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	for _, p := range profiles {
		s.health.SetServingStatus(ProfileService(p.ID), healthpb.HealthCheckResponse_UNKNOWN)
	}
	return s
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("gRPC health service listening", "addr", lis.Addr().String())
	return s.srv.Serve(lis)
}

// Stop marks every service NOT_SERVING and drains open RPCs.
func (s *Server) Stop() {
	s.health.Shutdown()
	s.srv.GracefulStop()
}

// Track wraps r so every run updates its profile's health status.
func (s *Server) Track(r Runner) Runner {
	return trackedRunner{next: r, health: s.health}
}

type trackedRunner struct {
	next   Runner
	health *health.Server
}

func (t trackedRunner) Run(ctx context.Context, p config.Profile) (model.Digest, error) {
	d, err := t.next.Run(ctx, p)
	status := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	t.health.SetServingStatus(ProfileService(p.ID), status)
	return d, err
}
