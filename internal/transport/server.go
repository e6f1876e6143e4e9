// Package transport exposes the engine's gRPC surface: the standard health
// service, whose serving status follows backend connectivity.
package transport

import (
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"wordsmith/internal/logging"
	"wordsmith/internal/monitor"
)

// Service is the health service name callers can ask about besides "".
const Service = "wordsmith.Engine"

type Server struct {
	grpc   *grpc.Server
	lis    net.Listener
	health *health.Server
}

// StartServer listens on port (0 picks a free one); Serve starts accepting.
func StartServer(port int) (*Server, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	s := &Server{
		grpc:   grpc.NewServer(),
		lis:    lis,
		health: health.NewServer(),
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.SetBackend(monitor.Checking)
	return s, nil
}

// Addr is a dialable localhost address for the listener.
func (s *Server) Addr() string {
	return fmt.Sprintf("localhost:%d", s.lis.Addr().(*net.TCPAddr).Port)
}

// SetBackend maps a connectivity status onto the health service. Only a
// connected backend is SERVING.
func (s *Server) SetBackend(st monitor.Status) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if st == monitor.Connected {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(Service, status)
	logging.L().Debug("grpc health updated", "backend", st.String(), "status", status.String())
}

// Serve blocks until Stop. A Stop that wins the race with Serve is not an
// error.
func (s *Server) Serve() error {
	if err := s.grpc.Serve(s.lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
