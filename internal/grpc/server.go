// Package grpc exposes the standard gRPC health and reflection services for
// the memo daemon.
package grpc

import (
	"fmt"
	"net"
	"time"

	"github.com/oriys/memo/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported for the lookup service.
const ServiceName = "memo.Lookup"

// Server wraps a grpc.Server with health reporting.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server

	// stopTimeout bounds GracefulStop before open streams are cut.
	stopTimeout time.Duration
}

// NewServer creates a gRPC server with health and reflection registered.
// Both the overall status and ServiceName start as SERVING.
func NewServer() *Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			loggingInterceptor,
			errorHandlingInterceptor,
		),
	)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	// Enable reflection for debugging
	reflection.Register(grpcServer)

	s := &Server{
		grpcServer:  grpcServer,
		health:      healthServer,
		stopTimeout: 5 * time.Second,
	}
	s.SetServing(true)
	return s
}

// SetServing reports the daemon as SERVING or NOT_SERVING.
func (s *Server) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Serve blocks serving on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	logging.Op().Info("gRPC server started", "address", lis.Addr().String())
	if err := s.grpcServer.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Listen opens a TCP listener on address.
func Listen(address string) (net.Listener, error) {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	return lis, nil
}

// Stop marks the server NOT_SERVING and drains in-flight calls. Streams
// still open after stopTimeout, such as health watches, are closed.
func (s *Server) Stop() {
	if s.grpcServer == nil {
		return
	}
	logging.Op().Info("stopping gRPC server")
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	timer := time.NewTimer(s.stopTimeout)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
		logging.Op().Warn("gRPC graceful stop timed out, closing open streams", "timeout", s.stopTimeout)
		s.grpcServer.Stop()
		<-done
	}
}
