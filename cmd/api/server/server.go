package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"

	"user-calc-service/internal/adapter/grpc/middleware"
	"user-calc-service/internal/config"
	"user-calc-service/internal/usecase/arithmetic"
)

// Deps are the application components the servers expose.
type Deps struct {
	Router       http.Handler
	ArithmeticUC arithmetic.Usecase
	RateLimiter  *middleware.RateLimiter
}

// Server struct holds all server dependencies
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	Gin    *http.Server
	GRPC   *grpc.Server   // nil unless GRPC_ENABLED
	Health *health.Server // nil unless GRPC_ENABLED
	HTTP   *http.Server   // gateway, nil unless GRPC_ENABLED

	gatewayConn *grpc.ClientConn
}

// New creates a new server instance. The gRPC server and its HTTP gateway
// are only built when enabled in the configuration.
func New(cfg *config.Config, l *zap.Logger, deps Deps) (*Server, error) {
	s := &Server{
		Config: cfg,
		Logger: l,
	}
	s.Gin = SetupGinServer(deps.Router, s.ginAddress(), l)

	if !cfg.App.GRPCEnabled {
		return s, nil
	}

	s.GRPC, s.Health = SetupGRPC(deps.ArithmeticUC, l, deps.RateLimiter)

	conn, err := grpc.NewClient("localhost"+s.grpcAddress(),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway client: %w", err)
	}
	s.gatewayConn = conn

	s.HTTP, err = SetupHTTPGateway(conn, s.gatewayAddress(), l)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

// Start binds every listener, then serves until a server fails or all of
// them are shut down.
func (s *Server) Start() error {
	type serveFunc func() error
	var serves []serveFunc

	ginLis, err := listen(s.ginAddress())
	if err != nil {
		return fmt.Errorf("failed to start Gin server: %w", err)
	}
	serves = append(serves, func() error {
		s.Logger.Info("Gin REST API running", zap.String("address", s.ginAddress()))
		return serveHTTP(s.Gin, ginLis)
	})

	if s.GRPC != nil {
		grpcLis, err := listen(s.grpcAddress())
		if err != nil {
			_ = ginLis.Close()
			return fmt.Errorf("failed to start gRPC server: %w", err)
		}
		gatewayLis, err := listen(s.gatewayAddress())
		if err != nil {
			_ = ginLis.Close()
			_ = grpcLis.Close()
			return fmt.Errorf("failed to start HTTP gateway: %w", err)
		}

		serves = append(serves,
			func() error {
				s.Logger.Info("gRPC server running", zap.String("address", s.grpcAddress()))
				return s.GRPC.Serve(grpcLis)
			},
			func() error {
				s.Logger.Info("REST gateway running", zap.String("address", s.gatewayAddress()))
				return serveHTTP(s.HTTP, gatewayLis)
			},
		)
	}

	errCh := make(chan error, len(serves))
	for _, serve := range serves {
		go func() {
			errCh <- serve()
		}()
	}

	for range serves {
		if err := <-errCh; err != nil {
			return err
		}
	}
	return nil
}

// Shutdown stops all servers, waiting for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	// Shutdown HTTP gateway
	if s.HTTP != nil {
		s.Logger.Info("shutting down HTTP gateway...")
		if err := s.HTTP.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP gateway shutdown: %w", err))
		}
	}

	// Shutdown Gin server
	if s.Gin != nil {
		s.Logger.Info("shutting down Gin server...")
		if err := s.Gin.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("gin shutdown: %w", err))
		}
	}

	// Shutdown gRPC server
	if s.GRPC != nil {
		s.Logger.Info("shutting down gRPC server...")
		s.Health.Shutdown()
		stopGRPC(ctx, s.GRPC)
	}

	if s.gatewayConn != nil {
		if err := s.gatewayConn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("gateway client close: %w", err))
		}
	}

	return errors.Join(errs...)
}

// stopGRPC drains in-flight RPCs, forcing a stop when ctx expires first.
func stopGRPC(ctx context.Context, srv *grpc.Server) {
	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		srv.Stop()
		<-done
	}
}

func listen(addr string) (net.Listener, error) {
	lc := net.ListenConfig{}
	lis, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return lis, nil
}

func serveHTTP(srv *http.Server, lis net.Listener) error {
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ginAddress returns the Gin REST API address
func (s *Server) ginAddress() string {
	return ":" + s.Config.App.HTTPPort
}

// grpcAddress returns the gRPC server address
func (s *Server) grpcAddress() string {
	return ":" + s.Config.App.GRPCPort
}

// gatewayAddress returns the HTTP gateway address
func (s *Server) gatewayAddress() string {
	return ":" + s.Config.App.GatewayPort
}
