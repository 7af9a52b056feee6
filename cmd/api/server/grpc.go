package server

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	grpcadapter "user-calc-service/internal/adapter/grpc"
	"user-calc-service/internal/adapter/grpc/middleware"
	"user-calc-service/internal/usecase/arithmetic"
	"user-calc-service/pkg/logger"
)

// SetupGRPC creates the gRPC server with the arithmetic and health services.
// A nil rate limiter lets every call through.
func SetupGRPC(arithUC arithmetic.Usecase, l *zap.Logger, rateLimiter *middleware.RateLimiter) (*grpc.Server, *health.Server) {
	// Create gRPC server with request ID and rate limit interceptors
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logger.RequestIDInterceptor(),
			rateLimiter.UnaryInterceptor(),
		),
	)
	grpcadapter.RegisterArithmeticServer(grpcServer, grpcadapter.NewArithmeticServiceServer(arithUC, l))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(grpcadapter.ArithmeticServiceName, healthpb.HealthCheckResponse_SERVING)

	return grpcServer, healthServer
}
