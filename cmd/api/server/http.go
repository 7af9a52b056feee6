package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	ginhandler "user-calc-service/internal/adapter/gin/handler"
	grpcadapter "user-calc-service/internal/adapter/grpc"
	"user-calc-service/pkg/logger"
)

// SwaggerFile is the OpenAPI document served by the gateway.
const SwaggerFile = "./api/swagger/arithmetic.swagger.json"

// SetupHTTPGateway creates the HTTP gateway server in front of the gRPC service
func SetupHTTPGateway(conn grpc.ClientConnInterface, httpAddr string, l *zap.Logger) (*http.Server, error) {
	handler, err := NewGatewayHandler(conn, SwaggerFile, l)
	if err != nil {
		return nil, err
	}

	l.Info("REST gateway configured", zap.String("address", httpAddr))
	l.Info("Swagger UI available at", zap.String("url", "http://localhost"+httpAddr+"/swagger/"))

	return &http.Server{
		Addr:              httpAddr,
		Handler:           handler,
		ReadHeaderTimeout: 2 * time.Second,
	}, nil
}

// NewGatewayHandler builds the gateway routes: POST /v1/{square,add,factorial}
// relayed to ArithmeticService, /healthz backed by gRPC health checks, and
// the Swagger UI under /swagger/.
func NewGatewayHandler(conn grpc.ClientConnInterface, swaggerFile string, l *zap.Logger) (http.Handler, error) {
	// Create gRPC-Gateway mux
	mux := runtime.NewServeMux(
		runtime.WithHealthzEndpoint(healthpb.NewHealthClient(conn)),
		runtime.WithErrorHandler(gatewayErrorHandler(l)),
		runtime.WithIncomingHeaderMatcher(incomingHeaderMatcher),
	)

	client := grpcadapter.NewArithmeticClient(conn)
	routes := map[string]string{
		"/v1/square":    grpcadapter.MethodSquare,
		"/v1/add":       grpcadapter.MethodAdd,
		"/v1/factorial": grpcadapter.MethodFactorial,
	}
	for path, method := range routes {
		if err := mux.HandlePath(http.MethodPost, path, relay(mux, client, method)); err != nil {
			return nil, fmt.Errorf("failed to register gateway route %s: %w", path, err)
		}
	}

	// Create main HTTP mux to handle both API and Swagger UI
	httpMux := http.NewServeMux()

	// Serve the swagger JSON file
	httpMux.HandleFunc("/swagger/arithmetic.swagger.json", func(w http.ResponseWriter, r *http.Request) {
		if _, err := os.Stat(swaggerFile); err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, swaggerFile)
	})

	// Serve Swagger UI
	httpMux.HandleFunc("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/arithmetic.swagger.json"),
	))

	// Handle all other routes with gRPC Gateway mux
	httpMux.Handle("/", mux)

	return httpMux, nil
}

// relay decodes a JSON object body into a Struct and forwards it to method.
func relay(mux *runtime.ServeMux, client *grpcadapter.ArithmeticClient, method string) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		inbound, outbound := runtime.MarshalerForRequest(mux, r)

		ctx, err := runtime.AnnotateContext(ctx, mux, r, grpcadapter.FullMethod(method))
		if err != nil {
			runtime.HTTPError(ctx, mux, outbound, w, r, err)
			return
		}

		in := new(structpb.Struct)
		if err := inbound.NewDecoder(r.Body).Decode(in); err != nil && !errors.Is(err, io.EOF) {
			runtime.HTTPError(ctx, mux, outbound, w, r, status.Error(codes.InvalidArgument, ginhandler.NotAnObjectMessage))
			return
		}

		var md runtime.ServerMetadata
		out, err := client.Call(ctx, method, in, grpc.Header(&md.HeaderMD), grpc.Trailer(&md.TrailerMD))
		ctx = runtime.NewServerMetadataContext(ctx, md)
		if err != nil {
			runtime.HTTPError(ctx, mux, outbound, w, r, err)
			return
		}

		runtime.ForwardResponseMessage(ctx, mux, outbound, w, r, out)
	}
}

// incomingHeaderMatcher forwards X-Request-ID to the gRPC service in
// addition to the default headers.
func incomingHeaderMatcher(key string) (string, bool) {
	if strings.EqualFold(key, logger.RequestIDHeader) {
		return strings.ToLower(key), true
	}
	return runtime.DefaultHeaderMatcher(key)
}

// gatewayErrorHandler renders gRPC errors with the same {"error": msg} body
// the Gin API uses.
func gatewayErrorHandler(l *zap.Logger) runtime.ErrorHandlerFunc {
	return func(ctx context.Context, _ *runtime.ServeMux, _ runtime.Marshaler, w http.ResponseWriter, r *http.Request, err error) {
		st := status.Convert(err)
		code := runtime.HTTPStatusFromCode(st.Code())
		if code >= http.StatusInternalServerError {
			l.Warn("gateway request failed",
				zap.String("path", r.URL.Path),
				zap.String("code", st.Code().String()),
				zap.String("message", st.Message()),
			)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(ginhandler.ErrorResponse{Error: st.Message()})
	}
}
