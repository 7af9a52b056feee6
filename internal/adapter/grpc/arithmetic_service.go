package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"user-calc-service/internal/usecase/arithmetic"
	apperrors "user-calc-service/pkg/errors"
	"user-calc-service/pkg/logger"
)

// ArithmeticServiceName is the fully qualified gRPC service name.
const ArithmeticServiceName = "arithmetic.v1.ArithmeticService"

// Method names of ArithmeticService
const (
	MethodSquare    = "Square"
	MethodAdd       = "Add"
	MethodFactorial = "Factorial"
)

// FullMethod returns the "/service/method" path of an ArithmeticService method.
func FullMethod(method string) string {
	return "/" + ArithmeticServiceName + "/" + method
}

// maxExactInt is the largest integer a proto double holds without rounding.
var maxExactInt = big.NewInt(1 << 53)

// ArithmeticServer is the server API for ArithmeticService. Requests and
// responses are google.protobuf.Struct messages using the HTTP field names.
type ArithmeticServer interface {
	Square(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Add(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Factorial(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ArithmeticServiceServer implements ArithmeticServer on top of the
// arithmetic use case.
type ArithmeticServiceServer struct {
	uc  arithmetic.Usecase
	log *zap.Logger
}

// NewArithmeticServiceServer creates a new gRPC arithmetic service server
func NewArithmeticServiceServer(uc arithmetic.Usecase, log *zap.Logger) *ArithmeticServiceServer {
	return &ArithmeticServiceServer{uc: uc, log: log}
}

// Square handles gRPC Square request
func (s *ArithmeticServiceServer) Square(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields, err := rawFields(req)
	if err != nil {
		return nil, s.toStatus(ctx, MethodSquare, err)
	}

	res, err := s.uc.Square(ctx, arithmetic.SquareRequest{Number: fields["number"]})
	if err != nil {
		return nil, s.toStatus(ctx, MethodSquare, err)
	}
	return s.result(ctx, MethodSquare, res)
}

// Add handles gRPC Add request
func (s *ArithmeticServiceServer) Add(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields, err := rawFields(req)
	if err != nil {
		return nil, s.toStatus(ctx, MethodAdd, err)
	}

	res, err := s.uc.Add(ctx, arithmetic.AddRequest{
		Number1: fields["number1"],
		Number2: fields["number2"],
	})
	if err != nil {
		return nil, s.toStatus(ctx, MethodAdd, err)
	}
	return s.result(ctx, MethodAdd, res)
}

// Factorial handles gRPC Factorial request
func (s *ArithmeticServiceServer) Factorial(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields, err := rawFields(req)
	if err != nil {
		return nil, s.toStatus(ctx, MethodFactorial, err)
	}

	res, err := s.uc.Factorial(ctx, arithmetic.FactorialRequest{Number: fields["number"]})
	if err != nil {
		return nil, s.toStatus(ctx, MethodFactorial, err)
	}
	return s.result(ctx, MethodFactorial, res)
}

// result encodes a Number as a proto value. Integers a double cannot hold
// exactly are sent as decimal strings.
func (s *ArithmeticServiceServer) result(ctx context.Context, method string, res *arithmetic.Result) (*structpb.Struct, error) {
	n := res.Result

	var v *structpb.Value
	if n.IsInt() {
		i := n.BigInt()
		if new(big.Int).Abs(i).Cmp(maxExactInt) <= 0 {
			v = structpb.NewNumberValue(float64(i.Int64()))
		} else {
			v = structpb.NewStringValue(i.String())
		}
	} else {
		f, ok := n.Float64()
		if !ok {
			return nil, s.toStatus(ctx, method, apperrors.NewInternalError(arithmetic.OutOfRangeMessage, nil))
		}
		v = structpb.NewNumberValue(f)
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{"result": v}}, nil
}

// toStatus converts use case errors into gRPC status errors. Errors outside
// the application taxonomy surface as a bare Internal status.
func (s *ArithmeticServiceServer) toStatus(ctx context.Context, method string, err error) error {
	log := logger.WithContext(ctx, s.log)

	var internal *apperrors.InternalError
	if errors.As(err, &internal) {
		log.Warn("arithmetic call failed", zap.String("method", method), zap.Error(err))
		return internal.GRPCStatus().Err()
	}

	var st apperrors.GRPCStatuser
	if errors.As(err, &st) {
		return st.GRPCStatus().Err()
	}

	log.Error("unexpected arithmetic error", zap.String("method", method), zap.Error(err))
	return status.Error(codes.Internal, apperrors.ErrInternal.Message)
}

// rawFields re-encodes each top-level Struct field as JSON so the use case
// sees the same raw operands as the HTTP handlers. A nil request has no fields.
func rawFields(req *structpb.Struct) (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage, len(req.GetFields()))
	for name, v := range req.GetFields() {
		raw, err := protojson.Marshal(v)
		if err != nil {
			return nil, apperrors.NewInternalError(fmt.Sprintf("invalid field %q", name), err)
		}
		fields[name] = raw
	}
	return fields, nil
}

type unaryMethod func(ArithmeticServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func methodHandler(method string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ArithmeticServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ArithmeticServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ArithmeticServiceDesc is the grpc.ServiceDesc for ArithmeticService.
var ArithmeticServiceDesc = grpc.ServiceDesc{
	ServiceName: ArithmeticServiceName,
	HandlerType: (*ArithmeticServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodSquare, Handler: methodHandler(MethodSquare, ArithmeticServer.Square)},
		{MethodName: MethodAdd, Handler: methodHandler(MethodAdd, ArithmeticServer.Add)},
		{MethodName: MethodFactorial, Handler: methodHandler(MethodFactorial, ArithmeticServer.Factorial)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "arithmetic/v1/arithmetic.proto",
}

// RegisterArithmeticServer registers srv with the gRPC server.
func RegisterArithmeticServer(s grpc.ServiceRegistrar, srv ArithmeticServer) {
	s.RegisterService(&ArithmeticServiceDesc, srv)
}
