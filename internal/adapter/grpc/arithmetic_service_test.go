package grpc

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"user-calc-service/internal/usecase/arithmetic"
	"user-calc-service/pkg/logger"
)

type failingUsecase struct{ arithmetic.Usecase }

func (failingUsecase) Square(context.Context, arithmetic.SquareRequest) (*arithmetic.Result, error) {
	return nil, errors.New("disk on fire")
}

// startServer serves uc over an in-memory listener and returns a client.
func startServer(t *testing.T, uc arithmetic.Usecase) *ArithmeticClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(logger.RequestIDInterceptor()))
	RegisterArithmeticServer(srv, NewArithmeticServiceServer(uc, zaptest.NewLogger(t)))
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewArithmeticClient(conn)
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestArithmeticService_Results(t *testing.T) {
	client := startServer(t, arithmetic.New(5000, zaptest.NewLogger(t)))
	ctx := context.Background()

	out, err := client.Square(ctx, mustStruct(t, map[string]any{"number": 9}))
	require.NoError(t, err)
	assert.Equal(t, 81.0, out.Fields["result"].GetNumberValue())

	out, err = client.Square(ctx, mustStruct(t, map[string]any{"number": 1.5}))
	require.NoError(t, err)
	assert.Equal(t, 2.25, out.Fields["result"].GetNumberValue())

	out, err = client.Add(ctx, mustStruct(t, map[string]any{"number1": 2, "number2": 40}))
	require.NoError(t, err)
	assert.Equal(t, 42.0, out.Fields["result"].GetNumberValue())

	out, err = client.Factorial(ctx, mustStruct(t, map[string]any{"number": 5}))
	require.NoError(t, err)
	assert.Equal(t, 120.0, out.Fields["result"].GetNumberValue())

	out, err = client.Factorial(ctx, mustStruct(t, map[string]any{"number": 0}))
	require.NoError(t, err)
	assert.Equal(t, 1.0, out.Fields["result"].GetNumberValue())
}

func TestArithmeticService_LargeIntegerAsString(t *testing.T) {
	client := startServer(t, arithmetic.New(5000, zaptest.NewLogger(t)))

	out, err := client.Factorial(context.Background(), mustStruct(t, map[string]any{"number": 25}))
	require.NoError(t, err)
	assert.Equal(t, "15511210043330985984000000", out.Fields["result"].GetStringValue())
}

func TestArithmeticService_Errors(t *testing.T) {
	client := startServer(t, arithmetic.New(5000, zaptest.NewLogger(t)))
	ctx := context.Background()

	tests := []struct {
		name    string
		call    func() error
		code    codes.Code
		message string
	}{
		{
			name: "missing number",
			call: func() error {
				_, err := client.Square(ctx, mustStruct(t, map[string]any{}))
				return err
			},
			code:    codes.InvalidArgument,
			message: arithmetic.MissingNumberMessage,
		},
		{
			name: "empty request",
			call: func() error {
				_, err := client.Factorial(ctx, &structpb.Struct{})
				return err
			},
			code:    codes.InvalidArgument,
			message: arithmetic.MissingNumberMessage,
		},
		{
			name: "missing addend",
			call: func() error {
				_, err := client.Add(ctx, mustStruct(t, map[string]any{"number1": 1}))
				return err
			},
			code:    codes.InvalidArgument,
			message: arithmetic.MissingAddendsMessage,
		},
		{
			name: "negative factorial",
			call: func() error {
				_, err := client.Factorial(ctx, mustStruct(t, map[string]any{"number": -1}))
				return err
			},
			code:    codes.InvalidArgument,
			message: arithmetic.NegativeFactorialMessage,
		},
		{
			name: "string operand",
			call: func() error {
				_, err := client.Square(ctx, mustStruct(t, map[string]any{"number": "four"}))
				return err
			},
			code: codes.Internal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)

			st, ok := status.FromError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, st.Code())
			if tt.message != "" {
				assert.Equal(t, tt.message, st.Message())
			}
		})
	}
}

func TestArithmeticService_UnexpectedError(t *testing.T) {
	client := startServer(t, failingUsecase{})

	_, err := client.Square(context.Background(), mustStruct(t, map[string]any{"number": 1}))

	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "Internal server error", st.Message())
}

func TestArithmeticService_UnknownMethod(t *testing.T) {
	client := startServer(t, arithmetic.New(5000, zaptest.NewLogger(t)))

	_, err := client.Call(context.Background(), "Cube", mustStruct(t, map[string]any{"number": 2}))

	assert.Equal(t, codes.Unimplemented, status.Code(err))
}
