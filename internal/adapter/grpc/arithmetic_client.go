package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ArithmeticClient calls ArithmeticService over an existing connection.
type ArithmeticClient struct {
	cc grpc.ClientConnInterface
}

// NewArithmeticClient creates a client bound to cc.
func NewArithmeticClient(cc grpc.ClientConnInterface) *ArithmeticClient {
	return &ArithmeticClient{cc: cc}
}

// Call invokes the named ArithmeticService method.
func (c *ArithmeticClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ArithmeticClient) Square(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.Call(ctx, MethodSquare, in, opts...)
}

func (c *ArithmeticClient) Add(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.Call(ctx, MethodAdd, in, opts...)
}

func (c *ArithmeticClient) Factorial(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.Call(ctx, MethodFactorial, in, opts...)
}
