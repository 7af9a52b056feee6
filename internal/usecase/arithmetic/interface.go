package arithmetic

import "context"

// Usecase defines the stateless arithmetic operations.
type Usecase interface {
	Square(ctx context.Context, in SquareRequest) (*Result, error)
	Add(ctx context.Context, in AddRequest) (*Result, error)
	Factorial(ctx context.Context, in FactorialRequest) (*Result, error)
}
