package arithmetic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	apperrors "user-calc-service/pkg/errors"
	"user-calc-service/pkg/logger"
)

// Client-facing messages.
const (
	MissingNumberMessage     = `No "number" key in request body`
	MissingAddendsMessage    = `Missing "number1" or "number2"`
	NegativeFactorialMessage = "Factorial does not exist for negative numbers"
	OutOfRangeMessage        = "numerical result out of range"
)

// ArithmeticUsecase implements Usecase. It holds no state besides its limits.
type ArithmeticUsecase struct {
	maxFactorial int64 // 0 disables the limit
	log          *zap.Logger
}

// New creates an ArithmeticUsecase. maxFactorial bounds the factorial input;
// zero means unbounded.
func New(maxFactorial int64, log *zap.Logger) *ArithmeticUsecase {
	return &ArithmeticUsecase{maxFactorial: maxFactorial, log: log}
}

// Square returns number².
func (uc *ArithmeticUsecase) Square(ctx context.Context, in SquareRequest) (*Result, error) {
	if in.Number == nil {
		return nil, apperrors.NewValidationError("number", MissingNumberMessage)
	}

	n, err := operand(in.Number, "square")
	if err != nil {
		return nil, uc.fail(ctx, "square", err)
	}

	if n.IsInt() {
		i := n.BigInt()
		return &Result{Result: Number{integer: i.Mul(i, i)}}, nil
	}

	f, _ := n.Float64()
	res, err := finite(f * f)
	if err != nil {
		return nil, uc.fail(ctx, "square", err)
	}
	return &Result{Result: res}, nil
}

// Add returns number1 + number2. Mixing an integer with a float yields a float.
func (uc *ArithmeticUsecase) Add(ctx context.Context, in AddRequest) (*Result, error) {
	if in.Number1 == nil || in.Number2 == nil {
		return nil, apperrors.NewValidationError("number1, number2", MissingAddendsMessage)
	}

	a, err := operand(in.Number1, "add")
	if err != nil {
		return nil, uc.fail(ctx, "add", err)
	}
	b, err := operand(in.Number2, "add")
	if err != nil {
		return nil, uc.fail(ctx, "add", err)
	}

	if a.IsInt() && b.IsInt() {
		sum := new(big.Int).Add(a.integer, b.integer)
		return &Result{Result: Number{integer: sum}}, nil
	}

	fa, okA := a.Float64()
	fb, okB := b.Float64()
	if !okA || !okB {
		return nil, uc.fail(ctx, "add", apperrors.NewInternalError("int too large to convert to float", nil))
	}
	res, err := finite(fa + fb)
	if err != nil {
		return nil, uc.fail(ctx, "add", err)
	}
	return &Result{Result: res}, nil
}

// Factorial returns number! for non-negative integers; 0! is 1.
func (uc *ArithmeticUsecase) Factorial(ctx context.Context, in FactorialRequest) (*Result, error) {
	if in.Number == nil {
		return nil, apperrors.NewValidationError("number", MissingNumberMessage)
	}

	n, err := operand(in.Number, "factorial")
	if err != nil {
		return nil, uc.fail(ctx, "factorial", err)
	}

	if n.Sign() < 0 {
		logger.WithContext(ctx, uc.log).Debug("negative factorial input", zap.Stringer("number", n))
		return nil, apperrors.NewDomainError(NegativeFactorialMessage)
	}
	if !n.IsInt() {
		return nil, uc.fail(ctx, "factorial",
			apperrors.NewInternalError(fmt.Sprintf("factorial requires an integer, got %s", n), nil))
	}

	limit := big.NewInt(uc.maxFactorial)
	if uc.maxFactorial > 0 && n.integer.Cmp(limit) > 0 {
		return nil, apperrors.NewDomainError(fmt.Sprintf("Factorial input exceeds the maximum of %d", uc.maxFactorial))
	}
	if !n.integer.IsInt64() {
		return nil, uc.fail(ctx, "factorial", apperrors.NewInternalError(OutOfRangeMessage, nil))
	}

	result := new(big.Int).MulRange(1, n.integer.Int64())
	return &Result{Result: Number{integer: result}}, nil
}

// fail logs a computation failure and returns it unchanged.
func (uc *ArithmeticUsecase) fail(ctx context.Context, op string, err error) error {
	logger.WithContext(ctx, uc.log).Warn("arithmetic operation failed", zap.String("op", op), zap.Error(err))
	return err
}

// operand decodes a raw JSON field into a Number. Non-numeric values yield
// an InternalError, mirroring a runtime type failure rather than a
// validation failure.
func operand(raw json.RawMessage, op string) (Number, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return Number{}, apperrors.NewInternalError("invalid operand", err)
	}

	lit, ok := v.(json.Number)
	if !ok {
		return Number{}, apperrors.NewInternalError(
			fmt.Sprintf("unsupported operand type for %s: %s", op, jsonKind(v)), nil)
	}

	n, err := ParseNumber(lit.String())
	if err != nil {
		return Number{}, apperrors.NewInternalError(OutOfRangeMessage, err)
	}
	if _, ok := n.Float64(); !n.IsInt() && !ok {
		return Number{}, apperrors.NewInternalError(OutOfRangeMessage, nil)
	}
	return n, nil
}

func finite(f float64) (Number, error) {
	n := FloatNumber(f)
	if _, ok := n.Float64(); !ok {
		return Number{}, apperrors.NewInternalError(OutOfRangeMessage, nil)
	}
	return n, nil
}
