package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	"user-calc-service/internal/usecase/arithmetic"
)

// MockArithmeticUsecase is a mock implementation of arithmetic.Usecase
type MockArithmeticUsecase struct {
	mock.Mock
}

func (m *MockArithmeticUsecase) Square(ctx context.Context, in arithmetic.SquareRequest) (*arithmetic.Result, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*arithmetic.Result), args.Error(1)
}

func (m *MockArithmeticUsecase) Add(ctx context.Context, in arithmetic.AddRequest) (*arithmetic.Result, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*arithmetic.Result), args.Error(1)
}

func (m *MockArithmeticUsecase) Factorial(ctx context.Context, in arithmetic.FactorialRequest) (*arithmetic.Result, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*arithmetic.Result), args.Error(1)
}

func arithmeticRouter(h *ArithmeticHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/square", h.Square)
	r.POST("/add", h.Add)
	r.POST("/factorial", h.Factorial)
	return r
}

func TestArithmeticHandler(t *testing.T) {
	log := zaptest.NewLogger(t)
	r := arithmeticRouter(NewArithmeticHandler(arithmetic.New(5000, log), log))

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"square int", "/square", `{"number": 4}`, http.StatusOK, `{"result":16}`},
		{"square float", "/square", `{"number": 1.5}`, http.StatusOK, `{"result":2.25}`},
		{"square negative", "/square", `{"number": -3}`, http.StatusOK, `{"result":9}`},
		{"square missing", "/square", `{"num": 4}`, http.StatusBadRequest, `{"error":"No \"number\" key in request body"}`},
		{"square string", "/square", `{"number": "4"}`, http.StatusInternalServerError, ""},
		{"add ints", "/add", `{"number1": 2, "number2": 3}`, http.StatusOK, `{"result":5}`},
		{"add mixed", "/add", `{"number1": 2, "number2": 0.5}`, http.StatusOK, `{"result":2.5}`},
		{"add missing second", "/add", `{"number1": 2}`, http.StatusBadRequest, `{"error":"Missing \"number1\" or \"number2\""}`},
		{"add null", "/add", `{"number1": null, "number2": 1}`, http.StatusInternalServerError, ""},
		{"factorial zero", "/factorial", `{"number": 0}`, http.StatusOK, `{"result":1}`},
		{"factorial five", "/factorial", `{"number": 5}`, http.StatusOK, `{"result":120}`},
		{"factorial negative", "/factorial", `{"number": -1}`, http.StatusBadRequest, `{"error":"Factorial does not exist for negative numbers"}`},
		{"factorial missing", "/factorial", `{}`, http.StatusBadRequest, `{"error":"No \"number\" key in request body"}`},
		{"factorial float", "/factorial", `{"number": 2.5}`, http.StatusInternalServerError, ""},
		{"factorial too large", "/factorial", `{"number": 5001}`, http.StatusBadRequest, `{"error":"Factorial input exceeds the maximum of 5000"}`},
		{"array body", "/square", `[1, 2]`, http.StatusBadRequest, `{"error":"Request body must be a JSON object"}`},
		{"null body", "/add", `null`, http.StatusBadRequest, `{"error":"Request body must be a JSON object"}`},
		{"empty body", "/factorial", "", http.StatusBadRequest, `{"error":"Request body must be a JSON object"}`},
		{"invalid json", "/square", `{"number":`, http.StatusBadRequest, `{"error":"Request body must be a JSON object"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := perform(r, http.MethodPost, tt.path, tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}
}

func TestArithmeticHandler_BigIntegers(t *testing.T) {
	log := zaptest.NewLogger(t)
	r := arithmeticRouter(NewArithmeticHandler(arithmetic.New(0, log), log))

	w := perform(r, http.MethodPost, "/factorial", `{"number": 25}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"result":15511210043330985984000000}`, w.Body.String())
}

func TestArithmeticHandler_UnexpectedError(t *testing.T) {
	uc := new(MockArithmeticUsecase)
	uc.On("Square", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
	r := arithmeticRouter(NewArithmeticHandler(uc, zaptest.NewLogger(t)))

	w := perform(r, http.MethodPost, "/square", `{"number": 2}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestArithmeticHandler_PassesRawFields(t *testing.T) {
	uc := new(MockArithmeticUsecase)
	uc.On("Add", mock.Anything, mock.MatchedBy(func(in arithmetic.AddRequest) bool {
		return string(in.Number1) == "1" && in.Number2 == nil
	})).Return(&arithmetic.Result{Result: arithmetic.IntNumber(1)}, nil)
	r := arithmeticRouter(NewArithmeticHandler(uc, zaptest.NewLogger(t)))

	w := perform(r, http.MethodPost, "/add", `{"number1":1}`)

	assert.Equal(t, http.StatusOK, w.Code)
	uc.AssertExpectations(t)
}
