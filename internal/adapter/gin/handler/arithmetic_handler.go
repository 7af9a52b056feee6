package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-calc-service/internal/usecase/arithmetic"
	"user-calc-service/pkg/logger"
)

// NotAnObjectMessage is returned when an arithmetic body is not a JSON object.
const NotAnObjectMessage = "Request body must be a JSON object"

// ArithmeticHandler handles the stateless arithmetic endpoints
type ArithmeticHandler struct {
	uc  arithmetic.Usecase
	log *zap.Logger
}

// NewArithmeticHandler creates a new ArithmeticHandler instance
func NewArithmeticHandler(uc arithmetic.Usecase, log *zap.Logger) *ArithmeticHandler {
	return &ArithmeticHandler{uc: uc, log: log}
}

// ResultResponse carries an arithmetic result
type ResultResponse struct {
	Result arithmetic.Number `json:"result"`
}

// Square handles POST /square
func (h *ArithmeticHandler) Square(c *gin.Context) {
	fields, ok := h.bindObject(c)
	if !ok {
		return
	}

	res, err := h.uc.Square(c.Request.Context(), arithmetic.SquareRequest{Number: fields["number"]})
	h.respond(c, res, err)
}

// Add handles POST /add
func (h *ArithmeticHandler) Add(c *gin.Context) {
	fields, ok := h.bindObject(c)
	if !ok {
		return
	}

	res, err := h.uc.Add(c.Request.Context(), arithmetic.AddRequest{
		Number1: fields["number1"],
		Number2: fields["number2"],
	})
	h.respond(c, res, err)
}

// Factorial handles POST /factorial
func (h *ArithmeticHandler) Factorial(c *gin.Context) {
	fields, ok := h.bindObject(c)
	if !ok {
		return
	}

	res, err := h.uc.Factorial(c.Request.Context(), arithmetic.FactorialRequest{Number: fields["number"]})
	h.respond(c, res, err)
}

// bindObject decodes the body into its top-level fields, keeping each value
// raw so that absent keys stay distinguishable from null.
func (h *ArithmeticHandler) bindObject(c *gin.Context) (map[string]json.RawMessage, bool) {
	body, err := c.GetRawData()
	if err == nil {
		var fields map[string]json.RawMessage
		if err = json.Unmarshal(body, &fields); err == nil && fields != nil {
			return fields, true
		}
	}

	logger.WithContext(c.Request.Context(), h.log).Warn("arithmetic body is not a JSON object",
		zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: NotAnObjectMessage})
	return nil, false
}

func (h *ArithmeticHandler) respond(c *gin.Context, res *arithmetic.Result, err error) {
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, ResultResponse{Result: res.Result})
}
