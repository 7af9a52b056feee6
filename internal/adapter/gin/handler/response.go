package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "user-calc-service/pkg/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// handleError maps application errors to an HTTP status and JSON body.
// Errors outside the taxonomy become a generic 500.
func handleError(c *gin.Context, err error) {
	var (
		validationErr *apperrors.ValidationError
		notFoundErr   *apperrors.NotFoundError
		domainErr     *apperrors.DomainError
		internalErr   *apperrors.InternalError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(validationErr.HTTPStatus(), ErrorResponse{Error: validationErr.Error()})
	case errors.As(err, &notFoundErr):
		c.JSON(notFoundErr.HTTPStatus(), ErrorResponse{Error: notFoundErr.Error()})
	case errors.As(err, &domainErr):
		c.JSON(domainErr.HTTPStatus(), ErrorResponse{Error: domainErr.Error()})
	case errors.As(err, &internalErr):
		// only the message is shown; the cause stays in the logs
		c.JSON(internalErr.HTTPStatus(), ErrorResponse{Error: internalErr.Message})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: apperrors.ErrInternal.Message})
	}
}

// NotFound answers unmatched routes.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: apperrors.ErrRouteNotFound.Message})
}

// parseUserID accepts only unsigned decimal ids. Anything else is treated as
// an unmatched route. Ids too large for int64 cannot exist in any store.
func parseUserID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	if raw == "" {
		NotFound(c)
		return 0, false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			NotFound(c)
			return 0, false
		}
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		handleError(c, apperrors.ErrUserNotFound)
		return 0, false
	}
	return id, true
}
