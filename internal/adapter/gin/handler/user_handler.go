package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-calc-service/internal/usecase/user"
	"user-calc-service/pkg/logger"
)

// Response messages for user mutations
const (
	UserCreatedMessage = "User created successfully"
	UserUpdatedMessage = "User updated successfully"
	UserDeletedMessage = "User deleted successfully"
	InvalidJSONMessage = "Invalid JSON body"
)

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	uc  user.Usecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.Usecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// CreateUserRequest represents the HTTP request body for creating a user
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateUserRequest represents the HTTP request body for updating a user.
// Absent fields are left unchanged.
type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// UserResponse represents the HTTP response for user data
type UserResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// GetUserResponse wraps a single user
type GetUserResponse struct {
	User UserResponse `json:"user"`
}

// UserMutationResponse is returned by create and update
type UserMutationResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.WithContext(ctx, h.log)

	// A body that does not decode is treated like one with missing fields;
	// the use case reports it.
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("invalid create user body", zap.Error(err))
		req = CreateUserRequest{}
	}

	resp, err := h.uc.CreateUser(ctx, user.CreateUserRequest{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, UserMutationResponse{
		Message: UserCreatedMessage,
		User:    toUserResponse(resp.User),
	})
}

// GetUser handles GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	resp, err := h.uc.GetUser(c.Request.Context(), user.GetUserRequest{ID: id})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, GetUserResponse{User: toUserResponse(resp.User)})
}

// UpdateUser handles PUT /users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	log := logger.WithContext(c.Request.Context(), h.log)

	body, err := c.GetRawData()
	if err != nil {
		log.Warn("failed to read update body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: InvalidJSONMessage})
		return
	}

	req, err := decodeUpdate(body)
	if err != nil {
		log.Warn("invalid update user body", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: InvalidJSONMessage})
		return
	}

	resp, err := h.uc.UpdateUser(c.Request.Context(), user.UpdateUserRequest{
		ID:    id,
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, UserMutationResponse{
		Message: UserUpdatedMessage,
		User:    toUserResponse(resp.User),
	})
}

// decodeUpdate reads a partial update. An empty body or a JSON array names
// no fields and changes nothing; any other non-object value is rejected.
func decodeUpdate(body []byte) (UpdateUserRequest, error) {
	var req UpdateUserRequest
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return req, nil
	}

	switch trimmed[0] {
	case '{':
		err := json.Unmarshal(trimmed, &req)
		return req, err
	case '[':
		var items []json.RawMessage
		err := json.Unmarshal(trimmed, &items)
		return req, err
	}
	return req, fmt.Errorf("update body must be a JSON object, got %q", trimmed[0])
}

// DeleteUser handles DELETE /users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	if _, err := h.uc.DeleteUser(c.Request.Context(), user.DeleteUserRequest{ID: id}); err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: UserDeletedMessage})
}

func toUserResponse(u user.User) UserResponse {
	return UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}
