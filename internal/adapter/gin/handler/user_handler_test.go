package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	usecase "user-calc-service/internal/usecase/user"
	pkgerrors "user-calc-service/pkg/errors"
)

// MockUserUsecase is a mock implementation of user.Usecase
type MockUserUsecase struct {
	mock.Mock
}

func (m *MockUserUsecase) CreateUser(ctx context.Context, req usecase.CreateUserRequest) (*usecase.CreateUserResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.CreateUserResponse), args.Error(1)
}

func (m *MockUserUsecase) GetUser(ctx context.Context, req usecase.GetUserRequest) (*usecase.GetUserResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.GetUserResponse), args.Error(1)
}

func (m *MockUserUsecase) UpdateUser(ctx context.Context, req usecase.UpdateUserRequest) (*usecase.UpdateUserResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.UpdateUserResponse), args.Error(1)
}

func (m *MockUserUsecase) DeleteUser(ctx context.Context, req usecase.DeleteUserRequest) (*usecase.DeleteUserResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.DeleteUserResponse), args.Error(1)
}

func setupTest(t *testing.T) (*gin.Engine, *MockUserUsecase) {
	gin.SetMode(gin.TestMode)
	mockUsecase := new(MockUserUsecase)
	handler := NewUserHandler(mockUsecase, zaptest.NewLogger(t))

	r := gin.New()
	r.POST("/users", handler.CreateUser)
	r.GET("/users/:id", handler.GetUser)
	r.PUT("/users/:id", handler.UpdateUser)
	r.DELETE("/users/:id", handler.DeleteUser)
	return r, mockUsecase
}

func perform(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func strPtr(s string) *string { return &s }

func TestCreateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("CreateUser", mock.Anything, usecase.CreateUserRequest{Name: "Alice", Email: "alice@example.com"}).
			Return(&usecase.CreateUserResponse{User: usecase.User{ID: 3, Name: "Alice", Email: "alice@example.com"}}, nil)

		w := perform(r, http.MethodPost, "/users", `{"name":"Alice","email":"alice@example.com"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"message":"User created successfully","user":{"id":3,"name":"Alice","email":"alice@example.com"}}`, w.Body.String())
		mockUsecase.AssertExpectations(t)
	})

	t.Run("MissingFields", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("CreateUser", mock.Anything, usecase.CreateUserRequest{Name: "Alice"}).
			Return(nil, pkgerrors.NewValidationError("Email", usecase.MissingFieldsMessage))

		w := perform(r, http.MethodPost, "/users", `{"name":"Alice"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Missing required fields (name, email)"}`, w.Body.String())
	})

	t.Run("MalformedBodyReachesValidation", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("CreateUser", mock.Anything, usecase.CreateUserRequest{}).
			Return(nil, pkgerrors.NewValidationError("Name, Email", usecase.MissingFieldsMessage))

		w := perform(r, http.MethodPost, "/users", `{not json`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Missing required fields (name, email)"}`, w.Body.String())
		mockUsecase.AssertExpectations(t)
	})

	t.Run("UnexpectedError", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("CreateUser", mock.Anything, mock.Anything).
			Return(nil, errors.New("create user: connection refused"))

		w := perform(r, http.MethodPost, "/users", `{"name":"Alice","email":"alice@example.com"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
	})
}

func TestGetUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetUser", mock.Anything, usecase.GetUserRequest{ID: 1}).
			Return(&usecase.GetUserResponse{User: usecase.User{ID: 1, Name: "John", Email: "john@example.com"}}, nil)

		w := perform(r, http.MethodGet, "/users/1", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user":{"id":1,"name":"John","email":"john@example.com"}}`, w.Body.String())
	})

	t.Run("NotFound", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetUser", mock.Anything, usecase.GetUserRequest{ID: 999}).
			Return(nil, pkgerrors.ErrUserNotFound)

		w := perform(r, http.MethodGet, "/users/999", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"User not found"}`, w.Body.String())
	})

	t.Run("WrappedNotFound", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("GetUser", mock.Anything, usecase.GetUserRequest{ID: 7}).
			Return(nil, errors.Join(errors.New("lookup"), pkgerrors.ErrUserNotFound))

		w := perform(r, http.MethodGet, "/users/7", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	for _, id := range []string{"abc", "-1", "+1", "1.5"} {
		t.Run("NonIntegerID_"+id, func(t *testing.T) {
			r, mockUsecase := setupTest(t)

			w := perform(r, http.MethodGet, "/users/"+id, "")

			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
			mockUsecase.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
		})
	}

	t.Run("IDBeyondInt64", func(t *testing.T) {
		r, mockUsecase := setupTest(t)

		w := perform(r, http.MethodGet, "/users/99999999999999999999", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"User not found"}`, w.Body.String())
		mockUsecase.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
	})
}

func TestUpdateUser(t *testing.T) {
	t.Run("PartialUpdate", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("UpdateUser", mock.Anything, usecase.UpdateUserRequest{ID: 2, Email: strPtr("jane@new.com")}).
			Return(&usecase.UpdateUserResponse{User: usecase.User{ID: 2, Name: "Jane", Email: "jane@new.com"}}, nil)

		w := perform(r, http.MethodPut, "/users/2", `{"email":"jane@new.com"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"User updated successfully","user":{"id":2,"name":"Jane","email":"jane@new.com"}}`, w.Body.String())
		mockUsecase.AssertExpectations(t)
	})

	t.Run("EmptyBodyIsNoOp", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("UpdateUser", mock.Anything, usecase.UpdateUserRequest{ID: 1}).
			Return(&usecase.UpdateUserResponse{User: usecase.User{ID: 1, Name: "John", Email: "john@example.com"}}, nil)

		w := perform(r, http.MethodPut, "/users/1", "")

		assert.Equal(t, http.StatusOK, w.Code)
		mockUsecase.AssertExpectations(t)
	})

	t.Run("ArrayBodyIsNoOp", func(t *testing.T) {
		for _, body := range []string{`[]`, ` ["name", "email"] `} {
			r, mockUsecase := setupTest(t)
			mockUsecase.On("UpdateUser", mock.Anything, usecase.UpdateUserRequest{ID: 1}).
				Return(&usecase.UpdateUserResponse{User: usecase.User{ID: 1, Name: "John", Email: "john@example.com"}}, nil)

			w := perform(r, http.MethodPut, "/users/1", body)

			assert.Equal(t, http.StatusOK, w.Code, body)
			assert.JSONEq(t, `{"message":"User updated successfully","user":{"id":1,"name":"John","email":"john@example.com"}}`, w.Body.String())
			mockUsecase.AssertExpectations(t)
		}
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		for _, body := range []string{`{"name":`, `[1,`, `"John"`, `42`, `null`, `{"name": 5}`} {
			r, mockUsecase := setupTest(t)

			w := perform(r, http.MethodPut, "/users/1", body)

			assert.Equal(t, http.StatusBadRequest, w.Code, body)
			assert.JSONEq(t, `{"error":"Invalid JSON body"}`, w.Body.String())
			mockUsecase.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("UpdateUser", mock.Anything, usecase.UpdateUserRequest{ID: 999, Name: strPtr("Ghost")}).
			Return(nil, pkgerrors.ErrUserNotFound)

		w := perform(r, http.MethodPut, "/users/999", `{"name":"Ghost"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"User not found"}`, w.Body.String())
	})
}

func TestDeleteUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("DeleteUser", mock.Anything, usecase.DeleteUserRequest{ID: 1}).
			Return(&usecase.DeleteUserResponse{ID: 1}, nil)

		w := perform(r, http.MethodDelete, "/users/1", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"User deleted successfully"}`, w.Body.String())
	})

	t.Run("NotFound", func(t *testing.T) {
		r, mockUsecase := setupTest(t)
		mockUsecase.On("DeleteUser", mock.Anything, usecase.DeleteUserRequest{ID: 5}).
			Return(nil, pkgerrors.ErrUserNotFound)

		w := perform(r, http.MethodDelete, "/users/5", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"User not found"}`, w.Body.String())
	})
}

func TestHomeAndHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", Home)
	r.GET("/health", Health("user-calc-service"))

	w := perform(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Welcome to the Flask API!"}`, w.Body.String())

	w = perform(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"user-calc-service"}`, w.Body.String())
}
