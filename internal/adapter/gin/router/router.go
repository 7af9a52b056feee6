package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-calc-service/internal/adapter/gin/handler"
	"user-calc-service/internal/adapter/gin/middleware"
	grpcmiddleware "user-calc-service/internal/adapter/grpc/middleware"
)

// Options carries the handlers and cross-cutting dependencies of the router.
type Options struct {
	UserHandler       *handler.UserHandler
	ArithmeticHandler *handler.ArithmeticHandler
	RateLimiter       *grpcmiddleware.RateLimiter // nil disables limiting
	ServiceName       string
	Log               *zap.Logger
}

// SetupRouter configures and returns a Gin router with all routes and middleware.
// Routing is exact: no trailing-slash redirects and no 405 responses, every
// miss is a JSON 404.
func SetupRouter(opts Options) *gin.Engine {
	router := gin.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	router.HandleMethodNotAllowed = false
	// ClientIP is the connection address; forwarding headers are client supplied.
	_ = router.SetTrustedProxies(nil)

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(opts.Log))
	router.Use(middleware.Recovery(opts.Log))
	router.Use(middleware.RateLimiter(opts.RateLimiter, opts.Log))

	router.NoRoute(handler.NotFound)

	router.GET("/", handler.Home)
	router.GET("/health", handler.Health(opts.ServiceName))

	users := router.Group("/users")
	{
		users.POST("", opts.UserHandler.CreateUser)
		users.GET("/:id", opts.UserHandler.GetUser)
		users.PUT("/:id", opts.UserHandler.UpdateUser)
		users.DELETE("/:id", opts.UserHandler.DeleteUser)
	}

	router.POST("/square", opts.ArithmeticHandler.Square)
	router.POST("/add", opts.ArithmeticHandler.Add)
	router.POST("/factorial", opts.ArithmeticHandler.Factorial)

	return router
}
