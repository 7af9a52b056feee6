package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-calc-service/cmd/api/infrastructure"
	"user-calc-service/internal/adapter/cache"
	"user-calc-service/internal/adapter/db/postgres"
	ginhandler "user-calc-service/internal/adapter/gin/handler"
	ginrouter "user-calc-service/internal/adapter/gin/router"
	"user-calc-service/internal/adapter/grpc/middleware"
	"user-calc-service/internal/adapter/memory"
	"user-calc-service/internal/adapter/repository/cached"
	"user-calc-service/internal/config"
	domain "user-calc-service/internal/domain/user"
	"user-calc-service/internal/usecase/arithmetic"
	"user-calc-service/internal/usecase/user"
	redisclient "user-calc-service/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config            *config.Config
	Logger            *zap.Logger
	DB                *gorm.DB            // nil for the memory store
	RedisClient       *redisclient.Client // nil when Redis is disabled
	UserRepo          user.Repository
	UserUC            user.Usecase
	ArithmeticUC      arithmetic.Usecase
	RateLimiter       *middleware.RateLimiter // nil when rate limiting is disabled
	UserHandler       *ginhandler.UserHandler
	ArithmeticHandler *ginhandler.ArithmeticHandler
	Router            *gin.Engine
}

// NewContainer creates and initializes all application dependencies.
// Resources opened before a failure are released.
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (_ *Container, err error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	policy, err := domain.ParseIDPolicy(cfg.Store.IDPolicy)
	if err != nil {
		return nil, err
	}

	c := &Container{Config: cfg, Logger: l}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	// Initialize the authoritative store
	store, err := c.newStore(ctx, policy)
	if err != nil {
		return nil, err
	}
	c.UserRepo = store

	if cfg.Redis.Enabled {
		rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		c.RedisClient = rdb

		userCache := cache.NewRedisUserCache(
			rdb.Client,
			time.Duration(cfg.Redis.CacheTTL)*time.Second,
			l,
		)
		c.UserRepo = cached.NewCachedUserRepository(store, userCache, l)

		if cfg.RateLimit.Enabled {
			c.RateLimiter = middleware.NewRateLimiter(
				rdb.Client,
				middleware.RateLimiterConfig{
					RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
					BurstCapacity:     cfg.RateLimit.BurstCapacity,
					Enabled:           cfg.RateLimit.Enabled,
				},
				l,
			)
		}
	}

	// Initialize use cases
	c.UserUC = user.New(c.UserRepo, l)
	c.ArithmeticUC = arithmetic.New(cfg.Arithmetic.MaxFactorial, l)

	// Initialize Gin handlers and router
	c.UserHandler = ginhandler.NewUserHandler(c.UserUC, l)
	c.ArithmeticHandler = ginhandler.NewArithmeticHandler(c.ArithmeticUC, l)
	c.Router = ginrouter.SetupRouter(ginrouter.Options{
		UserHandler:       c.UserHandler,
		ArithmeticHandler: c.ArithmeticHandler,
		RateLimiter:       c.RateLimiter,
		ServiceName:       cfg.Logger.ServiceName,
		Log:               l,
	})

	return c, nil
}

func (c *Container) newStore(ctx context.Context, policy domain.IDPolicy) (user.Repository, error) {
	cfg := c.Config
	if cfg.Store.Driver == config.StoreMemory {
		return memory.NewUserRepo(policy, cfg.Store.SeedEnabled, c.Logger), nil
	}

	db, err := infrastructure.NewDatabase(cfg, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	c.DB = db

	repo := postgres.NewUserRepoPG(db, policy, c.Logger)
	if err := repo.Migrate(ctx, cfg.Store.SeedEnabled); err != nil {
		return nil, err
	}
	return repo, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	// Close Redis connection
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	// Close database connection
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
