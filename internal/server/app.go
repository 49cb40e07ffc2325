package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"task-manager/api/internal/cache"
	"task-manager/api/internal/config"
	"task-manager/api/internal/database"
	"task-manager/api/internal/monitoring"
	"task-manager/api/internal/repositories"
	"task-manager/api/internal/services"
	"task-manager/api/internal/worker"
)

// App holds every long-lived component. It is built once at startup and
// handed to the router; nothing here is a package-level singleton.
type App struct {
	Config *config.Config
	Logger *logrus.Logger

	// InstanceID namespaces shared cache keys. Stores live in process
	// memory, so a username only maps to the same user within one instance.
	InstanceID string

	Users repositories.UserRepository
	Tasks repositories.TaskRepository

	Pool         *worker.Pool
	ProfileCache *cache.MultiLevelCache
	Credentials  *services.CredentialStore
	Tokens       *services.TokenService
	Guard        *services.Guard
	TaskService  *services.TaskService

	Metrics *monitoring.Metrics
	Health  *monitoring.HealthChecker

	db *gorm.DB
}

func NewApp(cfg *config.Config, logger *logrus.Logger) (*App, error) {
	app := &App{
		Config:     cfg,
		Logger:     logger,
		InstanceID: uuid.Must(uuid.NewV4()).String(),
		Metrics:    monitoring.NewMetrics(),
		Health:     monitoring.NewHealthChecker(0),
	}

	if err := app.initStores(); err != nil {
		return nil, err
	}

	app.Pool = worker.NewPool(cfg.Worker.Concurrency, logger.WithField("component", "worker"))
	app.ProfileCache = app.newProfileCache()

	hasher := services.NewPasswordHasher(cfg.Auth.BCryptCost, app.Pool)
	app.Credentials = services.NewCredentialStore(app.Users, hasher, logger.WithField("component", "credentials"))
	app.Tokens = services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL)

	profiles := services.NewCachedProfileLookup(app.Credentials, app.ProfileCache, cfg.Cache.ProfileTTL, logger.WithField("component", "profile_cache"))
	app.Guard = services.NewGuard(app.Tokens, profiles)
	app.TaskService = services.NewTaskService(app.Tasks, logger.WithField("component", "tasks"))

	app.registerHealthChecks()

	logger.WithFields(logrus.Fields{
		"driver":      cfg.Database.Driver,
		"redis":       cfg.Redis.Enabled,
		"concurrency": cfg.Worker.Concurrency,
	}).Info("Application initialized")

	return app, nil
}

func (a *App) initStores() error {
	switch a.Config.Database.Driver {
	case config.DriverSQLite:
		poolConfig := database.DefaultPoolConfig()
		poolConfig.LogLevel = database.ParseLogLevel(a.Config.Database.LogLevel)

		db, err := database.NewDatabasePool(poolConfig)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		if err := repositories.AutoMigrate(db); err != nil {
			_ = database.Close(db)
			return fmt.Errorf("migrate database: %w", err)
		}

		a.db = db
		a.Users = repositories.NewGormUserRepository(db)
		a.Tasks = repositories.NewGormTaskRepository(db)
	default:
		a.Users = repositories.NewMemoryUserRepository()
		a.Tasks = repositories.NewMemoryTaskRepository()
	}
	return nil
}

func (a *App) newProfileCache() *cache.MultiLevelCache {
	cfg := a.Config
	opts := []cache.MultiLevelOption{
		cache.WithL1TTL(cfg.Cache.ProfileTTL),
		cache.WithLogger(a.Logger.WithField("component", "cache")),
		cache.WithCircuitBreaker(&cache.CircuitBreakerConfig{
			MaxFailures:      cfg.Cache.BreakerMaxFailures,
			Timeout:          cfg.Cache.BreakerTimeout,
			HalfOpenMaxCalls: cfg.Cache.BreakerHalfOpenMaxOps,
		}),
	}

	if !cfg.Redis.Enabled {
		return cache.NewMultiLevelCache(nil, opts...)
	}

	redisCache := cache.NewRedisCache(&cache.CacheConfig{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		KeyPrefix:    fmt.Sprintf("taskmgr:%s:", a.InstanceID),
	})
	if err := redisCache.Health(); err != nil {
		a.Logger.WithError(err).Warn("Redis unreachable at startup, profile cache will run on L1 until it recovers")
	}
	return cache.NewMultiLevelCache(redisCache, opts...)
}

func (a *App) registerHealthChecks() {
	if a.db != nil {
		a.Health.Register("database", func(ctx context.Context) error {
			return database.Ping(ctx, a.db)
		})
	} else {
		a.Health.Register("store", func(context.Context) error { return nil })
	}

	if a.Config.Redis.Enabled {
		a.Health.Register("cache", func(context.Context) error {
			return a.ProfileCache.Health()
		})
	}
}

// Close drains the worker pool, then releases the cache and database.
func (a *App) Close() error {
	if a.Pool != nil {
		a.Pool.Stop()
	}

	var errs []error
	if a.ProfileCache != nil {
		if err := a.ProfileCache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
