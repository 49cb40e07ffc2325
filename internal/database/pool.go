package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PoolConfig describes an in-memory SQLite database. MaxOpenConns stays at 1:
// every connection to a memory database must go through the same handle, and
// a single connection serializes writers.
type PoolConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	LogLevel        logger.LogLevel
}

// DefaultPoolConfig returns a config backed by a uniquely named shared-cache
// memory database, so separate pools never see each other's tables.
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		DSN:          MemoryDSN(),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		LogLevel:     logger.Warn,
	}
}

func MemoryDSN() string {
	return fmt.Sprintf("file:taskmgr-%s?mode=memory&cache=shared&_foreign_keys=1", uuid.Must(uuid.NewV4()).String())
}

func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func NewDatabasePool(config *PoolConfig) (*gorm.DB, error) {
	if config == nil {
		config = DefaultPoolConfig()
	}
	if config.DSN == "" {
		return nil, errors.New("database DSN is required")
	}
	if !strings.Contains(config.DSN, "mode=memory") && config.DSN != ":memory:" {
		return nil, fmt.Errorf("only in-memory databases are supported, got %q", config.DSN)
	}

	db, err := gorm.Open(sqlite.Open(config.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(config.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(max(config.MaxOpenConns, 1))
	sqlDB.SetMaxIdleConns(max(config.MaxIdleConns, 1))
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
