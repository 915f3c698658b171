package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/alejandroruanova/preprocessing-service/internal/core/domain"
	"github.com/alejandroruanova/preprocessing-service/internal/pkg/config"
)

const (
	connectTimeout = 5 * time.Second
	slowQuery      = 500 * time.Millisecond
)

// PostgresDB holds the gorm handle the job and dedup repositories share
type PostgresDB struct {
	DB     *gorm.DB
	logger *slog.Logger
}

// NewPostgresDB connects, sizes the pool and verifies the server answers
func NewPostgresDB(cfg *config.DatabaseConfig, appLogger *slog.Logger) (*PostgresDB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 newGormLogger(appLogger, cfg.LogLevel),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.MinConnections)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxConnLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.MaxConnIdleTime) * time.Minute)

	pdb := NewPostgresDBFromGorm(db, appLogger)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := pdb.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	appLogger.Info("database connection established",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("database", cfg.Database),
		slog.Int("max_connections", cfg.MaxConnections))

	return pdb, nil
}

// NewPostgresDBFromGorm wraps an already opened gorm handle
func NewPostgresDBFromGorm(db *gorm.DB, appLogger *slog.Logger) *PostgresDB {
	return &PostgresDB{DB: db, logger: appLogger}
}

// newGormLogger routes gorm's SQL log through slog at the configured level
func newGormLogger(appLogger *slog.Logger, level string) logger.Interface {
	return logger.New(slogWriter{appLogger.With(slog.String("component", "gorm"))}, logger.Config{
		SlowThreshold:             slowQuery,
		LogLevel:                  gormLogLevel(level),
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// slogWriter adapts slog to gorm's printf-style writer
type slogWriter struct {
	logger *slog.Logger
}

func (w slogWriter) Printf(format string, args ...interface{}) {
	w.logger.Info(fmt.Sprintf(format, args...))
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug", "info":
		return logger.Info
	case "warn":
		return logger.Warn
	case "error":
		return logger.Error
	default:
		return logger.Silent
	}
}

// Close closes the database connection
func (db *PostgresDB) Close() error {
	db.logger.Info("closing database connection")
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks if the database is reachable
func (db *PostgresDB) Ping(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Health pings the server and reports pool usage
func (db *PostgresDB) Health(ctx context.Context) map[string]interface{} {
	start := time.Now()
	if err := db.Ping(ctx); err != nil {
		return map[string]interface{}{
			"status": "down",
			"error":  err.Error(),
		}
	}
	latency := time.Since(start)

	sqlDB, err := db.DB.DB()
	if err != nil {
		return map[string]interface{}{
			"status": "down",
			"error":  err.Error(),
		}
	}
	stats := sqlDB.Stats()

	return map[string]interface{}{
		"status":           "up",
		"backend":          "postgres",
		"latency":          latency.String(),
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
	}
}

// Migrate creates or updates the job and dedup hash tables
func (db *PostgresDB) Migrate() error {
	models := domain.Models()
	db.logger.Info("running auto migrations", slog.Int("models", len(models)))
	if err := db.DB.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	db.logger.Info("migrations completed")
	return nil
}
