package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/PhotoShare/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	// modernc регистрирует драйвер под именем "sqlite", sqlx о нём не знает
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// PoolOptions — параметры пула соединений
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Client представляет клиент для взаимодействия с бд (PostgreSQL или SQLite)
type Client struct {
	DB     *sqlx.DB
	Driver string
	logger *slog.Logger
}

// NewClient открывает соединение с бд по конфигурации и применяет миграции
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	start := time.Now()

	db, err := Open(cfg.DatabaseDriver, cfg.DatabaseURL, PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		logger.Error("failed to open database connection", "driver", cfg.DatabaseDriver, "error", err)
		return nil, err
	}

	if err := RunMigrations(db, cfg.DatabaseDriver, cfg.DatabaseURL, logger); err != nil {
		_ = db.Close()
		logger.Error("failed to apply migrations", "driver", cfg.DatabaseDriver, "error", err)
		return nil, err
	}

	logger.Info("database connection established successfully",
		"driver", cfg.DatabaseDriver,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Client{DB: db, Driver: cfg.DatabaseDriver, logger: logger}, nil
}

// Open открывает пул соединений и проверяет его ping'ом.
// Для sqlite пул всегда из одного соединения: бд ":memory:" живёт ровно в нём,
// а PRAGMA foreign_keys действует только на своё соединение.
func Open(driver, dsn string, opts PoolOptions) (*sqlx.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", driver, err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxIdleConns)
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("configure sqlite: %w", err)
		}
	}

	return db, nil
}

// Ping проверяет доступность бд
func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *Client) Close() error {
	start := time.Now()
	err := c.DB.Close()
	if err != nil {
		c.logger.Error("failed to close database connection", "error", err)
		return err
	}
	c.logger.Info("database connection closed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}
