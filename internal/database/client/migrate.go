package client

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/PhotoShare/internal/database/migrations"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

// RunMigrations применяет все встроенные миграции для выбранного драйвера.
func RunMigrations(db *sqlx.DB, driver, databaseURL string, logger *slog.Logger) error {
	src, err := iofs.New(migrations.FS, driver)
	if err != nil {
		return fmt.Errorf("не удалось открыть встроенные миграции: %w", err)
	}

	var m *migrate.Migrate
	switch driver {
	case DriverPostgres:
		// отдельное соединение по URL; закрывается вместе с мигратором
		m, err = migrate.NewWithSourceInstance("iofs", src, databaseURL)
		if err == nil {
			defer closeMigrator(m, logger)
		}
	case DriverSQLite:
		// работаем на уже открытом пуле: для ":memory:" другой бд просто нет.
		// m.Close() здесь не вызываем, он закрыл бы и сам пул.
		var dbDriver *sqlite.Sqlite
		dbDriver, err = sqliteInstance(db)
		if err == nil {
			m, err = migrate.NewWithInstance("iofs", src, DriverSQLite, dbDriver)
		}
		defer func() { _ = src.Close() }()
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("не удалось создать экземпляр мигратора: %w", err)
	}

	m.Log = &migrateLogger{logger: logger}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("не удалось получить версию схемы: %w", err)
	}
	if dirty {
		return fmt.Errorf("схема в состоянии dirty на версии %d, нужна ручная правка", version)
	}

	if err = m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("migrations not required, database is up to date", "version", version)
			return nil
		}
		return fmt.Errorf("ошибка выполнения миграций: %w", err)
	}

	newVersion, _, _ := m.Version()
	logger.Info("migrations applied successfully", "from_version", version, "to_version", newVersion)
	return nil
}

func sqliteInstance(db *sqlx.DB) (*sqlite.Sqlite, error) {
	drv, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return nil, err
	}
	s, ok := drv.(*sqlite.Sqlite)
	if !ok {
		return nil, fmt.Errorf("unexpected sqlite migrate driver %T", drv)
	}
	return s, nil
}

func closeMigrator(m *migrate.Migrate, logger *slog.Logger) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Error("failed to close migration source", "error", srcErr)
	}
	if dbErr != nil {
		logger.Error("failed to close migration database", "error", dbErr)
	}
}

// migrateLogger перенаправляет вывод golang-migrate в slog
type migrateLogger struct {
	logger *slog.Logger
}

func (l *migrateLogger) Printf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *migrateLogger) Verbose() bool {
	return false
}
