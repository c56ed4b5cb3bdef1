package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/jinwoo-notes/jinwoo/internal/obs"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

var (
	gooseOnce sync.Once
	gooseErr  error
	// goose keeps its configuration in package globals.
	gooseMu sync.Mutex
)

func setupGoose() error {
	gooseOnce.Do(func() {
		goose.SetBaseFS(migrationsFS)
		goose.SetLogger(gooseLogger{})
		if err := goose.SetDialect("sqlite3"); err != nil {
			gooseErr = fmt.Errorf("failed to set dialect: %w", err)
		}
	})
	return gooseErr
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, sqlDB *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}
	gooseMu.Lock()
	defer gooseMu.Unlock()
	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, sqlDB *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}
	gooseMu.Lock()
	defer gooseMu.Unlock()
	if err := goose.DownContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	return nil
}

// MigrationStatus logs the applied state of each migration.
func MigrationStatus(ctx context.Context, sqlDB *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}
	gooseMu.Lock()
	defer gooseMu.Unlock()
	return goose.StatusContext(ctx, sqlDB, migrationsDir)
}

// SchemaVersion returns the current goose version.
func SchemaVersion(ctx context.Context, sqlDB *sql.DB) (int64, error) {
	if err := setupGoose(); err != nil {
		return 0, err
	}
	gooseMu.Lock()
	defer gooseMu.Unlock()
	return goose.GetDBVersionContext(ctx, sqlDB)
}

type gooseLogger struct{}

func (gooseLogger) Fatalf(format string, v ...any) {
	obs.Pkg("db").Error(fmt.Sprintf(format, v...))
}

func (gooseLogger) Printf(format string, v ...any) {
	obs.Pkg("db").Debug(fmt.Sprintf(format, v...))
}
