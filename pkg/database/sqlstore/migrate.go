package sqlstore

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// gooseDialects maps a store driver to its goose dialect, which is also the migrations subdirectory
var gooseDialects = map[string]string{
	DriverSQLite:   "sqlite3",
	DriverMySQL:    "mysql",
	DriverPostgres: "postgres",
}

// RunMigrations applies the embedded schema for driver
func RunMigrations(ctx context.Context, db *gorm.DB, driver string) error {
	dialect, ok := gooseDialects[driver]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	if err := goose.SetDialect(dialect); err != nil {
		return err
	}

	goose.SetBaseFS(migrationsFS)
	if err := goose.UpContext(ctx, sqlDB, "migrations/"+dialect); err != nil {
		return fmt.Errorf("migrate %s: %w", driver, err)
	}
	return nil
}
