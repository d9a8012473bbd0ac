// Package migration applies the engine's schema. Postgres uses the embedded
// versioned migrations; the sqlite development path auto-migrates the gorm
// models instead.
package migration

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"

	auditdomain "github.com/commissionlabs/commissiond/internal/audit/domain"
	ledgerdomain "github.com/commissionlabs/commissiond/internal/ledger/domain"
	statsdomain "github.com/commissionlabs/commissiond/internal/orderstats/domain"
	plandomain "github.com/commissionlabs/commissiond/internal/plan/domain"
	tierdomain "github.com/commissionlabs/commissiond/internal/tier/domain"
	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

// Run applies all pending migrations.
func Run(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}

	if conn.Dialector.Name() == "postgres" {
		return runPostgres(conn)
	}
	return autoMigrate(conn)
}

func runPostgres(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := migratepostgres.WithInstance(sqlDB, &migratepostgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func autoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&statsdomain.Office{},
		&statsdomain.Representative{},
		&statsdomain.Order{},
		&tierdomain.CommissionTier{},
		&plandomain.IndividualPlan{},
		&plandomain.PlanLineItem{},
		&ledgerdomain.LedgerEntry{},
		&auditdomain.AuditLog{},
	)
}
