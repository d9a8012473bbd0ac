package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/commissionlabs/commissiond/internal/audit"
	auditdomain "github.com/commissionlabs/commissiond/internal/audit/domain"
	"github.com/commissionlabs/commissiond/internal/clock"
	"github.com/commissionlabs/commissiond/internal/config"
	"github.com/commissionlabs/commissiond/internal/ledger"
	ledgerdomain "github.com/commissionlabs/commissiond/internal/ledger/domain"
	"github.com/commissionlabs/commissiond/internal/metrics"
	"github.com/commissionlabs/commissiond/internal/migration"
	"github.com/commissionlabs/commissiond/internal/observability"
	"github.com/commissionlabs/commissiond/internal/orderstats"
	"github.com/commissionlabs/commissiond/internal/period"
	"github.com/commissionlabs/commissiond/internal/plan"
	"github.com/commissionlabs/commissiond/internal/seed"
	"github.com/commissionlabs/commissiond/internal/server"
	"github.com/commissionlabs/commissiond/internal/tier"
	"github.com/commissionlabs/commissiond/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "commissiond",
		Short: "Tiered commission ledger engine",
	}
	root.AddCommand(newMigrateCmd(), newServeCmd(), newGenerateCmd(), newSeedCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOneShot(migration.Module)
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load a small development dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOneShot(
				migration.Module,
				fx.Invoke(func(conn *gorm.DB) error {
					return seed.Run(conn)
				}),
			)
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the administrative API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				coreModules(),
				domainModules(),
				metrics.Module,
				server.Module,
			)
			app.Run()
			return nil
		},
	}
}

func newGenerateCmd() *cobra.Command {
	var month, year int

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run batch ledger generation for one period",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := period.New(month, year)
			if err != nil {
				return err
			}

			return runOneShot(
				domainModules(),
				fx.Invoke(func(svc ledgerdomain.Service, log *zap.Logger) error {
					result, err := svc.Generate(context.Background(), p, auditdomain.SystemActor)
					if err != nil {
						return err
					}
					log.Info("ledger generation complete",
						zap.String("run_id", result.RunID),
						zap.String("period", p.String()),
						zap.Int("created", result.Created),
						zap.Int("updated", result.Updated),
						zap.Int("failed", len(result.Failed)))
					for _, failure := range result.Failed {
						log.Warn("representative failed",
							zap.String("representative_id", failure.RepresentativeID.String()),
							zap.String("error", failure.Error))
					}
					return nil
				}),
			)
		},
	}

	now := time.Now().UTC()
	cmd.Flags().IntVar(&month, "month", int(now.Month()), "period month (1-12)")
	cmd.Flags().IntVar(&year, "year", now.Year(), "period year")
	return cmd
}

func coreModules() fx.Option {
	return fx.Options(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
	)
}

func domainModules() fx.Option {
	return fx.Options(
		audit.Module,
		orderstats.Module,
		tier.Module,
		plan.Module,
		ledger.Module,
	)
}

// runOneShot starts an fx app, lets the invoked work run, then stops it.
func runOneShot(opts ...fx.Option) error {
	app := fx.New(
		coreModules(),
		fx.Options(opts...),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return err
	}
	return app.Stop(context.Background())
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
