package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"jizhang/internal/config"
	"jizhang/internal/database"
	"jizhang/internal/logger"
	"jizhang/internal/services"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		logger.Get().Errorf("Migration error: %v", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the jizhang database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(upCmd())
	cmd.AddCommand(downCmd())
	cmd.AddCommand(versionCmd())
	cmd.AddCommand(seedCmd())

	return cmd
}

// withMigrator opens a migrator for the configured database and closes it
// once fn returns.
func withMigrator(fn func(*database.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	mg, err := database.NewMigrator(database.NewConfig(cfg))
	if err != nil {
		return err
	}
	defer mg.Close()

	return fn(mg)
}

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return withMigrator(func(mg *database.Migrator) error {
				if err := mg.Up(); err != nil {
					return err
				}
				logger.Get().Info("Migrations applied successfully")
				return nil
			})
		},
	}
}

func downCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down [N]",
		Short: "Roll back the last N migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count: %w", err)
				}
				steps = n
			}
			return withMigrator(func(mg *database.Migrator) error {
				if err := mg.Down(steps); err != nil {
					return err
				}
				logger.Get().Infof("Rolled back %d migration(s)", steps)
				return nil
			})
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return withMigrator(func(mg *database.Migrator) error {
				version, dirty, err := mg.Version()
				if err != nil {
					return err
				}
				logger.Get().Infof("Version: %d, Dirty: %v", version, dirty)
				return nil
			})
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default categories that are missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			dbManager, err := database.NewManager(database.NewConfig(cfg))
			if err != nil {
				return err
			}
			defer dbManager.Close()

			if err := dbManager.RunMigrations(); err != nil {
				return err
			}

			inserted, err := services.NewCategoryService(dbManager.DB()).SeedDefaults(cmd.Context())
			if err != nil {
				return err
			}
			logger.Get().Infof("Seeded %d default categories", inserted)
			return nil
		},
	}
}
