package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/currency"
	"github.com/cleared-dev/tally/internal/id"
)

func newInitCommand(opts *rootOptions) *cobra.Command {
	var (
		name   string
		curr   string
		driver string
		dsn    string
		noSeed bool
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new tracker",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.dir
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			cfg := config.Default(id.New(), name)
			cfg.Ledger.DefaultCurrency = currency.Normalize(curr)
			cfg.Store.Driver = driver
			if driver == config.DriverPostgres {
				cfg.Store.Path = ""
				cfg.Store.DSN = dsn
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if currency.Lookup(cfg.Ledger.DefaultCurrency) == nil {
				return fmt.Errorf("unknown currency %q", curr)
			}

			if err := runInit(cmd.Context(), absDir, cfg, !noSeed); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized tally at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "owner name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&curr, "currency", "USD", "default currency")
	cmd.Flags().StringVar(&driver, "driver", config.DriverSQLite, "store driver (sqlite or postgres)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "postgres connection string")
	cmd.Flags().BoolVar(&noSeed, "no-seed", false, "skip the default categories")

	return cmd
}

func runInit(ctx context.Context, dir string, cfg *config.Config, seed bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	a, err := openAppWithConfig(ctx, dir, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if !seed {
		return nil
	}
	if _, err := a.svc.SeedDefaultCategories(ctx, a.owner()); err != nil {
		return fmt.Errorf("seeding categories: %w", err)
	}
	return nil
}
