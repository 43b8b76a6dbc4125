package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/buildinfo"
	"github.com/cleared-dev/tally/internal/ledger"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "tally",
		Short:   "Personal finance tracker",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.dir, "dir", ".", "directory containing tally.yaml")

	rootCmd.AddCommand(newInitCommand(opts))
	rootCmd.AddCommand(newAccountCommand(opts))
	rootCmd.AddCommand(newCategoryCommand(opts))
	rootCmd.AddCommand(newTxCommand(opts))
	rootCmd.AddCommand(newImportCommand(opts))
	rootCmd.AddCommand(newExportCommand(opts))
	rootCmd.AddCommand(newVerifyCommand(opts))

	return rootCmd
}

// refused marks ledger rule violations so they read as a decision rather than
// a failure.
func refused(err error) error {
	if ledger.IsBusinessRule(err) {
		return fmt.Errorf("refused: %w", err)
	}
	return err
}

// ErrDrift is returned by verify when stored balances disagree with the
// transaction history.
var ErrDrift = errors.New("balances out of sync with transactions")
