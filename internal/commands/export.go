package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/export"
)

func newExportCommand(opts *rootOptions) *cobra.Command {
	var (
		output   string
		accounts bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all transactions (or accounts) as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts.dir)
			if err != nil {
				return err
			}
			defer a.Close()

			txs, err := a.svc.Transactions(ctx, a.owner())
			if err != nil {
				return err
			}
			accts, err := a.svc.Accounts(ctx, a.owner())
			if err != nil {
				return err
			}
			cats, err := a.svc.Categories(ctx, a.owner())
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			if accounts {
				if err := export.WriteAccounts(w, accts); err != nil {
					return fmt.Errorf("exporting accounts: %w", err)
				}
				return nil
			}
			if err := export.WriteTransactions(w, txs, export.NamesFrom(accts, cats)); err != nil {
				return fmt.Errorf("exporting: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&accounts, "accounts", false, "export accounts and balances instead of transactions")

	return cmd
}
