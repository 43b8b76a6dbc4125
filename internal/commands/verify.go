package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/currency"
	"github.com/cleared-dev/tally/internal/id"
)

func newVerifyCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check stored balances against the transaction history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts.dir)
			if err != nil {
				return err
			}
			defer a.Close()

			drift, err := a.svc.Reconcile(ctx, a.owner())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(drift) == 0 {
				fmt.Fprintln(out, "All balances match the transaction history.")
				return nil
			}

			accts, err := a.svc.Accounts(ctx, a.owner())
			if err != nil {
				return err
			}
			codes := make(map[string]string, len(accts))
			for _, acct := range accts {
				codes[acct.ID] = acct.CurrencyCode
			}
			for _, d := range drift {
				code := codes[d.AccountID]
				fmt.Fprintf(out, "%s: stored %s, derived %s\n", id.Short(d.AccountID),
					currency.Format(code, d.Stored), currency.Format(code, d.Derived))
			}
			return fmt.Errorf("%w: %d account(s)", ErrDrift, len(drift))
		},
	}
}
