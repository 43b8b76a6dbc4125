package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/importer"
	"github.com/cleared-dev/tally/internal/ledger"
)

func newImportCommand(opts *rootOptions) *cobra.Command {
	var (
		account         string
		expenseCategory string
		incomeCategory  string
		dryRun          bool
	)

	cmd := &cobra.Command{
		Use:   "import <format> <file>",
		Short: "Import a bank CSV export into an account",
		Long:  "Import a bank CSV export into an account. Rows already imported are skipped.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser, err := importer.DefaultRegistry().Lookup(args[0])
			if err != nil {
				return err
			}

			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[1], err)
			}
			defer f.Close()

			rows, err := parser.Parse(f)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", args[1], err)
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, opts.dir)
			if err != nil {
				return err
			}
			defer a.Close()

			acct, err := a.resolveAccount(ctx, account)
			if err != nil {
				return err
			}
			target := importer.Target{
				OwnerID:      a.owner(),
				AccountID:    acct.ID,
				CurrencyCode: acct.CurrencyCode,
			}
			if expenseCategory != "" {
				cat, err := a.resolveCategory(ctx, expenseCategory)
				if err != nil {
					return err
				}
				target.ExpenseCategoryID = cat.ID
			}
			if incomeCategory != "" {
				cat, err := a.resolveCategory(ctx, incomeCategory)
				if err != nil {
					return err
				}
				target.IncomeCategoryID = cat.ID
			}

			proposals, err := importer.ToProposals(target, rows)
			if err != nil {
				return err
			}

			existing, err := a.svc.Transactions(ctx, a.owner())
			if err != nil {
				return err
			}
			seen := make(map[string]bool, len(existing))
			for _, tx := range existing {
				seen[tx.ID] = true
			}

			out := cmd.OutOrStdout()
			var imported, duplicates, rejected int
			for _, p := range proposals {
				if seen[p.ID] {
					duplicates++
					continue
				}
				if dryRun {
					imported++
					continue
				}
				if _, err := a.svc.PostTransaction(ctx, p); err != nil {
					if !ledger.IsBusinessRule(err) && !ledger.IsStructural(err) {
						return fmt.Errorf("importing %s: %w", p.Note, err)
					}
					rejected++
					fmt.Fprintf(out, "  skipped %s %s: %v\n", p.TxDate.Format(dateFormat), p.Note, err)
					continue
				}
				imported++
			}

			verb := "Imported"
			if dryRun {
				verb = "Would import"
			}
			fmt.Fprintf(out, "%s %d transactions (%d already present, %d rejected)\n", verb, imported, duplicates, rejected)
			if rejected > 0 {
				return errors.New("some rows were rejected")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account to import into (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().StringVar(&expenseCategory, "expense-category", "", "category for debits")
	cmd.Flags().StringVar(&incomeCategory, "income-category", "", "category for credits")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and report without posting")

	return cmd
}
