package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/currency"
	"github.com/cleared-dev/tally/internal/export"
	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
)

func newTxCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Record and list transactions",
	}
	cmd.AddCommand(newTxAddCommand(opts))
	cmd.AddCommand(newTxListCommand(opts))
	return cmd
}

func newTxAddCommand(opts *rootOptions) *cobra.Command {
	var (
		account  string
		to       string
		category string
		date     string
		note     string
		curr     string
	)

	cmd := &cobra.Command{
		Use:   "add <expense|income|transfer> <amount>",
		Short: "Record a transaction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			txType, err := model.ParseTransactionType(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, opts.dir)
			if err != nil {
				return err
			}
			defer a.Close()

			tx := ledger.ProposedTransaction{
				OwnerID:      a.owner(),
				Type:         txType,
				CurrencyCode: a.cfg.Ledger.DefaultCurrency,
				Note:         note,
				TxDate:       time.Now(),
			}

			if account != "" {
				acct, err := a.resolveAccount(ctx, account)
				if err != nil {
					return err
				}
				tx.AccountID = acct.ID
				tx.CurrencyCode = acct.CurrencyCode
			}
			if to != "" {
				acct, err := a.resolveAccount(ctx, to)
				if err != nil {
					return err
				}
				tx.CounterAccountID = acct.ID
			}
			if category != "" {
				cat, err := a.resolveCategory(ctx, category)
				if err != nil {
					return err
				}
				tx.CategoryID = cat.ID
			}
			if curr != "" {
				tx.CurrencyCode = currency.Normalize(curr)
			}
			if date != "" {
				if tx.TxDate, err = parseDate(date); err != nil {
					return err
				}
			}

			if tx.Amount, err = currency.ParseMinor(tx.CurrencyCode, args[1]); err != nil {
				return err
			}

			ws, err := a.svc.PostTransaction(ctx, tx)
			if err != nil {
				return refused(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Recorded %s %s %s\n", ws.Transaction.Type, id.Short(ws.Transaction.ID),
				currency.Format(ws.Transaction.CurrencyCode, ws.Transaction.Amount))
			for _, u := range ws.AccountUpdates {
				fmt.Fprintf(out, "  %s balance %s\n", id.Short(u.ID), currency.Format(ws.Transaction.CurrencyCode, u.Balance))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "source account (required for expense and transfer)")
	cmd.Flags().StringVar(&to, "to", "", "destination account for transfers")
	cmd.Flags().StringVar(&category, "category", "", "category id")
	cmd.Flags().StringVar(&date, "date", "", "transaction date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&note, "note", "", "free-form note")
	cmd.Flags().StringVar(&curr, "currency", "", "currency code (defaults to the account's)")

	return cmd
}

func newTxListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List transactions by date",
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
			names := export.NamesFrom(accts, cats)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tTYPE\tAMOUNT\tACCOUNT\tTO\tCATEGORY\tNOTE")
			for _, tx := range txs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					id.Short(tx.ID), tx.TxDate.Format(dateFormat), tx.Type,
					currency.Format(tx.CurrencyCode, tx.Amount),
					names.Accounts[tx.AccountID], names.Accounts[tx.CounterAccountID],
					names.Categories[tx.CategoryID], tx.Note)
			}
			return tw.Flush()
		},
	}
}
