package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/currency"
	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/tracker"
)

const dateFormat = "2006-01-02"

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

func newAccountCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newAccountAddCommand(opts))
	cmd.AddCommand(newAccountUpdateCommand(opts))
	cmd.AddCommand(newAccountListCommand(opts))
	return cmd
}

// accountFields are the type-specific flags shared by add and update.
type accountFields struct {
	target     string
	targetDate string
	debtAmount string
	dueDate    string
	owedToMe   bool
}

func (f *accountFields) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.target, "target", "", "savings target amount")
	cmd.Flags().StringVar(&f.targetDate, "target-date", "", "savings target date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.debtAmount, "debt-amount", "", "initial debt amount")
	cmd.Flags().StringVar(&f.dueDate, "due-date", "", "debt due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&f.owedToMe, "owed-to-me", false, "the debt is owed to you")
}

func newAccountAddCommand(opts *rootOptions) *cobra.Command {
	var (
		typ    string
		curr   string
		fields accountFields
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts.dir)
			if err != nil {
				return err
			}
			defer a.Close()

			accountType, err := model.ParseAccountType(typ)
			if err != nil {
				return err
			}
			code := a.cfg.Ledger.DefaultCurrency
			if curr != "" {
				code = currency.Normalize(curr)
			}

			p := tracker.NewAccountParams{Name: args[0], Type: accountType, CurrencyCode: code}
			if err := fields.applyToParams(cmd, code, &p); err != nil {
				return err
			}

			acct, err := a.svc.CreateAccount(ctx, a.owner(), p)
			if err != nil {
				return refused(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created account %s %s (%s, %s)\n", acct.ID, acct.Name, acct.Type, acct.CurrencyCode)
			return nil
		},
	}

	cmd.Flags().StringVar(&typ, "type", string(model.AccountTypePayment), "account type (payment, saving, debt)")
	cmd.Flags().StringVar(&curr, "currency", "", "currency code (defaults to ledger.default_currency)")
	fields.register(cmd)

	return cmd
}

func (f *accountFields) applyToParams(cmd *cobra.Command, code string, p *tracker.NewAccountParams) error {
	flags := cmd.Flags()
	if flags.Changed("target") {
		v, err := currency.ParseMinor(code, f.target)
		if err != nil {
			return err
		}
		p.SavingsTargetAmount = &v
	}
	if flags.Changed("target-date") {
		d, err := parseDate(f.targetDate)
		if err != nil {
			return err
		}
		p.SavingsTargetDate = &d
	}
	if flags.Changed("debt-amount") {
		v, err := currency.ParseMinor(code, f.debtAmount)
		if err != nil {
			return err
		}
		p.DebtInitialAmount = &v
	}
	if flags.Changed("due-date") {
		d, err := parseDate(f.dueDate)
		if err != nil {
			return err
		}
		p.DebtDueDate = &d
	}
	if flags.Changed("owed-to-me") {
		v := f.owedToMe
		p.DebtIsOwedToMe = &v
	}
	return nil
}

func newAccountUpdateCommand(opts *rootOptions) *cobra.Command {
	var (
		name      string
		typ       string
		curr      string
		fields    accountFields
		clearList []string
		archive   bool
		unarchive bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if archive && unarchive {
				return fmt.Errorf("--archive and --unarchive are mutually exclusive")
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, opts.dir)
			if err != nil {
				return err
			}
			defer a.Close()

			acct, err := a.resolveAccount(ctx, args[0])
			if err != nil {
				return err
			}

			var patch ledger.AccountPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("type") {
				t, err := model.ParseAccountType(typ)
				if err != nil {
					return err
				}
				patch.Type = &t
			}
			code := acct.CurrencyCode
			if flags.Changed("currency") {
				code = currency.Normalize(curr)
				patch.CurrencyCode = &code
			}
			if err := fields.applyToPatch(cmd, code, clearList, &patch); err != nil {
				return err
			}
			if archive || unarchive {
				v := archive
				patch.IsArchived = &v
			}

			updated, err := a.svc.UpdateAccount(ctx, a.owner(), acct.ID, patch)
			if err != nil {
				return refused(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated account %s %s\n", id.Short(updated.ID), updated.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&typ, "type", "", "new account type")
	cmd.Flags().StringVar(&curr, "currency", "", "new currency code")
	fields.register(cmd)
	cmd.Flags().StringSliceVar(&clearList, "clear", nil, "fields to clear: target, target-date, debt-amount, due-date, owed-to-me")
	cmd.Flags().BoolVar(&archive, "archive", false, "archive the account")
	cmd.Flags().BoolVar(&unarchive, "unarchive", false, "unarchive the account")

	return cmd
}

func (f *accountFields) applyToPatch(cmd *cobra.Command, code string, clearList []string, patch *ledger.AccountPatch) error {
	var p tracker.NewAccountParams
	if err := f.applyToParams(cmd, code, &p); err != nil {
		return err
	}
	if p.SavingsTargetAmount != nil {
		patch.SavingsTargetAmount = ledger.Set(*p.SavingsTargetAmount)
	}
	if p.SavingsTargetDate != nil {
		patch.SavingsTargetDate = ledger.Set(*p.SavingsTargetDate)
	}
	if p.DebtInitialAmount != nil {
		patch.DebtInitialAmount = ledger.Set(*p.DebtInitialAmount)
	}
	if p.DebtDueDate != nil {
		patch.DebtDueDate = ledger.Set(*p.DebtDueDate)
	}
	if p.DebtIsOwedToMe != nil {
		patch.DebtIsOwedToMe = ledger.Set(*p.DebtIsOwedToMe)
	}

	for _, field := range clearList {
		if cmd.Flags().Changed(field) {
			return fmt.Errorf("cannot both set and clear %s", field)
		}
		switch field {
		case "target":
			patch.SavingsTargetAmount = ledger.Clear[int64]()
		case "target-date":
			patch.SavingsTargetDate = ledger.Clear[time.Time]()
		case "debt-amount":
			patch.DebtInitialAmount = ledger.Clear[int64]()
		case "due-date":
			patch.DebtDueDate = ledger.Clear[time.Time]()
		case "owed-to-me":
			patch.DebtIsOwedToMe = ledger.Clear[bool]()
		default:
			return fmt.Errorf("unknown field %q for --clear", field)
		}
	}
	return nil
}

func newAccountListCommand(opts *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts and balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts.dir)
			if err != nil {
				return err
			}
			defer a.Close()

			return listAccounts(ctx, a, cmd.OutOrStdout(), all)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include archived accounts")

	return cmd
}

func listAccounts(ctx context.Context, a *app, out io.Writer, all bool) error {
	accts, err := a.svc.Accounts(ctx, a.owner())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tBALANCE\tSTATUS")
	for _, acct := range accts {
		if acct.IsArchived && !all {
			continue
		}
		status := "active"
		if acct.IsArchived {
			status = "archived"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			id.Short(acct.ID), acct.Name, acct.Type, currency.Format(acct.CurrencyCode, acct.Balance), status)
	}
	return tw.Flush()
}
