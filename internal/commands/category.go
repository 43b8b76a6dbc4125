package commands

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/tracker"
)

func newCategoryCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage categories",
	}
	cmd.AddCommand(newCategoryAddCommand(opts))
	cmd.AddCommand(newCategoryMoveCommand(opts))
	cmd.AddCommand(newCategoryListCommand(opts))
	return cmd
}

func newCategoryAddCommand(opts *rootOptions) *cobra.Command {
	var (
		typ    string
		parent string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category at the end of its list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts.dir)
			if err != nil {
				return err
			}
			defer a.Close()

			p := tracker.NewCategoryParams{Name: args[0]}
			if parent != "" {
				pc, err := a.resolveCategory(ctx, parent)
				if err != nil {
					return err
				}
				p.ParentID = pc.ID
				p.Type = pc.Type
			}
			if cmd.Flags().Changed("type") || p.ParentID == "" {
				t, err := model.ParseCategoryType(typ)
				if err != nil {
					return err
				}
				p.Type = t
			}

			cat, err := a.svc.CreateCategory(ctx, a.owner(), p)
			if err != nil {
				return refused(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created category %s %s\n", cat.ID, cat.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&typ, "type", string(model.CategoryTypeExpense), "category type (expense, income)")
	cmd.Flags().StringVar(&parent, "parent", "", "parent category id")

	return cmd
}

func newCategoryMoveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <position>",
		Short: "Move a category to a zero-based position among its siblings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid position %q", args[1])
			}

			ctx := cmd.Context()
			a, err := openApp(ctx, opts.dir)
			if err != nil {
				return err
			}
			defer a.Close()

			cat, err := a.resolveCategory(ctx, args[0])
			if err != nil {
				return err
			}

			plan, err := a.svc.MoveCategory(ctx, a.owner(), cat.ID, index)
			if err != nil {
				return refused(err)
			}

			out := cmd.OutOrStdout()
			switch {
			case plan.IsNoop():
				fmt.Fprintf(out, "%s is already at position %d\n", cat.Name, index)
			case plan.Rebalanced:
				fmt.Fprintf(out, "Moved %s to position %d (renumbered %d siblings)\n", cat.Name, index, len(plan.Writes))
			default:
				fmt.Fprintf(out, "Moved %s to position %d\n", cat.Name, index)
			}
			return nil
		},
	}
}

func newCategoryListCommand(opts *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts.dir)
			if err != nil {
				return err
			}
			defer a.Close()

			cats, err := a.svc.Categories(ctx, a.owner())
			if err != nil {
				return err
			}

			children := make(map[string][]model.Category)
			var roots []model.Category
			for _, c := range cats {
				if c.IsArchived && !all {
					continue
				}
				if c.ParentID == "" {
					roots = append(roots, c)
				} else {
					children[c.ParentID] = append(children[c.ParentID], c)
				}
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTYPE")
			for _, r := range roots {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", id.Short(r.ID), r.Name, r.Type)
				for _, c := range children[r.ID] {
					fmt.Fprintf(tw, "%s\t  %s\t%s\n", id.Short(c.ID), c.Name, c.Type)
				}
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include archived categories")

	return cmd
}
