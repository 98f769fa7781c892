package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/pointecon/internal/engine"
	"github.com/roach88/pointecon/internal/model"
	"github.com/roach88/pointecon/internal/store"
)

// NewActivityCommand creates the activity command group.
func NewActivityCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Record and list ledger entries",
	}

	var (
		currency    string
		points      string
		description string
	)
	record := &cobra.Command{
		Use:   "record",
		Short: "Append a signed entry for the acting user",
		Long: `Append a signed entry for the acting user.

Manual entries are not balance-checked: negative points may take a
balance below zero.`,
		Example: `  pointecon activity record -e <economy> -u alice --currency <id> --points 2 --description "dishes"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			econ, err := requireEconomy(opts)
			if err != nil {
				return err
			}
			user, err := requireUser(opts)
			if err != nil {
				return err
			}
			pts, err := parseDecimal("points", points)
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, s *session) error {
				a, err := s.engine.RecordActivity(ctx, engine.ActivityInput{
					EconomyID:   econ,
					CurrencyID:  currency,
					UserID:      user,
					Description: description,
					Points:      pts,
				})
				if err != nil {
					return err
				}
				return s.out.Render(a, func(w io.Writer) { printActivities(w, []model.Activity{a}) })
			})
		},
	}
	record.Flags().StringVar(&currency, "currency", "", "currency id")
	record.Flags().StringVar(&points, "points", "", "signed points")
	record.Flags().StringVar(&description, "description", "", "what the entry is for")
	cmd.AddCommand(record)

	var filter store.ActivityFilter
	list := &cobra.Command{
		Use:   "list",
		Short: "List ledger entries, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			econ, err := requireEconomy(opts)
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, s *session) error {
				filter.EconomyID = econ
				entries, err := s.engine.ListActivities(ctx, filter)
				if err != nil {
					return err
				}
				return s.out.Render(entries, func(w io.Writer) { printActivities(w, entries) })
			})
		},
	}
	list.Flags().StringVar(&filter.CurrencyID, "currency", "", "only this currency")
	list.Flags().StringVar(&filter.UserID, "for", "", "only this user's entries")
	list.Flags().IntVar(&filter.Limit, "limit", 0, "maximum entries (0 = all)")
	list.Flags().BoolVar(&filter.Newest, "newest", false, "newest first")
	cmd.AddCommand(list)

	return cmd
}

func printActivities(w io.Writer, entries []model.Activity) {
	tw := table(w)
	fmt.Fprintln(tw, "ID\tWHEN\tUSER\tCURRENCY\tPOINTS\tDESCRIPTION")
	for _, a := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.CreatedAt.Format(time.RFC3339), a.CreatedBy, a.CurrencyID, signed(a.Points), a.Description)
	}
	tw.Flush()
}

func signed(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + d.String()
	}
	return d.String()
}

// NewBalanceCommand creates the balance command.
func NewBalanceCommand(opts *RootOptions) *cobra.Command {
	var currency, user string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show balances derived from the ledger",
		Long: `Show a user's balances. With --currency only that currency is shown;
otherwise every currency in the economy is listed, zero included.
--for defaults to the acting user.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			econ, err := requireEconomy(opts)
			if err != nil {
				return err
			}
			who := user
			if who == "" {
				if who, err = requireUser(opts); err != nil {
					return err
				}
			}
			return run(cmd, opts, func(ctx context.Context, s *session) error {
				if currency != "" {
					bal, err := s.engine.GetBalance(ctx, model.BalanceKey{EconomyID: econ, UserID: who, CurrencyID: currency})
					if err != nil {
						return err
					}
					data := map[string]decimal.Decimal{currency: bal}
					return s.out.Render(data, func(w io.Writer) { printBalances(w, who, data) })
				}
				balances, err := s.engine.Balances(ctx, econ, who)
				if err != nil {
					return err
				}
				return s.out.Render(balances, func(w io.Writer) { printBalances(w, who, balances) })
			})
		},
	}
	cmd.Flags().StringVar(&currency, "currency", "", "only this currency")
	cmd.Flags().StringVar(&user, "for", "", "whose balance (default --user)")
	return cmd
}

func printBalances(w io.Writer, user string, balances map[string]decimal.Decimal) {
	tw := table(w)
	fmt.Fprintln(tw, "USER\tCURRENCY\tBALANCE")
	for _, id := range sortedKeys(balances) {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", user, id, balances[id].String())
	}
	tw.Flush()
}

// NewSeriesCommand creates the series command.
func NewSeriesCommand(opts *RootOptions) *cobra.Command {
	var currency string

	cmd := &cobra.Command{
		Use:   "series",
		Short: "Daily totals and change rates per currency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			econ, err := requireEconomy(opts)
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, s *session) error {
				points, err := s.engine.DailySeries(ctx, econ, currency)
				if err != nil {
					return err
				}
				return s.out.Render(points, func(w io.Writer) { printSeries(w, points) })
			})
		},
	}
	cmd.Flags().StringVar(&currency, "currency", "", "only this currency")
	return cmd
}

func printSeries(w io.Writer, points []model.DailyPoint) {
	tw := table(w)
	fmt.Fprintln(tw, "CURRENCY\tDAY\tDELTA\tTOTAL\tCHANGE")
	for _, p := range points {
		change := "-"
		if p.ChangeRate != nil {
			change = p.ChangeRate.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.CurrencyID, p.Day, signed(p.Delta), p.Total.String(), change)
	}
	tw.Flush()
}
