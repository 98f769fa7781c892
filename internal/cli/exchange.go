package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/pointecon/internal/engine"
	"github.com/roach88/pointecon/internal/model"
	"github.com/roach88/pointecon/internal/store"
)

// NewExchangeCommand creates the exchange command group.
func NewExchangeCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exchange",
		Short: "Convert between currencies at a voted rate",
		Long: `Convert between currencies at a voted rate.

Members submit rates on an open request; finalizing settles it at the
mean of the current submissions.`,
	}

	var from, to, amount string
	create := &cobra.Command{
		Use:     "create",
		Short:   "Open an exchange request for the acting user",
		Example: `  pointecon exchange create -e <economy> -u alice --from <currency> --to <currency> --amount 10`,
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
			amt, err := parseDecimal("amount", amount)
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, s *session) error {
				x, err := s.engine.CreateExchange(ctx, engine.ExchangeInput{
					EconomyID:      econ,
					FromCurrencyID: from,
					ToCurrencyID:   to,
					AmountFrom:     amt,
					CreatedBy:      user,
				})
				if err != nil {
					return err
				}
				return s.out.Render(x, func(w io.Writer) { printExchanges(w, []model.ExchangeRequest{x}) })
			})
		},
	}
	create.Flags().StringVar(&from, "from", "", "currency to convert from")
	create.Flags().StringVar(&to, "to", "", "currency to convert into")
	create.Flags().StringVar(&amount, "amount", "", "positive amount of the from currency")
	cmd.AddCommand(create)

	var rate string
	submit := &cobra.Command{
		Use:   "rate <request>",
		Short: "Submit or replace the acting user's rate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			econ, err := requireEconomy(opts)
			if err != nil {
				return err
			}
			user, err := requireUser(opts)
			if err != nil {
				return err
			}
			r, err := parseDecimal("rate", rate)
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, s *session) error {
				sub, err := s.engine.SubmitRate(ctx, econ, args[0], user, r)
				if err != nil {
					return err
				}
				return s.out.Render(sub, func(w io.Writer) { printRates(w, []model.RateSubmission{sub}) })
			})
		},
	}
	submit.Flags().StringVar(&rate, "rate", "", "units of the to currency per unit of the from currency")
	cmd.AddCommand(submit)

	cmd.AddCommand(&cobra.Command{
		Use:   "rates <request>",
		Short: "List current rate submissions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			econ, err := requireEconomy(opts)
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, s *session) error {
				subs, err := s.engine.ListRateSubmissions(ctx, econ, args[0])
				if err != nil {
					return err
				}
				return s.out.Render(subs, func(w io.Writer) {
					printRates(w, subs)
					if len(subs) > 0 {
						fmt.Fprintf(w, "mean: %s\n", engine.MeanRate(subs).String())
					}
				})
			})
		},
	})

	cmd.AddCommand(exchangeAction(opts, "finalize", "Settle at the mean submitted rate", (*engine.Engine).FinalizeExchange))
	cmd.AddCommand(exchangeAction(opts, "cancel", "Cancel (creator only)", (*engine.Engine).CancelExchange))

	cmd.AddCommand(&cobra.Command{
		Use:   "show <request>",
		Short: "Show an exchange request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			econ, err := requireEconomy(opts)
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, s *session) error {
				x, err := s.engine.GetExchange(ctx, econ, args[0])
				if err != nil {
					return err
				}
				return s.out.Render(x, func(w io.Writer) { printExchanges(w, []model.ExchangeRequest{x}) })
			})
		},
	})

	var filter store.ExchangeFilter
	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List exchange requests, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			econ, err := requireEconomy(opts)
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, s *session) error {
				filter.EconomyID = econ
				filter.Status = model.ExchangeStatus(status)
				list, err := s.engine.ListExchanges(ctx, filter)
				if err != nil {
					return err
				}
				return s.out.Render(list, func(w io.Writer) { printExchanges(w, list) })
			})
		},
	}
	list.Flags().StringVar(&filter.CreatedBy, "by", "", "only requests created by this user")
	list.Flags().StringVar(&status, "status", "", "open|finalized|cancelled")
	cmd.AddCommand(list)

	return cmd
}

type exchangeFunc func(e *engine.Engine, ctx context.Context, economyID, requestID, actor string) (model.ExchangeRequest, error)

func exchangeAction(opts *RootOptions, name, short string, fn exchangeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <request>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			econ, err := requireEconomy(opts)
			if err != nil {
				return err
			}
			user, err := requireUser(opts)
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, s *session) error {
				x, err := fn(s.engine, ctx, econ, args[0], user)
				if err != nil {
					return err
				}
				return s.out.Render(x, func(w io.Writer) { printExchanges(w, []model.ExchangeRequest{x}) })
			})
		},
	}
}

func printExchanges(w io.Writer, list []model.ExchangeRequest) {
	tw := table(w)
	fmt.Fprintln(tw, "ID\tSTATUS\tBY\tFROM\tTO\tAMOUNT\tRATE\tRECEIVED")
	for _, x := range list {
		rate, received := "-", "-"
		if x.FinalRate != nil {
			rate = x.FinalRate.String()
		}
		if x.AmountTo != nil {
			received = x.AmountTo.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			x.ID, x.Status, x.CreatedBy, x.FromCurrencyID, x.ToCurrencyID, x.AmountFrom.String(), rate, received)
	}
	tw.Flush()
}

func printRates(w io.Writer, subs []model.RateSubmission) {
	tw := table(w)
	fmt.Fprintln(tw, "USER\tRATE")
	for _, s := range subs {
		fmt.Fprintf(tw, "%s\t%s\n", s.SubmittedBy, s.Rate.String())
	}
	tw.Flush()
}
