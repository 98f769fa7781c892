package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/pointecon/internal/engine"
	"github.com/roach88/pointecon/internal/model"
)

// NewCurrencyCommand creates the currency command group.
func NewCurrencyCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "currency",
		Short: "Manage an economy's currencies",
	}

	var in engine.CurrencyInput
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a currency",
		Example: `  pointecon currency create -e <economy> -u alice --name Stars --symbol S
  pointecon currency create -e <economy> -u alice --name Moons --symbol M --color "#6b21a8"`,
		Args: cobra.NoArgs,
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
				in.EconomyID, in.CreatedBy = econ, user
				c, err := s.engine.CreateCurrency(ctx, in)
				if err != nil {
					return err
				}
				return s.out.Render(c, func(w io.Writer) { printCurrencies(w, []model.Currency{c}) })
			})
		},
	}
	create.Flags().StringVar(&in.Name, "name", "", "currency name")
	create.Flags().StringVar(&in.Symbol, "symbol", "", "display symbol")
	create.Flags().StringVar(&in.Rules, "rules", "", "free-text earning rules")
	create.Flags().StringVar(&in.Color, "color", "", "display color (default "+model.DefaultCurrencyColor+")")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List currencies in creation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			econ, err := requireEconomy(opts)
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, s *session) error {
				list, err := s.engine.ListCurrencies(ctx, econ)
				if err != nil {
					return err
				}
				return s.out.Render(list, func(w io.Writer) { printCurrencies(w, list) })
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <currency>",
		Short: "Show one currency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			econ, err := requireEconomy(opts)
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, s *session) error {
				c, err := s.engine.GetCurrency(ctx, econ, args[0])
				if err != nil {
					return err
				}
				return s.out.Render(c, func(w io.Writer) { printCurrencies(w, []model.Currency{c}) })
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-rules <currency> <rules>",
		Short: "Replace a currency's rules (empty clears them)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			econ, err := requireEconomy(opts)
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, s *session) error {
				c, err := s.engine.UpdateCurrencyRules(ctx, econ, args[0], args[1])
				if err != nil {
					return err
				}
				return s.out.Render(c, func(w io.Writer) { printCurrencies(w, []model.Currency{c}) })
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-color <currency> <color>",
		Short: "Replace a currency's display color (empty resets it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			econ, err := requireEconomy(opts)
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, s *session) error {
				c, err := s.engine.UpdateCurrencyColor(ctx, econ, args[0], args[1])
				if err != nil {
					return err
				}
				return s.out.Render(c, func(w io.Writer) { printCurrencies(w, []model.Currency{c}) })
			})
		},
	})

	return cmd
}

func printCurrencies(w io.Writer, list []model.Currency) {
	tw := table(w)
	fmt.Fprintln(tw, "ID\tNAME\tSYMBOL\tCOLOR\tRULES")
	for _, c := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Symbol, c.Color, orDash(c.Rules))
	}
	tw.Flush()
}
