package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/pointecon/internal/engine"
	"github.com/roach88/pointecon/internal/model"
)

// NewButtonCommand creates the button command group.
func NewButtonCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "button",
		Short: "Manage one-tap activity presets",
	}

	var currency, label, points, color string
	addPresetFlags := func(c *cobra.Command) {
		c.Flags().StringVar(&currency, "currency", "", "currency id")
		c.Flags().StringVar(&label, "label", "", "label, used as the activity description")
		c.Flags().StringVar(&points, "points", "", "signed points per press")
		c.Flags().StringVar(&color, "color", "", "display color (default "+model.DefaultButtonColor+")")
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a preset",
		Args:  cobra.NoArgs,
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
				b, err := s.engine.CreateButton(ctx, engine.ButtonInput{
					EconomyID:  econ,
					CurrencyID: currency,
					Label:      label,
					Points:     pts,
					Color:      color,
					CreatedBy:  user,
				})
				if err != nil {
					return err
				}
				return s.out.Render(b, func(w io.Writer) { printButtons(w, []model.ActivityButton{b}) })
			})
		},
	}
	addPresetFlags(create)
	cmd.AddCommand(create)

	update := &cobra.Command{
		Use:   "update <button>",
		Short: "Rewrite a preset; past presses are unchanged",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			econ, err := requireEconomy(opts)
			if err != nil {
				return err
			}
			pts, err := parseDecimal("points", points)
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, s *session) error {
				b, err := s.engine.UpdateButton(ctx, econ, args[0], engine.ButtonUpdate{
					CurrencyID: currency,
					Label:      label,
					Points:     pts,
					Color:      color,
				})
				if err != nil {
					return err
				}
				return s.out.Render(b, func(w io.Writer) { printButtons(w, []model.ActivityButton{b}) })
			})
		},
	}
	addPresetFlags(update)
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <button>",
		Short: "Delete a preset; past presses stay in the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			econ, err := requireEconomy(opts)
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, s *session) error {
				if err := s.engine.DeleteButton(ctx, econ, args[0]); err != nil {
					return err
				}
				data := map[string]string{"deleted": args[0]}
				return s.out.Render(data, func(w io.Writer) { fmt.Fprintf(w, "deleted %s\n", args[0]) })
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			econ, err := requireEconomy(opts)
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, s *session) error {
				list, err := s.engine.ListButtons(ctx, econ)
				if err != nil {
					return err
				}
				return s.out.Render(list, func(w io.Writer) { printButtons(w, list) })
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "press <button>",
		Short: "Record the preset's activity for the acting user",
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
				a, err := s.engine.PressButton(ctx, econ, args[0], user)
				if err != nil {
					return err
				}
				return s.out.Render(a, func(w io.Writer) { printActivities(w, []model.Activity{a}) })
			})
		},
	})

	return cmd
}

func printButtons(w io.Writer, list []model.ActivityButton) {
	tw := table(w)
	fmt.Fprintln(tw, "ID\tLABEL\tCURRENCY\tPOINTS\tCOLOR")
	for _, b := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", b.ID, b.Label, b.CurrencyID, signed(b.Points), b.Color)
	}
	tw.Flush()
}
