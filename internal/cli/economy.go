package cli

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/pointecon/internal/model"
)

// NewEconomyCommand creates the economy command group.
func NewEconomyCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "economy",
		Short: "Create and inspect economies",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create an economy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, s *session) error {
				econ, err := s.engine.CreateEconomy(ctx, args[0])
				if err != nil {
					return err
				}
				return s.out.Render(econ, func(w io.Writer) { printEconomy(w, econ) })
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List economies, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, s *session) error {
				list, err := s.engine.ListEconomies(ctx)
				if err != nil {
					return err
				}
				return s.out.Render(list, func(w io.Writer) {
					tw := table(w)
					fmt.Fprintln(tw, "ID\tNAME\tCREATED")
					for _, econ := range list {
						fmt.Fprintf(tw, "%s\t%s\t%s\n", econ.ID, econ.Name, econ.CreatedAt.Format(time.RFC3339))
					}
					tw.Flush()
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show an economy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, s *session) error {
				econ, err := s.engine.GetEconomy(ctx, args[0])
				if err != nil {
					return err
				}
				return s.out.Render(econ, func(w io.Writer) { printEconomy(w, econ) })
			})
		},
	})

	return cmd
}

func printEconomy(w io.Writer, econ model.Economy) {
	fmt.Fprintf(w, "%s\t%s\tcreated %s\n", econ.ID, econ.Name, econ.CreatedAt.Format(time.RFC3339))
}

// table returns a tabwriter for aligned text listings. Call Flush when done.
func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}
