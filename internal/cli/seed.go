package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/pointecon/internal/seed"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <file.cue>",
		Short: "Create an economy from a CUE seed file",
		Long: `Create an economy with its currencies and buttons from a CUE seed file.

The file is validated against the seed schema before anything is written.

Example:
  pointecon seed --db ./family.db family.cue`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sd, err := seed.LoadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid seed file", err)
			}
			return run(cmd, opts, func(ctx context.Context, s *session) error {
				s.out.VerboseLog("Seeding %q: %d currencies, %d buttons", sd.Economy.Name, len(sd.Currencies), len(sd.Buttons))
				res, err := seed.Apply(ctx, s.engine, sd)
				if err != nil {
					return err
				}
				return s.out.Render(res, func(w io.Writer) {
					fmt.Fprintf(w, "economy %s (%s)\n", res.Economy.ID, res.Economy.Name)
					for _, key := range sortedKeys(res.Currencies) {
						c := res.Currencies[key]
						fmt.Fprintf(w, "  currency %s = %s (%s)\n", key, c.ID, c.Name)
					}
					for _, b := range res.Buttons {
						fmt.Fprintf(w, "  button %s = %s\n", b.Label, b.ID)
					}
				})
			})
		},
	}
	return cmd
}
