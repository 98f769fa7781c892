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

// NewTransferCommand creates the transfer command group.
func NewTransferCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Propose and settle peer-to-peer transfers",
		Long: `Propose and settle peer-to-peer transfers.

A transfer moves nothing until the recipient accepts it. The sender may
cancel and the recipient may reject while it is open.`,
	}

	var currency, to, amount, memo string
	create := &cobra.Command{
		Use:     "create",
		Short:   "Propose a transfer from the acting user",
		Example: `  pointecon transfer create -e <economy> -u alice --currency <id> --to bob --amount 4 --memo thanks`,
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
				t, err := s.engine.CreateTransfer(ctx, engine.TransferInput{
					EconomyID:  econ,
					CurrencyID: currency,
					FromUser:   user,
					ToUser:     to,
					Amount:     amt,
					Memo:       memo,
				})
				if err != nil {
					return err
				}
				return s.out.Render(t, func(w io.Writer) { printTransfers(w, []model.TransferRequest{t}) })
			})
		},
	}
	create.Flags().StringVar(&currency, "currency", "", "currency id")
	create.Flags().StringVar(&to, "to", "", "recipient user id")
	create.Flags().StringVar(&amount, "amount", "", "positive amount")
	create.Flags().StringVar(&memo, "memo", "", "optional note")
	cmd.AddCommand(create)

	cmd.AddCommand(transferAction(opts, "accept", "Accept and settle (recipient only)", (*engine.Engine).AcceptTransfer))
	cmd.AddCommand(transferAction(opts, "reject", "Reject (recipient only)", (*engine.Engine).RejectTransfer))
	cmd.AddCommand(transferAction(opts, "cancel", "Cancel (sender only)", (*engine.Engine).CancelTransfer))

	cmd.AddCommand(&cobra.Command{
		Use:   "show <request>",
		Short: "Show a transfer request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			econ, err := requireEconomy(opts)
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, s *session) error {
				t, err := s.engine.GetTransfer(ctx, econ, args[0])
				if err != nil {
					return err
				}
				return s.out.Render(t, func(w io.Writer) { printTransfers(w, []model.TransferRequest{t}) })
			})
		},
	})

	var filter store.TransferFilter
	var status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List transfer requests, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			econ, err := requireEconomy(opts)
			if err != nil {
				return err
			}
			return run(cmd, opts, func(ctx context.Context, s *session) error {
				filter.EconomyID = econ
				filter.Status = model.TransferStatus(status)
				list, err := s.engine.ListTransfers(ctx, filter)
				if err != nil {
					return err
				}
				return s.out.Render(list, func(w io.Writer) { printTransfers(w, list) })
			})
		},
	}
	list.Flags().StringVar(&filter.UserID, "for", "", "requests where this user is sender or recipient")
	list.Flags().StringVar(&status, "status", "", "open|accepted|rejected|cancelled")
	cmd.AddCommand(list)

	return cmd
}

type transferFunc func(e *engine.Engine, ctx context.Context, economyID, requestID, actor string) (model.TransferRequest, error)

func transferAction(opts *RootOptions, name, short string, fn transferFunc) *cobra.Command {
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
				t, err := fn(s.engine, ctx, econ, args[0], user)
				if err != nil {
					return err
				}
				return s.out.Render(t, func(w io.Writer) { printTransfers(w, []model.TransferRequest{t}) })
			})
		},
	}
}

func printTransfers(w io.Writer, list []model.TransferRequest) {
	tw := table(w)
	fmt.Fprintln(tw, "ID\tSTATUS\tFROM\tTO\tCURRENCY\tAMOUNT\tMEMO")
	for _, t := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Status, t.FromUser, t.ToUser, t.CurrencyID, t.Amount.String(), orDash(t.Memo))
	}
	tw.Flush()
}
