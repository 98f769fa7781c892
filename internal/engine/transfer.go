package engine

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/pointecon/internal/model"
	"github.com/roach88/pointecon/internal/store"
)

// TransferInput describes a new peer-to-peer transfer request.
type TransferInput struct {
	EconomyID  string
	CurrencyID string
	FromUser   string
	ToUser     string
	Amount     decimal.Decimal
	Memo       string
}

// CreateTransfer opens a transfer request from FromUser to ToUser.
//
// The balance check here is advisory; AcceptTransfer repeats it against the
// ledger inside the settlement transaction.
func (e *Engine) CreateTransfer(ctx context.Context, in TransferInput) (_ model.TransferRequest, err error) {
	defer e.observe(ctx, "create_transfer", time.Now(), &err)

	if !in.Amount.IsPositive() {
		return model.TransferRequest{}, newError(CodeInvalidAmount, "amount must be > 0, got %s", in.Amount)
	}
	if in.FromUser == "" || in.ToUser == "" {
		return model.TransferRequest{}, newError(CodeInvalidArgument, "from_user and to_user are required")
	}
	if in.FromUser == in.ToUser {
		return model.TransferRequest{}, newError(CodeSelfTransfer, "cannot transfer to yourself")
	}
	if _, err := e.store.ReadCurrency(ctx, in.EconomyID, in.CurrencyID); err != nil {
		return model.TransferRequest{}, storeError("currency "+in.CurrencyID, err)
	}

	key := model.BalanceKey{EconomyID: in.EconomyID, UserID: in.FromUser, CurrencyID: in.CurrencyID}
	bal, err := e.projector.Balance(ctx, key)
	if err != nil {
		return model.TransferRequest{}, storeError("balance", err)
	}
	if bal.LessThan(in.Amount) {
		return model.TransferRequest{}, insufficient("", bal, in.Amount)
	}

	t := model.TransferRequest{
		ID:         e.ids.Generate(),
		EconomyID:  in.EconomyID,
		CurrencyID: in.CurrencyID,
		Amount:     in.Amount,
		Memo:       model.OptionalText(in.Memo),
		FromUser:   in.FromUser,
		ToUser:     in.ToUser,
		Status:     model.TransferOpen,
		CreatedAt:  e.now(),
	}
	if err := e.store.InsertTransfer(ctx, t); err != nil {
		return model.TransferRequest{}, storeError("create transfer", err)
	}

	e.log.InfoContext(ctx, "transfer created",
		"economy_id", t.EconomyID,
		"request_id", t.ID,
		"actor", t.FromUser,
		"to_user", t.ToUser,
		"amount", t.Amount.String(),
	)
	return t, nil
}

// AcceptTransfer settles an open transfer. Only ToUser may accept.
//
// The sender's balance is re-read inside the transaction. If it no longer
// covers the amount the call fails INSUFFICIENT_FUNDS and the request stays
// open. Otherwise the debit/credit pair and the status change commit
// together.
func (e *Engine) AcceptTransfer(ctx context.Context, economyID, requestID, actor string) (_ model.TransferRequest, err error) {
	defer e.observe(ctx, "accept_transfer", time.Now(), &err)

	var settled model.TransferRequest
	var entries []model.Activity
	err = e.store.WithTx(ctx, func(tx *store.Tx) error {
		t, err := e.loadTransfer(ctx, tx, economyID, requestID)
		if err != nil {
			return err
		}
		if actor != t.ToUser {
			return requestError(CodeForbidden, t.ID, "only the recipient may accept")
		}
		if t.Status.Terminal() {
			return requestError(CodeInvalidState, t.ID, "transfer is %s", t.Status)
		}

		bal, err := tx.SumPoints(ctx, model.BalanceKey{EconomyID: economyID, UserID: t.FromUser, CurrencyID: t.CurrencyID})
		if err != nil {
			return storeError("balance", err)
		}
		if bal.LessThan(t.Amount) {
			return insufficient(t.ID, bal, t.Amount)
		}

		now := e.now()
		entries = []model.Activity{
			{
				ID:          e.ids.Generate(),
				EconomyID:   economyID,
				CurrencyID:  t.CurrencyID,
				Description: transferDescription("transfer to "+t.ToUser, t.Memo),
				Points:      t.Amount.Neg(),
				CreatedBy:   t.FromUser,
				CreatedAt:   now,
			},
			{
				ID:          e.ids.Generate(),
				EconomyID:   economyID,
				CurrencyID:  t.CurrencyID,
				Description: transferDescription("transfer from "+t.FromUser, t.Memo),
				Points:      t.Amount,
				CreatedBy:   t.ToUser,
				CreatedAt:   now,
			},
		}
		if err := tx.Append(ctx, entries); err != nil {
			return storeError("append settlement", err)
		}
		if err := e.transition(ctx, tx, t, model.TransferAccepted, now); err != nil {
			return err
		}

		t.Status = model.TransferAccepted
		t.RespondedAt = &now
		settled = t
		return nil
	})
	if err != nil {
		return model.TransferRequest{}, storeError("accept transfer", err)
	}
	e.appended(entries...)

	e.log.InfoContext(ctx, "transfer accepted",
		"economy_id", economyID,
		"request_id", settled.ID,
		"actor", actor,
		"amount", settled.Amount.String(),
	)
	return settled, nil
}

// RejectTransfer closes an open transfer without ledger effect.
// Only ToUser may reject.
func (e *Engine) RejectTransfer(ctx context.Context, economyID, requestID, actor string) (_ model.TransferRequest, err error) {
	defer e.observe(ctx, "reject_transfer", time.Now(), &err)
	return e.closeTransfer(ctx, economyID, requestID, actor, model.TransferRejected)
}

// CancelTransfer withdraws an open transfer without ledger effect.
// Only FromUser may cancel.
func (e *Engine) CancelTransfer(ctx context.Context, economyID, requestID, actor string) (_ model.TransferRequest, err error) {
	defer e.observe(ctx, "cancel_transfer", time.Now(), &err)
	return e.closeTransfer(ctx, economyID, requestID, actor, model.TransferCancelled)
}

func (e *Engine) closeTransfer(
	ctx context.Context,
	economyID, requestID, actor string,
	to model.TransferStatus,
) (model.TransferRequest, error) {
	var closed model.TransferRequest
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		t, err := e.loadTransfer(ctx, tx, economyID, requestID)
		if err != nil {
			return err
		}
		switch to {
		case model.TransferRejected:
			if actor != t.ToUser {
				return requestError(CodeForbidden, t.ID, "only the recipient may reject")
			}
		case model.TransferCancelled:
			if actor != t.FromUser {
				return requestError(CodeForbidden, t.ID, "only the sender may cancel")
			}
		}
		if t.Status.Terminal() {
			return requestError(CodeInvalidState, t.ID, "transfer is %s", t.Status)
		}

		now := e.now()
		if err := e.transition(ctx, tx, t, to, now); err != nil {
			return err
		}
		t.Status = to
		t.RespondedAt = &now
		closed = t
		return nil
	})
	if err != nil {
		return model.TransferRequest{}, storeError("close transfer", err)
	}

	e.log.InfoContext(ctx, "transfer closed",
		"economy_id", economyID,
		"request_id", closed.ID,
		"actor", actor,
		"status", string(to),
	)
	return closed, nil
}

// GetTransfer retrieves a transfer request scoped to its economy.
func (e *Engine) GetTransfer(ctx context.Context, economyID, requestID string) (_ model.TransferRequest, err error) {
	defer e.observe(ctx, "get_transfer", time.Now(), &err)
	return e.loadTransfer(ctx, &e.store.Queries, economyID, requestID)
}

// ListTransfers returns matching requests, newest first.
func (e *Engine) ListTransfers(ctx context.Context, f store.TransferFilter) (_ []model.TransferRequest, err error) {
	defer e.observe(ctx, "list_transfers", time.Now(), &err)

	if f.Status != "" && !f.Status.Valid() {
		return nil, newError(CodeInvalidArgument, "unknown transfer status %q", f.Status)
	}
	if err := e.requireEconomy(ctx, &e.store.Queries, f.EconomyID); err != nil {
		return nil, err
	}
	transfers, err := e.store.ListTransfers(ctx, f)
	if err != nil {
		return nil, storeError("list transfers", err)
	}
	return transfers, nil
}

type transferReader interface {
	ReadTransfer(ctx context.Context, economyID, id string) (model.TransferRequest, error)
}

func (e *Engine) loadTransfer(ctx context.Context, q transferReader, economyID, requestID string) (model.TransferRequest, error) {
	t, err := q.ReadTransfer(ctx, economyID, requestID)
	if err != nil {
		return model.TransferRequest{}, withRequest(storeError("transfer "+requestID, err), requestID)
	}
	return t, nil
}

// transition compare-and-sets the status from open. Losing the race is
// INVALID_STATE.
func (e *Engine) transition(ctx context.Context, tx *store.Tx, t model.TransferRequest, to model.TransferStatus, at time.Time) error {
	ok, err := tx.TransitionTransfer(ctx, t.EconomyID, t.ID, model.TransferOpen, to, at)
	if err != nil {
		return storeError("transition transfer", err)
	}
	if !ok {
		return requestError(CodeInvalidState, t.ID, "transfer is no longer open")
	}
	return nil
}

func transferDescription(base string, memo *string) string {
	if memo == nil {
		return base
	}
	return base + ": " + *memo
}

func insufficient(requestID string, balance, amount decimal.Decimal) *Error {
	e := requestError(CodeInsufficientFunds, requestID, "balance %s is below %s", balance, amount)
	e.Details = map[string]string{
		"balance":  balance.String(),
		"required": amount.String(),
	}
	return e
}

// withRequest stamps a request id onto an engine error.
func withRequest(err error, requestID string) error {
	var e *Error
	if errors.As(err, &e) && e.RequestID == "" {
		e.RequestID = requestID
	}
	return err
}
