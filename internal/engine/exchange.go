package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/pointecon/internal/model"
	"github.com/roach88/pointecon/internal/store"
)

// RatePrecision is the number of decimal places kept in a final rate.
// The mean is rounded half-up to this precision before amount_to is
// computed, so amount_to == amount_from * final_rate exactly.
const RatePrecision = 12

// ExchangeInput describes a new self-conversion request.
type ExchangeInput struct {
	EconomyID      string
	FromCurrencyID string
	ToCurrencyID   string
	AmountFrom     decimal.Decimal
	CreatedBy      string
}

// CreateExchange opens an exchange request. The balance check is advisory;
// FinalizeExchange repeats it inside the settlement transaction.
func (e *Engine) CreateExchange(ctx context.Context, in ExchangeInput) (_ model.ExchangeRequest, err error) {
	defer e.observe(ctx, "create_exchange", time.Now(), &err)

	if !in.AmountFrom.IsPositive() {
		return model.ExchangeRequest{}, newError(CodeInvalidAmount, "amount_from must be > 0, got %s", in.AmountFrom)
	}
	if in.FromCurrencyID == in.ToCurrencyID {
		return model.ExchangeRequest{}, newError(CodeSameCurrency, "from and to currency are both %s", in.FromCurrencyID)
	}
	if in.CreatedBy == "" {
		return model.ExchangeRequest{}, newError(CodeInvalidArgument, "user is required")
	}
	for _, id := range []string{in.FromCurrencyID, in.ToCurrencyID} {
		if _, err := e.store.ReadCurrency(ctx, in.EconomyID, id); err != nil {
			return model.ExchangeRequest{}, storeError("currency "+id, err)
		}
	}

	key := model.BalanceKey{EconomyID: in.EconomyID, UserID: in.CreatedBy, CurrencyID: in.FromCurrencyID}
	bal, err := e.projector.Balance(ctx, key)
	if err != nil {
		return model.ExchangeRequest{}, storeError("balance", err)
	}
	if bal.LessThan(in.AmountFrom) {
		return model.ExchangeRequest{}, insufficient("", bal, in.AmountFrom)
	}

	x := model.ExchangeRequest{
		ID:             e.ids.Generate(),
		EconomyID:      in.EconomyID,
		FromCurrencyID: in.FromCurrencyID,
		ToCurrencyID:   in.ToCurrencyID,
		AmountFrom:     in.AmountFrom,
		Status:         model.ExchangeOpen,
		CreatedBy:      in.CreatedBy,
		CreatedAt:      e.now(),
	}
	if err := e.store.InsertExchange(ctx, x); err != nil {
		return model.ExchangeRequest{}, storeError("create exchange", err)
	}

	e.log.InfoContext(ctx, "exchange created",
		"economy_id", x.EconomyID,
		"request_id", x.ID,
		"actor", x.CreatedBy,
		"amount_from", x.AmountFrom.String(),
	)
	return x, nil
}

// SubmitRate records submittedBy's rate for an open request. Any member may
// submit, including the requester. A repeat submission replaces the earlier
// rate, so retrying is safe.
func (e *Engine) SubmitRate(
	ctx context.Context,
	economyID, requestID, submittedBy string,
	rate decimal.Decimal,
) (_ model.RateSubmission, err error) {
	defer e.observe(ctx, "submit_rate", time.Now(), &err)

	if !rate.IsPositive() {
		return model.RateSubmission{}, requestError(CodeInvalidRate, requestID, "rate must be > 0, got %s", rate)
	}
	if submittedBy == "" {
		return model.RateSubmission{}, newError(CodeInvalidArgument, "user is required")
	}

	var stored model.RateSubmission
	err = e.store.WithTx(ctx, func(tx *store.Tx) error {
		x, err := e.loadExchange(ctx, tx, economyID, requestID)
		if err != nil {
			return err
		}
		if x.Status.Terminal() {
			return requestError(CodeInvalidState, x.ID, "exchange is %s", x.Status)
		}

		stored, err = tx.UpsertRateSubmission(ctx, model.RateSubmission{
			ID:          e.ids.Generate(),
			EconomyID:   economyID,
			RequestID:   x.ID,
			SubmittedBy: submittedBy,
			Rate:        rate,
			CreatedAt:   e.now(),
		})
		if err != nil {
			return storeError("submit rate", err)
		}
		return nil
	})
	if err != nil {
		return model.RateSubmission{}, storeError("submit rate", err)
	}

	e.log.InfoContext(ctx, "rate submitted",
		"economy_id", economyID,
		"request_id", requestID,
		"actor", submittedBy,
		"rate", rate.String(),
	)
	return stored, nil
}

// FinalizeExchange settles an open request at the mean of its current rate
// submissions. Any member may finalize; actor is recorded in the log only.
//
// The creator's from-currency balance is re-read inside the transaction. If
// it no longer covers amount_from the call fails INSUFFICIENT_FUNDS and the
// request stays open.
func (e *Engine) FinalizeExchange(ctx context.Context, economyID, requestID, actor string) (_ model.ExchangeRequest, err error) {
	defer e.observe(ctx, "finalize_exchange", time.Now(), &err)

	var settled model.ExchangeRequest
	var entries []model.Activity
	err = e.store.WithTx(ctx, func(tx *store.Tx) error {
		x, err := e.loadExchange(ctx, tx, economyID, requestID)
		if err != nil {
			return err
		}
		if x.Status.Terminal() {
			return requestError(CodeInvalidState, x.ID, "exchange is %s", x.Status)
		}

		subs, err := tx.ListRateSubmissions(ctx, economyID, x.ID)
		if err != nil {
			return storeError("list rate submissions", err)
		}
		if len(subs) == 0 {
			return requestError(CodeNoSubmissions, x.ID, "no rate submissions")
		}
		finalRate := MeanRate(subs)
		amountTo := x.AmountFrom.Mul(finalRate)

		bal, err := tx.SumPoints(ctx, model.BalanceKey{EconomyID: economyID, UserID: x.CreatedBy, CurrencyID: x.FromCurrencyID})
		if err != nil {
			return storeError("balance", err)
		}
		if bal.LessThan(x.AmountFrom) {
			return insufficient(x.ID, bal, x.AmountFrom)
		}

		now := e.now()
		entries = []model.Activity{
			{
				ID:          e.ids.Generate(),
				EconomyID:   economyID,
				CurrencyID:  x.FromCurrencyID,
				Description: "exchange " + x.ID + " out",
				Points:      x.AmountFrom.Neg(),
				CreatedBy:   x.CreatedBy,
				CreatedAt:   now,
			},
			{
				ID:          e.ids.Generate(),
				EconomyID:   economyID,
				CurrencyID:  x.ToCurrencyID,
				Description: "exchange " + x.ID + " in",
				Points:      amountTo,
				CreatedBy:   x.CreatedBy,
				CreatedAt:   now,
			},
		}
		if err := tx.Append(ctx, entries); err != nil {
			return storeError("append settlement", err)
		}

		ok, err := tx.FinalizeExchange(ctx, economyID, x.ID, finalRate, amountTo, now)
		if err != nil {
			return storeError("finalize exchange", err)
		}
		if !ok {
			return requestError(CodeInvalidState, x.ID, "exchange is no longer open")
		}

		x.Status = model.ExchangeFinalized
		x.FinalRate = &finalRate
		x.AmountTo = &amountTo
		x.FinalizedAt = &now
		settled = x
		return nil
	})
	if err != nil {
		return model.ExchangeRequest{}, storeError("finalize exchange", err)
	}
	e.appended(entries...)

	e.log.InfoContext(ctx, "exchange finalized",
		"economy_id", economyID,
		"request_id", settled.ID,
		"actor", actor,
		"final_rate", settled.FinalRate.String(),
		"amount_to", settled.AmountTo.String(),
	)
	return settled, nil
}

// CancelExchange withdraws an open request. Only the creator may cancel.
func (e *Engine) CancelExchange(ctx context.Context, economyID, requestID, actor string) (_ model.ExchangeRequest, err error) {
	defer e.observe(ctx, "cancel_exchange", time.Now(), &err)

	var cancelled model.ExchangeRequest
	err = e.store.WithTx(ctx, func(tx *store.Tx) error {
		x, err := e.loadExchange(ctx, tx, economyID, requestID)
		if err != nil {
			return err
		}
		if actor != x.CreatedBy {
			return requestError(CodeForbidden, x.ID, "only the creator may cancel")
		}
		if x.Status.Terminal() {
			return requestError(CodeInvalidState, x.ID, "exchange is %s", x.Status)
		}

		ok, err := tx.CancelExchange(ctx, economyID, x.ID)
		if err != nil {
			return storeError("cancel exchange", err)
		}
		if !ok {
			return requestError(CodeInvalidState, x.ID, "exchange is no longer open")
		}
		x.Status = model.ExchangeCancelled
		cancelled = x
		return nil
	})
	if err != nil {
		return model.ExchangeRequest{}, storeError("cancel exchange", err)
	}

	e.log.InfoContext(ctx, "exchange cancelled",
		"economy_id", economyID,
		"request_id", cancelled.ID,
		"actor", actor,
	)
	return cancelled, nil
}

// GetExchange retrieves an exchange request scoped to its economy.
func (e *Engine) GetExchange(ctx context.Context, economyID, requestID string) (_ model.ExchangeRequest, err error) {
	defer e.observe(ctx, "get_exchange", time.Now(), &err)
	return e.loadExchange(ctx, &e.store.Queries, economyID, requestID)
}

// ListExchanges returns matching requests, newest first.
func (e *Engine) ListExchanges(ctx context.Context, f store.ExchangeFilter) (_ []model.ExchangeRequest, err error) {
	defer e.observe(ctx, "list_exchanges", time.Now(), &err)

	if f.Status != "" && !f.Status.Valid() {
		return nil, newError(CodeInvalidArgument, "unknown exchange status %q", f.Status)
	}
	if err := e.requireEconomy(ctx, &e.store.Queries, f.EconomyID); err != nil {
		return nil, err
	}
	exchanges, err := e.store.ListExchanges(ctx, f)
	if err != nil {
		return nil, storeError("list exchanges", err)
	}
	return exchanges, nil
}

// ListRateSubmissions returns a request's current submissions, oldest first.
func (e *Engine) ListRateSubmissions(ctx context.Context, economyID, requestID string) (_ []model.RateSubmission, err error) {
	defer e.observe(ctx, "list_rate_submissions", time.Now(), &err)

	if _, err := e.loadExchange(ctx, &e.store.Queries, economyID, requestID); err != nil {
		return nil, err
	}
	subs, err := e.store.ListRateSubmissions(ctx, economyID, requestID)
	if err != nil {
		return nil, storeError("list rate submissions", err)
	}
	return subs, nil
}

// MeanRate returns the unweighted mean of the submitted rates rounded to
// RatePrecision places. subs must not be empty.
func MeanRate(subs []model.RateSubmission) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range subs {
		sum = sum.Add(s.Rate)
	}
	return sum.DivRound(decimal.NewFromInt(int64(len(subs))), RatePrecision)
}

type exchangeReader interface {
	ReadExchange(ctx context.Context, economyID, id string) (model.ExchangeRequest, error)
}

func (e *Engine) loadExchange(ctx context.Context, q exchangeReader, economyID, requestID string) (model.ExchangeRequest, error) {
	x, err := q.ReadExchange(ctx, economyID, requestID)
	if err != nil {
		return model.ExchangeRequest{}, withRequest(storeError("exchange "+requestID, err), requestID)
	}
	return x, nil
}
