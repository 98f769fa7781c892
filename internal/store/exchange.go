package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/pointecon/internal/model"
)

const exchangeColumns = `id, economy_id, from_currency_id, to_currency_id, amount_from, status, created_by, created_at, finalized_at, final_rate, amount_to`

// ExchangeFilter scopes ListExchanges. Empty fields mean "all".
type ExchangeFilter struct {
	EconomyID string
	CreatedBy string
	Status    model.ExchangeStatus
}

// InsertExchange stores a new exchange request.
func (q *Queries) InsertExchange(ctx context.Context, x model.ExchangeRequest) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO exchange_requests
		(`+exchangeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		x.ID,
		x.EconomyID,
		x.FromCurrencyID,
		x.ToCurrencyID,
		x.AmountFrom,
		string(x.Status),
		x.CreatedBy,
		toUnix(x.CreatedAt),
		toNullUnix(x.FinalizedAt),
		toNullDecimal(x.FinalRate),
		toNullDecimal(x.AmountTo),
	)
	return classify("insert exchange", err)
}

// ReadExchange retrieves an exchange request scoped to its economy.
// Returns ErrNotFound if it does not exist there.
func (q *Queries) ReadExchange(ctx context.Context, economyID, id string) (model.ExchangeRequest, error) {
	row := q.q.QueryRowContext(ctx,
		"SELECT "+exchangeColumns+" FROM exchange_requests WHERE economy_id = ? AND id = ?",
		economyID, id,
	)
	x, err := scanExchange(row)
	if err != nil {
		return model.ExchangeRequest{}, classify("read exchange", err)
	}
	return x, nil
}

// ListExchanges returns matching requests, newest first
// (created_at DESC, id DESC).
func (q *Queries) ListExchanges(ctx context.Context, f ExchangeFilter) ([]model.ExchangeRequest, error) {
	clauses := []string{"economy_id = ?"}
	args := []any{f.EconomyID}
	if f.CreatedBy != "" {
		clauses = append(clauses, "created_by = ?")
		args = append(args, f.CreatedBy)
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(f.Status))
	}

	rows, err := q.q.QueryContext(ctx,
		"SELECT "+exchangeColumns+" FROM exchange_requests WHERE "+strings.Join(clauses, " AND ")+
			" ORDER BY created_at DESC, id COLLATE BINARY DESC",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}
	defer rows.Close()

	exchanges := []model.ExchangeRequest{}
	for rows.Next() {
		x, err := scanExchange(rows)
		if err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		exchanges = append(exchanges, x)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchanges: %w", err)
	}
	return exchanges, nil
}

// CancelExchange moves an open request to cancelled. Compare-and-set:
// returns false when the request is no longer open.
func (q *Queries) CancelExchange(ctx context.Context, economyID, id string) (bool, error) {
	res, err := q.q.ExecContext(ctx, `
		UPDATE exchange_requests SET status = ?
		WHERE economy_id = ? AND id = ? AND status = ?
	`, string(model.ExchangeCancelled), economyID, id, string(model.ExchangeOpen))
	return casResult("cancel exchange", res, err)
}

// FinalizeExchange fixes the settlement figures and moves an open request to
// finalized. Compare-and-set: returns false when the request is no longer open.
func (q *Queries) FinalizeExchange(
	ctx context.Context,
	economyID, id string,
	finalRate, amountTo decimal.Decimal,
	at time.Time,
) (bool, error) {
	res, err := q.q.ExecContext(ctx, `
		UPDATE exchange_requests
		SET status = ?, final_rate = ?, amount_to = ?, finalized_at = ?
		WHERE economy_id = ? AND id = ? AND status = ?
	`,
		string(model.ExchangeFinalized), finalRate, amountTo, toUnix(at),
		economyID, id, string(model.ExchangeOpen),
	)
	return casResult("finalize exchange", res, err)
}

// UpsertRateSubmission records a member's rate for a request. A second
// submission from the same member replaces the rate and timestamp of the
// existing row (keeping its ID) instead of adding a row. Returns the stored row.
func (q *Queries) UpsertRateSubmission(ctx context.Context, r model.RateSubmission) (model.RateSubmission, error) {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO exchange_rate_submissions
		(id, economy_id, request_id, submitted_by, rate, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(request_id, submitted_by) DO UPDATE SET
			rate = excluded.rate,
			created_at = excluded.created_at
	`, r.ID, r.EconomyID, r.RequestID, r.SubmittedBy, r.Rate, toUnix(r.CreatedAt))
	if err != nil {
		return model.RateSubmission{}, classify("upsert rate submission", err)
	}

	row := q.q.QueryRowContext(ctx, `
		SELECT id, economy_id, request_id, submitted_by, rate, created_at
		FROM exchange_rate_submissions
		WHERE request_id = ? AND submitted_by = ?
	`, r.RequestID, r.SubmittedBy)
	stored, err := scanRateSubmission(row)
	if err != nil {
		return model.RateSubmission{}, classify("read rate submission", err)
	}
	return stored, nil
}

// ListRateSubmissions returns the current submissions for a request ordered
// by created_at ASC, id ASC.
func (q *Queries) ListRateSubmissions(ctx context.Context, economyID, requestID string) ([]model.RateSubmission, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT id, economy_id, request_id, submitted_by, rate, created_at
		FROM exchange_rate_submissions
		WHERE economy_id = ? AND request_id = ?
		ORDER BY created_at ASC, id COLLATE BINARY ASC
	`, economyID, requestID)
	if err != nil {
		return nil, fmt.Errorf("query rate submissions: %w", err)
	}
	defer rows.Close()

	subs := []model.RateSubmission{}
	for rows.Next() {
		r, err := scanRateSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rate submission: %w", err)
		}
		subs = append(subs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rate submissions: %w", err)
	}
	return subs, nil
}

func casResult(op string, res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, classify(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: rows affected: %w", op, err)
	}
	return n == 1, nil
}

func scanExchange(s scanner) (model.ExchangeRequest, error) {
	var x model.ExchangeRequest
	var status string
	var createdAt int64
	var finalizedAt sql.NullInt64
	var finalRate, amountTo decimal.NullDecimal
	if err := s.Scan(
		&x.ID, &x.EconomyID, &x.FromCurrencyID, &x.ToCurrencyID, &x.AmountFrom,
		&status, &x.CreatedBy, &createdAt, &finalizedAt, &finalRate, &amountTo,
	); err != nil {
		return model.ExchangeRequest{}, err
	}
	x.Status = model.ExchangeStatus(status)
	x.CreatedAt = fromUnix(createdAt)
	x.FinalizedAt = fromNullUnix(finalizedAt)
	x.FinalRate = fromNullDecimal(finalRate)
	x.AmountTo = fromNullDecimal(amountTo)
	return x, nil
}

func scanRateSubmission(s scanner) (model.RateSubmission, error) {
	var r model.RateSubmission
	var createdAt int64
	if err := s.Scan(&r.ID, &r.EconomyID, &r.RequestID, &r.SubmittedBy, &r.Rate, &createdAt); err != nil {
		return model.RateSubmission{}, err
	}
	r.CreatedAt = fromUnix(createdAt)
	return r, nil
}
