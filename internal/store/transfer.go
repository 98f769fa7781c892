package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/pointecon/internal/model"
)

const transferColumns = `id, economy_id, currency_id, amount, memo, from_user, to_user, status, created_at, responded_at`

// TransferFilter scopes ListTransfers. Empty fields mean "all".
type TransferFilter struct {
	EconomyID string

	// UserID matches requests where the user is either sender or recipient.
	UserID string
	Status model.TransferStatus
}

// InsertTransfer stores a new transfer request.
func (q *Queries) InsertTransfer(ctx context.Context, t model.TransferRequest) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO transfer_requests
		(`+transferColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID,
		t.EconomyID,
		t.CurrencyID,
		t.Amount,
		toNullString(t.Memo),
		t.FromUser,
		t.ToUser,
		string(t.Status),
		toUnix(t.CreatedAt),
		toNullUnix(t.RespondedAt),
	)
	return classify("insert transfer", err)
}

// ReadTransfer retrieves a transfer request scoped to its economy.
// Returns ErrNotFound if it does not exist there.
func (q *Queries) ReadTransfer(ctx context.Context, economyID, id string) (model.TransferRequest, error) {
	row := q.q.QueryRowContext(ctx,
		"SELECT "+transferColumns+" FROM transfer_requests WHERE economy_id = ? AND id = ?",
		economyID, id,
	)
	t, err := scanTransfer(row)
	if err != nil {
		return model.TransferRequest{}, classify("read transfer", err)
	}
	return t, nil
}

// ListTransfers returns matching requests, newest first
// (created_at DESC, id DESC).
func (q *Queries) ListTransfers(ctx context.Context, f TransferFilter) ([]model.TransferRequest, error) {
	clauses := []string{"economy_id = ?"}
	args := []any{f.EconomyID}
	if f.UserID != "" {
		clauses = append(clauses, "(from_user = ? OR to_user = ?)")
		args = append(args, f.UserID, f.UserID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(f.Status))
	}

	rows, err := q.q.QueryContext(ctx,
		"SELECT "+transferColumns+" FROM transfer_requests WHERE "+strings.Join(clauses, " AND ")+
			" ORDER BY created_at DESC, id COLLATE BINARY DESC",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	defer rows.Close()

	transfers := []model.TransferRequest{}
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfers: %w", err)
	}
	return transfers, nil
}

// TransitionTransfer moves a request from one status to another and stamps
// responded_at. It is a compare-and-set: it returns false (and changes
// nothing) when the stored status is no longer from.
func (q *Queries) TransitionTransfer(
	ctx context.Context,
	economyID, id string,
	from, to model.TransferStatus,
	at time.Time,
) (bool, error) {
	res, err := q.q.ExecContext(ctx, `
		UPDATE transfer_requests
		SET status = ?, responded_at = ?
		WHERE economy_id = ? AND id = ? AND status = ?
	`, string(to), toUnix(at), economyID, id, string(from))
	return casResult("transition transfer", res, err)
}

func scanTransfer(s scanner) (model.TransferRequest, error) {
	var t model.TransferRequest
	var memo sql.NullString
	var status string
	var createdAt int64
	var respondedAt sql.NullInt64
	if err := s.Scan(
		&t.ID, &t.EconomyID, &t.CurrencyID, &t.Amount, &memo,
		&t.FromUser, &t.ToUser, &status, &createdAt, &respondedAt,
	); err != nil {
		return model.TransferRequest{}, err
	}
	t.Memo = fromNullString(memo)
	t.Status = model.TransferStatus(status)
	t.CreatedAt = fromUnix(createdAt)
	t.RespondedAt = fromNullUnix(respondedAt)
	return t, nil
}
