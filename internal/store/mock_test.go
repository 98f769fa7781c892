package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pointecon/internal/model"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return newStore(db), mock
}

func TestWithTx_BeginFailureIsConstraintViolation(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin().WillReturnError(errors.New("database is locked"))

	called := false
	err := s.WithTx(context.Background(), func(tx *Tx) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrConstraint)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_CommitFailureIsConstraintViolation(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("disk I/O error"))

	err := s.WithTx(context.Background(), func(tx *Tx) error { return nil })
	require.ErrorIs(t, err, ErrConstraint)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_DriverConstraintErrorIsClassified(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO activities").
		WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint})
	mock.ExpectRollback()

	err := s.Append(context.Background(), []model.Activity{
		createTestActivity("a1", "alice", testX, "1", testBase),
	})
	require.ErrorIs(t, err, ErrConstraint)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_OtherDriverErrorsPassThrough(t *testing.T) {
	s, mock := newMockStore(t)
	ioErr := errors.New("disk full")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO activities").WillReturnError(ioErr)
	mock.ExpectRollback()

	err := s.Append(context.Background(), []model.Activity{
		createTestActivity("a1", "alice", testX, "1", testBase),
	})
	require.ErrorIs(t, err, ioErr)
	assert.False(t, errors.Is(err, ErrConstraint))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_LockContentionIsConstraintViolation(t *testing.T) {
	codes := []sqlite3.ErrNo{sqlite3.ErrBusy, sqlite3.ErrLocked}
	for _, code := range codes {
		t.Run(code.Error(), func(t *testing.T) {
			s, mock := newMockStore(t)
			mock.ExpectBegin()
			mock.ExpectExec("INSERT INTO activities").
				WillReturnError(sqlite3.Error{Code: code})
			mock.ExpectRollback()

			err := s.Append(context.Background(), []model.Activity{
				createTestActivity("a1", "alice", testX, "1", testBase),
			})
			require.ErrorIs(t, err, ErrConstraint)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUpdateCurrencyDisplay_IsOneStatement(t *testing.T) {
	s, mock := newMockStore(t)
	rules, color := "r", "#123456"
	mock.ExpectExec("UPDATE currencies").
		WithArgs(true, rules, color, testEconomy, testX).
		WillReturnError(sqlite3.Error{Code: sqlite3.ErrBusy})

	err := s.UpdateCurrencyDisplay(context.Background(), testEconomy, testX, CurrencyDisplay{SetRules: true, Rules: &rules, Color: &color})
	require.ErrorIs(t, err, ErrConstraint)
	assert.NoError(t, mock.ExpectationsWereMet())
}
