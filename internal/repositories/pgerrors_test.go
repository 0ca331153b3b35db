package repositories

import (
	"errors"
	"fmt"
	"testing"

	apperrors "crewpay/internal/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapLedgerGuard(t *testing.T) {
	guard := &pgconn.PgError{Code: pgRaiseException, Message: ledgerImmutableMessage}

	err := mapLedgerGuard(fmt.Errorf("exec: %w", guard))
	assert.ErrorIs(t, err, ErrLedgerImmutable)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	other := &pgconn.PgError{Code: pgRaiseException, Message: "something else"}
	assert.Same(t, other, mapLedgerGuard(other))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, mapLedgerGuard(plain))
	assert.NoError(t, mapLedgerGuard(nil))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgUniqueViolation})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: pgRaiseException}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}
