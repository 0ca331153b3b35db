package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"
	pgRaiseException  = "P0001"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// IsLedgerImmutableViolation reports whether err came from the ledger guard
// trigger refusing an UPDATE or DELETE.
func IsLedgerImmutableViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgRaiseException && pgErr.Message == ledgerImmutableMessage
}

// mapLedgerGuard turns a ledger guard rejection into ErrLedgerImmutable and
// passes every other error through.
func mapLedgerGuard(err error) error {
	if IsLedgerImmutableViolation(err) {
		return ErrLedgerImmutable
	}
	return err
}
