package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a lookup or delete matches no row.
var ErrNotFound = errors.New("row not found")

// IsIntegrityViolation reports whether err is a Postgres integrity constraint
// violation (class 23, e.g. NOT NULL or foreign key) or data exception (class 22).
func IsIntegrityViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return len(pgErr.Code) == 5 && (pgErr.Code[:2] == "23" || pgErr.Code[:2] == "22")
}
