package repository

import (
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xenking/inventory-core/internal/domain/inventory"
)

// PostgreSQL SQLSTATE codes: class 23 (integrity constraint violation) and
// numeric overflow from class 22 (data exception).
const (
	pgErrNumericValueOutOfRange = "22003"
	pgErrNotNullViolation       = "23502"
	pgErrForeignKeyViolation    = "23503"
	pgErrUniqueViolation        = "23505"
	pgErrCheckViolation         = "23514"
)

// isConstraintViolation reports whether err is a referential or structural
// constraint failure raised by PostgreSQL, including a value that overflows
// its column type. Unique violations are excluded: the schema declares no
// uniqueness beyond identity.
func isConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgErrNotNullViolation, pgErrForeignKeyViolation, pgErrCheckViolation,
		pgErrNumericValueOutOfRange:
		return true
	default:
		return false
	}
}

// classifyWrite maps a failed insert, update or delete to the inventory
// taxonomy, keeping the driver error as the cause.
func classifyWrite(op string, err error) error {
	if isConstraintViolation(err) {
		return inventory.Fail(op, inventory.ErrConstraintViolation, err)
	}
	return inventory.Fail(op, inventory.ErrWriteFailure, err)
}
