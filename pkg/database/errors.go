package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

const (
	uniqueViolation           = pq.ErrorCode("23505")
	invalidTextRepresentation = pq.ErrorCode("22P02")
)

// IsUniqueViolation reports whether err is a Postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	return hasCode(err, uniqueViolation)
}

// IsInvalidTextRepresentation reports whether Postgres rejected a parameter it could not parse,
// such as a malformed UUID.
func IsInvalidTextRepresentation(err error) bool {
	return hasCode(err, invalidTextRepresentation)
}

// IsNotFound reports whether a single-row lookup matched nothing. A key that cannot be parsed
// as the column type cannot match a row either.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || IsInvalidTextRepresentation(err)
}

func hasCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == code
	}
	return false
}
