package repositories

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes we branch on.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// IsSerializationFailure reports whether err is a PostgreSQL
// serialization failure. Callers retry the whole operation from a clean
// read when this is true.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgSerializationFailure
}

// nullString maps empty strings to SQL NULL.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullUUID maps nil UUID pointers through unchanged for pgx binding.
func nullUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}

// jsonbValue marshals a value for a JSONB column, mapping nil to SQL NULL.
func jsonbValue(v any) any {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
