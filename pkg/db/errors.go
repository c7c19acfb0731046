package db

import (
	"database/sql"
	"errors"
)

// ErrRecordNotFound is returned when a query matches no rows.
var ErrRecordNotFound = errors.New("record not found")

// WrapError translates driver errors into package errors.
func WrapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRecordNotFound
	}
	return err
}
