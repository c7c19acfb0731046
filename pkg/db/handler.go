package db

import (
	"context"
	"database/sql"
)

// Handler is a database handler. Both *DB and *Tx satisfy it.
type Handler interface {
	SelectContext(context.Context, interface{}, string, ...interface{}) error
	GetContext(context.Context, interface{}, string, ...interface{}) error
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
}
