// Package purge removes users and teams straight from the Mattermost
// database. This is the maintenance boundary: nothing here goes through
// the REST API, and every delete is permanent.
package purge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/despuyt/mmsync/pkg/db"
)

// ErrNotFound is returned when the identifier matches no row.
var ErrNotFound = errors.New("not found")

// Purger executes hard deletes against the Mattermost schema.
type Purger struct {
	db     db.Handler
	logger *log.Logger
}

// NewPurger returns a Purger using the given database handler.
func NewPurger(h db.Handler, logger *log.Logger) *Purger {
	return &Purger{
		db:     h,
		logger: logger.WithPrefix("purge"),
	}
}

// tableExists reports whether a table exists in the public schema. The
// Mattermost schema has shifted tables across versions, so deletes are
// guarded rather than assumed.
func (p *Purger) tableExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := p.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.tables
			WHERE table_schema = 'public'
			  AND table_name = $1
		)`, strings.ToLower(name))
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return exists, nil
}
