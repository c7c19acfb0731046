package purge

import (
	"context"
	"errors"
	"fmt"

	"github.com/despuyt/mmsync/pkg/db"
)

// User is the subset of the Users row a purge needs.
type User struct {
	ID       string `db:"id"`
	Username string `db:"username"`
	Email    string `db:"email"`
}

// userTable names a table holding user-owned rows and the column that
// references the user. Order matters: memberships and sessions go before
// content.
type userTable struct {
	name   string
	column string
}

var userTables = []userTable{
	{"ChannelMembers", "UserId"},
	{"TeamMembers", "UserId"},
	{"Sessions", "UserId"},
	{"Preferences", "UserId"},
	{"Status", "UserId"},
	{"Audits", "UserId"},
	{"UserAccessTokens", "UserId"},
	{"GroupMembers", "UserId"},
	{"Posts", "UserId"},
	{"Reactions", "UserId"},
	{"FileInfo", "CreatorId"},
}

// FindUser looks up a user row by username or email.
func (p *Purger) FindUser(ctx context.Context, identifier string) (User, error) {
	var u User
	err := p.db.GetContext(ctx, &u,
		"SELECT Id, Username, Email FROM Users WHERE Username = $1 OR Email = $1",
		identifier)
	if err != nil {
		if errors.Is(db.WrapError(err), db.ErrRecordNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

// User permanently deletes a user and all rows referencing it. Tables
// missing from the schema are skipped; a failed delete on one table is
// logged and does not stop the rest.
func (p *Purger) User(ctx context.Context, identifier string) error {
	u, err := p.FindUser(ctx, identifier)
	if err != nil {
		return err
	}

	p.logger.Info("found user", "id", u.ID, "username", u.Username, "email", u.Email)

	for _, t := range userTables {
		exists, err := p.tableExists(ctx, t.name)
		if err != nil {
			return err
		}
		if !exists {
			p.logger.Debug("skipping missing table", "table", t.name)
			continue
		}

		query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", t.name, t.column)
		if _, err := p.db.ExecContext(ctx, query, u.ID); err != nil {
			p.logger.Warn("delete failed", "table", t.name, "err", err)
			continue
		}
		p.logger.Info("deleted rows", "table", t.name)
	}

	if _, err := p.db.ExecContext(ctx, "DELETE FROM Users WHERE Id = $1", u.ID); err != nil {
		return fmt.Errorf("delete user row: %w", err)
	}

	p.logger.Info("user purged", "username", u.Username)
	return nil
}
