package purge

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/matryer/is"

	"github.com/despuyt/mmsync/pkg/db"
)

// fakeHandler serves canned rows and records every statement.
type fakeHandler struct {
	users    map[string]User    // keyed by username and email
	teams    map[string]Team    // keyed by name and display name
	channels map[string][]channel // keyed by team id

	missingTables map[string]bool   // lowercased table names
	failTables    map[string]error  // table name as written in the query

	execs []string // executed statements with args appended
}

var _ db.Handler = (*fakeHandler)(nil)

func newFakeHandler() *fakeHandler {
	return &fakeHandler{
		users:         make(map[string]User),
		teams:         make(map[string]Team),
		channels:      make(map[string][]channel),
		missingTables: make(map[string]bool),
		failTables:    make(map[string]error),
	}
}

func (f *fakeHandler) GetContext(_ context.Context, dest interface{}, query string, args ...interface{}) error {
	switch {
	case strings.Contains(query, "information_schema"):
		name, _ := args[0].(string)
		*dest.(*bool) = !f.missingTables[name]
		return nil
	case strings.Contains(query, "FROM Users"):
		u, ok := f.users[args[0].(string)]
		if !ok {
			return sql.ErrNoRows
		}
		*dest.(*User) = u
		return nil
	case strings.Contains(query, "FROM Teams"):
		t, ok := f.teams[args[0].(string)]
		if !ok {
			return sql.ErrNoRows
		}
		*dest.(*Team) = t
		return nil
	}
	return fmt.Errorf("unexpected query: %s", query)
}

func (f *fakeHandler) SelectContext(_ context.Context, dest interface{}, query string, args ...interface{}) error {
	if strings.Contains(query, "FROM Channels") {
		*dest.(*[]channel) = f.channels[args[0].(string)]
		return nil
	}
	return fmt.Errorf("unexpected query: %s", query)
}

func (f *fakeHandler) ExecContext(_ context.Context, query string, args ...interface{}) (sql.Result, error) {
	f.execs = append(f.execs, fmt.Sprintf("%s %v", query, args))
	for table, err := range f.failTables {
		if strings.Contains(query, "FROM "+table+" ") || strings.HasSuffix(query, "FROM "+table) {
			return nil, err
		}
	}
	return driver.RowsAffected(1), nil
}

func (f *fakeHandler) deletesFrom(table string) []string {
	var out []string
	for _, q := range f.execs {
		if strings.HasPrefix(q, "DELETE FROM "+table+" ") {
			out = append(out, q)
		}
	}
	return out
}

func testPurger(f *fakeHandler) *Purger {
	return NewPurger(f, log.New(io.Discard))
}

func TestPurgeUser(t *testing.T) {
	is := is.New(t)

	f := newFakeHandler()
	u := User{ID: "u1", Username: "jan", Email: "jan@example.com"}
	f.users["jan"] = u
	f.users["jan@example.com"] = u

	is.NoErr(testPurger(f).User(context.TODO(), "jan@example.com"))

	for _, table := range []string{"ChannelMembers", "TeamMembers", "Posts", "FileInfo", "Users"} {
		is.Equal(len(f.deletesFrom(table)), 1) // one delete per table
	}
	is.Equal(f.execs[len(f.execs)-1], "DELETE FROM Users WHERE Id = $1 [u1]") // user row goes last
}

func TestPurgeUserNotFound(t *testing.T) {
	is := is.New(t)

	err := testPurger(newFakeHandler()).User(context.TODO(), "nobody")
	is.True(errors.Is(err, ErrNotFound))
}

func TestPurgeUserSkipsMissingTable(t *testing.T) {
	is := is.New(t)

	f := newFakeHandler()
	f.users["jan"] = User{ID: "u1", Username: "jan"}
	f.missingTables["groupmembers"] = true

	is.NoErr(testPurger(f).User(context.TODO(), "jan"))
	is.Equal(len(f.deletesFrom("GroupMembers")), 0)
	is.Equal(len(f.deletesFrom("ChannelMembers")), 1) // other tables unaffected
}

func TestPurgeUserToleratesTableFailure(t *testing.T) {
	is := is.New(t)

	f := newFakeHandler()
	f.users["jan"] = User{ID: "u1", Username: "jan"}
	f.failTables["Posts"] = errors.New("constraint violation")

	is.NoErr(testPurger(f).User(context.TODO(), "jan"))
	is.Equal(len(f.deletesFrom("Users")), 1) // user row still removed
}

func TestPurgeTeam(t *testing.T) {
	is := is.New(t)

	f := newFakeHandler()
	team := Team{ID: "t1", Name: "de-spuyt", DisplayName: "De Spuyt"}
	f.teams["de-spuyt"] = team
	f.teams["De Spuyt"] = team
	f.channels["t1"] = []channel{{ID: "c1", Name: "town-square"}, {ID: "c2", Name: "h1"}}

	is.NoErr(testPurger(f).Team(context.TODO(), "De Spuyt"))

	// Five statements per channel, then the team members and team row.
	is.Equal(len(f.execs), 12)
	is.True(strings.HasPrefix(f.execs[0], "DELETE FROM Reactions "))             // reactions before posts
	is.True(strings.HasPrefix(f.execs[1], "DELETE FROM FileInfo "))              // files before posts
	is.True(strings.HasPrefix(f.execs[2], "DELETE FROM Posts "))
	is.Equal(f.execs[4], "DELETE FROM Channels WHERE Id = $1 [c1]")
	is.Equal(f.execs[9], "DELETE FROM Channels WHERE Id = $1 [c2]")
	is.Equal(f.execs[10], "DELETE FROM TeamMembers WHERE TeamId = $1 [t1]")
	is.Equal(f.execs[11], "DELETE FROM Teams WHERE Id = $1 [t1]")
}

func TestPurgeTeamNotFound(t *testing.T) {
	is := is.New(t)

	err := testPurger(newFakeHandler()).Team(context.TODO(), "ghost")
	is.True(errors.Is(err, ErrNotFound))
}
