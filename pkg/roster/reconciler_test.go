package roster

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/despuyt/mmsync/pkg/config"
	"github.com/despuyt/mmsync/pkg/mattermost"
	"github.com/matryer/is"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Import.DefaultTeam = "De Spuyt"
	cfg.Import.DefaultChannels = []string{"Town Square"}
	cfg.Import.RateLimitDelay = 0
	return cfg
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

type fakeMailer struct {
	sent []string
}

func (m *fakeMailer) SendWelcome(email, username, password string) error {
	m.sent = append(m.sent, email)
	return nil
}

func TestReconcileCreatesUser(t *testing.T) {
	is := is.New(t)
	dir := newFakeDirectory()
	team := dir.addTeam("de-spuyt", "De Spuyt")
	dir.addChannel(team.ID, "town-square", "Town Square")

	r := NewReconciler(dir, testConfig(), testLogger(), false)
	sum := r.Run(context.Background(), []Row{
		{Email: "alice@example.com", FirstName: "Alice", LastName: "Jones", ChannelLabel: "H1"},
	})

	is.Equal(sum.Created, 1)
	is.Equal(sum.Failed, 0)

	user, err := dir.UserByEmail(context.Background(), "alice@example.com")
	is.NoErr(err)
	is.Equal(user.Username, "alice")
	is.True(dir.teamMembers[team.ID][user.ID])

	// Labeled channel was created on demand and joined.
	ch, err := dir.ChannelByName(context.Background(), team.ID, "h1")
	is.NoErr(err)
	is.Equal(ch.DisplayName, "H1")
	is.True(dir.channelMembers[ch.ID][user.ID])

	// Default channel joined too.
	ts, err := dir.ChannelByName(context.Background(), team.ID, "town-square")
	is.NoErr(err)
	is.True(dir.channelMembers[ts.ID][user.ID])
}

func TestReconcileIdempotent(t *testing.T) {
	is := is.New(t)
	dir := newFakeDirectory()
	team := dir.addTeam("de-spuyt", "De Spuyt")
	dir.addChannel(team.ID, "town-square", "Town Square")

	rows := []Row{
		{Email: "alice@example.com", FirstName: "Alice", LastName: "Jones"},
		{Email: "bob@example.com", FirstName: "Bob", LastName: "Stone"},
	}

	r := NewReconciler(dir, testConfig(), testLogger(), false)
	first := r.Run(context.Background(), rows)
	is.Equal(first.Created, 2)

	r = NewReconciler(dir, testConfig(), testLogger(), false)
	second := r.Run(context.Background(), rows)
	is.Equal(second.Created, 0)
	is.Equal(second.Updated, 2)
	is.Equal(second.Failed, 0)
	is.Equal(len(dir.users), 2) // no duplicate persons
}

func TestReconcileReactivates(t *testing.T) {
	is := is.New(t)
	dir := newFakeDirectory()
	dir.addTeam("de-spuyt", "De Spuyt")
	u := dir.addUser(mattermost.User{Username: "carol", Email: "carol@example.com", DeleteAt: 1700000000000})

	r := NewReconciler(dir, testConfig(), testLogger(), false)
	sum := r.Run(context.Background(), []Row{
		{Email: "carol@example.com", FirstName: "Carol", LastName: "King", Position: "Trainer"},
	})

	is.Equal(sum.Reactivated, 1)
	is.True(dir.users[u.ID].IsActive())
	is.Equal(dir.users[u.ID].Position, "Trainer") // profile patched
}

func TestReconcileCreatesDefaultTeam(t *testing.T) {
	is := is.New(t)
	dir := newFakeDirectory()

	r := NewReconciler(dir, testConfig(), testLogger(), false)
	sum := r.Run(context.Background(), []Row{
		{Email: "alice@example.com", FirstName: "Alice", LastName: "Jones"},
	})

	is.Equal(sum.Failed, 0)
	team, err := dir.TeamByName(context.Background(), "de-spuyt")
	is.NoErr(err)
	is.Equal(team.DisplayName, "De Spuyt")
}

func TestReconcileTeamFullSkipsChannels(t *testing.T) {
	is := is.New(t)
	dir := newFakeDirectory()
	team := dir.addTeam("de-spuyt", "De Spuyt")
	dir.addChannel(team.ID, "town-square", "Town Square")
	existing := dir.addUser(mattermost.User{Username: "taken", Email: "taken@example.com"})
	is.NoErr(dir.AddTeamMember(context.Background(), team.ID, existing.ID))
	dir.teamLimit = 1

	r := NewReconciler(dir, testConfig(), testLogger(), false)
	sum := r.Run(context.Background(), []Row{
		{Email: "alice@example.com", FirstName: "Alice", LastName: "Jones", ChannelLabel: "H1"},
		{Email: "taken@example.com", FirstName: "Taken", LastName: "Already"},
	})

	// First row hits the limit, but the batch continues: the second row
	// is an existing member so its duplicate add succeeds.
	is.Equal(sum.Skipped, 1)
	is.Equal(sum.Failed, 0)
	is.Equal(sum.Updated, 1)

	// Channel steps were skipped for the full-team row.
	_, err := dir.ChannelByName(context.Background(), team.ID, "h1")
	is.True(err != nil)
}

func TestReconcileDryRun(t *testing.T) {
	is := is.New(t)
	dir := newFakeDirectory()
	dir.addTeam("de-spuyt", "De Spuyt")

	r := NewReconciler(dir, testConfig(), testLogger(), true)
	sum := r.Run(context.Background(), []Row{
		{Email: "alice@example.com", FirstName: "Alice", LastName: "Jones", ChannelLabel: "H1"},
	})

	is.Equal(sum.Created, 1)          // counted as would-create
	is.Equal(dir.createCalls, 0)      // but nothing written
	is.Equal(len(dir.users), 0)
	is.Equal(len(dir.teamMembers), 0)
}

func TestReconcileRowFailureContinuesBatch(t *testing.T) {
	is := is.New(t)
	dir := newFakeDirectory()
	dir.addTeam("de-spuyt", "De Spuyt")
	cfg := testConfig()
	cfg.Import.DefaultChannels = nil

	// First row's create collides server-side, as a concurrent import
	// winning the probe-then-create race would make it.
	dir.failCreateEmail = "alice@example.com"

	r := NewReconciler(dir, cfg, testLogger(), false)
	sum := r.Run(context.Background(), []Row{
		{Email: "alice@example.com", FirstName: "Alice", LastName: "Jones"},
		{Email: "bob@example.com", FirstName: "Bob", LastName: "Stone"},
	})

	is.Equal(sum.Failed, 1)
	is.Equal(sum.Created, 1) // bob still processed
	_, err := dir.UserByEmail(context.Background(), "bob@example.com")
	is.NoErr(err)
}

func TestReconcileTagChannels(t *testing.T) {
	is := is.New(t)
	dir := newFakeDirectory()
	team := dir.addTeam("de-spuyt", "De Spuyt")
	cfg := testConfig()
	cfg.Import.DefaultChannels = nil
	cfg.Import.TagChannels = map[string][]string{
		"trainer": {"Trainers", "Announcements"},
	}

	r := NewReconciler(dir, cfg, testLogger(), false)
	sum := r.Run(context.Background(), []Row{
		{Email: "carol@example.com", FirstName: "Carol", LastName: "King", Position: "trainer", Tags: []string{"trainer"}},
	})

	is.Equal(sum.Failed, 0)
	user, err := dir.UserByEmail(context.Background(), "carol@example.com")
	is.NoErr(err)
	for _, slug := range []string{"trainers", "announcements"} {
		ch, err := dir.ChannelByName(context.Background(), team.ID, slug)
		is.NoErr(err)
		is.True(dir.channelMembers[ch.ID][user.ID])
	}
}

func TestReconcileWelcomeMail(t *testing.T) {
	is := is.New(t)
	dir := newFakeDirectory()
	dir.addTeam("de-spuyt", "De Spuyt")
	cfg := testConfig()
	cfg.Import.DefaultChannels = nil

	mailer := &fakeMailer{}
	r := NewReconciler(dir, cfg, testLogger(), false)
	r.Mailer = mailer
	r.Run(context.Background(), []Row{
		{Email: "alice@example.com", FirstName: "Alice", LastName: "Jones"},
		{Email: "alice@example.com", FirstName: "Alice", LastName: "Jones"},
	})

	is.Equal(mailer.sent, []string{"alice@example.com"}) // only on create, not update
}
