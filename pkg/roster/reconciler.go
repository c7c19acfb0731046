// Package roster implements the CSV-to-directory reconciliation core:
// row normalization, username allocation, per-row reconciliation against
// the directory, and the optional team-roster sync pass.
package roster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/despuyt/mmsync/pkg/config"
	"github.com/despuyt/mmsync/pkg/mattermost"
)

// ErrNoDefaultTeam is returned when no default team is configured.
var ErrNoDefaultTeam = errors.New("no default team configured")

// Directory is the remote user/team/channel API the reconciler drives.
// *mattermost.Client satisfies it.
type Directory interface {
	UsernameLookup
	UserByEmail(ctx context.Context, email string) (*mattermost.User, error)
	UsersByIDs(ctx context.Context, ids []string) ([]mattermost.User, error)
	CreateUser(ctx context.Context, req mattermost.CreateUserRequest) (*mattermost.User, error)
	PatchUser(ctx context.Context, userID string, req mattermost.PatchUserRequest) (*mattermost.User, error)
	UpdateUserActive(ctx context.Context, userID string, active bool) error
	TeamByName(ctx context.Context, name string) (*mattermost.Team, error)
	CreateTeam(ctx context.Context, name, displayName string) (*mattermost.Team, error)
	TeamMembers(ctx context.Context, teamID string) ([]mattermost.TeamMember, error)
	AddTeamMember(ctx context.Context, teamID, userID string) error
	RemoveTeamMember(ctx context.Context, teamID, userID string) error
	ChannelByName(ctx context.Context, teamID, name string) (*mattermost.Channel, error)
	CreateChannel(ctx context.Context, teamID, name, displayName string) (*mattermost.Channel, error)
	AddChannelMember(ctx context.Context, channelID, userID string) error
}

// Mailer delivers initial credentials to newly created users.
type Mailer interface {
	SendWelcome(email, username, password string) error
}

// Summary counts what a reconciliation run did. Row failures never abort
// the batch, so the summary is the only end-of-run report.
type Summary struct {
	Created     int
	Updated     int
	Reactivated int
	Skipped     int
	Failed      int
}

// Reconciler brings the directory in line with the rows of an import CSV.
type Reconciler struct {
	dir    Directory
	cfg    *config.Config
	logger *log.Logger
	alloc  *Allocator
	dryRun bool

	// Mailer, when set, sends a welcome mail with the generated
	// password to each created user.
	Mailer Mailer

	team *mattermost.Team
}

// NewReconciler returns a new reconciler. In dry-run mode only lookups
// are performed; no mutating call is issued.
func NewReconciler(dir Directory, cfg *config.Config, logger *log.Logger, dryRun bool) *Reconciler {
	return &Reconciler{
		dir:    dir,
		cfg:    cfg,
		logger: logger,
		alloc:  NewAllocator(dir, dryRun),
		dryRun: dryRun,
	}
}

// Run processes all rows in order. A failing row is logged with its email
// and skipped; the batch always runs to completion.
func (r *Reconciler) Run(ctx context.Context, rows []Row) Summary {
	var sum Summary
	for i, row := range rows {
		if err := r.reconcileRow(ctx, row, &sum); err != nil {
			r.logger.Error("row failed", "email", row.Email, "err", err)
			sum.Failed++
		}
		if d := time.Duration(r.cfg.Import.RateLimitDelay); d > 0 && !r.dryRun && i < len(rows)-1 {
			time.Sleep(d)
		}
	}

	r.logger.Info("import complete",
		"created", sum.Created,
		"updated", sum.Updated,
		"reactivated", sum.Reactivated,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
	)

	return sum
}

func (r *Reconciler) reconcileRow(ctx context.Context, row Row, sum *Summary) error {
	user, err := r.resolveUser(ctx, row, sum)
	if err != nil {
		return err
	}
	if r.dryRun || user == nil {
		return nil
	}

	team, err := r.DefaultTeam(ctx)
	if err != nil {
		return fmt.Errorf("resolve default team: %w", err)
	}

	if err := r.dir.AddTeamMember(ctx, team.ID, user.ID); err != nil {
		if errors.Is(err, mattermost.ErrTeamFull) {
			r.logger.Warn("team is full, skipping channel assignment", "email", row.Email, "team", team.Name)
			sum.Skipped++
			return nil
		}
		return fmt.Errorf("add to team: %w", err)
	}

	r.joinDefaultChannels(ctx, team, user)
	r.joinLabeledChannel(ctx, team, user, row)
	r.joinTagChannels(ctx, team, user, row)

	return nil
}

// resolveUser looks up the row's person by email, reactivating and
// patching an existing record or creating a new one. A nil user with a
// nil error means the run is simulate-only.
func (r *Reconciler) resolveUser(ctx context.Context, row Row, sum *Summary) (*mattermost.User, error) {
	user, err := r.dir.UserByEmail(ctx, row.Email)
	switch {
	case err == nil:
		return r.updateUser(ctx, row, user, sum)
	case errors.Is(err, mattermost.ErrNotFound):
		return r.createUser(ctx, row, sum)
	default:
		return nil, fmt.Errorf("lookup user: %w", err)
	}
}

func (r *Reconciler) updateUser(ctx context.Context, row Row, user *mattermost.User, sum *Summary) (*mattermost.User, error) {
	if !user.IsActive() {
		r.logger.Info("reactivating user", "email", row.Email)
		if !r.dryRun {
			if err := r.dir.UpdateUserActive(ctx, user.ID, true); err != nil {
				return nil, fmt.Errorf("reactivate: %w", err)
			}
		}
		sum.Reactivated++
	}

	r.logger.Info("user exists", "email", row.Email, "username", user.Username)
	if r.dryRun {
		sum.Updated++
		return user, nil
	}

	patched, err := r.dir.PatchUser(ctx, user.ID, mattermost.PatchUserRequest{
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Position:  row.Position,
		Nickname:  user.Nickname,
	})
	if err != nil {
		return nil, fmt.Errorf("patch user: %w", err)
	}
	sum.Updated++
	return patched, nil
}

func (r *Reconciler) createUser(ctx context.Context, row Row, sum *Summary) (*mattermost.User, error) {
	if r.dryRun {
		r.logger.Info("would create user", "email", row.Email)
		sum.Created++
		return nil, nil
	}

	username, err := r.alloc.Allocate(ctx, row.FirstName, row.LastName)
	if err != nil {
		return nil, fmt.Errorf("allocate username: %w", err)
	}

	password, err := GeneratePassword(16)
	if err != nil {
		return nil, err
	}

	r.logger.Info("creating user", "email", row.Email, "username", username)
	user, err := r.dir.CreateUser(ctx, mattermost.CreateUserRequest{
		Email:     row.Email,
		Username:  username,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Position:  row.Position,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	sum.Created++

	if r.Mailer != nil {
		if err := r.Mailer.SendWelcome(row.Email, username, password); err != nil {
			r.logger.Warn("welcome mail failed", "email", row.Email, "err", err)
		}
	}

	return user, nil
}

// DefaultTeam resolves the configured default team, creating it if it
// does not exist yet. The result is cached for the rest of the run.
func (r *Reconciler) DefaultTeam(ctx context.Context) (*mattermost.Team, error) {
	if r.team != nil {
		return r.team, nil
	}

	name := r.cfg.Import.DefaultTeam
	if name == "" {
		return nil, ErrNoDefaultTeam
	}

	slug := Slugify(name)
	team, err := r.dir.TeamByName(ctx, slug)
	if errors.Is(err, mattermost.ErrNotFound) {
		if r.dryRun {
			r.logger.Info("would create default team", "team", name, "slug", slug)
			return nil, err
		}
		r.logger.Info("default team not found, creating", "team", name, "slug", slug)
		team, err = r.dir.CreateTeam(ctx, slug, name)
	}
	if err != nil {
		return nil, err
	}

	r.team = team
	return team, nil
}

// joinDefaultChannels adds the user to every configured default channel.
// Default channels are expected to pre-exist; a missing one is a warning,
// not an error, and membership failures are per-channel.
func (r *Reconciler) joinDefaultChannels(ctx context.Context, team *mattermost.Team, user *mattermost.User) {
	for _, label := range r.cfg.Import.DefaultChannels {
		ch, err := r.dir.ChannelByName(ctx, team.ID, Slugify(label))
		if errors.Is(err, mattermost.ErrNotFound) {
			r.logger.Warn("default channel not found", "channel", label, "team", team.Name)
			continue
		}
		if err != nil {
			r.logger.Error("default channel lookup failed", "channel", label, "err", err)
			continue
		}
		if err := r.dir.AddChannelMember(ctx, ch.ID, user.ID); err != nil {
			r.logger.Error("join default channel failed", "channel", label, "email", user.Email, "err", err)
		}
	}
}

// joinLabeledChannel adds the user to the channel named by the row's
// label, creating the channel on demand.
func (r *Reconciler) joinLabeledChannel(ctx context.Context, team *mattermost.Team, user *mattermost.User, row Row) {
	if row.ChannelLabel == "" {
		return
	}
	r.joinOrCreateChannel(ctx, team, user, row.ChannelLabel)
}

// joinTagChannels adds the user to every channel mapped from the row's
// tags, creating channels on demand.
func (r *Reconciler) joinTagChannels(ctx context.Context, team *mattermost.Team, user *mattermost.User, row Row) {
	for _, tag := range row.Tags {
		for _, label := range r.cfg.Import.TagChannels[tag] {
			r.joinOrCreateChannel(ctx, team, user, label)
		}
	}
}

func (r *Reconciler) joinOrCreateChannel(ctx context.Context, team *mattermost.Team, user *mattermost.User, label string) {
	slug := Slugify(label)
	ch, err := r.dir.ChannelByName(ctx, team.ID, slug)
	if errors.Is(err, mattermost.ErrNotFound) {
		r.logger.Info("channel not found, creating", "channel", label, "slug", slug)
		ch, err = r.dir.CreateChannel(ctx, team.ID, slug, label)
	}
	if err != nil {
		r.logger.Error("resolve channel failed", "channel", label, "err", err)
		return
	}
	if err := r.dir.AddChannelMember(ctx, ch.ID, user.ID); err != nil {
		r.logger.Error("join channel failed", "channel", label, "email", user.Email, "err", err)
	}
}
