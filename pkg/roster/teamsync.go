package roster

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/despuyt/mmsync/pkg/mattermost"
)

// TeamSync removes team members whose email is absent from the import
// CSV. It must run to completion before the reconciler processes rows so
// that people the same run is about to add are not evaluated for removal.
type TeamSync struct {
	dir    Directory
	logger *log.Logger
	dryRun bool
}

// NewTeamSync returns a new team sync pass.
func NewTeamSync(dir Directory, logger *log.Logger, dryRun bool) *TeamSync {
	return &TeamSync{dir: dir, logger: logger, dryRun: dryRun}
}

// Run compares the current roster of team against the emails in rows and
// removes absent members. System admins are never removed. Per-member
// failures are logged and do not abort the pass.
func (s *TeamSync) Run(ctx context.Context, team *mattermost.Team, rows []Row) error {
	present := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		present[strings.ToLower(row.Email)] = struct{}{}
	}

	members, err := s.dir.TeamMembers(ctx, team.ID)
	if err != nil {
		return fmt.Errorf("list team members: %w", err)
	}

	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}

	users, err := s.dir.UsersByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolve team members: %w", err)
	}

	removed := 0
	for i := range users {
		user := &users[i]
		if _, ok := present[strings.ToLower(user.Email)]; ok {
			continue
		}
		if user.IsAdmin() {
			s.logger.Debug("keeping admin despite absence", "email", user.Email)
			continue
		}

		s.logger.Info("removing absent member", "email", user.Email, "team", team.Name)
		if s.dryRun {
			removed++
			continue
		}
		if err := s.dir.RemoveTeamMember(ctx, team.ID, user.ID); err != nil {
			s.logger.Error("remove member failed", "email", user.Email, "err", err)
			continue
		}
		removed++
	}

	s.logger.Info("team sync complete", "team", team.Name, "members", len(members), "removed", removed)
	return nil
}
