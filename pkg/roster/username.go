package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/despuyt/mmsync/pkg/mattermost"
	"golang.org/x/text/unicode/norm"
)

// fallbackName is used when a sanitized first name comes out empty.
const fallbackName = "user"

// UsernameLookup is the subset of the directory the allocator probes.
type UsernameLookup interface {
	UserByUsername(ctx context.Context, username string) (*mattermost.User, error)
}

// Allocator derives unique usernames from a person's name by probing the
// live directory for collisions.
//
// There is no reservation across the probe-then-create gap: two imports
// running concurrently can race to the same candidate, and the loser's
// create will fail and must be re-run.
type Allocator struct {
	dir    UsernameLookup
	dryRun bool
}

// NewAllocator returns a new username allocator. In dry-run mode the
// directory is not probed and the bare sanitized first name is returned;
// it is a preview, not the name that will be assigned.
func NewAllocator(dir UsernameLookup, dryRun bool) *Allocator {
	return &Allocator{dir: dir, dryRun: dryRun}
}

// Allocate returns a username that is unique in the directory at the time
// of the call. Candidates are tried in order: the sanitized first name,
// then the first name plus growing prefixes of the last name, then the
// full name with an increasing numeric suffix.
func (a *Allocator) Allocate(ctx context.Context, firstName, lastName string) (string, error) {
	first := sanitizeName(firstName)
	if first == "" {
		first = fallbackName
	}
	last := sanitizeName(lastName)

	if a.dryRun {
		return first, nil
	}

	taken, err := a.taken(ctx, first)
	if err != nil {
		return "", err
	}
	if !taken {
		return first, nil
	}

	for i := 1; i <= len(last); i++ {
		candidate := first + last[:i]
		taken, err := a.taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	full := first + last
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s%d", full, n)
		taken, err := a.taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
}

func (a *Allocator) taken(ctx context.Context, username string) (bool, error) {
	_, err := a.dir.UserByUsername(ctx, username)
	if errors.Is(err, mattermost.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("probe username %q: %w", username, err)
	}
	return true, nil
}

// sanitizeName lowercases a name, folds diacritics to their base letters,
// and strips everything outside [a-z0-9].
func sanitizeName(name string) string {
	decomposed := norm.NFD.String(strings.ToLower(name))
	var b strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
