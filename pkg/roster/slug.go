package roster

import (
	"regexp"
	"strings"
)

var slugInvalid = regexp.MustCompile(`[^a-z0-9-]+`)

// Slugify derives a deterministic channel or team slug from a
// human-readable label: lowercase, whitespace collapsed to hyphens, and
// every other character outside [a-z0-9-] dropped. Repeated runs resolve
// the same label to the same slug.
func Slugify(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.Join(strings.Fields(s), "-")
	s = slugInvalid.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
