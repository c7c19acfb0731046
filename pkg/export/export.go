// Package export transforms the raw club-administration export into the
// canonical users.csv consumed by the import command.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// Columns of the raw export this package reads. The export is
// semicolon-separated with Dutch column names.
const (
	colFirstName = "Voornaam"
	colInfix     = "Tussenvoegsel"
	colLastName  = "Achternaam"
	colEmail     = "E-mailadres voor contact"
	colLabels    = "Labels"
	colMemberNo  = "Extern lidnummer"
)

// teamCode matches a team label: a single letter, or a letter followed by
// a digit (H1, D, A2).
var teamCode = regexp.MustCompile(`^[A-Za-z]\d?$`)

// allowedTags are the labels carried over into the tags column. Checked
// case-insensitively.
var allowedTags = map[string]struct{}{
	"trainer":        {},
	"tientjeslid":    {},
	"trainingmember": {},
	"captain":        {},
	"tc":             {},
	"bestuur":        {},
}

// IsTeamCode reports whether a label names a playing team.
func IsTeamCode(label string) bool {
	return teamCode.MatchString(label)
}

// ParseLabels splits the caret-separated Labels field into a team code
// and a list of tags. A label containing "recreant" takes priority as the
// team; otherwise the first label matching the team-code pattern wins.
// All other labels are kept only when allow-listed.
func ParseLabels(labels string) (team string, tags []string) {
	parts := make([]string, 0, 4)
	for _, p := range strings.Split(labels, "^") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	var recreant string
	for _, p := range parts {
		if strings.Contains(strings.ToLower(p), "recreant") {
			team = "recreant"
			recreant = p
			break
		}
	}

	for _, p := range parts {
		if p == recreant {
			continue
		}
		if team == "" && teamCode.MatchString(p) {
			team = p
			continue
		}
		if _, ok := allowedTags[strings.ToLower(p)]; ok {
			tags = append(tags, p)
		}
	}

	return team, tags
}

// Transform reads the raw export from r and writes the canonical import
// CSV to w. Rows without an email are dropped.
func Transform(r io.Reader, w io.Writer) error {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty file: no header row")
		}
		return fmt.Errorf("read header: %w", err)
	}
	// A byte-order mark sticks to the first column name.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}

	field := func(fields []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"firstname", "lastname", "email", "team", "tags"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}

		email := field(fields, colEmail)
		if email == "" {
			continue
		}

		lastname := strings.TrimSpace(field(fields, colInfix) + " " + field(fields, colLastName))
		team, tags := ParseLabels(field(fields, colLabels))
		if no := field(fields, colMemberNo); no != "" {
			tags = append(tags, no)
		}

		if err := cw.Write([]string{
			field(fields, colFirstName),
			lastname,
			email,
			team,
			strings.Join(tags, ","),
		}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// TransformFile reads the raw export at in and writes the canonical
// import CSV to out.
func TransformFile(in, out string) error {
	src, err := os.Open(in)
	if err != nil {
		return fmt.Errorf("open export: %w", err)
	}
	defer src.Close() // nolint: errcheck

	dst, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}

	if err := Transform(src, dst); err != nil {
		dst.Close() // nolint: errcheck
		return err
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("close csv: %w", err)
	}
	return nil
}
