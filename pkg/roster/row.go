package roster

import (
	"errors"
	"strings"
)

// ErrMissingEmail is returned when a CSV row has no email address. Such
// rows are skipped, never fatal for the batch.
var ErrMissingEmail = errors.New("row has no email")

// Row is the canonical intent for one CSV line.
type Row struct {
	Email        string
	FirstName    string
	LastName     string
	ChannelLabel string
	Position     string
	Tags         []string
}

// NormalizeRow converts a raw CSV record (column name to value) into a
// canonical Row. All fields are trimmed. The "team" column carries a
// free-text channel label and "tags" a free-text position string; the
// naming is historical.
func NormalizeRow(record map[string]string) (Row, error) {
	row := Row{
		Email:        strings.TrimSpace(record["email"]),
		FirstName:    strings.TrimSpace(record["firstname"]),
		LastName:     strings.TrimSpace(record["lastname"]),
		ChannelLabel: strings.TrimSpace(record["team"]),
		Position:     strings.TrimSpace(record["tags"]),
	}

	if row.Email == "" {
		return Row{}, ErrMissingEmail
	}

	for _, tag := range strings.Split(row.Position, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			row.Tags = append(row.Tags, tag)
		}
	}

	return row, nil
}
