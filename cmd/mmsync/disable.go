package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/despuyt/mmsync/pkg/mattermost"
)

var (
	disableFile    string
	disableExecute bool

	disableCmd = &cobra.Command{
		Use:   "disable [email...]",
		Short: "Deactivate the accounts behind the given email addresses",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, err := runMode(true, disableExecute)
			if err != nil {
				return err
			}

			emails := args
			if disableFile != "" {
				fromFile, err := readEmailFile(disableFile)
				if err != nil {
					return err
				}
				emails = append(emails, fromFile...)
			}
			if len(emails) == 0 {
				return errors.New("no email addresses given: pass them as arguments or via --file")
			}

			ctx := cmd.Context()
			client, err := newClient(ctx)
			if err != nil {
				return err
			}

			var disabled, skipped int
			for _, email := range emails {
				user, err := client.UserByEmail(ctx, email)
				if err != nil {
					if errors.Is(err, mattermost.ErrNotFound) {
						logger.Warn("user not found", "email", email)
						skipped++
						continue
					}
					logger.Error("lookup failed", "email", email, "err", err)
					skipped++
					continue
				}
				if !user.IsActive() {
					logger.Info("already inactive", "email", email)
					skipped++
					continue
				}

				if dryRun {
					logger.Info("would disable", "email", email, "username", user.Username)
					disabled++
					continue
				}

				if err := client.UpdateUserActive(ctx, user.ID, false); err != nil {
					logger.Error("disable failed", "email", email, "err", err)
					skipped++
					continue
				}
				logger.Info("disabled", "email", email, "username", user.Username)
				disabled++
			}

			logger.Info("disable complete", "disabled", disabled, "skipped", skipped)
			return nil
		},
	}
)

func init() {
	disableCmd.Flags().StringVarP(&disableFile, "file", "f", "", "file with one email address per line")
	disableCmd.Flags().BoolVar(&disableExecute, "execute", false, "apply changes to the server")
}

// readEmailFile reads addresses from a plain list or a CSV. A first line
// containing "email" or a comma switches to CSV mode, where the email
// column (or the first column holding an @) is used. In list mode, lines
// without an @ are skipped.
func readEmailFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open email list: %w", err)
	}
	content := strings.TrimPrefix(string(data), "\uFEFF")

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil, nil
	}

	first := strings.ToLower(lines[0])
	if strings.Contains(first, "email") || strings.Contains(first, ",") {
		return readEmailCSV(strings.NewReader(content))
	}

	var emails []string
	for _, line := range lines {
		if strings.Contains(line, "@") {
			emails = append(emails, line)
		}
	}
	return emails, nil
}

func readEmailCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read email list header: %w", err)
	}
	col := -1
	for i, h := range header {
		if strings.ToLower(strings.TrimSpace(h)) == "email" {
			col = i
			break
		}
	}

	var emails []string
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read email list: %w", err)
		}

		var email string
		if col >= 0 && col < len(fields) {
			email = strings.TrimSpace(fields[col])
		}
		if email == "" && len(fields) > 0 && strings.Contains(fields[0], "@") {
			email = strings.TrimSpace(fields[0])
		}
		if strings.Contains(email, "@") {
			emails = append(emails, email)
		}
	}
	return emails, nil
}
