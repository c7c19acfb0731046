package roster

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// ReadRows reads and normalizes an import CSV. The file must be UTF-8
// with a header row; a leading byte-order mark is tolerated. Rows without
// an email are skipped with a warning.
func ReadRows(r io.Reader, logger *log.Logger) ([]Row, error) {
	br := bufio.NewReader(r)
	if err := skipBOM(br); err != nil {
		return nil, err
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file: no header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var rows []Row
	line := 1
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		record := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(fields) {
				record[h] = fields[i]
			}
		}

		row, err := NormalizeRow(record)
		if err != nil {
			if logger != nil {
				logger.Warn("skipping row", "line", line, "reason", err)
			}
			continue
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// ReadFile reads and normalizes the import CSV at the given path.
func ReadFile(path string, logger *log.Logger) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close() // nolint: errcheck
	return ReadRows(f, logger)
}

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

func skipBOM(br *bufio.Reader) error {
	head, err := br.Peek(len(bomUTF8))
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("peek bom: %w", err)
	}
	if len(head) == len(bomUTF8) && head[0] == bomUTF8[0] && head[1] == bomUTF8[1] && head[2] == bomUTF8[2] {
		if _, err := br.Discard(len(bomUTF8)); err != nil {
			return fmt.Errorf("discard bom: %w", err)
		}
	}
	return nil
}
