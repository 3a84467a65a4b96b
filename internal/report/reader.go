package report

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/couchcryptid/vehicle-icon-xref/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadScoredRows reads a tier CSV written by FileWriter. A missing file is
// not an error and yields no rows.
func ReadScoredRows(path string) ([]domain.ScoredRow, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := decodeScoredRows(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func decodeScoredRows(src io.Reader) ([]domain.ScoredRow, error) {
	br := bufio.NewReader(src)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	get := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var rows []domain.ScoredRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, domain.ScoredRow{
			Make:          get(rec, "make"),
			Year:          domain.ParseIntLike(get(rec, "year")),
			FleetEstimate: domain.ParseIntLike(get(rec, "fleet_estimate")),
			Score:         domain.ParseFloatOrZero(get(rec, "score")),
			IconPath:      strings.TrimSpace(get(rec, "best_icon_path")),
			IconLabel:     strings.TrimSpace(get(rec, "best_icon_label")),
		})
	}
	return rows, nil
}
