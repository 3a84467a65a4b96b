// Package lookup folds classified tier rows into the per-make default icon
// lookup table.
package lookup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/vehicle-icon-xref/internal/domain"
)

// timestampLayout matches ISO-8601 with microseconds and a numeric offset.
const timestampLayout = "2006-01-02T15:04:05.000000-07:00"

// Builder accumulates weighted icon votes per make and per make/year.
// Rows are folded in the order they are consumed.
type Builder struct {
	iconPrefix string
	defaults   map[string]domain.LookupNode
	years      map[string]map[int]domain.LookupNode
}

// NewBuilder creates a Builder that only accepts rows whose icon path starts
// with iconPrefix.
func NewBuilder(iconPrefix string) *Builder {
	return &Builder{
		iconPrefix: iconPrefix,
		defaults:   make(map[string]domain.LookupNode),
		years:      make(map[string]map[int]domain.LookupNode),
	}
}

// Consume folds every acceptable row and returns how many were used. A row
// is acceptable when its icon path carries the accepted prefix, its make
// normalizes to a non-empty key and its score reaches minScore.
func (b *Builder) Consume(rows []domain.ScoredRow, minScore float64) int {
	used := 0
	for _, row := range rows {
		if !strings.HasPrefix(row.IconPath, b.iconPrefix) {
			continue
		}
		makeKey := domain.MakeKey(row.Make)
		if makeKey == "" {
			continue
		}
		if row.Score < minScore {
			continue
		}

		weight := domain.RowWeight(row.FleetEstimate, row.Score)
		if row.Year != 0 {
			slots, ok := b.years[makeKey]
			if !ok {
				slots = make(map[int]domain.LookupNode)
				b.years[makeKey] = slots
			}
			slots[row.Year] = domain.FoldRow(slots[row.Year], row, weight)
		}
		b.defaults[makeKey] = domain.FoldRow(b.defaults[makeKey], row, weight)
		used++
	}
	return used
}

// Candidates is the number of makes with at least one accepted row.
func (b *Builder) Candidates() int {
	return len(b.defaults)
}

// Build finalizes the lookup. Makes whose default average score is below
// domain.MinDefaultScore are left out; every year slot of a kept make is
// emitted.
func (b *Builder) Build(source domain.LookupSource, used domain.RowsUsed) domain.Lookup {
	byMake := make(map[string]domain.MakeLookup, len(b.defaults))
	for makeKey, node := range b.defaults {
		score := node.AvgScore()
		if score < domain.MinDefaultScore {
			continue
		}

		years := make(map[string]domain.YearLookup, len(b.years[makeKey]))
		for year, slot := range b.years[makeKey] {
			years[strconv.Itoa(year)] = domain.YearLookup{
				Icon:    slot.Icon,
				Label:   slot.Label,
				Score:   domain.Round4(slot.AvgScore()),
				Samples: slot.Samples,
			}
		}

		byMake[makeKey] = domain.MakeLookup{
			DefaultIcon:  node.Icon,
			DefaultLabel: node.Label,
			DefaultScore: domain.Round4(score),
			Samples:      node.Samples,
			Years:        years,
		}
	}

	return domain.Lookup{
		GeneratedAtUTC: domain.Now().UTC().Format(timestampLayout),
		Source:         source,
		Thresholds:     domain.DefaultLookupThresholds(),
		RowsUsed:       used,
		MakeCount:      len(byMake),
		ByMake:         byMake,
	}
}

// WriteJSON writes lookup as indented JSON, creating the parent directory.
func WriteJSON(path string, lookup domain.Lookup) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create lookup directory: %w", err)
	}
	data, err := json.MarshalIndent(lookup, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal lookup: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // output files are meant to be world-readable
		return fmt.Errorf("write lookup %s: %w", path, err)
	}
	return nil
}

// FileWriter writes lookups to a fixed path. It implements
// pipeline.LookupSink.
type FileWriter struct {
	path string
}

// NewFileWriter creates a FileWriter for path.
func NewFileWriter(path string) *FileWriter {
	return &FileWriter{path: path}
}

// WriteLookup writes lookup as indented JSON.
func (w *FileWriter) WriteLookup(lookup domain.Lookup) error {
	return WriteJSON(w.path, lookup)
}
