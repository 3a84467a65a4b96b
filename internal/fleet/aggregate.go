// Package fleet aggregates the DVLA VEH0124 licensed-vehicle census into
// distinct car variants with a recent fleet-size estimate.
package fleet

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/couchcryptid/vehicle-icon-xref/internal/domain"
)

// Census column names.
const (
	colBodyType        = "BodyType"
	colMake            = "Make"
	colGenModel        = "GenModel"
	colModel           = "Model"
	colYearManufacture = "YearManufacture"
	colYearFirstUsed   = "YearFirstUsed"
)

// recentYearColumns is how many of the latest reporting-year columns are
// summed into the fleet estimate.
const recentYearColumns = 2

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Row is one census row reduced to the fields the aggregator uses.
type Row struct {
	BodyType        string
	Make            string
	GenModel        string
	Model           string
	YearManufacture string
	YearFirstUsed   string
	Counts          []string // recent reporting-year cells
}

// Aggregator folds census rows into variants keyed by
// (make, genmodel, model, year), in first-seen order.
type Aggregator struct {
	index    map[domain.VariantKey]int
	variants []domain.FleetVariant
	stats    domain.FleetStats
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{index: make(map[domain.VariantKey]int)}
}

// Add folds one row. Non-car rows and rows without a make or any model text
// are skipped.
func (a *Aggregator) Add(r Row) {
	a.stats.RowsRead++

	if strings.ToLower(domain.NormalizeSpace(r.BodyType)) != "cars" {
		a.stats.SkippedBodyType++
		return
	}

	mk := domain.NormalizeSpace(r.Make)
	genmodel := domain.NormalizeSpace(r.GenModel)
	model := domain.NormalizeSpace(r.Model)
	if mk == "" || (genmodel == "" && model == "") {
		a.stats.SkippedIncomplete++
		return
	}

	year := domain.ParseIntLike(r.YearManufacture)
	if year == 0 {
		year = domain.ParseIntLike(r.YearFirstUsed)
	}

	count := 0
	for _, c := range r.Counts {
		count += domain.ParseIntLike(c)
	}

	key := domain.VariantKey{Make: mk, GenModel: genmodel, Model: model, Year: year}
	if i, ok := a.index[key]; ok {
		a.variants[i].FleetEstimate += count
		a.variants[i].Rows++
		return
	}
	a.index[key] = len(a.variants)
	a.variants = append(a.variants, domain.FleetVariant{
		Make:          mk,
		GenModel:      genmodel,
		Model:         model,
		Year:          year,
		FleetEstimate: count,
		Rows:          1,
	})
}

// Variants returns the aggregated variants in first-seen order.
func (a *Aggregator) Variants() []domain.FleetVariant {
	return a.variants
}

// Stats returns the row counters.
func (a *Aggregator) Stats() domain.FleetStats {
	return a.stats
}

// Reader streams the census CSV through an Aggregator. It implements
// pipeline.VariantSource.
type Reader struct {
	path   string
	logger *slog.Logger
}

// NewReader creates a census Reader for the CSV at path.
func NewReader(path string, logger *slog.Logger) *Reader {
	return &Reader{path: path, logger: logger}
}

// LoadVariants reads and aggregates the whole census file.
func (r *Reader) LoadVariants(ctx context.Context) ([]domain.FleetVariant, domain.FleetStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.FleetStats{}, err
	}

	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.FleetStats{}, fmt.Errorf("%w: fleet census %s", domain.ErrMissingInput, r.path)
		}
		return nil, domain.FleetStats{}, fmt.Errorf("open fleet census: %w", err)
	}
	defer f.Close()

	agg, err := aggregate(f)
	if err != nil {
		return nil, domain.FleetStats{}, fmt.Errorf("read fleet census %s: %w", r.path, err)
	}

	stats := agg.Stats()
	if len(stats.CountColumns) == 0 {
		r.logger.Warn("no reporting-year columns found, fleet estimates will be 0", "path", r.path)
	}
	r.logger.Info("fleet census aggregated",
		"rows", stats.RowsRead,
		"variants", len(agg.Variants()),
		"skipped_body_type", stats.SkippedBodyType,
		"skipped_incomplete", stats.SkippedIncomplete,
		"count_columns", strings.Join(stats.CountColumns, ","),
	)
	return agg.Variants(), stats, nil
}

func aggregate(src io.Reader) (*Aggregator, error) {
	br := bufio.NewReader(src)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return NewAggregator(), nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	countCols := recentYearHeaders(header, recentYearColumns)

	agg := NewAggregator()
	agg.stats.CountColumns = countCols
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		row := Row{
			BodyType:        field(rec, cols, colBodyType),
			Make:            field(rec, cols, colMake),
			GenModel:        field(rec, cols, colGenModel),
			Model:           field(rec, cols, colModel),
			YearManufacture: field(rec, cols, colYearManufacture),
			YearFirstUsed:   field(rec, cols, colYearFirstUsed),
			Counts:          make([]string, len(countCols)),
		}
		for i, c := range countCols {
			row.Counts[i] = field(rec, cols, c)
		}
		agg.Add(row)
	}
	return agg, nil
}

// recentYearHeaders returns up to n header names that are plain 4-digit
// years, most recent first.
func recentYearHeaders(header []string, n int) []string {
	var years []string
	for _, h := range header {
		h = strings.TrimSpace(h)
		if len(h) == 4 && domain.ParseIntLike(h) >= 1900 && strings.Trim(h, "0123456789") == "" {
			years = append(years, h)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))
	if len(years) > n {
		years = years[:n]
	}
	return years
}

func field(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}
