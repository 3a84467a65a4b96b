package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/vehicle-icon-xref/internal/domain"
)

// Output file names inside the report directory.
const (
	CoverageJSON  = "dvla_vehicle_icon_coverage.json"
	MissingCSV    = "dvla_vehicle_icon_missing.csv"
	WeakCSV       = "dvla_vehicle_icon_weak_matches.csv"
	CoveredCSV    = "dvla_vehicle_icon_covered.csv"
	MissingTopCSV = "dvla_vehicle_icon_missing_top250.csv"
)

const outputDirPerms = 0o755

// csvHeader is the tier CSV column order.
var csvHeader = []string{
	"status", "score", "make", "genmodel", "model", "year", "fleet_estimate",
	"best_icon_file", "best_icon_path", "best_icon_label",
	"match_make", "match_family", "match_genmodel", "match_model", "match_year",
}

// FileWriter writes the coverage report and shortlists into one directory.
// It implements pipeline.ReportSink.
type FileWriter struct {
	dir    string
	logger *slog.Logger
}

// NewFileWriter creates a FileWriter rooted at dir.
func NewFileWriter(dir string, logger *slog.Logger) *FileWriter {
	return &FileWriter{dir: dir, logger: logger}
}

// WriteReport rewrites every output file from report. Results must already
// be sorted.
func (w *FileWriter) WriteReport(report domain.CoverageReport) error {
	if err := os.MkdirAll(w.dir, outputDirPerms); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	if err := writeJSON(filepath.Join(w.dir, CoverageJSON), report); err != nil {
		return err
	}

	missing := FilterStatus(report.Results, domain.StatusClearlyMissing)
	tiers := []struct {
		name string
		rows []domain.MatchResult
	}{
		{MissingCSV, missing},
		{WeakCSV, FilterStatus(report.Results, domain.StatusWeakMatch)},
		{CoveredCSV, FilterStatus(report.Results, domain.StatusCovered)},
		{MissingTopCSV, TopByFleet(missing, TopMissingLimit)},
	}
	for _, t := range tiers {
		path := filepath.Join(w.dir, t.name)
		if err := writeResultsCSV(path, t.rows); err != nil {
			return err
		}
		w.logger.Debug("tier csv written", "path", path, "rows", len(t.rows))
	}

	w.logger.Info("coverage report written", "dir", w.dir, "variants", report.TotalVariants)
	return nil
}

// writeJSON writes v as two-space indented JSON.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // output files are meant to be world-readable
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeResultsCSV(path string, rows []domain.MatchResult) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	cw := csv.NewWriter(f)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write %s header: %w", path, err)
	}
	for _, r := range rows {
		if err := cw.Write(csvRecord(r)); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

func csvRecord(r domain.MatchResult) []string {
	return []string{
		string(r.Status),
		formatScore(r.Score),
		r.Make,
		r.GenModel,
		r.Model,
		strconv.Itoa(r.Year),
		strconv.Itoa(r.FleetEstimate),
		r.BestIconFile,
		r.BestIconPath,
		r.BestIconLabel,
		formatScore(r.MatchMake),
		formatScore(r.MatchFamily),
		formatScore(r.MatchGenModel),
		formatScore(r.MatchModel),
		formatScore(r.MatchYear),
	}
}

// formatScore renders the shortest decimal form, always with a fractional
// part ("1.0", "0.25").
func formatScore(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if strings.ContainsRune(s, '.') {
		return s
	}
	return s + ".0"
}
