package report

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/vehicle-icon-xref/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func result(status domain.Status, mk string, fleet int, score float64) domain.MatchResult {
	return domain.MatchResult{Status: status, Make: mk, FleetEstimate: fleet, Score: score}
}

func TestSortResults(t *testing.T) {
	results := []domain.MatchResult{
		result(domain.StatusWeakMatch, "a", 10, 0.3),
		result(domain.StatusCovered, "b", 5, 0.9),
		result(domain.StatusClearlyMissing, "c", 5, 0.1),
		result(domain.StatusCovered, "d", 50, 0.8),
		result(domain.StatusCovered, "e", 50, 0.5),
		result(domain.StatusClearlyMissing, "f", 100, 0.0),
		result(domain.StatusCovered, "g", 50, 0.5),
	}

	SortResults(results)

	var got []string
	for _, r := range results {
		got = append(got, r.Make)
	}
	assert.Equal(t, []string{"f", "c", "e", "g", "d", "b", "a"}, got)
}

func TestBuildCoverageReport(t *testing.T) {
	results := []domain.MatchResult{
		result(domain.StatusClearlyMissing, "a", 1, 0),
		result(domain.StatusCovered, "b", 1, 0.9),
		result(domain.StatusCovered, "c", 1, 0.8),
	}

	rep := BuildCoverageReport("fleet.csv", "icons", results)

	assert.Equal(t, 3, rep.TotalVariants)
	assert.Equal(t, map[domain.Status]int{
		domain.StatusClearlyMissing: 1,
		domain.StatusCovered:        2,
	}, rep.Summary)
	assert.InDelta(t, 0.18, rep.Thresholds.ClearlyMissingBelow, 1e-12)
	assert.InDelta(t, 0.42, rep.Thresholds.WeakMatchBelow, 1e-12)

	total := 0
	for _, n := range rep.Summary {
		total += n
	}
	assert.Equal(t, rep.TotalVariants, total)
}

func TestBuildCoverageReport_Empty(t *testing.T) {
	rep := BuildCoverageReport("fleet.csv", "icons", nil)
	assert.Zero(t, rep.TotalVariants)
	assert.NotNil(t, rep.Results)
	assert.Empty(t, rep.Summary)
}

func TestTopByFleet(t *testing.T) {
	var results []domain.MatchResult
	for i := range 300 {
		results = append(results, result(domain.StatusClearlyMissing, "m", i%7, 0))
	}

	top := TopByFleet(results, TopMissingLimit)

	require.Len(t, top, TopMissingLimit)
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].FleetEstimate, top[i].FleetEstimate)
	}
	assert.Equal(t, 0, results[0].FleetEstimate, "input must not be reordered")
}

func TestFormatScore(t *testing.T) {
	tests := map[float64]string{
		0:      "0.0",
		1:      "1.0",
		0.25:   "0.25",
		0.7133: "0.7133",
		0.06:   "0.06",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatScore(in), "formatScore(%v)", in)
	}
}

func TestFileWriter_WriteReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	results := []domain.MatchResult{
		{
			Status: domain.StatusCovered, Score: 0.7133, Make: "MERCEDES", GenModel: "MERCEDES E CLASS",
			Model: "E220 D AMG LINE", Year: 2018, FleetEstimate: 1200,
			BestIconFile: "mercedes_e_class_18.png", BestIconPath: "gfx/vehicle_icons/gt/mercedes_e_class_18.png",
			BestIconLabel: "Mercedes-Benz E-Class, 2018", MatchMake: 1, MatchFamily: 0.3333,
			MatchGenModel: 0.6667, MatchModel: 0.25, MatchYear: 1,
		},
		{Status: domain.StatusWeakMatch, Score: 0.3, Make: "FORD", FleetEstimate: 30},
		{Status: domain.StatusClearlyMissing, Make: "DACIA", FleetEstimate: 10},
		{Status: domain.StatusClearlyMissing, Make: "LADA", FleetEstimate: 99},
	}
	SortResults(results)
	rep := BuildCoverageReport("data/DVLA/df_VEH0124.csv", "gfx/vehicle_icons/gt", results)

	require.NoError(t, NewFileWriter(dir, discardLogger()).WriteReport(rep))

	data, err := os.ReadFile(filepath.Join(dir, CoverageJSON))
	require.NoError(t, err)
	var decoded domain.CoverageReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	if diff := cmp.Diff(rep, decoded); diff != "" {
		t.Errorf("coverage report mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, string(data), "\n  \"source_dvla\"")

	covered := readLines(t, filepath.Join(dir, CoveredCSV))
	require.Len(t, covered, 2)
	assert.Equal(t, strings.Join(csvHeader, ","), covered[0])
	assert.Equal(t,
		`covered,0.7133,MERCEDES,MERCEDES E CLASS,E220 D AMG LINE,2018,1200,mercedes_e_class_18.png,`+
			`gfx/vehicle_icons/gt/mercedes_e_class_18.png,"Mercedes-Benz E-Class, 2018",1.0,0.3333,0.6667,0.25,1.0`,
		covered[1])

	missing := readLines(t, filepath.Join(dir, MissingCSV))
	require.Len(t, missing, 3)
	assert.True(t, strings.HasPrefix(missing[1], "clearly_missing,0.0,LADA,"))
	assert.True(t, strings.HasPrefix(missing[2], "clearly_missing,0.0,DACIA,"))

	top := readLines(t, filepath.Join(dir, MissingTopCSV))
	assert.Equal(t, missing, top)

	weak := readLines(t, filepath.Join(dir, WeakCSV))
	assert.Len(t, weak, 2)
}

func TestFileWriter_EmptyTiersKeepHeader(t *testing.T) {
	dir := t.TempDir()
	rep := BuildCoverageReport("fleet.csv", "icons", nil)

	require.NoError(t, NewFileWriter(dir, discardLogger()).WriteReport(rep))

	for _, name := range []string{MissingCSV, WeakCSV, CoveredCSV, MissingTopCSV} {
		lines := readLines(t, filepath.Join(dir, name))
		assert.Equal(t, []string{strings.Join(csvHeader, ",")}, lines, name)
	}
}

func TestFileWriter_RoundTripScoredRows(t *testing.T) {
	dir := t.TempDir()
	results := []domain.MatchResult{
		{
			Status: domain.StatusCovered, Score: 0.81, Make: "LAND ROVER", Year: 2020, FleetEstimate: 4500,
			BestIconPath: "gfx/vehicle_icons/gt/defender.png", BestIconLabel: "Land Rover Defender",
		},
	}
	rep := BuildCoverageReport("fleet.csv", "icons", results)
	require.NoError(t, NewFileWriter(dir, discardLogger()).WriteReport(rep))

	rows, err := ReadScoredRows(filepath.Join(dir, CoveredCSV))
	require.NoError(t, err)
	assert.Equal(t, []domain.ScoredRow{{
		Make: "LAND ROVER", Year: 2020, FleetEstimate: 4500, Score: 0.81,
		IconPath: "gfx/vehicle_icons/gt/defender.png", IconLabel: "Land Rover Defender",
	}}, rows)
}

func TestReadScoredRows_MissingFile(t *testing.T) {
	rows, err := ReadScoredRows(filepath.Join(t.TempDir(), "absent.csv"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadScoredRows_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	rows, err := ReadScoredRows(path)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadScoredRows_LenientCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "covered.csv")
	content := "\ufeffmake,year,fleet_estimate,score,best_icon_path,best_icon_label\n" +
		"KIA, 2019 ,12.0,0.55,  gfx/vehicle_icons/a.png ,  Kia Ceed \n" +
		"SKODA,,[x],oops,gfx/vehicle_icons/b.png,Octavia\n" +
		"SEAT\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rows, err := ReadScoredRows(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.ScoredRow{
		{Make: "KIA", Year: 2019, FleetEstimate: 12, Score: 0.55, IconPath: "gfx/vehicle_icons/a.png", IconLabel: "Kia Ceed"},
		{Make: "SKODA", IconPath: "gfx/vehicle_icons/b.png", IconLabel: "Octavia"},
		{Make: "SEAT"},
	}, rows)
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}
