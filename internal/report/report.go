// Package report persists cross-reference results as a JSON coverage report
// and per-tier CSV shortlists, and reads tier CSVs back for the lookup
// builder.
package report

import (
	"sort"

	"github.com/couchcryptid/vehicle-icon-xref/internal/domain"
)

// TopMissingLimit caps the prioritized clearly-missing shortlist.
const TopMissingLimit = 250

// SortResults orders results by status, then largest fleet first, then
// lowest score first. Equal keys keep their input order.
func SortResults(results []domain.MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Status != b.Status {
			return a.Status < b.Status
		}
		if a.FleetEstimate != b.FleetEstimate {
			return a.FleetEstimate > b.FleetEstimate
		}
		return a.Score < b.Score
	})
}

// BuildCoverageReport wraps already-sorted results with their per-status
// counts and the thresholds they were classified with.
func BuildCoverageReport(sourceFleet, sourceIcons string, results []domain.MatchResult) domain.CoverageReport {
	summary := make(map[domain.Status]int)
	for _, r := range results {
		summary[r.Status]++
	}
	if results == nil {
		results = []domain.MatchResult{}
	}
	return domain.CoverageReport{
		SourceFleet: sourceFleet,
		SourceIcons: sourceIcons,
		Thresholds: domain.CoverageThresholds{
			ClearlyMissingBelow: domain.MissingThreshold,
			WeakMatchBelow:      domain.WeakThreshold,
		},
		Summary:       summary,
		TotalVariants: len(results),
		Results:       results,
	}
}

// FilterStatus returns the results with the given status, in order.
func FilterStatus(results []domain.MatchResult, status domain.Status) []domain.MatchResult {
	out := make([]domain.MatchResult, 0)
	for _, r := range results {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

// TopByFleet returns up to n results with the largest fleet estimates.
// Ties keep their input order.
func TopByFleet(results []domain.MatchResult, n int) []domain.MatchResult {
	out := make([]domain.MatchResult, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FleetEstimate > out[j].FleetEstimate
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
