package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/vehicle-icon-xref/internal/domain"
	"github.com/couchcryptid/vehicle-icon-xref/internal/match"
	"github.com/couchcryptid/vehicle-icon-xref/internal/observability"
	"github.com/couchcryptid/vehicle-icon-xref/internal/report"
)

// CrossRefSources names the inputs as recorded in the coverage report.
type CrossRefSources struct {
	Fleet string
	Icons string
}

// CrossRefSummary is the outcome of a crossref run.
type CrossRefSummary struct {
	Icons         int
	TotalVariants int
	ByStatus      map[domain.Status]int
	Published     int
}

// CrossRef scores every fleet variant against the icon catalog and writes
// the coverage report.
type CrossRef struct {
	icons     IconSource
	variants  VariantSource
	sink      ReportSink
	loader    BatchLoader
	sources   CrossRefSources
	cacheSize int
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewCrossRef creates a CrossRef run. loader may be nil to skip publishing.
func NewCrossRef(icons IconSource, variants VariantSource, sink ReportSink, loader BatchLoader,
	sources CrossRefSources, cacheSize int, logger *slog.Logger, metrics *observability.Metrics) *CrossRef {
	return &CrossRef{
		icons:     icons,
		variants:  variants,
		sink:      sink,
		loader:    loader,
		sources:   sources,
		cacheSize: cacheSize,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run executes the crossref. Report files are written before anything is
// published, so a publish failure leaves them in place.
func (c *CrossRef) Run(ctx context.Context) (CrossRefSummary, error) {
	st := startStage("load_icons", c.metrics, c.logger)
	icons, err := c.icons.LoadIcons(ctx)
	if err != nil {
		return CrossRefSummary{}, fmt.Errorf("load icons: %w", err)
	}
	c.metrics.IconsLoaded.Set(float64(len(icons)))
	st.done("icons", len(icons))

	st = startStage("aggregate_fleet", c.metrics, c.logger)
	variants, stats, err := c.variants.LoadVariants(ctx)
	if err != nil {
		return CrossRefSummary{}, fmt.Errorf("load fleet variants: %w", err)
	}
	c.metrics.FleetRowsRead.Add(float64(stats.RowsRead))
	c.metrics.FleetRowsSkipped.WithLabelValues("body_type").Add(float64(stats.SkippedBodyType))
	c.metrics.FleetRowsSkipped.WithLabelValues("incomplete").Add(float64(stats.SkippedIncomplete))
	c.metrics.FleetVariants.Set(float64(len(variants)))
	st.done("variants", len(variants))

	st = startStage("match", c.metrics, c.logger)
	results := c.match(ctx, icons, variants)
	if err := ctx.Err(); err != nil {
		return CrossRefSummary{}, err
	}
	report.SortResults(results)
	st.done("results", len(results))

	st = startStage("write_report", c.metrics, c.logger)
	rep := report.BuildCoverageReport(c.sources.Fleet, c.sources.Icons, results)
	if err := c.sink.WriteReport(rep); err != nil {
		return CrossRefSummary{}, fmt.Errorf("write report: %w", err)
	}
	st.done()

	summary := CrossRefSummary{
		Icons:         len(icons),
		TotalVariants: rep.TotalVariants,
		ByStatus:      rep.Summary,
	}

	if c.loader != nil {
		st = startStage("publish", c.metrics, c.logger)
		events := make([]domain.OutputEvent, 0, len(results))
		for _, r := range results {
			ev, err := domain.ResultEvent(r)
			if err != nil {
				return summary, err
			}
			events = append(events, ev)
		}
		if err := publish(ctx, c.loader, events, c.metrics); err != nil {
			return summary, fmt.Errorf("publish coverage results: %w", err)
		}
		summary.Published = len(events)
		st.done("messages", len(events))
	}

	c.metrics.LastSuccess.SetToCurrentTime()
	c.logger.Info("crossref complete",
		"variants", summary.TotalVariants,
		"covered", summary.ByStatus[domain.StatusCovered],
		"weak_match", summary.ByStatus[domain.StatusWeakMatch],
		"clearly_missing", summary.ByStatus[domain.StatusClearlyMissing],
	)
	return summary, nil
}

func (c *CrossRef) match(ctx context.Context, icons []domain.IconEntry, variants []domain.FleetVariant) []domain.MatchResult {
	m := match.NewMatcher(icons, c.cacheSize)
	results := make([]domain.MatchResult, 0, len(variants))
	for i, v := range variants {
		if i%1000 == 0 && ctx.Err() != nil {
			return results
		}
		out := m.Match(v)
		if out.Fallback {
			c.metrics.FallbackMatches.Inc()
		}
		c.metrics.VariantsMatched.WithLabelValues(string(out.Result.Status)).Inc()
		c.logger.Debug("variant matched",
			"make", v.Make,
			"genmodel", v.GenModel,
			"model", v.Model,
			"year", v.Year,
			"status", out.Result.Status,
			"score", out.Result.Score,
			"icon", out.Result.BestIconFile,
			"candidates", out.Candidates,
		)
		results = append(results, out.Result)
	}

	hits, misses := m.CacheStats()
	c.metrics.CandidateCache.WithLabelValues("hit").Add(float64(hits))
	c.metrics.CandidateCache.WithLabelValues("miss").Add(float64(misses))
	return results
}
