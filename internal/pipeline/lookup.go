package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/vehicle-icon-xref/internal/domain"
	"github.com/couchcryptid/vehicle-icon-xref/internal/lookup"
	"github.com/couchcryptid/vehicle-icon-xref/internal/observability"
)

// LookupSummary is the outcome of a lookup run.
type LookupSummary struct {
	RowsUsed  domain.RowsUsed
	Makes     int
	Dropped   int
	Published int
}

// Lookup folds the covered and weak tier CSVs into the default-icon lookup.
type Lookup struct {
	rows       RowReader
	sink       LookupSink
	loader     BatchLoader
	source     domain.LookupSource
	iconPrefix string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewLookup creates a Lookup run over the tier CSVs named in source. Only
// rows whose icon path starts with iconPrefix are used. loader may be nil to
// skip publishing.
func NewLookup(rows RowReader, sink LookupSink, loader BatchLoader, source domain.LookupSource,
	iconPrefix string, logger *slog.Logger, metrics *observability.Metrics) *Lookup {
	return &Lookup{
		rows:       rows,
		sink:       sink,
		loader:     loader,
		source:     source,
		iconPrefix: iconPrefix,
		logger:     logger,
		metrics:    metrics,
	}
}

// Run builds and writes the lookup, then publishes one message per make.
func (l *Lookup) Run(ctx context.Context) (LookupSummary, error) {
	st := startStage("build_lookup", l.metrics, l.logger)
	b := lookup.NewBuilder(l.iconPrefix)

	covered, err := l.rows(l.source.CoveredCSV)
	if err != nil {
		return LookupSummary{}, fmt.Errorf("read covered rows: %w", err)
	}
	weak, err := l.rows(l.source.WeakCSV)
	if err != nil {
		return LookupSummary{}, fmt.Errorf("read weak rows: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return LookupSummary{}, err
	}

	used := domain.RowsUsed{
		Covered: b.Consume(covered, domain.MinCoveredScore),
		Weak:    b.Consume(weak, domain.MinWeakScore),
	}
	lk := b.Build(l.source, used)
	dropped := b.Candidates() - lk.MakeCount

	l.metrics.LookupRowsUsed.WithLabelValues("covered").Add(float64(used.Covered))
	l.metrics.LookupRowsUsed.WithLabelValues("weak").Add(float64(used.Weak))
	l.metrics.LookupMakes.WithLabelValues("emitted").Set(float64(lk.MakeCount))
	l.metrics.LookupMakes.WithLabelValues("dropped").Set(float64(dropped))
	st.done("makes", lk.MakeCount, "dropped", dropped)

	if err := l.sink.WriteLookup(lk); err != nil {
		return LookupSummary{}, fmt.Errorf("write lookup: %w", err)
	}

	summary := LookupSummary{RowsUsed: used, Makes: lk.MakeCount, Dropped: dropped}

	if l.loader != nil {
		st = startStage("publish", l.metrics, l.logger)
		events, err := domain.LookupEvents(lk)
		if err != nil {
			return summary, err
		}
		if err := publish(ctx, l.loader, events, l.metrics); err != nil {
			return summary, fmt.Errorf("publish lookup: %w", err)
		}
		summary.Published = len(events)
		st.done("messages", len(events))
	}

	l.metrics.LastSuccess.SetToCurrentTime()
	l.logger.Info("lookup complete",
		"makes", summary.Makes,
		"dropped", summary.Dropped,
		"rows_covered", used.Covered,
		"rows_weak", used.Weak,
	)
	return summary, nil
}
