// Package pipeline wires the catalog, fleet, matcher, report and lookup
// stages into the crossref and lookup runs.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/vehicle-icon-xref/internal/domain"
	"github.com/couchcryptid/vehicle-icon-xref/internal/observability"
)

// IconSource loads the icon catalog.
type IconSource interface {
	LoadIcons(ctx context.Context) ([]domain.IconEntry, error)
}

// VariantSource loads the aggregated fleet variants.
type VariantSource interface {
	LoadVariants(ctx context.Context) ([]domain.FleetVariant, domain.FleetStats, error)
}

// ReportSink persists a finished coverage report.
type ReportSink interface {
	WriteReport(report domain.CoverageReport) error
}

// LookupSink persists a finished lookup.
type LookupSink interface {
	WriteLookup(lookup domain.Lookup) error
}

// RowReader reads scored rows from a tier CSV.
type RowReader func(path string) ([]domain.ScoredRow, error)

// BatchLoader writes multiple output events to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// stage records how long a named step took.
type stage struct {
	name    string
	start   time.Time
	metrics *observability.Metrics
	logger  *slog.Logger
}

func startStage(name string, metrics *observability.Metrics, logger *slog.Logger) *stage {
	logger.Info("stage started", "stage", name)
	return &stage{name: name, start: domain.Now(), metrics: metrics, logger: logger}
}

func (s *stage) done(attrs ...any) {
	elapsed := domain.Now().Sub(s.start)
	s.metrics.StageDuration.WithLabelValues(s.name).Observe(elapsed.Seconds())
	s.logger.Info("stage finished", append([]any{"stage", s.name, "duration", elapsed}, attrs...)...)
}

// publish sends events through loader when one is configured.
func publish(ctx context.Context, loader BatchLoader, events []domain.OutputEvent, metrics *observability.Metrics) error {
	if loader == nil || len(events) == 0 {
		return nil
	}
	if err := loader.LoadBatch(ctx, events); err != nil {
		return err
	}
	metrics.MessagesProduced.Add(float64(len(events)))
	return nil
}
