package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	kafkaadapter "github.com/couchcryptid/vehicle-icon-xref/internal/adapter/kafka"
	"github.com/couchcryptid/vehicle-icon-xref/internal/catalog"
	"github.com/couchcryptid/vehicle-icon-xref/internal/config"
	"github.com/couchcryptid/vehicle-icon-xref/internal/domain"
	"github.com/couchcryptid/vehicle-icon-xref/internal/fleet"
	"github.com/couchcryptid/vehicle-icon-xref/internal/lookup"
	"github.com/couchcryptid/vehicle-icon-xref/internal/observability"
	"github.com/couchcryptid/vehicle-icon-xref/internal/pipeline"
	"github.com/couchcryptid/vehicle-icon-xref/internal/report"
	"github.com/spf13/cobra"
)

var crossrefCmd = &cobra.Command{
	Use:   "crossref",
	Short: "Score fleet variants against icons and write the coverage report",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(a *app) error {
			return a.crossref(cmd.Context(), cmd.OutOrStdout())
		})
	},
}

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Build the per-make icon lookup from the covered and weak shortlists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(a *app) error {
			return a.lookup(cmd.Context(), cmd.OutOrStdout())
		})
	},
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run crossref, then lookup",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(a *app) error {
			if err := a.crossref(cmd.Context(), cmd.OutOrStdout()); err != nil {
				return err
			}
			return a.lookup(cmd.Context(), cmd.OutOrStdout())
		})
	},
}

// app holds the process-wide dependencies shared by every subcommand.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

// withApp loads configuration, runs fn and pushes the run's metrics when a
// Pushgateway is configured. A push failure is logged, never returned.
func withApp(cmd *cobra.Command, fn func(a *app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a := &app{
		cfg:     cfg,
		logger:  observability.NewLogger(cfg),
		metrics: observability.NewMetrics(),
	}

	runErr := fn(a)

	if cfg.PushgatewayURL != "" {
		if err := observability.Push(context.WithoutCancel(cmd.Context()), cfg.PushgatewayURL, cfg.PushgatewayJob, a.metrics); err != nil {
			a.logger.Error("metrics push failed", "error", err, "url", cfg.PushgatewayURL)
		} else {
			a.logger.Info("metrics pushed", "url", cfg.PushgatewayURL, "job", cfg.PushgatewayJob)
		}
	}
	return runErr
}

func (a *app) crossref(ctx context.Context, out io.Writer) error {
	var loader pipeline.BatchLoader
	if a.cfg.KafkaEnabled() {
		w := kafkaadapter.NewWriter(a.cfg.KafkaBrokers, a.cfg.KafkaCoverageTopic, a.cfg.KafkaWriteTimeout, a.logger)
		defer closeWriter(w, a.logger)
		loader = w
		a.logger.Info("kafka publishing enabled", "topic", a.cfg.KafkaCoverageTopic, "brokers", a.cfg.KafkaBrokers)
	}

	run := pipeline.NewCrossRef(
		catalog.NewLoader(a.cfg.VehicleModelsJSON, a.cfg.IconDir, a.cfg.IconExt, a.cfg.IconPathPrefix, a.logger),
		fleet.NewReader(a.cfg.FleetCSV, a.logger),
		report.NewFileWriter(a.cfg.CrossrefOutDir, a.logger),
		loader,
		pipeline.CrossRefSources{Fleet: a.cfg.FleetCSV, Icons: a.cfg.IconDir},
		a.cfg.MatchCacheSize,
		a.logger,
		a.metrics,
	)
	summary, err := run.Run(ctx)
	if err != nil {
		return fmt.Errorf("crossref: %w", err)
	}
	printCrossRefSummary(out, summary, a.cfg.CrossrefOutDir)
	return nil
}

func (a *app) lookup(ctx context.Context, out io.Writer) error {
	var loader pipeline.BatchLoader
	if a.cfg.KafkaEnabled() {
		w := kafkaadapter.NewWriter(a.cfg.KafkaBrokers, a.cfg.KafkaLookupTopic, a.cfg.KafkaWriteTimeout, a.logger)
		defer closeWriter(w, a.logger)
		loader = w
		a.logger.Info("kafka publishing enabled", "topic", a.cfg.KafkaLookupTopic, "brokers", a.cfg.KafkaBrokers)
	}

	run := pipeline.NewLookup(
		report.ReadScoredRows,
		lookup.NewFileWriter(a.cfg.LookupOutJSON),
		loader,
		domain.LookupSource{CoveredCSV: a.cfg.CoveredCSV(), WeakCSV: a.cfg.WeakCSV()},
		a.cfg.LookupIconPrefix,
		a.logger,
		a.metrics,
	)
	summary, err := run.Run(ctx)
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}
	printLookupSummary(out, summary, a.cfg.LookupOutJSON)
	return nil
}

func closeWriter(w io.Closer, logger *slog.Logger) {
	if err := w.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
}
