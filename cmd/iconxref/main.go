package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "iconxref",
	Short: "Cross-reference the DVLA fleet against the vehicle icon catalog",
	Long: `iconxref scores every licensed car variant in the DVLA VEH0124 census
against the rendered vehicle icons, writes a coverage report with
shortlists, and folds confident matches into a per-make icon lookup.

All settings come from environment variables (XREF_ROOT, DVLA_CSV,
VEHICLE_MODELS_JSON, ICON_DIR, CROSSREF_OUT_DIR, LOOKUP_OUT_JSON, ...).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(crossrefCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(allCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("iconxref failed", "error", err)
		stop()
		os.Exit(1)
	}
}
