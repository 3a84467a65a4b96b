package main

import (
	"fmt"
	"io"

	"github.com/couchcryptid/vehicle-icon-xref/internal/domain"
	"github.com/couchcryptid/vehicle-icon-xref/internal/pipeline"
	"github.com/fatih/color"
)

var (
	headingColor = color.New(color.Bold)
	coveredColor = color.New(color.FgGreen, color.Bold)
	weakColor    = color.New(color.FgYellow, color.Bold)
	missingColor = color.New(color.FgRed, color.Bold)
	pathColor    = color.New(color.FgCyan)
)

func printCrossRefSummary(w io.Writer, s pipeline.CrossRefSummary, outDir string) {
	headingColor.Fprintln(w, "Cross-reference complete")
	fmt.Fprintf(w, "Total variants: %d\n", s.TotalVariants)
	fmt.Fprintf(w, "Covered: %s\n", coveredColor.Sprint(s.ByStatus[domain.StatusCovered]))
	fmt.Fprintf(w, "Weak: %s\n", weakColor.Sprint(s.ByStatus[domain.StatusWeakMatch]))
	fmt.Fprintf(w, "Clearly missing: %s\n", missingColor.Sprint(s.ByStatus[domain.StatusClearlyMissing]))
	if s.Published > 0 {
		fmt.Fprintf(w, "Published: %d\n", s.Published)
	}
	fmt.Fprintf(w, "Output directory: %s\n", pathColor.Sprint(outDir))
}

func printLookupSummary(w io.Writer, s pipeline.LookupSummary, outPath string) {
	headingColor.Fprintf(w, "Lookup written: ")
	fmt.Fprintln(w, pathColor.Sprint(outPath))
	fmt.Fprintf(w, "Makes: %s", coveredColor.Sprint(s.Makes))
	if s.Dropped > 0 {
		fmt.Fprintf(w, " (%s below threshold)", weakColor.Sprint(s.Dropped))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Rows used: covered=%d, weak=%d\n", s.RowsUsed.Covered, s.RowsUsed.Weak)
	if s.Published > 0 {
		fmt.Fprintf(w, "Published: %d\n", s.Published)
	}
}
