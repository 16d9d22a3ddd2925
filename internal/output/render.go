package output

import (
	"fmt"
	"io"

	"github.com/Artzzx/buildlore/internal/model"
)

const banner = "═══════════════════════════════════════════════════════════"

// RenderReport prints a human summary of a run. File artifacts carry the
// full detail; this is the operator-facing digest.
func RenderReport(w io.Writer, report *model.RunReport) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "%s\n", banner)
	fmt.Fprintf(w, "  Buildlore Ingestion Complete\n")
	fmt.Fprintf(w, "%s\n", banner)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Builds processed:    %d\n", report.BuildsProcessed)
	fmt.Fprintf(w, "  Builds failed:       %d\n", len(report.BuildsFailed))
	fmt.Fprintf(w, "  Sources accepted:    %d\n", report.SourcesAccepted)
	fmt.Fprintf(w, "  Sources rejected:    %d\n", len(report.SourcesRejected))
	fmt.Fprintf(w, "  Unresolved affixes:  %d\n", len(report.UnresolvedAffixes))
	fmt.Fprintf(w, "  Low confidence:      %d\n", len(report.LowConfidenceBuilds))
	fmt.Fprintf(w, "  High spread flags:   %d\n", len(report.HighSpreadAffixes))
	fmt.Fprintf(w, "  Duration:            %.2fs\n", report.DurationSeconds)

	if len(report.BuildsFailed) > 0 {
		fmt.Fprintf(w, "\n")
		for _, f := range report.BuildsFailed {
			fmt.Fprintf(w, "  ✗ %s: %s\n", f.Build, f.Reason)
		}
	}
	if len(report.LowConfidenceBuilds) > 0 {
		fmt.Fprintf(w, "\n")
		for _, b := range report.LowConfidenceBuilds {
			fmt.Fprintf(w, "  ⚠ low confidence: %s\n", b)
		}
	}
	fmt.Fprintf(w, "\n")
}
