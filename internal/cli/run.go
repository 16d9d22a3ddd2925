package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/Artzzx/buildlore/internal/output"
	"github.com/Artzzx/buildlore/internal/pipeline"
)

var (
	only         string
	dryRun       bool
	force        bool
	patchVersion string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest build sources and publish the knowledge base",
	Long: `Run executes the full ingestion pipeline:
- Discover planner exports and filter snapshots under the sources directory
- Validate and score each source, extract per-phase affix weights
- Merge overlapping observations into a consensus per build
- Fill sparse builds from archetype inheritance
- Publish knowledge-base.json atomically with checksum metadata

Example:
  buildlore run
  buildlore run --only sentinel-paladin-fire
  buildlore run --dry-run --verbose
  buildlore run --force --patch-version 1.3.6`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&only, "only", "", "process a single build slug")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and report without writing anything")
	runCmd.Flags().BoolVar(&force, "force", false, "rebuild even when the published output is newer than every input")
	runCmd.Flags().StringVar(&patchVersion, "patch-version", "", "override the game patch version stamped into the output")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if patchVersion != "" {
		cfg.Output.PatchVersion = patchVersion
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "%s\n", banner)
	fmt.Fprintf(os.Stderr, "  Buildlore Ingestion\n")
	fmt.Fprintf(os.Stderr, "%s\n", banner)
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Sources:   %s\n", cfg.Paths.SourcesDir)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", cfg.Paths.WeightsDir)
	fmt.Fprintf(os.Stderr, "  Patch:     %s\n", cfg.Output.PatchVersion)
	if only != "" {
		fmt.Fprintf(os.Stderr, "  Only:      %s\n", only)
	}
	if dryRun {
		fmt.Fprintf(os.Stderr, "  Dry run:   validate and report, write nothing\n")
	}
	fmt.Fprintf(os.Stderr, "\n")

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	report, err := p.Run(ctx, pipeline.RunOptions{
		Only:   only,
		DryRun: dryRun,
		Force:  force,
	})
	if err != nil {
		return err
	}

	output.RenderReport(os.Stdout, report)

	if report.BuildsProcessed == 0 && len(report.BuildsFailed) > 0 {
		return eris.Errorf("all %d builds failed", len(report.BuildsFailed))
	}
	return nil
}
