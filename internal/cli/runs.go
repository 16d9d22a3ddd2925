package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/Artzzx/buildlore/internal/store"
)

var listLimit int

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the run ledger",
	Long:  `List and inspect past pipeline runs recorded in the local run ledger.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}
		defer ledger.Close()

		runs, err := ledger.ListRuns(cmd.Context(), listLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tPATCH\tBUILDS\tFAILED\tSOURCES\tDURATION")
		fmt.Fprintln(w, "--\t-------\t------\t-----\t------\t------\t-------\t--------")
		for _, r := range runs {
			status := r.Status
			if r.DryRun {
				status += " (dry)"
			}
			total := r.SourcesAccepted + r.SourcesRejected
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d/%d\t%s\n",
				truncateID(r.ID),
				r.StartedAt.Format("2006-01-02 15:04"),
				status,
				r.PatchVersion,
				r.BuildsProcessed,
				r.BuildsFailed,
				r.SourcesAccepted, total,
				(time.Duration(r.DurationMS) * time.Millisecond).String(),
			)
		}
		return w.Flush()
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one run in full, including its report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := openLedger(cmd.Context())
		if err != nil {
			return err
		}
		defer ledger.Close()

		run, err := findRun(cmd.Context(), ledger, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)

	runsListCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum number of runs to list")
}

func openLedger(ctx context.Context) (*store.Ledger, error) {
	if cfg.Ledger.Path == "" {
		return nil, eris.New("run ledger disabled (ledger.path is empty)")
	}
	ledger, err := store.Open(cfg.Ledger.Path)
	if err != nil {
		return nil, err
	}
	if err := ledger.Migrate(ctx); err != nil {
		ledger.Close()
		return nil, err
	}
	return ledger, nil
}

// findRun resolves an exact run id or a unique prefix of one, so ids can be
// copied straight from the truncated list output.
func findRun(ctx context.Context, ledger *store.Ledger, id string) (*store.RunRecord, error) {
	run, err := ledger.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if run != nil {
		return run, nil
	}

	runs, err := ledger.ListRuns(ctx, 1000)
	if err != nil {
		return nil, err
	}
	var match *store.RunRecord
	for i := range runs {
		if strings.HasPrefix(runs[i].ID, id) {
			if match != nil {
				return nil, eris.Errorf("run id prefix %q is ambiguous", id)
			}
			match = &runs[i]
		}
	}
	if match == nil {
		return nil, eris.Errorf("run not found: %s", id)
	}
	return match, nil
}

// truncateID returns the first 8 characters of a run id for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
