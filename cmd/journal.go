// ABOUTME: Journal command reporting ingests that never reached finalized
// ABOUTME: Reads the local journal only; the backend is not contacted

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lmsgo/course-author/internal/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the local ingest journal",
}

var journalOrphansCmd = &cobra.Command{
	Use:   "orphans",
	Short: "List drafts whose upload or finalization did not complete",
	Long: `List content drafts recorded in the ingest journal that never reached
the finalized stage, with the stage they stopped at and the last error.

Environment Variables:
  LMS_JOURNAL_PATH  SQLite journal file (empty disables the journal)`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runJournalOrphans(context.Background(), os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalOrphansCmd)
}

func runJournalOrphans(ctx context.Context, w io.Writer) int {
	cfg, err := loadConfig()
	if err != nil {
		return reportError(w, fmt.Errorf("%w: %w", errUsage, err))
	}
	if !cfg.JournalEnabled() {
		return reportError(w, fmt.Errorf("%w: the ingest journal is disabled", errUsage))
	}

	j, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return reportError(w, err)
	}
	defer j.Close()

	entries, err := j.Orphans(ctx)
	if err != nil {
		return reportError(w, err)
	}

	if IsJSONOutput() {
		if entries == nil {
			entries = []journal.Entry{}
		}
		writeJSON(w, entries)
	} else {
		fmt.Fprint(w, formatOrphansHuman(entries))
	}
	return exitOK
}

func formatOrphansHuman(entries []journal.Entry) string {
	if len(entries) == 0 {
		return "No unfinished ingests.\n"
	}

	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CONTENT\tNAME\tSTAGE\tUPDATED\tERROR")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ContentID, e.Name, e.Stage, e.UpdatedAt, e.Error)
	}
	tw.Flush()
	return sb.String()
}
