package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/kat/internal/store"
)

// DefaultHistoryDB is the database history reads when --db is not given.
const DefaultHistoryDB = "kat-history.db"

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	Document string
	RunID    string
}

// RunEntry is one recorded run in history output.
type RunEntry struct {
	ID          string      `json:"id"`
	Seq         int64       `json:"seq"`
	Document    string      `json:"document"`
	ContentHash string      `json:"content_hash"`
	Format      string      `json:"format"`
	StartedAt   time.Time   `json:"started_at"`
	FinishedAt  time.Time   `json:"finished_at"`
	Cases       int         `json:"cases"`
	Passed      int         `json:"passed"`
	Failed      int         `json:"failed"`
	Skipped     int         `json:"skipped"`
	Results     []CaseEntry `json:"results,omitempty"`
}

// CaseEntry is one case outcome in history output.
type CaseEntry struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Outcome string `json:"outcome"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List the runs recorded by tests configured with a history database,
newest first, or show the case outcomes of a single run.

Examples:
  kat history --db kat-history.db
  kat history --document testdata/vectors.toml --limit 5
  kat history --run 0190f5c2-8b1e-7c3a-9d4f-2a6b8c0e1f3d`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", DefaultHistoryDB, "path to SQLite history database")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 for all)")
	cmd.Flags().StringVar(&opts.Document, "document", "", "only list runs of this document path")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show the case outcomes of one run")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	ctx := cmd.Context()

	// store.Open creates missing databases; history only reads.
	if _, err := os.Stat(opts.Database); err != nil {
		_ = out.Error(CodeDatabase, fmt.Sprintf("database not found: %s", opts.Database), nil)
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.RunID != "" {
		run, err := st.GetRun(ctx, opts.RunID)
		if errors.Is(err, store.ErrRunNotFound) {
			_ = out.Error(CodeDatabase, fmt.Sprintf("run not found: %s", opts.RunID), nil)
			return WrapExitError(ExitCommandError, "run not found", err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		entry := toRunEntry(run)
		if out.JSON() {
			return out.Success(entry)
		}
		writeRunText(out, entry)
		return nil
	}

	runs, err := st.ListRuns(ctx, store.ListOptions{Document: opts.Document, Limit: opts.Limit})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	entries := make([]RunEntry, 0, len(runs))
	for _, r := range runs {
		entries = append(entries, toRunEntry(r))
	}
	if out.JSON() {
		return out.Success(entries)
	}
	if len(entries) == 0 {
		out.Textf("No runs recorded.\n")
		return nil
	}
	writeHistoryText(out, entries)
	return nil
}

func toRunEntry(r store.Run) RunEntry {
	entry := RunEntry{
		ID:          r.ID,
		Seq:         r.Seq,
		Document:    r.Document,
		ContentHash: r.ContentHash,
		Format:      r.Format,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		Cases:       r.CaseCount,
		Passed:      r.Passed,
		Failed:      r.Failed,
		Skipped:     r.Skipped,
	}
	for _, c := range r.Cases {
		entry.Results = append(entry.Results, CaseEntry{Index: c.Index, Name: c.Name, Outcome: string(c.Outcome)})
	}
	return entry
}

func writeHistoryText(out *OutputFormatter, entries []RunEntry) {
	tw := tabwriter.NewWriter(out.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tDOCUMENT\tPASS\tFAIL\tSKIP\tSTARTED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n",
			e.Seq, e.ID, e.Document, e.Passed, e.Failed, e.Skipped, e.StartedAt.Format(time.RFC3339))
	}
	tw.Flush()
}

func writeRunText(out *OutputFormatter, e RunEntry) {
	out.Textf("Run %s (#%d)\n", e.ID, e.Seq)
	out.Textf("Document: %s (%s)\n", e.Document, e.Format)
	out.Textf("Hash:     %s\n", e.ContentHash)
	out.Textf("Started:  %s\n", e.StartedAt.Format(time.RFC3339))
	out.Textf("Finished: %s\n\n", e.FinishedAt.Format(time.RFC3339))
	for _, c := range e.Results {
		out.Textf("  %-4s %s\n", c.Outcome, c.Name)
	}
	out.Textf("\n%d passed, %d failed, %d skipped\n", e.Passed, e.Failed, e.Skipped)
}
