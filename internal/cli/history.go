package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/DavidWenzler/reAM250-sub000/internal/journal"
	"github.com/DavidWenzler/reAM250-sub000/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Archive string
	Run     string
	Runs    bool
	Group   uint32
	Entry   uint32
	Since   uint64
	Limit   int
}

// HistoryRecord is one archived journal change.
type HistoryRecord struct {
	Timestamp uint64 `json:"timestamp_us"`
	Group     uint32 `json:"group"`
	Entry     uint32 `json:"entry"`
	Name      string `json:"name,omitempty"`
	Value     any    `json:"value"`
}

// HistoryResult is the output of a record query.
type HistoryResult struct {
	Run     store.Run       `json:"run"`
	Records []HistoryRecord `json:"records"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query the journal archive",
		Long: `Query journal changes archived by "ream run".

Without --run the latest run is shown. Values are decoded with the journal
schema stored alongside the run.

Examples:
  ream history --archive ./ream.db --runs
  ream history --archive ./ream.db --group 10 --entry 3
  ream history --run 0190... --limit 50 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Archive, "archive", "", "path to the SQLite journal archive (default: archive.path)")
	cmd.Flags().StringVar(&opts.Run, "run", "", "run id (default: latest run)")
	cmd.Flags().BoolVar(&opts.Runs, "runs", false, "list archived runs")
	cmd.Flags().Uint32Var(&opts.Group, "group", 0, "journal group id")
	cmd.Flags().Uint32Var(&opts.Entry, "entry", 0, "journal entry id")
	cmd.Flags().Uint64Var(&opts.Since, "since", 0, "first timestamp in microseconds")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of records (0 = all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	path := opts.Archive
	if path == "" {
		cfg, err := opts.loadConfig()
		if err != nil {
			_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to load configuration", err)
		}
		path = cfg.Archive.Path
	}
	if path == "" {
		_ = formatter.Error(ErrCodeNotFound, "no archive configured", nil)
		return NewExitError(ExitCommandError, "no archive configured (use --archive or archive.path)")
	}
	// store.Open creates missing files.
	if _, err := os.Stat(path); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("archive not found: %s", path), nil)
		return WrapExitError(ExitCommandError, "archive not found", err)
	}

	st, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open archive", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if opts.Runs {
		runs, err := st.Runs(ctx)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to list runs", err)
		}
		if opts.Format == "json" {
			return formatter.Success(runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs archived.")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tSTARTED\tRECORDS\tDROPPED")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Records, r.Dropped)
		}
		return w.Flush()
	}

	run, err := selectRun(opts, st, cmd)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "run not found", err)
		}
		return WrapExitError(ExitFailure, "failed to read run", err)
	}

	records, err := st.ReadRecords(ctx, store.Filter{
		RunID: run.ID,
		Group: opts.Group,
		Entry: opts.Entry,
		Since: opts.Since,
		Limit: opts.Limit,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read records", err)
	}

	layout, err := journal.ParseSchema([]byte(run.Schema))
	if err != nil {
		formatter.VerboseLog("run %s: %v, showing raw values", run.ID, err)
	}
	result := HistoryResult{Run: run, Records: make([]HistoryRecord, 0, len(records))}
	for _, r := range records {
		hr := HistoryRecord{Timestamp: r.Timestamp, Group: uint32(r.Group), Entry: uint32(r.Entry), Value: fmt.Sprintf("%x", r.Data)}
		if e, ok := layout.Lookup(r); ok {
			v, _ := layout.Decode(r)
			hr.Name, hr.Value = e.Key(), v.Value
		}
		result.Records = append(result.Records, hr)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Run %s (started %s, %d record(s) shown)\n",
		run.ID, run.StartedAt.Format("2006-01-02 15:04:05"), len(result.Records))
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME_US\tGROUP\tENTRY\tNAME\tVALUE")
	for _, r := range result.Records {
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%v\n", r.Timestamp, r.Group, r.Entry, r.Name, r.Value)
	}
	return w.Flush()
}

func selectRun(opts *HistoryOptions, st *store.Store, cmd *cobra.Command) (store.Run, error) {
	if opts.Run == "" {
		return st.LatestRun(cmd.Context())
	}
	runs, err := st.Runs(cmd.Context())
	if err != nil {
		return store.Run{}, err
	}
	for _, r := range runs {
		if r.ID == opts.Run {
			return r, nil
		}
	}
	return store.Run{}, fmt.Errorf("%w: %s", store.ErrRunNotFound, opts.Run)
}
