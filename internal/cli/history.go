package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pathguard/internal/database"
)

type historyFlags struct {
	dbPath     string
	recent     int
	stats      bool
	operation  string
	action     string
	path       string
	days       int
	jsonOutput bool
}

func (a *app) newHistoryCmd() *cobra.Command {
	f := &historyFlags{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query the mutation history database",
		Example: `  pathguard history --recent 10            # Show 10 most recent entries
  pathguard history --stats --days 7       # Show statistics for the last week
  pathguard history --operation rm_file    # Show file removals
  pathguard history --action rejected      # Show rejected targets
  pathguard history --path '/var/tmp/%'    # Show entries under /var/tmp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistory(cmd.OutOrStdout(), f)
		},
	}

	cmd.Flags().StringVar(&f.dbPath, "db", "", "path to history database (default is history.database_path)")
	cmd.Flags().IntVar(&f.recent, "recent", 20, "number of entries to show")
	cmd.Flags().BoolVar(&f.stats, "stats", false, "show statistics instead of entries")
	cmd.Flags().StringVar(&f.operation, "operation", "", "filter by operation (mkdir, touch, rm_dir, rm_file)")
	cmd.Flags().StringVar(&f.action, "action", "", "filter by outcome (done, rejected, failed)")
	cmd.Flags().StringVar(&f.path, "path", "", "filter by path pattern (SQL LIKE syntax)")
	cmd.Flags().IntVar(&f.days, "days", 30, "number of days for statistics")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "output in JSON format")
	return cmd
}

func (a *app) runHistory(out io.Writer, f *historyFlags) error {
	dbPath := f.dbPath
	if dbPath == "" {
		dbPath = a.cfg.History.DatabasePath
	}

	db, err := database.NewHistoryDB(dbPath)
	if err != nil {
		return &runtimeError{err: err}
	}
	defer func() {
		if err := db.Close(); err != nil {
			a.logger.Printf("[ERROR] Failed to close database: %v", err)
		}
	}()

	if f.stats {
		stats, err := db.Stats(f.days)
		if err != nil {
			return &runtimeError{err: fmt.Errorf("failed to get statistics: %w", err)}
		}
		if f.jsonOutput {
			return writeJSON(out, stats)
		}
		printStats(out, stats, f.days)
		return nil
	}

	var records []database.Record
	switch {
	case f.operation != "":
		records, err = db.ByOperation(f.operation, f.recent)
	case f.action != "":
		records, err = db.ByAction(f.action, f.recent)
	case f.path != "":
		records, err = db.ByPath(f.path, f.recent)
	default:
		records, err = db.Recent(f.recent)
	}
	if err != nil {
		return &runtimeError{err: fmt.Errorf("failed to query history: %w", err)}
	}

	if f.jsonOutput {
		return writeJSON(out, records)
	}
	printRecords(out, records)
	return nil
}

func writeJSON(out io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &runtimeError{err: err}
	}
	fmt.Fprintln(out, string(data))
	return nil
}

func printStats(out io.Writer, stats *database.Stats, days int) {
	fmt.Fprintf(out, "Operation Statistics (Last %d days)\n", days)
	fmt.Fprintf(out, "Period: %s to %s\n\n", stats.StartDate.Format("2006-01-02"), stats.EndDate.Format("2006-01-02"))
	fmt.Fprintf(out, "Total Done:      %d\n", stats.TotalDone)
	fmt.Fprintf(out, "Total Rejected:  %d\n", stats.TotalRejected)
	fmt.Fprintf(out, "Total Failed:    %d\n\n", stats.TotalFailed)

	if len(stats.ByOperation) > 0 {
		fmt.Fprintln(out, "By Operation:")
		for _, op := range sortedKeys(stats.ByOperation) {
			fmt.Fprintf(out, "  %-15s %d\n", op, stats.ByOperation[op])
		}
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func printRecords(out io.Writer, records []database.Record) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No records found")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTimestamp\tOperation\tAction\tPath\tError")
	_, _ = fmt.Fprintln(w, "--\t---------\t---------\t------\t----\t-----")

	for _, r := range records {
		timestamp := r.Timestamp.Local().Format("2006-01-02 15:04:05")
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, timestamp, r.Operation, r.Action, r.Path, r.ErrorMessage)
	}
	_ = w.Flush()
}
