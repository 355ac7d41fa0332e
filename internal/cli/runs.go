package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"drivebank/internal/archive"
	"drivebank/internal/config"
)

// runRuns builds the handler for the runs command.
func runRuns(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		flags.SetOutput(stderr)
		configPath := flags.String("config", defaultConfigPath, "Path to config file")
		runID := flags.String("run", "", "Show the skips recorded for one run")
		if code, handled := parseFlags(flags, cmd, args, stdout, stderr); handled {
			return code
		}

		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Config error: %v\n", err)
			return ExitError
		}
		if cfg.Archive.Path == "" {
			fmt.Fprintln(stderr, "Run archiving is disabled (archive.path is empty)")
			return ExitError
		}
		if _, err := os.Stat(cfg.Archive.Path); os.IsNotExist(err) {
			fmt.Fprintln(stdout, "No runs archived yet.")
			return ExitOK
		}

		ctx := context.Background()
		db, err := archive.Open(ctx, cfg.Archive.Path)
		if err != nil {
			fmt.Fprintf(stderr, "Archive error: %v\n", err)
			return ExitError
		}
		defer db.Close()

		if *runID != "" {
			return printRunSkips(ctx, db, *runID, stdout, stderr)
		}
		return printRuns(ctx, db, stdout, stderr)
	}
}

func printRuns(ctx context.Context, db *sql.DB, stdout, stderr io.Writer) int {
	records, err := archive.ListRuns(ctx, db)
	if err != nil {
		fmt.Fprintf(stderr, "Archive error: %v\n", err)
		return ExitError
	}
	if len(records) == 0 {
		fmt.Fprintln(stdout, "No runs archived yet.")
		return ExitOK
	}
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTARTED\tDURATION\tQUESTIONS\tADDED\tUPDATED\tIMAGES\tSKIPS")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			rec.RunID,
			rec.StartedAt.UTC().Format(time.RFC3339),
			rec.FinishedAt.Sub(rec.StartedAt).Round(time.Second),
			rec.Summary.Questions,
			rec.Summary.Added,
			rec.Summary.Updated,
			rec.Summary.Images,
			rec.Summary.Skips,
		)
	}
	_ = w.Flush()
	return ExitOK
}

func printRunSkips(ctx context.Context, db *sql.DB, runID string, stdout, stderr io.Writer) int {
	skips, err := archive.ListSkips(ctx, db, runID)
	if err != nil {
		fmt.Fprintf(stderr, "Archive error: %v\n", err)
		return ExitError
	}
	if len(skips) == 0 {
		fmt.Fprintf(stdout, "Run %s recorded no skips.\n", runID)
		return ExitOK
	}
	for _, skip := range skips {
		if skip.Page > 0 {
			fmt.Fprintf(stdout, "chapter %s page %d: %s\n", skip.Chapter, skip.Page, skip.Reason)
		} else {
			fmt.Fprintf(stdout, "chapter %s: %s\n", skip.Chapter, skip.Reason)
		}
	}
	return ExitOK
}
