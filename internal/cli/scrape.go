package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"drivebank/internal/archive"
	"drivebank/internal/config"
	"drivebank/internal/images"
	"drivebank/internal/pipeline"
	"drivebank/internal/scrape"
	"drivebank/internal/store"
)

// runScrape builds the handler for the scrape command.
func runScrape(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		flags.SetOutput(stderr)
		configPath := flags.String("config", defaultConfigPath, "Path to config file")
		policy := flags.String("policy", "", "Override the error policy (skip or abort)")
		startFresh := flags.Bool("start-fresh", false, "Discard a corrupt question bank instead of failing")
		verbose := flags.Bool("verbose", false, "Log every fetch and merge step")
		if code, handled := parseFlags(flags, cmd, args, stdout, stderr); handled {
			return code
		}

		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Config error: %v\n", err)
			return ExitError
		}
		if *policy != "" {
			cfg.Policy = *policy
			if cfg.Policy != config.PolicySkip && cfg.Policy != config.PolicyAbort {
				fmt.Fprintf(stderr, "invalid policy %q (expected skip or abort)\n", cfg.Policy)
				return ExitUsage
			}
		}

		logger := newLogger(*verbose, stderr)
		defer func() { _ = logger.Sync() }()

		bankStore, err := store.NewJSONStore(cfg.Storage.Path)
		if err != nil {
			fmt.Fprintf(stderr, "Storage error: %v\n", err)
			return ExitError
		}
		site, err := scrape.NewSite(cfg.Source, nil)
		if err != nil {
			fmt.Fprintf(stderr, "Source error: %v\n", err)
			return ExitError
		}
		fetcher, err := images.NewFetcher(cfg.Storage.ImageDir, nil)
		if err != nil {
			fmt.Fprintf(stderr, "Image storage error: %v\n", err)
			return ExitError
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		report, runErr := pipeline.Run(ctx, pipeline.Params{
			Source:     site,
			Store:      bankStore,
			Images:     fetcher,
			Policy:     cfg.Policy,
			StartFresh: *startFresh,
			Logger:     logger,
		})
		if report.RunID == "" {
			fmt.Fprintf(stderr, "Scrape failed: %v\n", runErr)
			return ExitError
		}

		printReport(stdout, report)
		if err := persistReport(ctx, cfg, report); err != nil {
			fmt.Fprintf(stderr, "Warning: %v\n", err)
		}
		if runErr != nil {
			fmt.Fprintf(stderr, "Scrape aborted: %v\n", runErr)
			return ExitError
		}
		return ExitOK
	}
}

func printReport(stdout io.Writer, report pipeline.Report) {
	s := report.Summary
	fmt.Fprintf(stdout, "Run %s: %d questions across %d chapters (%d added, %d updated, %d images)\n",
		report.RunID, s.Questions, s.Chapters, s.Added, s.Updated, s.Images)
	for _, skip := range report.Skips {
		if skip.Page > 0 {
			fmt.Fprintf(stdout, "  skipped chapter %s from page %d: %s\n", skip.Chapter, skip.Page, skip.Reason)
		} else {
			fmt.Fprintf(stdout, "  skipped in chapter %s: %s\n", skip.Chapter, skip.Reason)
		}
	}
}

// persistReport writes the JSON report next to the bank and records the run
// in the archive when one is configured. Failures here never fail the
// scrape; the bank is already saved.
func persistReport(ctx context.Context, cfg config.Config, report pipeline.Report) error {
	reportPath := filepath.Join(filepath.Dir(cfg.Storage.Path), "reports", report.RunID+".json")
	if err := pipeline.WriteReport(reportPath, report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if cfg.Archive.Path == "" {
		return nil
	}
	if dir := filepath.Dir(cfg.Archive.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create archive directory: %w", err)
		}
	}
	db, err := archive.Open(ctx, cfg.Archive.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	return archive.RecordRun(ctx, db, report)
}

// parseFlags parses command flags and reports usage errors uniformly. The
// second return is true when the command should stop with the given code.
func parseFlags(flags *flag.FlagSet, cmd *Command, args []string, stdout, stderr io.Writer) (int, bool) {
	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			printCommandUsage(cmd, stdout)
			return ExitOK, true
		}
		fmt.Fprintf(stderr, "invalid arguments: %v\n", err)
		printCommandUsage(cmd, stderr)
		return ExitUsage, true
	}
	if flags.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(flags.Args(), " "))
		printCommandUsage(cmd, stderr)
		return ExitUsage, true
	}
	return ExitOK, false
}
