package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"drivebank/internal/bank"
	"drivebank/internal/config"
	"drivebank/internal/store"
	"drivebank/internal/viewer"
)

// isTerminal reports whether a writer is a TTY.
var isTerminal = defaultIsTerminal

// runProgram starts the interactive viewer; injectable for tests.
var runProgram = func(model tea.Model, stdout io.Writer) error {
	_, err := tea.NewProgram(model, tea.WithOutput(stdout)).Run()
	return err
}

// runView builds the handler for the view command. On a TTY it starts the
// interactive browser; otherwise it prints a plain listing.
func runView(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		flags.SetOutput(stderr)
		configPath := flags.String("config", defaultConfigPath, "Path to config file")
		chapter := flags.String("chapter", "", "Show only this chapter")
		noColor := flags.Bool("no-color", false, "Disable colored output")
		if code, handled := parseFlags(flags, cmd, args, stdout, stderr); handled {
			return code
		}

		cfg, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Config error: %v\n", err)
			return ExitError
		}
		bankStore, err := store.NewJSONStore(cfg.Storage.Path)
		if err != nil {
			fmt.Fprintf(stderr, "Storage error: %v\n", err)
			return ExitError
		}
		loaded, err := bankStore.Load()
		if err != nil {
			fmt.Fprintf(stderr, "Load error: %v\n", err)
			return ExitError
		}
		if *chapter != "" && len(loaded.Chapter(*chapter)) == 0 {
			fmt.Fprintf(stderr, "Chapter %s has no questions\n", *chapter)
			return ExitError
		}

		if !isTerminal(stdout) {
			printBank(stdout, loaded, *chapter)
			return ExitOK
		}
		if err := runProgram(viewer.NewModel(loaded, viewer.Options{NoColor: *noColor}), stdout); err != nil {
			fmt.Fprintf(stderr, "Viewer error: %v\n", err)
			return ExitError
		}
		return ExitOK
	}
}

// printBank writes a plain listing for pipes and redirects.
func printBank(w io.Writer, loaded *bank.Bank, only string) {
	for _, chapter := range loaded.Chapters() {
		if only != "" && chapter != only {
			continue
		}
		questions := loaded.Chapter(chapter)
		fmt.Fprintf(w, "Chapter %s (%d questions)\n", chapter, len(questions))
		for _, q := range questions {
			fmt.Fprintf(w, "  [%s] %s\n", q.ID, q.Text)
			for i, option := range q.Options {
				fmt.Fprintf(w, "      %c. %s\n", 'A'+i, option)
			}
			fmt.Fprintf(w, "      Answer: %s\n", strings.Join(q.CorrectAnswers, ", "))
			if q.ImageRef != "" {
				fmt.Fprintf(w, "      Image: %s\n", q.ImageRef)
			}
		}
	}
}

// defaultIsTerminal inspects stdout for TTY support.
func defaultIsTerminal(stdout io.Writer) bool {
	if stdout == nil {
		return false
	}
	if file, ok := stdout.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	if fder, ok := stdout.(interface{ Fd() uintptr }); ok {
		return term.IsTerminal(int(fder.Fd()))
	}
	return false
}
