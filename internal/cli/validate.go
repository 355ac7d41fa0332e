package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"drivebank/internal/config"
)

// runValidate builds the handler for the validate command.
func runValidate(cmd *Command) func(args []string, stdout, stderr io.Writer) int {
	return func(args []string, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		flags.SetOutput(stderr)
		configPath := flags.String("config", defaultConfigPath, "Path to config file")
		if code, handled := parseFlags(flags, cmd, args, stdout, stderr); handled {
			return code
		}

		if _, err := os.Stat(*configPath); os.IsNotExist(err) {
			fmt.Fprintf(stdout, "No config at %s; built-in defaults will be used.\n", *configPath)
			return ExitOK
		}
		if _, err := config.Load(*configPath); err != nil {
			fmt.Fprintf(stderr, "Validation failed:\n%s\n", err.Error())
			return ExitError
		}
		fmt.Fprintln(stdout, "Config OK")
		return ExitOK
	}
}
