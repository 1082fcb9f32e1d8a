package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/preflight/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments on top of environment defaults. It
// returns a populated Config, a boolean indicating if the program should
// exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	cfg, err := app.DefaultConfig()
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	flagSet := flag.NewFlagSet("preflight", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
preflight - a dependency-aware readiness precondition runner.

Usage:
  preflight [options] [SUITE_PATH]

Arguments:
  SUITE_PATH
    Path to a single .hcl suite file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	suiteFlag := flagSet.String("suite", "", "Path to the suite file or directory.")
	sFlag := flagSet.String("s", "", "Path to the suite file or directory (shorthand).")
	checkFlag := flagSet.String("check", "", "Evaluate a single precondition by id instead of a full sweep.")
	statusPortFlag := flagSet.Int("status-port", cfg.StatusPort, "Port for the HTTP status server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", cfg.LogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", cfg.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", cfg.Workers, "Number of concurrent root evaluations per sweep. 0 is unlimited.")
	watchFlag := flagSet.Duration("watch-interval", cfg.WatchInterval, "Re-run the sweep on this interval. 0 runs once and exits.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := cfg.SuitePath
	if *suiteFlag != "" {
		path = *suiteFlag
	} else if *sFlag != "" {
		path = *sFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Suite path determined.", "path", path)

	if path == "" {
		slog.Debug("No suite path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	cfg.SuitePath = path
	cfg.CheckID = *checkFlag
	cfg.StatusPort = *statusPortFlag
	cfg.LogFormat = strings.ToLower(*logFormatFlag)
	cfg.LogLevel = strings.ToLower(*logLevelFlag)
	cfg.Workers = *workersFlag
	cfg.WatchInterval = *watchFlag

	validated, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", validated)
	return validated, false, nil
}
