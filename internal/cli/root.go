// Package cli implements the plotbook command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// ExitError carries the process exit code for an error.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

func sysError(err error) error { return &ExitError{Code: exitSysError, Err: err} }

// exitCode maps err to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	return exitUserError
}

// rootOptions holds the global flags of one command tree.
type rootOptions struct {
	configDir   string
	dataDir     string
	backend     string
	novel       string
	metricsFile string
	verbose     bool
	json        bool
	yes         bool

	v      *viper.Viper
	logger *slog.Logger
}

// NewRootCmd creates the top-level "plotbook" command with every subcommand
// registered.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	root := &cobra.Command{
		Use:           "plotbook",
		Short:         "Plan novels: characters, scenes, conflicts and plots",
		Long:          "plotbook keeps the planning material of one or more novels and\npersists every change through a write-behind, coalescing layer.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts.logger = newLogger(cmd.ErrOrStderr(), opts.verbose)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&opts.dataDir, "data-dir", "", "data directory (default: $(CWD)/.plotbook-data)")
	pf.StringVar(&opts.backend, "backend", "", "storage backend: workspace, sqlite or postgres")
	pf.StringVarP(&opts.novel, "novel", "n", "", "novel to work on (id, id prefix or title)")
	pf.StringVar(&opts.metricsFile, "metrics-file", "", "write persistence metrics in Prometheus text format on exit")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	pf.BoolVar(&opts.json, "json", false, "output as JSON")
	pf.BoolVarP(&opts.yes, "yes", "y", false, "answer yes to every confirmation")
	_ = opts.v.BindPFlag(keyBackend, pf.Lookup("backend"))

	root.AddCommand(
		newInitCmd(opts),
		newVersionCmd(),
		newNovelCmd(opts),
		newCharacterCmd(opts),
		newSceneCmd(opts),
		newConflictCmd(opts),
		newPlotCmd(opts),
		newExportCmd(opts),
	)
	return root
}

// Execute runs the root command and exits with the matching code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "plotbook:", err)
		os.Exit(exitCode(err))
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
