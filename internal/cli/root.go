package cli

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"pathguard/internal/config"
	"pathguard/internal/exitcodes"
	"pathguard/internal/facade"
	"pathguard/internal/guard"
	"pathguard/internal/logging"
	"pathguard/internal/metrics"
	"pathguard/internal/resolve"
	"pathguard/internal/safety"
)

// Build information
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersionInfo updates the build information variables
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// configError marks failures to load or validate configuration
type configError struct{ err error }

func (e *configError) Error() string { return fmt.Sprintf("config: %v", e.err) }
func (e *configError) Unwrap() error { return e.err }

// runtimeError marks failures outside the guarded operations (history store, output)
type runtimeError struct{ err error }

func (e *runtimeError) Error() string { return e.err.Error() }
func (e *runtimeError) Unwrap() error { return e.err }

// app holds the state shared by every subcommand of one invocation
type app struct {
	cfgFile     string
	verbose     bool
	metricsFile string

	cfg    *config.Config
	logger *log.Logger
	path   *facade.Path
}

// Execute runs the CLI with the process arguments and returns the exit code
func Execute() int {
	return Run(os.Args[1:], os.Stdout, os.Stderr)
}

// Run executes one invocation and returns its exit code
func Run(args []string, stdout, stderr io.Writer) int {
	a := &app{}
	root := a.newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	a.teardown(stderr)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return ExitCode(err)
}

func (a *app) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "pathguard",
		Short: "Validation-gated directory creation, touching and removal",
		Long: `pathguard resolves and validates paths, then creates directories,
touches files and removes files or directories only after every target
in the batch has passed its access and safety checks.`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.config/pathguard/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log every operation to stderr")
	root.PersistentFlags().StringVar(&a.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")

	root.AddCommand(
		a.newResolveCmd(),
		a.newCheckCmd("is-valid", "Check that a path is a readable, writable, traversable directory",
			func(p *facade.Path) func(string) (string, error) { return p.IsValid }),
		a.newCheckCmd("is-file", "Check that a path is a readable, writable regular file",
			func(p *facade.Path) func(string) (string, error) { return p.IsFile }),
		a.newCheckCmd("is-executable", "Check read, write and execute permission on a path of any type",
			func(p *facade.Path) func(string) (string, error) { return p.IsExecutable }),
		a.newMkdirCmd(),
		a.newBatchCmd("touch", "Create or truncate files",
			func(p *facade.Path) func([]string) (string, error) { return p.Touch }),
		a.newBatchCmd("rm-dir", "Remove directories recursively",
			func(p *facade.Path) func([]string) (string, error) { return p.RmDir }),
		a.newBatchCmd("rm-file", "Remove files",
			func(p *facade.Path) func([]string) (string, error) { return p.RmFile }),
		a.newParseCmd(),
		a.newRelativeCmd(),
		a.newHistoryCmd(),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var cfg *config.Config
	var err error
	if a.cfgFile != "" {
		cfg, err = config.Load(a.cfgFile)
	} else {
		cfg, err = config.LoadOrDefault(config.DefaultPath())
	}
	if err != nil {
		return &configError{err: err}
	}

	if a.verbose {
		cfg.Logging.Verbose = true
	}
	if a.metricsFile == "" {
		a.metricsFile = cfg.Metrics.Textfile
	}

	a.cfg = cfg
	a.logger = logging.New(cfg)
	metrics.Init()
	return nil
}

// facade builds the facade on first use
func (a *app) facade() (*facade.Path, error) {
	if a.path != nil {
		return a.path, nil
	}
	p, err := facade.New(a.cfg, a.logger)
	if err != nil {
		return nil, &runtimeError{err: err}
	}
	a.path = p
	return p, nil
}

// teardown releases the facade and exports metrics
func (a *app) teardown(stderr io.Writer) {
	if a.path != nil {
		if err := a.path.Close(); err != nil {
			fmt.Fprintln(stderr, "Error: close history:", err)
		}
	}
	if a.metricsFile != "" && metrics.Enabled() {
		if err := metrics.WriteTextfile(a.metricsFile); err != nil {
			fmt.Fprintln(stderr, "Error: write metrics:", err)
		}
	}
}

// ExitCode maps an error returned by a command to the CLI exit code contract
func ExitCode(err error) int {
	if err == nil {
		return exitcodes.Success
	}

	var (
		cfgErr     *configError
		argErr     *guard.ArgumentError
		invalid    *guard.InvalidPathError
		resolution *resolve.ResolutionError
		access     *safety.AccessError
		notDir     *safety.NotADirectoryError
		notFile    *safety.NotAFileError
		policy     *safety.PolicyError
		mkdirErr   *guard.MkdirError
		touchErr   *guard.TouchError
		rmErr      *guard.RmError
		runtimeErr *runtimeError
	)

	switch {
	case errors.As(err, &cfgErr):
		return exitcodes.InvalidConfig
	case errors.As(err, &argErr), errors.As(err, &invalid), errors.As(err, &resolution),
		errors.As(err, &access), errors.As(err, &notDir), errors.As(err, &notFile),
		errors.As(err, &policy):
		return exitcodes.SafetyViolation
	case errors.As(err, &mkdirErr), errors.As(err, &touchErr), errors.As(err, &rmErr),
		errors.As(err, &runtimeErr):
		return exitcodes.RuntimeError
	default:
		// cobra's own errors: unknown command, flag parsing, argument count
		return exitcodes.Usage
	}
}
