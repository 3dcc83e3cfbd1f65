package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/refgraph/internal/app"
	"github.com/specialistvlad/refgraph/internal/config"
)

// Process exit codes.
const (
	ExitOK       = 0
	ExitFindings = 1
	ExitFatal    = 2
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

func usageError(format string, args ...any) error {
	return &ExitError{Code: ExitFatal, Message: fmt.Sprintf(format, args...)}
}

// ExitCode maps an error returned by Execute to the process exit code.
func ExitCode(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &exitErr):
		return exitErr.Code
	case app.IsFatalInput(err):
		return ExitFatal
	default:
		return ExitFindings
	}
}

// globalOptions are the flags shared by every command.
type globalOptions struct {
	configPath string
	logFormat  string
	logLevel   string
	workers    int
	loader     config.Loader
}

// newApp builds the App for one command invocation.
func (o *globalOptions) newApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := app.NewConfig(app.Config{
		ConfigPath: o.configPath,
		LogFormat:  o.logFormat,
		LogLevel:   o.logLevel,
		Workers:    o.workers,
	})
	if err != nil {
		return nil, err
	}
	return app.NewApp(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, o.loader)
}

// New builds the refgraph command tree. Reports are written to outW and
// logs to errW.
func New(outW, errW io.Writer, loader config.Loader) *cobra.Command {
	opts := &globalOptions{loader: loader}

	root := &cobra.Command{
		Use:   "refgraph",
		Short: "Build and query the C/C++ feature reference graph",
		Long: `refgraph ingests versioned, cross-linked C/C++ feature documentation
written in Markdown, builds a validated relation graph across language
families and answers "what is available at version V" queries.

Exit codes: 0 no errors, 1 validation or resolution errors, 2 fatal input.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError("%s", err)
	})

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to an HCL configuration file.")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Logging level: 'debug', 'info', 'warn' or 'error'.")
	flags.StringVar(&opts.logFormat, "log-format", "auto", "Log format: 'auto', 'text' or 'json'.")
	flags.IntVar(&opts.workers, "workers", 0, "Parallel document extraction workers (0 uses every CPU).")

	root.AddCommand(
		newExtractCommand(opts),
		newValidateCommand(opts),
		newResolveCommand(opts),
		newCheckExamplesCommand(opts),
		newWatchCommand(opts),
	)
	return root
}

// Execute runs the command line args.
func Execute(ctx context.Context, args []string, outW, errW io.Writer, loader config.Loader) error {
	root := New(outW, errW, loader)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		if cmd.HasSubCommands() {
			return usageError("unknown command %q for %q", args[0], cmd.CommandPath())
		}
		return usageError("%s takes no arguments, got %q", cmd.CommandPath(), strings.Join(args, " "))
	}
	return nil
}

// requireFlags reports missing mandatory flags as a usage error.
func requireFlags(cmd *cobra.Command, names ...string) error {
	var missing []string
	for _, name := range names {
		if f := cmd.Flags().Lookup(name); f == nil || f.Value.String() == "" {
			missing = append(missing, "--"+name)
		}
	}
	if len(missing) > 0 {
		return usageError("%s: missing required flag(s) %s", cmd.CommandPath(), strings.Join(missing, ", "))
	}
	return nil
}
