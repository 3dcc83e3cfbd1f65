package cli

import (
	"github.com/spf13/cobra"

	"github.com/specialistvlad/refgraph/internal/app"
	"github.com/specialistvlad/refgraph/internal/watcher"
)

func newExtractCommand(g *globalOptions) *cobra.Command {
	var opts app.ExtractOptions
	cmd := &cobra.Command{
		Use:   "extract --in <dir> --out <graph.json>",
		Short: "Extract features from a Markdown corpus and persist the graph",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags(cmd, "in", "out"); err != nil {
				return err
			}
			a, err := g.newApp(cmd)
			if err != nil {
				return err
			}
			return a.Extract(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.In, "in", "", "Corpus root directory.")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Graph file to write.")
	cmd.Flags().StringVar(&opts.Format, "format", app.FormatText, "Report format: 'text', 'json' or 'yaml'.")
	return cmd
}

func newValidateCommand(g *globalOptions) *cobra.Command {
	var opts app.ValidateOptions
	cmd := &cobra.Command{
		Use:   "validate --graph <graph.json>",
		Short: "Check a persisted graph for dangling edges, cycles and other defects",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags(cmd, "graph"); err != nil {
				return err
			}
			a, err := g.newApp(cmd)
			if err != nil {
				return err
			}
			return a.Validate(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.Graph, "graph", "", "Graph file to validate.")
	cmd.Flags().StringVar(&opts.Format, "format", app.FormatText, "Report format: 'text', 'json' or 'yaml'.")
	return cmd
}

func newResolveCommand(g *globalOptions) *cobra.Command {
	var opts app.ResolveOptions
	cmd := &cobra.Command{
		Use:   "resolve --graph <graph.json> --family <family> --version <version>",
		Short: "List the features of a family available at a version",
		Example: `  refgraph resolve --graph graph.json --family cpp --version 17
  refgraph resolve --graph graph.json --family C --version C11 --format text
  refgraph resolve --graph graph.json --family cpp --version 17 --detailed`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags(cmd, "graph", "family", "version"); err != nil {
				return err
			}
			a, err := g.newApp(cmd)
			if err != nil {
				return err
			}
			return a.Resolve(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.Graph, "graph", "", "Graph file to query.")
	cmd.Flags().StringVar(&opts.Family, "family", "", "Language family key or name, e.g. 'cpp' or 'C'.")
	cmd.Flags().StringVar(&opts.Version, "version", "", "Target version, e.g. '17', 'C++17' or 'cpp17'.")
	cmd.Flags().StringVar(&opts.Format, "format", app.FormatJSON, "Output format: 'json', 'yaml' or 'text'.")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "Print family, version and warnings with the feature list (json and yaml).")
	return cmd
}

func newCheckExamplesCommand(g *globalOptions) *cobra.Command {
	var opts app.CheckOptions
	cmd := &cobra.Command{
		Use:   "check-examples --graph <graph.json>",
		Short: "Syntax-check the code examples of a persisted graph",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags(cmd, "graph"); err != nil {
				return err
			}
			if opts.Timeout < 0 {
				return usageError("--timeout must not be negative")
			}
			a, err := g.newApp(cmd)
			if err != nil {
				return err
			}
			return a.CheckExamples(cmd.Context(), opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.Graph, "graph", "", "Graph file whose examples are checked.")
	flags.StringVar(&opts.Dialect, "dialect", "", "Only check one dialect ('cpp17') or family ('cpp').")
	flags.StringVar(&opts.Backend, "backend", "", "Syntax backend: 'auto', 'tree-sitter' or 'toolchain' (default from config).")
	flags.DurationVar(&opts.Timeout, "timeout", 0, "Per-example check timeout (default from config).")
	flags.IntVar(&opts.Workers, "workers-per-dialect", 0, "Concurrent checks per dialect (default from config).")
	flags.StringVar(&opts.CacheDir, "cache-dir", "", "Directory of the verdict cache; empty disables caching.")
	flags.StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus text-format metrics to this file.")
	flags.StringVar(&opts.Format, "format", app.FormatText, "Report format: 'text', 'json' or 'yaml'.")
	return cmd
}

func newWatchCommand(g *globalOptions) *cobra.Command {
	var opts app.WatchOptions
	cmd := &cobra.Command{
		Use:   "watch --in <dir> --out <graph.json>",
		Short: "Rebuild the graph whenever the corpus changes",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlags(cmd, "in", "out"); err != nil {
				return err
			}
			a, err := g.newApp(cmd)
			if err != nil {
				return err
			}
			return a.Watch(cmd.Context(), opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.In, "in", "", "Corpus root directory.")
	flags.StringVar(&opts.Out, "out", "", "Graph file to rewrite on every generation.")
	flags.DurationVar(&opts.Debounce, "debounce", watcher.DefaultDebounce, "Quiet period before a batch of changes is rebuilt.")
	flags.IntVar(&opts.HealthcheckPort, "healthcheck-port", 0, "Port for the /health and /metrics endpoints. 0 is disabled.")
	flags.StringVar(&opts.Format, "format", app.FormatText, "Report format: 'text', 'json' or 'yaml'.")
	return cmd
}
