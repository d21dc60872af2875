package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"recdiff/internal/app"
	"recdiff/internal/config"
	"recdiff/internal/domain"
	"recdiff/internal/report"
)

var (
	version = "dev"
	commit  = "none"
)

// exitDifferences is the exit code of a comparison run with --exit-code
// that found differences.
const exitDifferences = 2

// ExitError ends the process with Code without printing anything.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return run(ctx, newRootCmd(), os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, rootCmd *cobra.Command, args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var exit *ExitError
		if errors.As(err, &exit) {
			return exit.Code
		}
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == string(report.FormatJSON) {
			_ = report.WriteJSON(stdout, map[string]string{
				"error": err.Error(),
				"kind":  errorKind(err),
			})
		} else {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// errorKind classifies err for machine-readable output.
func errorKind(err error) string {
	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		nothing    *domain.NoComparableTablesError
		duplicate  *domain.DuplicateKeyError
	)
	switch {
	case errors.As(err, &validation):
		return "validation"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &nothing):
		return "no_comparable_tables"
	case errors.As(err, &duplicate):
		return "duplicate_key"
	default:
		return "internal"
	}
}

// rootOptions holds the global settings after flag, environment and
// profile resolution.
type rootOptions struct {
	output   string
	profile  string
	logLevel string
	noColor  bool

	format   report.Format
	color    string // auto, always or never
	keyword  string
	ignore   string
	pageSize int

	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{logger: slog.New(slog.DiscardHandler)}

	rootCmd := &cobra.Command{
		Use:   "recdiff",
		Short: "Compare database snapshots and spreadsheets record by record",
		Long: "recdiff compares two snapshots of the same data (SQLite, DuckDB, DXF drawings,\n" +
			"XLSX or CSV files, local or in object storage) and reports which records were\n" +
			"added, removed or changed.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.resolve(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "Output format (text, json, html)")
	rootCmd.PersistentFlags().StringVarP(&opts.profile, "profile", "p", "", "Config profile to use")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(newCompareCmd(opts))
	rootCmd.AddCommand(newSheetsCmd(opts))
	rootCmd.AddCommand(newInferCmd(opts))
	rootCmd.AddCommand(newCadCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// resolve applies flag > env > profile > default precedence and builds the
// logger.
func (o *rootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := LoadUserConfig()
	if err != nil {
		// The config file is optional.
		cfg = &UserConfig{CurrentProfile: "default", Profiles: map[string]Profile{}}
	}
	p, err := cfg.ActiveProfile(o.profile)
	if err != nil {
		return err
	}

	resolveString(cmd, "output", "RECDIFF_OUTPUT", p.Output, &o.output)
	resolveString(cmd, "log-level", "RECDIFF_LOG_LEVEL", p.LogLevel, &o.logLevel)

	o.keyword = firstNonEmpty(os.Getenv("RECDIFF_KEYWORD"), p.Keyword)
	o.ignore = firstNonEmpty(os.Getenv("RECDIFF_IGNORE"), p.Ignore)
	o.pageSize = p.PageSize

	o.color = firstNonEmpty(os.Getenv("RECDIFF_COLOR"), p.Color, "auto")
	if o.noColor || os.Getenv("NO_COLOR") != "" {
		o.color = "never"
	}
	if err := validateColor(o.color); err != nil {
		return err
	}

	if err := validateOutputFormat(o.output); err != nil {
		return err
	}
	o.format, _ = report.ParseFormat(o.output)

	o.logger = newLogger(cmd.ErrOrStderr(), config.ParseLevel(o.logLevel), o.color)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		o.logger.Debug("flag set", "command", cmd.Name(), "name", f.Name, "value", f.Value.String())
	})
	return nil
}

func resolveString(cmd *cobra.Command, flag, env, fromProfile string, dst *string) {
	if cmd.Flags().Changed(flag) {
		return
	}
	if v := os.Getenv(env); v != "" {
		*dst = v
	} else if fromProfile != "" {
		*dst = fromProfile
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// newLogger writes tinted logs to w, in color only when w is a terminal.
func newLogger(w io.Writer, level slog.Level, colorMode string) *slog.Logger {
	noColor := colorMode == "never" || !isTerminal(w)
	if f, ok := w.(*os.File); ok && !noColor {
		w = colorable.NewColorable(f)
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
	}))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// useColor reports whether output written to w should be colored.
func (o *rootOptions) useColor(w io.Writer) bool {
	switch o.color {
	case "always":
		return true
	case "never":
		return false
	default:
		return isTerminal(w)
	}
}

// newApp wires the compare service from the environment configuration.
// adjust applies command flags on top of it.
func (o *rootOptions) newApp(ctx context.Context, adjust func(*config.Config)) (*app.App, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	for _, w := range cfg.Warnings {
		o.logger.Warn(w)
	}
	if o.pageSize > 0 {
		cfg.PageSize = o.pageSize
	}
	if adjust != nil {
		adjust(cfg)
	}
	return app.New(ctx, app.Deps{Cfg: cfg, Logger: o.logger})
}

// inputDefaults fills keyword and ignore from the environment or profile
// when the command's flags were not given.
func (o *rootOptions) inputDefaults(cmd *cobra.Command, in *app.Inputs) {
	if !cmd.Flags().Changed("keyword") && in.Keyword == "" {
		in.Keyword = o.keyword
	}
	if !cmd.Flags().Changed("ignore") && in.Ignore == "" {
		in.Ignore = o.ignore
	}
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	}
	return cmd
}
