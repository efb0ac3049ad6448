// locode turns source code into translation files and translation files
// into internationalized components, using the Gemini API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/minios-linux/locode/catalog"
	"github.com/minios-linux/locode/config"
	"github.com/minios-linux/locode/gemini"
	"github.com/minios-linux/locode/i18n"
	"github.com/minios-linux/locode/logger"
	"github.com/minios-linux/locode/prompt"
	"github.com/minios-linux/locode/validate"
	"github.com/minios-linux/locode/view"
	"github.com/minios-linux/locode/web"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	shutdownTimeout = 10 * time.Second
	mockDelay       = 500 * time.Millisecond
)

var (
	tagInfo    = color.New(color.FgBlue).SprintFunc()
	tagSuccess = color.New(color.FgGreen).SprintFunc()
	tagWarning = color.New(color.FgYellow, color.Bold).SprintFunc()
	tagError   = color.New(color.FgRed).SprintFunc()
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagInfo("[INFO]")+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagSuccess("[OK]")+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagWarning("[WARN]")+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, tagError("[ERROR]")+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

// cfg is filled by the root command before any subcommand runs.
var cfg config.Config

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "locode",
		Short: "Generate translation files and i18n components with Gemini",
		Long: `locode: code to locale, locale to code.

Serves two browser forms. The first turns source code into translation
files in JSON, XML or YAML. The second turns a translation file plus source
code into a component wired to an i18n framework.

Commands:
  serve       Run the web interface
  generate    Run one generation from the command line
  formats     List formats, platforms, targets and languages
  version     Show version information

Configuration is read from flags, LOCODE_* environment variables and
$XDG_CONFIG_HOME/locode/locode.yaml, in that order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(cmd.Flags()); err != nil {
				return err
			}
			if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
				return err
			}
			i18n.Init(cfg.UILang)
			return nil
		},
	}

	// Global persistent flags, inherited by all subcommands
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newServeCmd(),
		newGenerateCmd(),
		newFormatsCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	err := newRootCmd().Execute()
	_ = logger.Sync()
	if err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "locode version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// Shared wiring
// ---------------------------------------------------------------------------

// buildDeps assembles what the forms need. With offline set no generator
// is created, so only prompts can be rendered.
func buildDeps(c config.Config, offline bool, delay time.Duration) (view.Deps, error) {
	overrides, err := prompt.LoadOverrides(c.PromptsFile)
	if err != nil {
		return view.Deps{}, err
	}
	if len(overrides) > 0 {
		logInfo("Loaded %d prompt override(s) from %s", len(overrides), c.PromptsFile)
	}
	builder, err := prompt.NewBuilder(overrides)
	if err != nil {
		return view.Deps{}, err
	}

	deps := view.Deps{
		Prompts:   builder,
		Validator: validate.Validator{Strict: c.StrictValidation},
		MaxUpload: c.MaxUpload,
	}
	if offline {
		return deps, nil
	}

	if err := c.Validate(); err != nil {
		return view.Deps{}, err
	}
	if c.Mock {
		logWarning(i18n.T("Using mock generator; no requests reach the model"))
		deps.Generator = &gemini.Mock{Delay: delay}
		return deps, nil
	}

	client, err := gemini.New(gemini.Config{
		APIKey:  c.APIKey,
		Model:   c.Model,
		BaseURL: c.BaseURL,
		Proxy:   c.Proxy,
	})
	if err != nil {
		return view.Deps{}, err
	}
	logger.Debug("gemini client ready", zap.String("endpoint", client.Endpoint()))
	deps.Generator = client
	return deps, nil
}

// ---------------------------------------------------------------------------
// serve (web interface)
// ---------------------------------------------------------------------------

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface",
		Long: `Serve the code-to-locale and locale-to-code forms over HTTP.

Each browser gets its own form state, kept for --session-ttl after the last
request. Prometheus metrics are exposed at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	return cmd
}

func runServe(ctx context.Context, c config.Config) error {
	deps, err := buildDeps(c, false, mockDelay)
	if err != nil {
		return err
	}

	sessions := view.NewSessions(deps, c.SessionTTL)
	srv, err := web.New(web.Options{Sessions: sessions, MaxUpload: c.MaxUpload})
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              c.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go sessions.RunJanitor(ctx, janitorInterval(c.SessionTTL))

	errCh := make(chan error, 1)
	go func() {
		logSuccess(i18n.T("Server listening on %s"), c.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", c.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	logInfo(i18n.T("Shutting down"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// janitorInterval sweeps a few times per TTL, but not more than once a
// second.
func janitorInterval(ttl time.Duration) time.Duration {
	return max(ttl/4, time.Second)
}

// ---------------------------------------------------------------------------
// generate (one-shot generation)
// ---------------------------------------------------------------------------

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run one generation from the command line",
		Long: `Run the same generation as the web forms, reading input from files.

Use --dry-run to print the prompt instead of sending it.`,
	}

	cmd.AddCommand(newGenerateCodeToLocaleCmd(), newGenerateLocaleToCodeCmd())
	return cmd
}

func newGenerateCodeToLocaleCmd() *cobra.Command {
	var (
		target  string
		format  string
		locales []string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "code-to-locale [FILE]",
		Short: "Generate translation files from source code",
		Long: `Generate translation files from source code.

FILE defaults to standard input; "-" also reads standard input.`,
		Example: `  locode generate code-to-locale --target react --format yaml --locale english --locale french App.jsx`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := buildDeps(cfg, dryRun, 0)
			if err != nil {
				return err
			}
			f := view.NewCodeToLocale(deps)
			if err := f.SetTarget(target); err != nil {
				return err
			}
			if err := f.SetFormat(catalog.FormatID(format)); err != nil {
				return err
			}
			f.SetLocales(locales)

			name, r, closeFn, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer closeFn()
			if err := f.Upload(name, r); err != nil {
				return err
			}

			if dryRun {
				return printPrompt(cmd.OutOrStdout(), f.Prompt)
			}
			err = f.Submit(cmd.Context())
			snap := f.Snapshot()
			return printResult(cmd.OutOrStdout(), err, snap.Result, snap.Error)
		},
	}

	cmd.Flags().StringVar(&target, "target", "swiftui", "code target id (see 'locode formats')")
	cmd.Flags().StringVar(&format, "format", string(catalog.FormatJSON), "output format: json, xml or yaml")
	cmd.Flags().StringSliceVar(&locales, "locale", nil, "language to include (repeatable): english, french, spanish")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the prompt instead of sending it")

	_ = cmd.RegisterFlagCompletionFunc("target", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var ids []string
		for _, t := range catalog.CodeTargets() {
			ids = append(ids, t.ID)
		}
		return ids, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var ids []string
		for _, f := range catalog.OutputFormats() {
			ids = append(ids, string(f.ID))
		}
		return ids, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func newGenerateLocaleToCodeCmd() *cobra.Command {
	var (
		format     string
		platform   string
		framework  string
		sourcePath string
		locales    []string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "locale-to-code FILE --source SOURCE",
		Short: "Generate an internationalized component from a translation file",
		Long: `Generate an internationalized component from a translation file.

The translation file format is detected from its extension unless --format
is given. The file is validated before anything is sent.`,
		Example: `  locode generate locale-to-code en.json --source App.jsx --platform react --framework react-intl`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := buildDeps(cfg, dryRun, 0)
			if err != nil {
				return err
			}
			f := view.NewLocaleToCode(deps)
			if err := f.SelectPlatform(catalog.PlatformID(platform)); err != nil {
				return err
			}
			if framework != "" {
				if err := f.SetFramework(framework); err != nil {
					return err
				}
			}
			f.SetLocales(locales)

			source, err := os.ReadFile(sourcePath)
			if err != nil {
				return &view.FileReadError{Name: sourcePath, Err: err}
			}
			f.SetSource(string(source))

			name, r, closeFn, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer closeFn()
			// An explicit --format revalidates below, so a failure against
			// the detected format is not final.
			explicit := cmd.Flags().Changed("format")
			if err := f.Upload(name, r); err != nil {
				var ve *view.ValidationError
				if !explicit || !errors.As(err, &ve) {
					return err
				}
			}
			if explicit {
				if err := f.SetFormat(catalog.FormatID(format)); err != nil {
					return err
				}
			}

			if dryRun {
				return printPrompt(cmd.OutOrStdout(), f.Prompt)
			}
			err = f.Submit(cmd.Context())
			snap := f.Snapshot()
			return printResult(cmd.OutOrStdout(), err, snap.Result, snap.Error)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "translation file format (default: from the file extension)")
	cmd.Flags().StringVar(&platform, "platform", string(catalog.PlatformReact), "target platform")
	cmd.Flags().StringVar(&framework, "framework", "", "i18n framework (default: the platform's first)")
	cmd.Flags().StringVar(&sourcePath, "source", "", "source code file to internationalize")
	cmd.Flags().StringSliceVar(&locales, "locale", nil, "language to provide translations for (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the prompt instead of sending it")
	_ = cmd.MarkFlagRequired("source")

	_ = cmd.RegisterFlagCompletionFunc("platform", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var ids []string
		for _, p := range catalog.Platforms() {
			ids = append(ids, string(p.ID))
		}
		return ids, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("framework", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		p, _ := cmd.Flags().GetString("platform")
		if pl, ok := catalog.LookupPlatform(p); ok {
			return pl.Frameworks, cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// openInput opens args[0], or standard input when it is absent or "-".
func openInput(cmd *cobra.Command, args []string) (string, io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return "stdin", cmd.InOrStdin(), func() {}, nil
	}
	file, err := os.Open(args[0])
	if err != nil {
		return "", nil, nil, &view.FileReadError{Name: args[0], Err: err}
	}
	return args[0], file, func() { file.Close() }, nil
}

func printPrompt(w io.Writer, render func() (string, error)) error {
	p, err := render()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, p)
	return nil
}

// printResult writes a successful result, or turns the form's message into
// the command error.
func printResult(w io.Writer, err error, result, message string) error {
	if err != nil {
		if message != "" {
			return fmt.Errorf("%s: %w", message, err)
		}
		return err
	}
	fmt.Fprint(w, result)
	if !strings.HasSuffix(result, "\n") {
		fmt.Fprintln(w)
	}
	logSuccess("Generated %d bytes", len(result))
	return nil
}

// ---------------------------------------------------------------------------
// formats (catalog listing)
// ---------------------------------------------------------------------------

func newFormatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "formats",
		Short: "List formats, platforms, targets and languages",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printCatalog(cmd.OutOrStdout())
		},
	}

	return cmd
}

func printCatalog(w io.Writer) {
	heading := color.New(color.Bold).SprintFunc()

	formats := catalog.Formats()
	fmt.Fprintf(w, "%s (%s)\n", heading("Translation formats"), fmt.Sprintf(i18n.N("%d format", "%d formats", len(formats)), len(formats)))
	for _, f := range formats {
		out := ""
		if catalog.IsOutputFormat(string(f.ID)) {
			out = "  [output]"
		}
		fmt.Fprintf(w, "  %-12s %-12s %s%s\n", f.ID, i18n.T(f.Label), f.ExtensionList(), out)
	}

	fmt.Fprintf(w, "\n%s\n", heading("Platforms"))
	for _, p := range catalog.Platforms() {
		fmt.Fprintf(w, "  %-12s %-12s %s\n", p.ID, p.Label, strings.Join(p.Frameworks, ", "))
	}

	fmt.Fprintf(w, "\n%s\n", heading("Code targets"))
	for _, t := range catalog.CodeTargets() {
		fmt.Fprintf(w, "  %-16s %s\n", t.ID, t.Label)
	}

	fmt.Fprintf(w, "\n%s\n", heading("Languages"))
	for _, l := range catalog.Locales() {
		fmt.Fprintf(w, "  %-12s %s\n", l.ID, i18n.T(l.Label))
	}
}
