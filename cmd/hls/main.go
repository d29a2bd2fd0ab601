// Command hls checks, formats, and inspects HelixQL schema and query
// files.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	hls "github.com/HelixDB/hls"
	"github.com/HelixDB/hls/config"
	"github.com/HelixDB/hls/workspace"
)

var (
	flagVerbose          bool
	flagJSON             bool
	flagYAML             bool
	flagWrite            bool
	flagLine             int
	flagColumn           int
	flagWarningsAsErrors bool
)

func main() {
	root := &cobra.Command{
		Use:           "hls",
		Short:         "Tooling for HelixQL schema and query files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if flagVerbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))
		},
	}
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	check := &cobra.Command{
		Use:   "check [path ...]",
		Short: "Parse and validate files, printing diagnostics",
		RunE:  runCheck,
	}
	check.Flags().BoolVar(&flagJSON, "json", false, "emit diagnostics as JSON")
	check.Flags().BoolVar(&flagYAML, "yaml", false, "emit diagnostics as YAML")
	check.Flags().BoolVar(&flagWarningsAsErrors, "warnings-as-errors", false, "exit nonzero on warnings too")

	format := &cobra.Command{
		Use:   "fmt <path ...>",
		Short: "Reprint files in canonical form",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runFmt,
	}
	format.Flags().BoolVarP(&flagWrite, "write", "w", false, "rewrite files in place instead of printing")

	hover := &cobra.Command{
		Use:   "hover <path>",
		Short: "Show documentation for the symbol at a position",
		Args:  cobra.ExactArgs(1),
		RunE:  runHover,
	}
	hover.Flags().IntVar(&flagLine, "line", 0, "0-based line")
	hover.Flags().IntVar(&flagColumn, "col", 0, "0-based column")

	tokens := &cobra.Command{
		Use:   "tokens <path>",
		Short: "Dump the token stream of a file",
		Args:  cobra.ExactArgs(1),
		RunE:  runTokens,
	}

	watch := &cobra.Command{
		Use:   "watch [root]",
		Short: "Recheck files whenever they change",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runWatch,
	}

	root.AddCommand(check, format, hover, tokens, watch)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "hls:", err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.NewLoader(slog.Default()).Load()
	if err != nil {
		slog.Warn("invalid config, using defaults", slog.String("error", err.Error()))
		return config.DefaultConfig()
	}
	return cfg
}

// loadWorkspace fills a workspace either with the named files or, when
// none are given, with everything the config globs match under cwd.
func loadWorkspace(cfg *config.Config, args []string) (*workspace.Workspace, error) {
	ws := workspace.New(slog.Default())
	if len(args) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		loaded, err := ws.Scan(cwd, cfg)
		if err != nil {
			return nil, err
		}
		if len(loaded) == 0 {
			return nil, fmt.Errorf("no files matched %v under %s", cfg.Workspace.Include, cwd)
		}
		return ws, nil
	}
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		ws.SetDocument(path, string(data))
	}
	return ws, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ws, err := loadWorkspace(cfg, args)
	if err != nil {
		return err
	}
	results, err := ws.ValidateAll(cmd.Context())
	if err != nil {
		return err
	}
	var all []hls.Diagnostic
	for _, path := range ws.Paths() {
		all = append(all, results[path]...)
	}
	hls.SortDiagnostics(all)
	switch {
	case flagJSON:
		fmt.Println(hls.Pretty(all))
	case flagYAML:
		fmt.Print(hls.PrettyYAML(all))
	default:
		printAnnotated(ws, all, cfg.Diagnostics.Context)
	}
	warnFatal := flagWarningsAsErrors || cfg.Diagnostics.WarningsAsErrors
	for _, d := range all {
		if d.Severity == hls.SeverityError || warnFatal {
			os.Exit(1)
		}
	}
	return nil
}

func printAnnotated(ws *workspace.Workspace, diags []hls.Diagnostic, contextSize int) {
	for _, d := range diags {
		color := hls.RED
		if d.Severity == hls.SeverityWarning {
			color = hls.YELLOW
		}
		src, _ := ws.Text(d.Span.Filename)
		fmt.Println(hls.FormattedAnnotation(src, d, color, contextSize))
	}
}

func runFmt(cmd *cobra.Command, args []string) error {
	for _, path := range args {
		file, diags, err := hls.ParseFile(path)
		if err != nil {
			return err
		}
		if hls.HasErrors(diags) {
			return fmt.Errorf("%s has syntax errors, not formatting", path)
		}
		text := hls.Unparse(file)
		if flagWrite {
			if err := os.WriteFile(path, []byte(text), 0644); err != nil {
				return err
			}
			continue
		}
		fmt.Print(text)
	}
	return nil
}

func runHover(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// schema types resolve against every document in the file's directory
	cfg := loadConfig()
	ws := workspace.New(slog.Default())
	if _, err := ws.Scan(filepath.Dir(path), cfg); err != nil {
		return err
	}
	ws.SetDocument(path, string(data))
	registry := ws.Snapshot().Registry(path)
	doc := hls.Hover(string(data), flagLine, flagColumn, registry)
	if doc == "" {
		return fmt.Errorf("nothing at %s:%d:%d", path, flagLine, flagColumn)
	}
	fmt.Println(doc)
	return nil
}

func runTokens(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tokens, diags := hls.Tokenize(path, string(data))
	for _, tok := range tokens {
		fmt.Printf("%s\t%s\t%q\n", tok.Span, tok.Type, tok.Text)
	}
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d.Span.String()+": "+d.Message)
	}
	if hls.HasErrors(diags) {
		os.Exit(1)
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	ws := workspace.New(slog.Default())
	if _, err := ws.Scan(root, cfg); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := workspace.NewWatcher(ws, root, cfg, slog.Default())
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	recheck := func() {
		results, err := ws.ValidateAll(ctx)
		if err != nil {
			return
		}
		total := 0
		for _, path := range ws.Paths() {
			diags := results[path]
			total += len(diags)
			printAnnotated(ws, diags, cfg.Diagnostics.Context)
		}
		if total == 0 {
			fmt.Println(hls.GREEN + "ok" + hls.BLACK)
		}
	}
	recheck()
	for {
		select {
		case <-ctx.Done():
			return nil
		case changed, ok := <-watcher.Refreshed():
			if !ok {
				return nil
			}
			slog.Debug("files changed", slog.Int("count", len(changed)))
			recheck()
		}
	}
}
