package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"typeuml/internal/analysis"
	"typeuml/internal/config"
	"typeuml/internal/corpus"
	"typeuml/internal/crawler"
	"typeuml/internal/diag"
	"typeuml/internal/diagram"
	"typeuml/internal/extractor"
	"typeuml/internal/git"
	"typeuml/internal/pipeline"
	"typeuml/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	dbPath     string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "typeuml",
		Short:         "Generate UML class diagrams from Java sources",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "typeuml.yaml", "Path to the configuration file")
	root.PersistentFlags().StringVarP(&flags.dbPath, "db", "d", "", "Path to the run history database (SQLite)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log debug records")

	root.AddCommand(newGenerateCmd(flags))
	root.AddCommand(newParseCmd(flags))
	root.AddCommand(newHistoryCmd(flags))
	root.AddCommand(newDiffCmd(flags))
	root.AddCommand(newImpactCmd(flags))
	return root
}

// load reads the configuration and applies the persistent flags.
func (f *rootFlags) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("db") {
		cfg.Storage.DB = f.dbPath
	}
	if f.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, newLogger(cmd.ErrOrStderr(), cfg.Log.Level), nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func openStore(cfg *config.Config) (*storage.SQLiteStore, error) {
	if cfg.Storage.DB == "" {
		return nil, fmt.Errorf("no history database configured")
	}
	store, err := storage.NewSQLiteStore(cfg.Storage.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Storage.DB, err)
	}
	return store, nil
}

func newGenerateCmd(flags *rootFlags) *cobra.Command {
	var (
		format     string
		out        string
		corpusPath string
		noOracle   bool
		noHistory  bool
	)
	cmd := &cobra.Command{
		Use:   "generate [roots...]",
		Short: "Parse the source roots and write the class diagram",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.Project.Roots = args
			}
			if cmd.Flags().Changed("format") {
				cfg.Output.Format = format
			}
			if cmd.Flags().Changed("out") {
				cfg.Output.Path = out
			}
			if noOracle {
				cfg.Resolve.Oracle = "none"
			}
			if noHistory {
				cfg.Storage.DB = ""
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			opts := pipeline.OptionsFromConfig(cfg)
			opts.Logger = logger
			if rev, err := git.Head(cmd.Context(), workTree(cfg.Project.Roots)); err == nil {
				opts.Revision = rev
			} else {
				logger.Debug("no source revision", slog.String("error", err.Error()))
			}

			w, path, closeOut, err := openOutput(cmd.OutOrStdout(), cfg.Output.Path, cfg.Output.Format)
			if err != nil {
				return err
			}
			defer closeOut()
			opts.Output = w

			if cfg.Storage.DB != "" {
				store, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer store.Close()
				opts.Store = store
			}

			var report *pipeline.Report
			if corpusPath != "" {
				units, err := corpus.LoadJSON(corpusPath)
				if err != nil {
					return err
				}
				report, err = pipeline.RunCorpus(cmd.Context(), units, opts)
				if err != nil {
					return err
				}
			} else {
				report, err = pipeline.Run(cmd.Context(), opts)
				if err != nil {
					return err
				}
			}
			if err := closeOut(); err != nil {
				return fmt.Errorf("failed to close %s: %w", path, err)
			}

			printSummary(cmd.ErrOrStderr(), report, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", diagram.FormatPlantUML, "Diagram format (plantuml|mermaid)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file or directory (default stdout)")
	cmd.Flags().StringVar(&corpusPath, "corpus", "", "Read a JSON declaration corpus instead of parsing sources")
	cmd.Flags().BoolVar(&noOracle, "no-oracle", false, "Resolve names from the index only")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record the run")
	return cmd
}

// openOutput returns the diagram writer for path. An empty path or "-" means
// w; an existing directory gets diagram.<ext> inside it. The returned close
// func may be called more than once.
func openOutput(w io.Writer, path, format string) (io.Writer, string, func() error, error) {
	if path == "" || path == "-" {
		return w, "stdout", func() error { return nil }, nil
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, "diagram"+diagram.Extension(format))
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, "", nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	closed := false
	return f, path, func() error {
		if closed {
			return nil
		}
		closed = true
		return f.Close()
	}, nil
}

func printSummary(w io.Writer, report *pipeline.Report, path string) {
	res := report.Classifier
	fmt.Fprintf(w, "✅ %d types from %d files -> %s (%v)\n", report.Types, report.Units, path, report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  -> %d associations, %d inheritance, %d realizations, %d dependencies, %d owns\n",
		res.Associations, res.Inheritance, res.Realizations, res.Dependencies, res.Owns)
	if res.Review > 0 {
		fmt.Fprintf(w, "  -> %d supertype edges flagged for review\n", res.Review)
	}
	for _, name := range report.Resolver.StageNames() {
		fmt.Fprintf(w, "  -> resolved by %s: %d\n", name, report.Resolver.ByStage[name])
	}
	if report.Resolver.Unresolved > 0 {
		fmt.Fprintf(w, "  -> unresolved: %d\n", report.Resolver.Unresolved)
	}
	if len(report.Diagnostics) > 0 {
		counts := make(map[diag.Kind]int)
		for _, d := range report.Diagnostics {
			counts[d.Kind]++
		}
		var parts []string
		for _, k := range []diag.Kind{diag.DuplicateKey, diag.EmptyUnit, diag.EmptyRoot, diag.ParseFailure, diag.OracleFailure} {
			if counts[k] > 0 {
				parts = append(parts, fmt.Sprintf("%s=%d", k, counts[k]))
			}
		}
		fmt.Fprintf(w, "⚠️  %d diagnostics: %s\n", len(report.Diagnostics), strings.Join(parts, " "))
	}
	if report.RunID != "" {
		fmt.Fprintf(w, "💾 Recorded run %s\n", report.RunID)
	}
}

func newParseCmd(flags *rootFlags) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "parse [roots...]",
		Short: "Parse the source roots and save the declaration corpus as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.Project.Roots = args
			}

			ext, err := extractor.NewExtractor(cfg.Project.Language)
			if err != nil {
				return err
			}
			c := crawler.NewCrawler(ext, crawler.Options{
				Exclude: cfg.Project.Exclude,
				Workers: cfg.Project.Workers,
				Logger:  logger,
			})
			diags := diag.NewLog(logger)
			units, err := c.ScanProject(cmd.Context(), cfg.Project.Roots, diags)
			if err != nil {
				return err
			}
			if err := corpus.SaveJSON(units, out); err != nil {
				return fmt.Errorf("failed to save corpus: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✅ %d files saved to %s (%d diagnostics)\n", len(units), out, diags.Len())
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "corpus.json", "Corpus output file")
	return cmd
}

func newHistoryCmd(flags *rootFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := flags.load(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.LatestRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(w, "No runs recorded.")
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(w, "%s  %s  %-8s %4d types %5d edges %3d diagnostics  %s\n",
					r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Format,
					r.Types, r.Edges, len(r.Diagnostics), strings.Join(r.Roots, ","))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	return cmd
}

func newDiffCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "diff [old new]",
		Short: "Compare two recorded runs (default: the latest two)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected no run ids or two, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := flags.load(cmd)
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			ids := args
			if len(ids) == 0 {
				runs, err := store.LatestRuns(ctx, 2)
				if err != nil {
					return err
				}
				if len(runs) < 2 {
					return fmt.Errorf("need two recorded runs, have %d", len(runs))
				}
				ids = []string{runs[1].ID, runs[0].ID}
			}

			prev, err := store.LoadRun(ctx, ids[0])
			if err != nil {
				return err
			}
			cur, err := store.LoadRun(ctx, ids[1])
			if err != nil {
				return err
			}

			printDiff(cmd.OutOrStdout(), prev, cur, analysis.Compare(prev.Lines, cur.Lines))
			return nil
		},
	}
}

func printDiff(w io.Writer, prev, cur *storage.Run, report *analysis.ImpactReport) {
	fmt.Fprintf(w, "--- %s\n+++ %s\n", prev.ID, cur.ID)
	if report.Empty() {
		fmt.Fprintln(w, "✅ No changes.")
		return
	}
	for _, line := range report.Removed {
		fmt.Fprintf(w, "- %s\n", line)
	}
	for _, line := range report.Added {
		fmt.Fprintf(w, "+ %s\n", line)
	}
	fmt.Fprintf(w, "🔍 %d types touched: %s\n", len(report.Touched), strings.Join(report.Touched, ", "))
	if len(report.Dependents) > 0 {
		fmt.Fprintf(w, "  -> %d dependents: %s\n", len(report.Dependents), strings.Join(report.Dependents, ", "))
	}
}

// workTree is the directory git commands run in: the first root, or its
// parent when the root is a file.
func workTree(roots []string) string {
	if len(roots) == 0 {
		return "."
	}
	if info, err := os.Stat(roots[0]); err == nil && !info.IsDir() {
		return filepath.Dir(roots[0])
	}
	return roots[0]
}

func canonical(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}
	return path
}

func newImpactCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "impact [ref]",
		Short: "Show the types changed since a git ref and the types that depend on them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.load(cmd)
			if err != nil {
				return err
			}
			ref := "HEAD"
			if len(args) > 0 {
				ref = args[0]
			}

			ctx := cmd.Context()
			changes, err := git.ChangedFiles(ctx, workTree(cfg.Project.Roots), ref)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(changes) == 0 {
				fmt.Fprintln(w, "✅ No changes detected.")
				return nil
			}
			fmt.Fprintf(w, "📝 Detected %d changed files.\n", len(changes))

			opts := pipeline.OptionsFromConfig(cfg)
			opts.Logger = logger
			report, err := pipeline.Run(ctx, opts)
			if err != nil {
				return err
			}

			changed := make(map[string]bool, len(changes))
			for _, c := range changes {
				changed[canonical(c.Path)] = true
			}
			var keys []string
			for path, declared := range report.Files {
				if changed[canonical(path)] {
					keys = append(keys, declared...)
				}
			}

			impact := analysis.Impact(report.Lines, keys)
			fmt.Fprintf(w, "  -> %d types directly affected: %s\n", len(impact.Touched), strings.Join(impact.Touched, ", "))
			fmt.Fprintf(w, "  -> %d types indirectly affected: %s\n", len(impact.Dependents), strings.Join(impact.Dependents, ", "))
			return nil
		},
	}
}
