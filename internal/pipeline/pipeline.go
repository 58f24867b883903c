// Package pipeline runs the whole generation: crawl, index, classify, render
// and record.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"typeuml/internal/classifier"
	"typeuml/internal/config"
	"typeuml/internal/corpus"
	"typeuml/internal/crawler"
	"typeuml/internal/diag"
	"typeuml/internal/diagram"
	"typeuml/internal/extractor"
	"typeuml/internal/index"
	"typeuml/internal/oracle"
	"typeuml/internal/resolver"
	"typeuml/internal/storage"
)

type Options struct {
	Roots    []string
	Exclude  []string
	Language string
	Workers  int

	Format string
	Fenced bool
	// Output receives the rendered diagram. Nil discards it.
	Output io.Writer

	UseOracle  bool
	KnownTypes []string
	Classify   classifier.Options

	// Store records the run when set.
	Store    storage.RunStore
	Revision string
	Logger   *slog.Logger
}

// OptionsFromConfig maps cfg onto Options. Output and Store are left for the
// caller.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Roots:      cfg.Project.Roots,
		Exclude:    cfg.Project.Exclude,
		Language:   cfg.Project.Language,
		Workers:    cfg.Project.Workers,
		Format:     cfg.Output.Format,
		Fenced:     cfg.Output.Fenced,
		UseOracle:  cfg.Resolve.Oracle == "imports",
		KnownTypes: cfg.Resolve.KnownTypes,
		Classify: classifier.Options{
			Operations:            cfg.Classify.Operations,
			SignatureDependencies: cfg.Classify.SignatureDependencies,
			ExternalDependencies:  cfg.Classify.ExternalDependencies,
		},
	}
}

// Report describes a finished run.
type Report struct {
	RunID string
	Units int
	Types int
	Lines []string
	// Files maps each unit path to the keys of the types it declares.
	Files       map[string][]string
	Diagnostics []diag.Diagnostic
	Resolver    resolver.Stats
	Classifier  classifier.Result
	Duration    time.Duration
}

// Run crawls opts.Roots and generates the diagram for what it finds.
func Run(ctx context.Context, opts Options) (*Report, error) {
	logger := loggerOf(opts)
	lang := opts.Language
	if lang == "" {
		lang = "java"
	}
	ext, err := extractor.NewExtractor(lang)
	if err != nil {
		return nil, err
	}

	diags := diag.NewLog(logger)
	c := crawler.NewCrawler(ext, crawler.Options{
		Exclude: opts.Exclude,
		Workers: opts.Workers,
		Logger:  logger,
	})
	start := time.Now()
	units, err := c.ScanProject(ctx, opts.Roots, diags)
	if err != nil {
		return nil, fmt.Errorf("failed to scan sources: %w", err)
	}
	logger.Info("crawl finished",
		slog.Int("units", len(units)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return generate(ctx, units, diags, opts)
}

// RunCorpus generates the diagram for an already parsed corpus.
func RunCorpus(ctx context.Context, units []*corpus.CompilationUnit, opts Options) (*Report, error) {
	return generate(ctx, units, diag.NewLog(loggerOf(opts)), opts)
}

func generate(ctx context.Context, units []*corpus.CompilationUnit, diags *diag.Log, opts Options) (*Report, error) {
	logger := loggerOf(opts)
	start := time.Now()

	b := index.NewBuilder(diags)
	b.IngestAll(units)
	idx := b.Build()

	var orc resolver.Oracle
	if opts.UseOracle {
		imports := oracle.New(units, oracle.NewCatalog(opts.KnownTypes...))
		logger.Debug("oracle ready", slog.Int("known", imports.Len()))
		orc = imports
	}
	res := resolver.New(idx, orc)

	out := opts.Output
	if out == nil {
		out = io.Discard
	}
	renderer, err := newRenderer(opts.Format, opts.Fenced, out)
	if err != nil {
		return nil, err
	}

	copts := opts.Classify
	copts.Logger = logger
	var rec diagram.Recorder
	result := classifier.New(idx, res, copts).Classify(diagram.Tee{&rec, renderer})
	if err := renderer.Close(); err != nil {
		return nil, fmt.Errorf("failed to write diagram: %w", err)
	}

	report := &Report{
		Units:       len(units),
		Types:       idx.Len(),
		Lines:       rec.Lines(),
		Files:       filesOf(idx),
		Diagnostics: diags.All(),
		Resolver:    res.Stats(),
		Classifier:  result,
	}

	if opts.Store != nil {
		run := &storage.Run{
			Roots:       opts.Roots,
			Revision:    opts.Revision,
			Format:      opts.Format,
			Types:       report.Types,
			Edges:       result.Edges(),
			Diagnostics: report.Diagnostics,
			Lines:       report.Lines,
		}
		if err := opts.Store.SaveRun(ctx, run); err != nil {
			return report, fmt.Errorf("failed to save run: %w", err)
		}
		report.RunID = run.ID
	}

	report.Duration = time.Since(start)
	logger.Info("diagram generated",
		slog.Int("types", report.Types),
		slog.Int("edges", result.Edges()),
		slog.Int("diagnostics", len(report.Diagnostics)),
		slog.Int("review", result.Review),
		slog.String("run", report.RunID),
	)
	return report, nil
}

func filesOf(idx *index.Index) map[string][]string {
	files := make(map[string][]string)
	for _, e := range idx.Entries() {
		if e.Unit == nil {
			continue
		}
		files[e.Unit.Path] = append(files[e.Unit.Path], string(e.Key))
	}
	return files
}

func newRenderer(format string, fenced bool, w io.Writer) (diagram.Renderer, error) {
	if format == "" {
		format = diagram.FormatPlantUML
	}
	if format == diagram.FormatMermaid && fenced {
		return diagram.NewMermaidWriter(w, true), nil
	}
	return diagram.NewRenderer(format, w)
}

func loggerOf(opts Options) *slog.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return slog.Default()
}
