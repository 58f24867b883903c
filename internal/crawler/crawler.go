// Package crawler discovers source files under one or more roots and parses
// them into compilation units.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"typeuml/internal/corpus"
	"typeuml/internal/diag"
	"typeuml/internal/extractor"
)

var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	".idea":        {},
	".gradle":      {},
	"build":        {},
	"out":          {},
	"target":       {},
	"node_modules": {},
}

// Options tunes a Crawler. The zero value is usable.
type Options struct {
	// Exclude holds extra gitignore-style patterns, relative to each root.
	Exclude []string
	// Workers bounds parallel parsing. Zero means runtime.NumCPU().
	Workers int
	Logger  *slog.Logger
}

// Crawler scans directories for source files.
type Crawler struct {
	extractor *extractor.Extractor
	exclude   []string
	workers   int
	logger    *slog.Logger
}

// NewCrawler creates a new crawler instance.
func NewCrawler(ext *extractor.Extractor, opts Options) *Crawler {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{
		extractor: ext,
		exclude:   opts.Exclude,
		workers:   workers,
		logger:    logger,
	}
}

// Files lists the source files under root, sorted by path. Hidden entries,
// well-known build directories and paths matched by root/.gitignore or the
// exclude patterns are skipped. A root that is itself a source file is
// returned as is.
func (c *Crawler) Files(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if c.handles(root) {
			return []string{root}, nil
		}
		return nil, nil
	}

	gi := c.ignoreRules(root)
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if rel, err := filepath.Rel(root, path); err == nil && gi.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || d.Type()&os.ModeSymlink != 0 || !c.handles(name) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || gi.MatchesPath(rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func (c *Crawler) handles(name string) bool {
	ext := filepath.Ext(name)
	for _, e := range c.extractor.Extensions() {
		if e == ext {
			return true
		}
	}
	return false
}

func (c *Crawler) ignoreRules(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFileAndLines(filepath.Join(root, ".gitignore"), c.exclude...)
	if err != nil {
		return ignore.CompileIgnoreLines(c.exclude...)
	}
	return gi
}

type parsed struct {
	unit *corpus.CompilationUnit
	err  error
}

// ScanProject parses every root and returns the units in root order, then
// path order, whatever order the workers finish in. Unreadable or
// unparseable files and roots without declarations are reported to diags
// and skipped. Only cancellation of ctx is returned as an error.
func (c *Crawler) ScanProject(ctx context.Context, roots []string, diags *diag.Log) ([]*corpus.CompilationUnit, error) {
	var units []*corpus.CompilationUnit
	for _, root := range roots {
		files, err := c.Files(root)
		if err != nil {
			diags.Addf(diag.EmptyRoot, root, err.Error())
			continue
		}

		results, err := c.parseAll(ctx, files)
		if err != nil {
			return nil, err
		}

		declared := 0
		for i, r := range results {
			var syntaxErr *extractor.SyntaxError
			switch {
			case errors.As(r.err, &syntaxErr):
				diags.Addf(diag.ParseFailure, files[i], fmt.Sprintf("%v; partial declarations kept", r.err))
			case r.err != nil:
				diags.Addf(diag.ParseFailure, files[i], r.err.Error())
				continue
			}
			declared += len(r.unit.Types)
			units = append(units, r.unit)
		}

		if declared == 0 {
			diags.Addf(diag.EmptyRoot, root, fmt.Sprintf("%d source files, no type declarations", len(files)))
		}
		c.logger.Info("scanned root",
			slog.String("root", root),
			slog.Int("files", len(files)),
			slog.Int("types", declared),
		)
	}
	return units, nil
}

func (c *Crawler) parseAll(ctx context.Context, files []string) ([]parsed, error) {
	results := make([]parsed, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			unit, err := c.extractor.ExtractFromFile(gctx, path)
			results[i] = parsed{unit: unit, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
