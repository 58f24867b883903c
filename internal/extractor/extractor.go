// Package extractor turns source files into corpus compilation units using
// tree-sitter grammars.
package extractor

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"typeuml/internal/corpus"
)

// SyntaxError reports a file whose tree contains error nodes. The unit
// returned alongside it holds whatever declarations could still be read.
type SyntaxError struct {
	Path string
	Line int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: syntax error near line %d", e.Path, e.Line)
}

// Extractor parses one language. It holds no parser state and is safe for
// concurrent use; each call creates its own parser.
type Extractor struct {
	language   *sitter.Language
	langName   string
	extensions []string
}

// NewExtractor creates a new extractor for a given language.
func NewExtractor(lang string) (*Extractor, error) {
	switch lang {
	case "java":
		return &Extractor{language: java.GetLanguage(), langName: lang, extensions: []string{".java"}}, nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// Language returns the language name the extractor was created for.
func (e *Extractor) Language() string {
	return e.langName
}

// Extensions lists the file extensions the extractor handles.
func (e *Extractor) Extensions() []string {
	out := make([]string, len(e.extensions))
	copy(out, e.extensions)
	return out
}

// ExtractFromFile reads and parses a single source file.
func (e *Extractor) ExtractFromFile(ctx context.Context, path string) (*corpus.CompilationUnit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return e.Extract(ctx, path, src)
}

// Extract parses src as the content of path. On a *SyntaxError the returned
// unit is still usable.
func (e *Extractor) Extract(ctx context.Context, path string, src []byte) (*corpus.CompilationUnit, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(e.language)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	w := &javaWalker{src: src}
	unit := w.program(root)
	unit.Path = path

	if root.HasError() {
		return unit, &SyntaxError{Path: path, Line: firstErrorLine(root)}
	}
	return unit, nil
}

func firstErrorLine(n *sitter.Node) int {
	if n.IsError() || n.IsMissing() {
		return int(n.StartPoint().Row) + 1
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c != nil && c.HasError() {
			return firstErrorLine(c)
		}
	}
	return int(n.StartPoint().Row) + 1
}
