package index

import (
	"fmt"

	"typeuml/internal/corpus"
	"typeuml/internal/diag"
	"typeuml/internal/naming"
)

// Builder ingests declarations. It is consumed by Build; the resulting Index
// has no mutators.
type Builder struct {
	entries map[naming.Key]*Entry
	byDecl  map[*corpus.TypeDecl]naming.Key
	diags   *diag.Log
	built   bool
}

// NewBuilder creates a builder that reports duplicates and empty units to diags.
func NewBuilder(diags *diag.Log) *Builder {
	if diags == nil {
		diags = &diag.Log{}
	}
	return &Builder{
		entries: make(map[naming.Key]*Entry),
		byDecl:  make(map[*corpus.TypeDecl]naming.Key),
		diags:   diags,
	}
}

// Ingest adds a single declaration under owner (empty for top level). The first
// definition of a key wins; later ones are rejected with a diagnostic.
func (b *Builder) Ingest(unit *corpus.CompilationUnit, decl *corpus.TypeDecl, owner naming.Key) (naming.Key, bool) {
	if b.built {
		panic("index: Ingest after Build")
	}
	key := naming.KeyOf(unit.Package, decl.Name, owner)
	if existing, ok := b.entries[key]; ok {
		b.diags.Addf(diag.DuplicateKey, string(key),
			fmt.Sprintf("kept definition from %s, rejected %s", existing.Unit.Path, unit.Path))
		return key, false
	}
	b.entries[key] = &Entry{
		Key:     key,
		Package: unit.Package,
		Owner:   owner,
		Decl:    decl,
		Unit:    unit,
	}
	b.byDecl[decl] = key
	return key, true
}

// IngestUnit adds every declaration of unit, nested ones included, and returns
// how many were accepted. A rejected declaration takes its nested types with it.
func (b *Builder) IngestUnit(unit *corpus.CompilationUnit) int {
	if len(unit.Types) == 0 {
		b.diags.Addf(diag.EmptyUnit, unit.Path, "no type declarations")
		return 0
	}

	type frame struct {
		decl  *corpus.TypeDecl
		owner naming.Key
	}
	stack := make([]frame, 0, len(unit.Types))
	for i := len(unit.Types) - 1; i >= 0; i-- {
		stack = append(stack, frame{decl: unit.Types[i]})
	}

	accepted := 0
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		key, ok := b.Ingest(unit, f.decl, f.owner)
		if !ok {
			continue
		}
		accepted++
		for i := len(f.decl.Nested) - 1; i >= 0; i-- {
			stack = append(stack, frame{decl: f.decl.Nested[i], owner: key})
		}
	}
	return accepted
}

// IngestAll ingests units in order.
func (b *Builder) IngestAll(units []*corpus.CompilationUnit) int {
	n := 0
	for _, u := range units {
		n += b.IngestUnit(u)
	}
	return n
}

// Build finishes ingestion, computes the simple-name shortcut map and the
// canonical iteration order. The builder cannot be used afterwards.
func (b *Builder) Build() *Index {
	if b.built {
		panic("index: Build called twice")
	}
	b.built = true

	idx := &Index{
		entries:   b.entries,
		byDecl:    b.byDecl,
		unique:    make(map[string]naming.Key),
		ambiguous: make(map[string]int),
		diags:     b.diags,
	}
	idx.computeSimpleNames()
	idx.computeOrder()
	b.entries = nil
	b.byDecl = nil
	return idx
}
