// Package index holds the declared-type index: every corpus type keyed by its
// canonical name, grouped by package, plus a shortcut map for simple names that
// occur exactly once across the whole corpus.
package index

import (
	"sort"

	"typeuml/internal/corpus"
	"typeuml/internal/diag"
	"typeuml/internal/naming"
)

// Entry is one indexed declaration.
type Entry struct {
	Key     naming.Key
	Package string
	Owner   naming.Key // Lexical owner; empty for top-level types
	Decl    *corpus.TypeDecl
	Unit    *corpus.CompilationUnit
}

// Index is read-only once built.
type Index struct {
	entries   map[naming.Key]*Entry
	byDecl    map[*corpus.TypeDecl]naming.Key
	ordered   []*Entry
	packages  []string
	unique    map[string]naming.Key
	ambiguous map[string]int
	diags     *diag.Log
}

func (idx *Index) computeSimpleNames() {
	counts := make(map[string]int, len(idx.entries))
	last := make(map[string]naming.Key, len(idx.entries))
	for key := range idx.entries {
		name := naming.SimpleNameOf(key)
		counts[name]++
		last[name] = key
	}
	for name, n := range counts {
		if n == 1 {
			idx.unique[name] = last[name]
			continue
		}
		idx.ambiguous[name] = n
	}
}

func (idx *Index) computeOrder() {
	idx.ordered = make([]*Entry, 0, len(idx.entries))
	seenPkg := make(map[string]bool)
	for _, e := range idx.entries {
		idx.ordered = append(idx.ordered, e)
		if !seenPkg[e.Package] {
			seenPkg[e.Package] = true
			idx.packages = append(idx.packages, e.Package)
		}
	}
	sort.Slice(idx.ordered, func(i, j int) bool {
		a, b := idx.ordered[i], idx.ordered[j]
		if a.Package != b.Package {
			return a.Package < b.Package
		}
		return a.Key < b.Key
	})
	sort.Strings(idx.packages)
}

// Lookup returns the entry for key.
func (idx *Index) Lookup(key naming.Key) (*Entry, bool) {
	e, ok := idx.entries[key]
	return e, ok
}

// Has reports whether key is indexed.
func (idx *Index) Has(key naming.Key) bool {
	_, ok := idx.entries[key]
	return ok
}

// Unique returns the only key whose simple name is name, if there is exactly one.
func (idx *Index) Unique(name string) (naming.Key, bool) {
	k, ok := idx.unique[name]
	return k, ok
}

// Ambiguous reports how many keys share the simple name when more than one does.
func (idx *Index) Ambiguous(name string) (int, bool) {
	n, ok := idx.ambiguous[name]
	return n, ok
}

// KeyOfDecl maps a declaration node back to its key. Rejected duplicates are not found.
func (idx *Index) KeyOfDecl(d *corpus.TypeDecl) (naming.Key, bool) {
	k, ok := idx.byDecl[d]
	return k, ok
}

// Entries returns every entry grouped by package (sorted) then by key (sorted).
func (idx *Index) Entries() []*Entry {
	out := make([]*Entry, len(idx.ordered))
	copy(out, idx.ordered)
	return out
}

// InPackage returns the entries of one package in key order.
func (idx *Index) InPackage(pkg string) []*Entry {
	var out []*Entry
	for _, e := range idx.ordered {
		if e.Package == pkg {
			out = append(out, e)
		}
	}
	return out
}

// Packages returns the distinct packages, sorted.
func (idx *Index) Packages() []string {
	out := make([]string, len(idx.packages))
	copy(out, idx.packages)
	return out
}

// Len returns the number of indexed types.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Diagnostics returns the log shared with the builder.
func (idx *Index) Diagnostics() *diag.Log {
	return idx.diags
}
