// Package resolver maps raw type usages to Declared, External or Unresolved
// references through an ordered cascade of stages.
package resolver

import (
	"sort"

	"typeuml/internal/corpus"
	"typeuml/internal/index"
	"typeuml/internal/naming"
)

// Site is the context of a usage: where it was written and what is in scope.
type Site struct {
	Package string
	Imports []corpus.Import
	Owner   naming.Key // Innermost enclosing declared type
	Path    string
}

// SiteOf returns the site for usages written inside the declaration e.
func SiteOf(e *index.Entry) Site {
	s := Site{Package: e.Package, Owner: e.Key}
	if e.Unit != nil {
		s.Imports = e.Unit.Imports
		s.Path = e.Unit.Path
	}
	return s
}

// Answer is what an oracle knows about a name. Decl is the declaring node when
// the oracle can supply one.
type Answer struct {
	QualifiedName string
	Decl          *corpus.TypeDecl
}

// Oracle is an optional best-effort resolver consulted before the index. It may
// decline any name by returning false; errors are treated as a decline.
type Oracle interface {
	TryResolve(name string, site Site) (Answer, bool, error)
}

// Stats counts outcomes per stage over the lifetime of a Resolver.
type Stats struct {
	ByStage     map[string]int
	Unresolved  int
	NoReference int
}

// StageNames returns the stage names present in ByStage, sorted.
func (s Stats) StageNames() []string {
	out := make([]string, 0, len(s.ByStage))
	for name := range s.ByStage {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolver is not safe for concurrent use; it keeps statistics.
type Resolver struct {
	stages []Stage
	stats  Stats
}

// New builds the default cascade over idx. oracle may be nil.
func New(idx *index.Index, oracle Oracle) *Resolver {
	return NewWithStages(NewDefaultChain(idx, oracle, idx.Diagnostics())...)
}

// NewWithStages builds a resolver running stages in the given order.
func NewWithStages(stages ...Stage) *Resolver {
	return &Resolver{
		stages: stages,
		stats:  Stats{ByStage: make(map[string]int)},
	}
}

// Resolve resolves the raw type behind u. It returns false when u refers to no
// type at all (see Raw); otherwise exactly one TypeRef variant.
func (r *Resolver) Resolve(u *corpus.TypeUsage, site Site) (TypeRef, bool) {
	raw, ok := Raw(u)
	if !ok {
		r.stats.NoReference++
		return nil, false
	}
	return r.ResolveName(raw.Name, site), true
}

// ResolveName runs the cascade on a name as written in source.
func (r *Resolver) ResolveName(name string, site Site) TypeRef {
	for _, st := range r.stages {
		if ref, ok := st.Try(name, site); ok {
			r.stats.ByStage[st.Name()]++
			return ref
		}
	}
	r.stats.Unresolved++
	return Unresolved{Raw: name}
}

// ResolveAll resolves u and, recursively, each of its generic arguments as
// independent usage sites, in source order.
func (r *Resolver) ResolveAll(u *corpus.TypeUsage, site Site) []TypeRef {
	var out []TypeRef
	r.collect(u, site, &out)
	return out
}

func (r *Resolver) collect(u *corpus.TypeUsage, site Site, out *[]TypeRef) {
	raw, ok := Raw(u)
	if !ok {
		r.stats.NoReference++
		return
	}
	*out = append(*out, r.ResolveName(raw.Name, site))
	for _, a := range raw.Args {
		r.collect(a, site, out)
	}
}

// Stats returns a snapshot of the outcome counters.
func (r *Resolver) Stats() Stats {
	s := Stats{
		ByStage:     make(map[string]int, len(r.stats.ByStage)),
		Unresolved:  r.stats.Unresolved,
		NoReference: r.stats.NoReference,
	}
	for k, v := range r.stats.ByStage {
		s.ByStage[k] = v
	}
	return s
}
