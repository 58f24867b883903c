// Package classifier turns the resolved usages of every declared type into
// diagram nodes, member lines and deduplicated relationship edges.
package classifier

import (
	"log/slog"

	"typeuml/internal/corpus"
	"typeuml/internal/diagram"
	"typeuml/internal/index"
	"typeuml/internal/naming"
	"typeuml/internal/resolver"
)

// Options tunes what the classifier emits beyond the structural core.
type Options struct {
	// Operations renders constructors and methods as operation lines.
	Operations bool

	// SignatureDependencies turns parameter, return, throws and type parameter
	// bound types into dependency sites.
	SignatureDependencies bool

	// ExternalDependencies keeps dependencies whose target is External or
	// Unresolved. When false only declared targets produce dependencies.
	ExternalDependencies bool

	// Logger receives debug records for review-flagged edges. May be nil.
	Logger *slog.Logger
}

// DefaultOptions enables everything.
func DefaultOptions() Options {
	return Options{
		Operations:            true,
		SignatureDependencies: true,
		ExternalDependencies:  true,
	}
}

// Result counts what was emitted.
type Result struct {
	Nodes        int
	Attributes   int
	Operations   int
	Owns         int
	Inheritance  int
	Realizations int
	Associations int
	Dependencies int
	// Review counts inheritance and realization edges to non-declared targets.
	Review int
	// Suppressed counts dependency sites that produced no edge: repeats, self
	// references and pairs already connected by a structural edge.
	Suppressed int
}

// Edges returns the total number of edges emitted.
func (r Result) Edges() int {
	return r.Owns + r.Inheritance + r.Realizations + r.Associations + r.Dependencies
}

// Classifier is single use: Classify may be called once.
type Classifier struct {
	idx      *index.Index
	res      *resolver.Resolver
	opts     Options
	logger   *slog.Logger
	registry *Registry
	done     bool
}

// New returns a classifier over idx resolving names with res.
func New(idx *index.Index, res *resolver.Resolver, opts Options) *Classifier {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		idx:      idx,
		res:      res,
		opts:     opts,
		logger:   logger,
		registry: NewRegistry(),
	}
}

type supertype struct {
	kind EdgeKind
	ref  resolver.TypeRef
}

type association struct {
	target naming.Key
	role   string
	stereo []string
}

// plan is everything one type contributes, resolved up front so emission can
// run phase by phase across all types.
type plan struct {
	entry      *index.Entry
	attributes []diagram.Member
	operations []diagram.Member
	supers     []supertype
	assocs     []association
	deps       []resolver.TypeRef
}

// Classify emits the whole diagram to sink: all nodes in index order, then
// owns edges, supertypes, associations and finally dependencies.
func (c *Classifier) Classify(sink diagram.Sink) Result {
	if c.done {
		panic("classifier: Classify called twice")
	}
	c.done = true

	entries := c.idx.Entries()
	plans := make([]*plan, len(entries))
	for i, e := range entries {
		plans[i] = c.plan(e)
	}

	var res Result
	c.emitNodes(sink, plans, &res)
	c.emitOwns(sink, plans, &res)
	c.emitSupertypes(sink, plans, &res)
	c.emitAssociations(sink, plans, &res)
	c.emitDependencies(sink, plans, &res)
	return res
}

// Registry exposes the edges recorded so far.
func (c *Classifier) Registry() *Registry {
	return c.registry
}

func (c *Classifier) plan(e *index.Entry) *plan {
	d := e.Decl
	site := resolver.SiteOf(e)
	p := &plan{entry: e}

	for _, f := range d.Fields {
		member := fieldMember(f)
		if ref, ok := c.res.Resolve(f.Type, site); ok {
			if key, declared := resolver.IsDeclared(ref); declared && key != e.Key {
				p.assocs = append(p.assocs, association{
					target: key,
					role:   f.Name,
					stereo: annotationStereotypes(f.Annotations),
				})
			} else {
				p.attributes = append(p.attributes, member)
			}
		} else {
			p.attributes = append(p.attributes, member)
		}
		for _, a := range resolver.Args(f.Type) {
			p.deps = append(p.deps, c.res.ResolveAll(a, site)...)
		}
	}

	for _, u := range d.Extends {
		c.addSupertype(p, Inheritance, u, site)
	}
	for _, u := range d.Implements {
		c.addSupertype(p, Realization, u, site)
	}

	for _, u := range d.Usages {
		p.deps = append(p.deps, c.res.ResolveAll(u.Type, site)...)
	}

	if c.opts.SignatureDependencies {
		for _, tp := range d.TypeParams {
			for _, b := range tp.Bounds {
				p.deps = append(p.deps, c.res.ResolveAll(b, site)...)
			}
		}
		for _, m := range d.Constructors {
			p.deps = append(p.deps, c.signature(m, site)...)
		}
		for _, m := range d.Methods {
			p.deps = append(p.deps, c.signature(m, site)...)
		}
	}

	if c.opts.Operations {
		for _, m := range d.Constructors {
			p.operations = append(p.operations, operationMember(d.Name, m, true))
		}
		for _, m := range d.Methods {
			p.operations = append(p.operations, operationMember(m.Name, m, false))
		}
	}
	return p
}

// addSupertype records the supertype edge and turns its generic arguments
// into dependency sites. A supertype always yields a reference; a name that
// normalizes to nothing is kept as written.
func (c *Classifier) addSupertype(p *plan, kind EdgeKind, u *corpus.TypeUsage, site resolver.Site) {
	ref, ok := c.res.Resolve(u, site)
	if !ok {
		ref = resolver.Unresolved{Raw: u.String()}
	}
	p.supers = append(p.supers, supertype{kind: kind, ref: ref})
	for _, a := range resolver.Args(u) {
		p.deps = append(p.deps, c.res.ResolveAll(a, site)...)
	}
}

func (c *Classifier) signature(m corpus.Method, site resolver.Site) []resolver.TypeRef {
	var out []resolver.TypeRef
	for _, prm := range m.Params {
		out = append(out, c.res.ResolveAll(prm.Type, site)...)
	}
	if m.Return != nil {
		out = append(out, c.res.ResolveAll(m.Return, site)...)
	}
	for _, t := range m.Throws {
		out = append(out, c.res.ResolveAll(t, site)...)
	}
	return out
}

func (c *Classifier) emitNodes(sink diagram.Sink, plans []*plan, res *Result) {
	for _, p := range plans {
		key := p.entry.Key
		sink.DeclareNode(key, p.entry.Decl.Kind, corpus.Stereotypes(p.entry.Decl))
		for _, m := range p.attributes {
			sink.Attribute(key, m)
		}
		for _, m := range p.operations {
			sink.Operation(key, m)
		}
		sink.EndNode(key)
		res.Nodes++
		res.Attributes += len(p.attributes)
		res.Operations += len(p.operations)
	}
}

func (c *Classifier) emitOwns(sink diagram.Sink, plans []*plan, res *Result) {
	for _, p := range plans {
		owner := p.entry.Owner
		if owner == "" || !c.idx.Has(owner) {
			continue
		}
		if c.registry.Add(EdgeKey{From: owner, To: string(p.entry.Key), Kind: Owns}) {
			sink.ConnectOwns(owner, p.entry.Key)
			res.Owns++
		}
	}
}

func (c *Classifier) emitSupertypes(sink diagram.Sink, plans []*plan, res *Result) {
	for _, p := range plans {
		key := p.entry.Key
		for _, s := range p.supers {
			_, declared := resolver.IsDeclared(s.ref)
			target := s.ref.Display()
			if !c.registry.Add(EdgeKey{From: key, To: target, Kind: s.kind}) {
				continue
			}
			review := !declared
			if review {
				res.Review++
				c.logger.Debug("review-flagged supertype",
					slog.String("type", string(key)),
					slog.String("kind", string(s.kind)),
					slog.String("target", target),
					slog.String("outcome", resolver.Outcome(s.ref)),
				)
			}
			switch s.kind {
			case Inheritance:
				sink.ConnectInheritance(key, target, review)
				res.Inheritance++
			case Realization:
				sink.ConnectRealization(key, target, review)
				res.Realizations++
			}
		}
	}
}

// A refused association repeats one already emitted for the same field name.
func (c *Classifier) emitAssociations(sink diagram.Sink, plans []*plan, res *Result) {
	for _, p := range plans {
		key := p.entry.Key
		for _, a := range p.assocs {
			if !c.registry.Add(EdgeKey{From: key, To: string(a.target), Kind: Association, Role: a.role}) {
				continue
			}
			sink.ConnectAssociation(key, string(a.target), a.role, a.stereo)
			res.Associations++
		}
	}
}

func (c *Classifier) emitDependencies(sink diagram.Sink, plans []*plan, res *Result) {
	for _, p := range plans {
		key := p.entry.Key
		for _, ref := range p.deps {
			if _, declared := resolver.IsDeclared(ref); !declared && !c.opts.ExternalDependencies {
				res.Suppressed++
				continue
			}
			target := ref.Display()
			if kind, ok := c.registry.Connected(key, target); ok && kind != Dependency {
				res.Suppressed++
				continue
			}
			if !c.registry.Add(EdgeKey{From: key, To: target, Kind: Dependency}) {
				res.Suppressed++
				continue
			}
			sink.ConnectDependency(key, target)
			res.Dependencies++
		}
	}
}

func annotationStereotypes(annotations []string) []string {
	if len(annotations) == 0 {
		return nil
	}
	out := make([]string, len(annotations))
	for i, a := range annotations {
		out[i] = "@" + a
	}
	return out
}

func fieldMember(f corpus.Field) diagram.Member {
	return diagram.Member{
		Name:       f.Name,
		Type:       f.Type.String(),
		Visibility: diagram.VisibilityOf(f.Modifiers),
		Static:     corpus.HasModifier(f.Modifiers, "static"),
	}
}

func operationMember(name string, m corpus.Method, ctor bool) diagram.Member {
	params := make([]string, len(m.Params))
	for i, prm := range m.Params {
		typ := prm.Type.String()
		if prm.Variadic {
			typ += "..."
		}
		params[i] = prm.Name + ": " + typ
	}
	member := diagram.Member{
		Name:       name,
		Params:     params,
		Visibility: diagram.VisibilityOf(m.Modifiers),
		Static:     corpus.HasModifier(m.Modifiers, "static"),
		Abstract:   corpus.HasModifier(m.Modifiers, "abstract"),
		Operation:  true,
	}
	if !ctor {
		member.Type = "void"
		if m.Return != nil {
			member.Type = m.Return.String()
		}
	}
	return member
}
