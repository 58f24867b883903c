package classifier

import "typeuml/internal/naming"

// EdgeKind is the relationship kind of an emitted edge.
type EdgeKind string

const (
	Owns        EdgeKind = "owns"
	Inheritance EdgeKind = "inheritance"
	Realization EdgeKind = "realization"
	Association EdgeKind = "association"
	Dependency  EdgeKind = "dependency"
)

// EdgeKey identifies an edge. To is the target's display name. Role is only
// set for associations, where each field is its own edge.
type EdgeKey struct {
	From naming.Key
	To   string
	Kind EdgeKind
	Role string
}

type pair struct {
	from naming.Key
	to   string
}

// Registry remembers every edge handed to the sink during one run.
type Registry struct {
	seen      map[EdgeKey]struct{}
	connected map[pair]EdgeKind
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		seen:      make(map[EdgeKey]struct{}),
		connected: make(map[pair]EdgeKind),
	}
}

// Add records k and reports whether the edge should be emitted. Self edges and
// repeats are refused.
func (r *Registry) Add(k EdgeKey) bool {
	if string(k.From) == k.To {
		return false
	}
	if _, dup := r.seen[k]; dup {
		return false
	}
	r.seen[k] = struct{}{}
	p := pair{from: k.From, to: k.To}
	if _, ok := r.connected[p]; !ok {
		r.connected[p] = k.Kind
	}
	return true
}

// Has reports whether k was recorded.
func (r *Registry) Has(k EdgeKey) bool {
	_, ok := r.seen[k]
	return ok
}

// Connected returns the kind of the first edge recorded from -> to.
func (r *Registry) Connected(from naming.Key, to string) (EdgeKind, bool) {
	k, ok := r.connected[pair{from: from, to: to}]
	return k, ok
}

// Len returns the number of recorded edges.
func (r *Registry) Len() int {
	return len(r.seen)
}
