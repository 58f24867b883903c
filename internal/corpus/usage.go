package corpus

import "strings"

// UsageKind discriminates the shapes a raw type usage can take.
type UsageKind string

const (
	TypeNamed     UsageKind = "named"
	TypePrimitive UsageKind = "primitive"
	TypeArray     UsageKind = "array"
	TypeWildcard  UsageKind = "wildcard"
	TypeVariable  UsageKind = "type_var"
)

// TypeUsage is a type as written at a usage site, before any resolution.
//
// Only the fields relevant to Kind are set:
//   - TypeNamed: Name (possibly dotted) and Args
//   - TypePrimitive: Name
//   - TypeArray: Elem
//   - TypeWildcard: Bound (upper bound only; nil for "?" and "? super X")
//   - TypeVariable: Name and Bounds
type TypeUsage struct {
	Kind   UsageKind    `json:"kind"`
	Name   string       `json:"name,omitempty"`
	Args   []*TypeUsage `json:"args,omitempty"`
	Elem   *TypeUsage   `json:"elem,omitempty"`
	Bound  *TypeUsage   `json:"bound,omitempty"`
	Bounds []*TypeUsage `json:"bounds,omitempty"`
}

// NamedType builds a named usage with optional generic arguments.
func NamedType(name string, args ...*TypeUsage) *TypeUsage {
	return &TypeUsage{Kind: TypeNamed, Name: name, Args: args}
}

// Primitive builds a primitive (or void) usage.
func Primitive(name string) *TypeUsage {
	return &TypeUsage{Kind: TypePrimitive, Name: name}
}

// ArrayOf wraps elem in dims array dimensions. A nil elem stays nil.
func ArrayOf(elem *TypeUsage, dims int) *TypeUsage {
	if elem == nil {
		return nil
	}
	if dims < 1 {
		dims = 1
	}
	u := elem
	for i := 0; i < dims; i++ {
		u = &TypeUsage{Kind: TypeArray, Elem: u}
	}
	return u
}

// Wildcard builds "?" (bound nil) or "? extends bound".
func Wildcard(bound *TypeUsage) *TypeUsage {
	return &TypeUsage{Kind: TypeWildcard, Bound: bound}
}

// TypeVar builds a usage of a declared type parameter.
func TypeVar(name string, bounds ...*TypeUsage) *TypeUsage {
	return &TypeUsage{Kind: TypeVariable, Name: name, Bounds: bounds}
}

// String renders the usage in source spelling, e.g. "Map<String, List<Foo>>[]".
func (u *TypeUsage) String() string {
	if u == nil {
		return ""
	}
	var sb strings.Builder
	u.write(&sb)
	return sb.String()
}

func (u *TypeUsage) write(sb *strings.Builder) {
	if u == nil {
		return
	}
	switch u.Kind {
	case TypeArray:
		u.Elem.write(sb)
		sb.WriteString("[]")
	case TypeWildcard:
		sb.WriteString("?")
		if u.Bound != nil {
			sb.WriteString(" extends ")
			u.Bound.write(sb)
		}
	default:
		sb.WriteString(u.Name)
		if len(u.Args) > 0 {
			sb.WriteString("<")
			for i, a := range u.Args {
				if i > 0 {
					sb.WriteString(", ")
				}
				a.write(sb)
			}
			sb.WriteString(">")
		}
	}
}
