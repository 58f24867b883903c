package resolver

import "typeuml/internal/corpus"

// Raw reduces a usage to the named type it refers to. Arrays are peeled to
// their element, a wildcard to its upper bound and a type variable to its first
// bound. It returns false when the usage refers to no type: primitives, "?",
// "? super X" and unbounded type variables.
func Raw(u *corpus.TypeUsage) (*corpus.TypeUsage, bool) {
	for u != nil {
		switch u.Kind {
		case corpus.TypeNamed:
			if u.Name == "" {
				return nil, false
			}
			return u, true
		case corpus.TypeArray:
			u = u.Elem
		case corpus.TypeWildcard:
			u = u.Bound
		case corpus.TypeVariable:
			if len(u.Bounds) == 0 {
				return nil, false
			}
			u = u.Bounds[0]
		default:
			return nil, false
		}
	}
	return nil, false
}

// Args returns the generic arguments of the raw type behind u. Each argument
// is an independent usage site.
func Args(u *corpus.TypeUsage) []*corpus.TypeUsage {
	raw, ok := Raw(u)
	if !ok {
		return nil
	}
	return raw.Args
}
