package corpus

// Kind is the closed set of declaration kinds.
type Kind string

const (
	KindClass      Kind = "class"
	KindInterface  Kind = "interface"
	KindEnum       Kind = "enum"
	KindRecord     Kind = "record"
	KindAnnotation Kind = "annotation"
)

// IsInterface reports whether supertypes listed under Extends are interfaces.
func (k Kind) IsInterface() bool {
	return k == KindInterface || k == KindAnnotation
}

// Stereotypes returns the diagram stereotypes implied by the kind and modifiers.
func Stereotypes(d *TypeDecl) []string {
	var out []string
	switch d.Kind {
	case KindRecord:
		out = append(out, "record")
	case KindAnnotation:
		out = append(out, "annotation")
	}
	if d.Kind == KindClass && HasModifier(d.Modifiers, "abstract") {
		out = append(out, "abstract")
	}
	if HasModifier(d.Modifiers, "sealed") {
		out = append(out, "sealed")
	}
	for _, a := range d.Annotations {
		out = append(out, "@"+a)
	}
	return out
}
