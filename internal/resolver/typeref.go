package resolver

import (
	"fmt"

	"typeuml/internal/naming"
)

// TypeRef is the outcome of resolving one type usage. It is exactly one of
// Declared, External or Unresolved; no other implementations exist.
type TypeRef interface {
	// Display is the identity used for edge targets and self-reference checks.
	Display() string
	isTypeRef()
}

// Declared is a type present in the index.
type Declared struct {
	Key naming.Key
}

// External is a real type known by qualified name but absent from the corpus.
type External struct {
	QualifiedName string
}

// Unresolved keeps the best textual form of a name whose identity could not be determined.
type Unresolved struct {
	Raw string
}

func (d Declared) Display() string   { return string(d.Key) }
func (e External) Display() string   { return e.QualifiedName }
func (u Unresolved) Display() string { return u.Raw }

func (Declared) isTypeRef()   {}
func (External) isTypeRef()   {}
func (Unresolved) isTypeRef() {}

// IsDeclared returns the key when ref is Declared.
func IsDeclared(ref TypeRef) (naming.Key, bool) {
	switch r := ref.(type) {
	case Declared:
		return r.Key, true
	case External, Unresolved:
		return "", false
	default:
		panic(fmt.Sprintf("resolver: unknown TypeRef %T", ref))
	}
}

// Outcome names the variant, for logs and statistics.
func Outcome(ref TypeRef) string {
	switch ref.(type) {
	case Declared:
		return "declared"
	case External:
		return "external"
	case Unresolved:
		return "unresolved"
	default:
		panic(fmt.Sprintf("resolver: unknown TypeRef %T", ref))
	}
}
