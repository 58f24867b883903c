package oracle

import "strings"

// implicitPackage is imported into every compilation unit.
const implicitPackage = "java.lang"

var builtinTypes = []string{
	"AutoCloseable", "Boolean", "Byte", "Character", "CharSequence", "Class",
	"ClassCastException", "Cloneable", "Comparable", "Deprecated", "Double", "Enum",
	"Error", "Exception", "Float", "FunctionalInterface", "IllegalArgumentException",
	"IllegalStateException", "IndexOutOfBoundsException", "Integer", "InterruptedException",
	"Iterable", "Long", "Math", "NullPointerException", "Number", "Object", "Override",
	"Record", "Runnable", "RuntimeException", "SafeVarargs", "Short", "String",
	"StringBuilder", "SuppressWarnings", "System", "Thread", "Throwable",
	"UnsupportedOperationException", "Void",
}

// Catalog is a set of qualified names of types that exist outside the corpus.
type Catalog map[string]struct{}

// NewCatalog returns the built-in java.lang types plus extra qualified names.
// Blank entries are ignored.
func NewCatalog(extra ...string) Catalog {
	c := make(Catalog, len(builtinTypes)+len(extra))
	for _, name := range builtinTypes {
		c[implicitPackage+"."+name] = struct{}{}
	}
	for _, name := range extra {
		if name = strings.TrimSpace(name); name != "" {
			c[name] = struct{}{}
		}
	}
	return c
}

// Has reports whether qualifiedName is catalogued.
func (c Catalog) Has(qualifiedName string) bool {
	_, ok := c[qualifiedName]
	return ok
}
