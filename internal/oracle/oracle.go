// Package oracle implements a best-effort symbol solver that follows Java's
// name lookup rules: member types of enclosing classes, single-type imports,
// the current package, on-demand imports and the implicit java.lang import.
package oracle

import (
	"fmt"
	"sort"
	"strings"

	"typeuml/internal/corpus"
	"typeuml/internal/naming"
	"typeuml/internal/resolver"
)

// Imports knows every corpus type by its dotted qualified name ("p.Outer.Inner")
// and every catalogued external type. It is read-only after New and safe for
// concurrent use.
type Imports struct {
	decls   map[string]*corpus.TypeDecl
	catalog Catalog
}

// New indexes the declarations of units. The first declaration of a qualified
// name wins, matching the index.
func New(units []*corpus.CompilationUnit, catalog Catalog) *Imports {
	if catalog == nil {
		catalog = NewCatalog()
	}
	o := &Imports{
		decls:   make(map[string]*corpus.TypeDecl),
		catalog: catalog,
	}

	type frame struct {
		decl   *corpus.TypeDecl
		prefix string
	}
	for _, u := range units {
		if u == nil {
			continue
		}
		stack := make([]frame, 0, len(u.Types))
		for _, d := range u.Types {
			stack = append(stack, frame{decl: d, prefix: u.Package})
		}
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			qn := qualify(f.prefix, f.decl.Name)
			if _, dup := o.decls[qn]; dup {
				continue
			}
			o.decls[qn] = f.decl
			for _, n := range f.decl.Nested {
				stack = append(stack, frame{decl: n, prefix: qn})
			}
		}
	}
	return o
}

// Len returns how many corpus types the oracle knows.
func (o *Imports) Len() int {
	return len(o.decls)
}

// TryResolve implements resolver.Oracle. Conflicting single-type imports of the
// same simple name are reported as an error; anything the oracle cannot place
// is declined.
func (o *Imports) TryResolve(name string, site resolver.Site) (resolver.Answer, bool, error) {
	if name == "" {
		return resolver.Answer{}, false, nil
	}
	first, rest, _ := strings.Cut(name, naming.PackageSep)
	suffix := ""
	if rest != "" {
		suffix = naming.PackageSep + rest
	}

	if qn, ok := o.inScope(name, site.Owner); ok {
		return o.answer(qn), true, nil
	}

	qn, ok, err := singleTypeImport(first, site.Imports)
	if err != nil {
		return resolver.Answer{}, false, err
	}
	if ok {
		// An explicit import is authoritative even for types nobody catalogued.
		return o.answer(qn + suffix), true, nil
	}

	if qn := qualify(site.Package, name); o.known(qn) {
		return o.answer(qn), true, nil
	}

	qn, ok, err = o.onDemand(name, site.Imports)
	if err != nil {
		return resolver.Answer{}, false, err
	}
	if ok {
		return o.answer(qn), true, nil
	}

	if qn := implicitPackage + naming.PackageSep + name; o.known(qn) {
		return o.answer(qn), true, nil
	}
	if strings.Contains(name, naming.PackageSep) && o.known(name) {
		return o.answer(name), true, nil
	}
	return resolver.Answer{}, false, nil
}

// inScope looks for name as a member type of the owner chain, innermost first.
func (o *Imports) inScope(name string, owner naming.Key) (string, bool) {
	scope := strings.ReplaceAll(string(owner), naming.NestingSep, naming.PackageSep)
	for scope != "" {
		if _, isType := o.decls[scope]; !isType {
			return "", false
		}
		if qn := scope + naming.PackageSep + name; o.known(qn) {
			return qn, true
		}
		i := strings.LastIndex(scope, naming.PackageSep)
		if i < 0 {
			break
		}
		scope = scope[:i]
	}
	return "", false
}

func singleTypeImport(simple string, imports []corpus.Import) (string, bool, error) {
	var found string
	for _, imp := range imports {
		if imp.OnDemand || naming.SimpleName(imp.Path) != simple {
			continue
		}
		if found != "" && found != imp.Path {
			return "", false, fmt.Errorf("conflicting imports of %s: %s and %s", simple, found, imp.Path)
		}
		found = imp.Path
	}
	return found, found != "", nil
}

// onDemand tries every pkg.* import. Two distinct hits make the name ambiguous.
func (o *Imports) onDemand(name string, imports []corpus.Import) (string, bool, error) {
	var hits []string
	seen := make(map[string]bool)
	for _, imp := range imports {
		if !imp.OnDemand {
			continue
		}
		qn := imp.Path + naming.PackageSep + name
		if o.known(qn) && !seen[qn] {
			seen[qn] = true
			hits = append(hits, qn)
		}
	}
	switch len(hits) {
	case 0:
		return "", false, nil
	case 1:
		return hits[0], true, nil
	default:
		sort.Strings(hits)
		return "", false, fmt.Errorf("%s is ambiguous between on-demand imports %s", name, strings.Join(hits, ", "))
	}
}

func (o *Imports) known(qn string) bool {
	if _, ok := o.decls[qn]; ok {
		return true
	}
	return o.catalog.Has(qn)
}

func (o *Imports) answer(qn string) resolver.Answer {
	return resolver.Answer{QualifiedName: qn, Decl: o.decls[qn]}
}

func qualify(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + naming.PackageSep + name
}
