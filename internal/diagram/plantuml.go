package diagram

import (
	"fmt"
	"io"
	"strings"

	"typeuml/internal/corpus"
	"typeuml/internal/naming"
)

// printer remembers the first write error so the Sink methods need not return one.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// identifier turns a display name into an identifier both notations accept.
func identifier(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// aliases hands out one identifier per display name. Names that sanitize to
// the same identifier get numeric suffixes in order of first use.
type aliases struct {
	byName map[string]string
	taken  map[string]bool
}

func newAliases() aliases {
	return aliases{byName: make(map[string]string), taken: make(map[string]bool)}
}

func (a *aliases) alias(name string) string {
	if id, ok := a.byName[name]; ok {
		return id
	}
	base := identifier(name)
	id := base
	for n := 2; a.taken[id]; n++ {
		id = fmt.Sprintf("%s_%d", base, n)
	}
	a.byName[name] = id
	a.taken[id] = true
	return id
}

// PlantUMLWriter renders events as a PlantUML class diagram. Call Close to
// write the footer and collect the first write error.
type PlantUMLWriter struct {
	p        printer
	ids      aliases
	declared map[string]bool
	closed   bool
}

// NewPlantUMLWriter writes the diagram header to w.
func NewPlantUMLWriter(w io.Writer) *PlantUMLWriter {
	pw := &PlantUMLWriter{p: printer{w: w}, ids: newAliases(), declared: make(map[string]bool)}
	pw.p.printf("@startuml\n")
	return pw
}

func plantKeyword(kind corpus.Kind) string {
	switch kind {
	case corpus.KindInterface:
		return "interface"
	case corpus.KindEnum:
		return "enum"
	case corpus.KindAnnotation:
		return "annotation"
	}
	return "class"
}

func plantStereotypes(stereotypes []string) string {
	var sb strings.Builder
	for _, s := range stereotypes {
		if s == "annotation" {
			continue
		}
		fmt.Fprintf(&sb, " <<%s>>", s)
	}
	return sb.String()
}

func (w *PlantUMLWriter) DeclareNode(key naming.Key, kind corpus.Kind, stereotypes []string) {
	w.declared[string(key)] = true
	w.p.printf("%s \"%s\" as %s%s {\n", plantKeyword(kind), key, w.ids.alias(string(key)), plantStereotypes(stereotypes))
}

func (w *PlantUMLWriter) member(m Member) {
	var mods string
	if m.Static {
		mods += "{static} "
	}
	if m.Abstract {
		mods += "{abstract} "
	}
	w.p.printf("  %s%s\n", mods, m)
}

func (w *PlantUMLWriter) Attribute(_ naming.Key, m Member) { w.member(m) }
func (w *PlantUMLWriter) Operation(_ naming.Key, m Member) { w.member(m) }

func (w *PlantUMLWriter) EndNode(naming.Key) {
	w.p.printf("}\n")
}

// target returns the alias of name, declaring a plain node for names that are
// not corpus types the first time they appear.
func (w *PlantUMLWriter) target(name string) string {
	if !w.declared[name] {
		w.declared[name] = true
		w.p.printf("class \"%s\" as %s\n", name, w.ids.alias(name))
	}
	return w.ids.alias(name)
}

func reviewLabel(review bool) string {
	if review {
		return " : <<review>>"
	}
	return ""
}

func (w *PlantUMLWriter) ConnectOwns(owner, owned naming.Key) {
	w.p.printf("%s +-- %s\n", w.ids.alias(string(owner)), w.ids.alias(string(owned)))
}

func (w *PlantUMLWriter) ConnectInheritance(sub naming.Key, super string, review bool) {
	w.p.printf("%s --|> %s%s\n", w.ids.alias(string(sub)), w.target(super), reviewLabel(review))
}

func (w *PlantUMLWriter) ConnectRealization(sub naming.Key, iface string, review bool) {
	w.p.printf("%s ..|> %s%s\n", w.ids.alias(string(sub)), w.target(iface), reviewLabel(review))
}

func (w *PlantUMLWriter) ConnectAssociation(owner naming.Key, target, role string, stereotypes []string) {
	w.p.printf("%s ---> %s : %s%s\n", w.ids.alias(string(owner)), w.target(target), role, plantStereotypes(stereotypes))
}

func (w *PlantUMLWriter) ConnectDependency(from naming.Key, to string) {
	w.p.printf("%s ..> %s\n", w.ids.alias(string(from)), w.target(to))
}

// Close writes the footer once and returns the first write error.
func (w *PlantUMLWriter) Close() error {
	if !w.closed {
		w.closed = true
		w.p.printf("@enduml\n")
	}
	return w.p.err
}
