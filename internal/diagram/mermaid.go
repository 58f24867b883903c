package diagram

import (
	"io"

	"typeuml/internal/corpus"
	"typeuml/internal/naming"
)

// MermaidWriter renders events as a Mermaid classDiagram.
type MermaidWriter struct {
	p        printer
	ids      aliases
	declared map[string]bool
	fenced   bool
	closed   bool
}

// NewMermaidWriter writes the diagram header to w. A fenced diagram is wrapped
// in a ```mermaid block for embedding in Markdown.
func NewMermaidWriter(w io.Writer, fenced bool) *MermaidWriter {
	mw := &MermaidWriter{p: printer{w: w}, ids: newAliases(), declared: make(map[string]bool), fenced: fenced}
	if fenced {
		mw.p.printf("```mermaid\n")
	}
	mw.p.printf("classDiagram\n")
	return mw
}

func mermaidAnnotation(kind corpus.Kind) string {
	switch kind {
	case corpus.KindInterface:
		return "interface"
	case corpus.KindEnum:
		return "enumeration"
	}
	return ""
}

func (w *MermaidWriter) DeclareNode(key naming.Key, kind corpus.Kind, stereotypes []string) {
	w.declared[string(key)] = true
	w.p.printf("    class %s[\"%s\"] {\n", w.ids.alias(string(key)), key)
	if a := mermaidAnnotation(kind); a != "" {
		w.p.printf("        <<%s>>\n", a)
	}
	for _, s := range stereotypes {
		w.p.printf("        <<%s>>\n", s)
	}
}

func (w *MermaidWriter) member(m Member) {
	line := m.String()
	switch {
	case m.Abstract:
		line += "*"
	case m.Static:
		line += "$"
	}
	w.p.printf("        %s\n", line)
}

func (w *MermaidWriter) Attribute(_ naming.Key, m Member) { w.member(m) }
func (w *MermaidWriter) Operation(_ naming.Key, m Member) { w.member(m) }

func (w *MermaidWriter) EndNode(naming.Key) {
	w.p.printf("    }\n")
}

func (w *MermaidWriter) target(name string) string {
	if !w.declared[name] {
		w.declared[name] = true
		w.p.printf("    class %s[\"%s\"]\n", w.ids.alias(name), name)
	}
	return w.ids.alias(name)
}

// Mermaid has no nesting arrow; composition is the closest notation.
func (w *MermaidWriter) ConnectOwns(owner, owned naming.Key) {
	w.p.printf("    %s *-- %s : owns\n", w.ids.alias(string(owner)), w.ids.alias(string(owned)))
}

func (w *MermaidWriter) ConnectInheritance(sub naming.Key, super string, review bool) {
	w.p.printf("    %s --|> %s%s\n", w.ids.alias(string(sub)), w.target(super), mermaidReview(review))
}

func (w *MermaidWriter) ConnectRealization(sub naming.Key, iface string, review bool) {
	w.p.printf("    %s ..|> %s%s\n", w.ids.alias(string(sub)), w.target(iface), mermaidReview(review))
}

func mermaidReview(review bool) string {
	if review {
		return " : review"
	}
	return ""
}

func (w *MermaidWriter) ConnectAssociation(owner naming.Key, target, role string, _ []string) {
	w.p.printf("    %s --> %s : %s\n", w.ids.alias(string(owner)), w.target(target), role)
}

func (w *MermaidWriter) ConnectDependency(from naming.Key, to string) {
	w.p.printf("    %s ..> %s\n", w.ids.alias(string(from)), w.target(to))
}

// Close ends the fence, if any, and returns the first write error.
func (w *MermaidWriter) Close() error {
	if !w.closed {
		w.closed = true
		if w.fenced {
			w.p.printf("```\n")
		}
	}
	return w.p.err
}
