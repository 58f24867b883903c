// Package diagram defines the ordered event contract between the classifier
// and whatever renders the class diagram.
package diagram

import (
	"strings"

	"typeuml/internal/corpus"
	"typeuml/internal/naming"
)

// Sink receives diagram events in emission order: every node (DeclareNode,
// its members, EndNode), then owns edges, then the remaining relationships.
// Edge targets are display names; they are keys only when the target is declared.
type Sink interface {
	DeclareNode(key naming.Key, kind corpus.Kind, stereotypes []string)
	Attribute(owner naming.Key, m Member)
	Operation(owner naming.Key, m Member)
	EndNode(key naming.Key)

	ConnectOwns(owner, owned naming.Key)
	// review is set when super did not resolve to a declared type.
	ConnectInheritance(sub naming.Key, super string, review bool)
	ConnectRealization(sub naming.Key, iface string, review bool)
	ConnectAssociation(owner naming.Key, target, role string, stereotypes []string)
	ConnectDependency(from naming.Key, to string)
}

// Visibility is the UML visibility marker.
type Visibility string

const (
	Public    Visibility = "+"
	Protected Visibility = "#"
	Private   Visibility = "-"
	Package   Visibility = "~"
)

// VisibilityOf maps Java modifiers to a UML marker.
func VisibilityOf(modifiers []string) Visibility {
	switch {
	case corpus.HasModifier(modifiers, "public"):
		return Public
	case corpus.HasModifier(modifiers, "protected"):
		return Protected
	case corpus.HasModifier(modifiers, "private"):
		return Private
	}
	return Package
}

// Member is an attribute or operation line. For operations Type is the return
// type (empty for constructors) and Params are "name: Type" strings.
type Member struct {
	Name       string
	Type       string
	Params     []string
	Visibility Visibility
	Static     bool
	Abstract   bool
	Operation  bool
}

// String renders the member in UML notation, e.g. "-count: int" or
// "+find(id: long): Order".
func (m Member) String() string {
	var sb strings.Builder
	sb.WriteString(string(m.Visibility))
	sb.WriteString(m.Name)
	if m.Operation {
		sb.WriteString("(")
		sb.WriteString(strings.Join(m.Params, ", "))
		sb.WriteString(")")
	}
	if m.Type != "" {
		sb.WriteString(": ")
		sb.WriteString(m.Type)
	}
	return sb.String()
}

// Tee forwards every event to each sink in order.
type Tee []Sink

func (t Tee) DeclareNode(key naming.Key, kind corpus.Kind, stereotypes []string) {
	for _, s := range t {
		s.DeclareNode(key, kind, stereotypes)
	}
}

func (t Tee) Attribute(owner naming.Key, m Member) {
	for _, s := range t {
		s.Attribute(owner, m)
	}
}

func (t Tee) Operation(owner naming.Key, m Member) {
	for _, s := range t {
		s.Operation(owner, m)
	}
}

func (t Tee) EndNode(key naming.Key) {
	for _, s := range t {
		s.EndNode(key)
	}
}

func (t Tee) ConnectOwns(owner, owned naming.Key) {
	for _, s := range t {
		s.ConnectOwns(owner, owned)
	}
}

func (t Tee) ConnectInheritance(sub naming.Key, super string, review bool) {
	for _, s := range t {
		s.ConnectInheritance(sub, super, review)
	}
}

func (t Tee) ConnectRealization(sub naming.Key, iface string, review bool) {
	for _, s := range t {
		s.ConnectRealization(sub, iface, review)
	}
}

func (t Tee) ConnectAssociation(owner naming.Key, target, role string, stereotypes []string) {
	for _, s := range t {
		s.ConnectAssociation(owner, target, role, stereotypes)
	}
}

func (t Tee) ConnectDependency(from naming.Key, to string) {
	for _, s := range t {
		s.ConnectDependency(from, to)
	}
}
