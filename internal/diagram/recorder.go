package diagram

import (
	"strings"

	"typeuml/internal/corpus"
	"typeuml/internal/naming"
)

// EventKind names a Sink call.
type EventKind string

const (
	EventNode        EventKind = "node"
	EventAttribute   EventKind = "attribute"
	EventOperation   EventKind = "operation"
	EventEnd         EventKind = "end"
	EventOwns        EventKind = "owns"
	EventInheritance EventKind = "inheritance"
	EventRealization EventKind = "realization"
	EventAssociation EventKind = "association"
	EventDependency  EventKind = "dependency"
)

// IsEdge reports whether events of kind k connect two types.
func (k EventKind) IsEdge() bool {
	switch k {
	case EventOwns, EventInheritance, EventRealization, EventAssociation, EventDependency:
		return true
	}
	return false
}

// Event is one recorded Sink call.
type Event struct {
	Kind        EventKind
	Subject     naming.Key
	Target      string // Edge target display name
	NodeKind    corpus.Kind
	Role        string
	Stereotypes []string
	Member      Member
	Review      bool
}

// String is the stable one-line form used for storage and diffs:
// "<kind> <subject> [<target>] [details]".
func (e Event) String() string {
	parts := []string{string(e.Kind), string(e.Subject)}
	switch e.Kind {
	case EventNode:
		parts = append(parts, string(e.NodeKind))
		parts = append(parts, stereotypeTokens(e.Stereotypes)...)
	case EventAttribute, EventOperation:
		parts = append(parts, e.Member.String())
		if e.Member.Static {
			parts = append(parts, "{static}")
		}
		if e.Member.Abstract {
			parts = append(parts, "{abstract}")
		}
	case EventAssociation:
		parts = append(parts, e.Target, e.Role)
		parts = append(parts, stereotypeTokens(e.Stereotypes)...)
	case EventOwns, EventDependency:
		parts = append(parts, e.Target)
	case EventInheritance, EventRealization:
		parts = append(parts, e.Target)
		if e.Review {
			parts = append(parts, "review")
		}
	}
	return strings.Join(parts, " ")
}

func stereotypeTokens(stereotypes []string) []string {
	out := make([]string, len(stereotypes))
	for i, s := range stereotypes {
		out[i] = "<<" + s + ">>"
	}
	return out
}

// Recorder keeps every event in order. The zero value is ready to use.
type Recorder struct {
	events []Event
}

func (r *Recorder) add(e Event) {
	r.events = append(r.events, e)
}

func (r *Recorder) DeclareNode(key naming.Key, kind corpus.Kind, stereotypes []string) {
	r.add(Event{Kind: EventNode, Subject: key, NodeKind: kind, Stereotypes: clone(stereotypes)})
}

func (r *Recorder) Attribute(owner naming.Key, m Member) {
	r.add(Event{Kind: EventAttribute, Subject: owner, Member: m})
}

func (r *Recorder) Operation(owner naming.Key, m Member) {
	r.add(Event{Kind: EventOperation, Subject: owner, Member: m})
}

func (r *Recorder) EndNode(key naming.Key) {
	r.add(Event{Kind: EventEnd, Subject: key})
}

func (r *Recorder) ConnectOwns(owner, owned naming.Key) {
	r.add(Event{Kind: EventOwns, Subject: owner, Target: string(owned)})
}

func (r *Recorder) ConnectInheritance(sub naming.Key, super string, review bool) {
	r.add(Event{Kind: EventInheritance, Subject: sub, Target: super, Review: review})
}

func (r *Recorder) ConnectRealization(sub naming.Key, iface string, review bool) {
	r.add(Event{Kind: EventRealization, Subject: sub, Target: iface, Review: review})
}

func (r *Recorder) ConnectAssociation(owner naming.Key, target, role string, stereotypes []string) {
	r.add(Event{Kind: EventAssociation, Subject: owner, Target: target, Role: role, Stereotypes: clone(stereotypes)})
}

func (r *Recorder) ConnectDependency(from naming.Key, to string) {
	r.add(Event{Kind: EventDependency, Subject: from, Target: to})
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Lines returns the String form of every event.
func (r *Recorder) Lines() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.String()
	}
	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	return len(r.events)
}

// Count returns how many events of kind k were recorded.
func (r *Recorder) Count(k EventKind) int {
	n := 0
	for _, e := range r.events {
		if e.Kind == k {
			n++
		}
	}
	return n
}

func clone(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
