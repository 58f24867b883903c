// Package diag collects recoverable conditions met during a run.
package diag

import (
	"log/slog"
	"sort"
)

type Kind string

const (
	DuplicateKey  Kind = "duplicate_key"
	EmptyUnit     Kind = "empty_unit"
	EmptyRoot     Kind = "empty_root"
	ParseFailure  Kind = "parse_failure"
	OracleFailure Kind = "oracle_failure"
)

// Diagnostic is one recorded condition. Subject names the key, path or usage involved.
type Diagnostic struct {
	Kind    Kind   `json:"kind"`
	Subject string `json:"subject"`
	Detail  string `json:"detail,omitempty"`
}

// Log accumulates diagnostics in the order they were reported. The zero value is ready to use.
type Log struct {
	items  []Diagnostic
	logger *slog.Logger
}

// NewLog returns a Log that also writes each diagnostic to logger at warn level.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

// Add records d.
func (l *Log) Add(d Diagnostic) {
	l.items = append(l.items, d)
	logger := l.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("diagnostic",
		slog.String("kind", string(d.Kind)),
		slog.String("subject", d.Subject),
		slog.String("detail", d.Detail),
	)
}

// Addf is shorthand for Add(Diagnostic{...}).
func (l *Log) Addf(kind Kind, subject, detail string) {
	l.Add(Diagnostic{Kind: kind, Subject: subject, Detail: detail})
}

// All returns a copy of the recorded diagnostics.
func (l *Log) All() []Diagnostic {
	if l == nil {
		return nil
	}
	out := make([]Diagnostic, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of recorded diagnostics.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// Counts groups diagnostics by kind.
func (l *Log) Counts() map[Kind]int {
	counts := make(map[Kind]int)
	if l == nil {
		return counts
	}
	for _, d := range l.items {
		counts[d.Kind]++
	}
	return counts
}

// Kinds returns the kinds present, sorted.
func (l *Log) Kinds() []Kind {
	counts := l.Counts()
	out := make([]Kind, 0, len(counts))
	for k := range counts {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
