// Package analysis compares the recorded event lines of two runs.
package analysis

import (
	"sort"
	"strings"

	"typeuml/internal/diagram"
)

// ImpactReport summarizes how one diagram differs from another.
type ImpactReport struct {
	Added   []string
	Removed []string
	// Touched lists the type keys named by an added or removed line.
	Touched []string
	// Dependents lists untouched types of the newer run with an edge to a
	// touched type.
	Dependents []string
}

// Empty reports whether the two runs produced the same events.
func (r *ImpactReport) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0
}

// Compare diffs prev against cur. Lines are treated as a multiset, so a
// repeated line counts once per occurrence. Output lists keep the order the
// lines have in their own run.
func Compare(prev, cur []string) *ImpactReport {
	report := &ImpactReport{
		Removed: subtract(prev, cur),
		Added:   subtract(cur, prev),
	}

	touched := make(map[string]bool)
	for _, lines := range [][]string{report.Removed, report.Added} {
		for _, line := range lines {
			for _, key := range keysOf(line) {
				touched[key] = true
			}
		}
	}
	report.Touched = sortedKeys(touched)
	report.Dependents = dependentsOf(cur, touched)
	return report
}

// Impact reports the types that depend on keys according to the edges in
// lines. Added and Removed stay empty.
func Impact(lines []string, keys []string) *ImpactReport {
	touched := make(map[string]bool, len(keys))
	for _, k := range keys {
		touched[k] = true
	}
	return &ImpactReport{
		Touched:    sortedKeys(touched),
		Dependents: dependentsOf(lines, touched),
	}
}

func dependentsOf(lines []string, touched map[string]bool) []string {
	dependents := make(map[string]bool)
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 3 || !diagram.EventKind(fields[0]).IsEdge() {
			continue
		}
		from, to := fields[1], fields[2]
		if touched[to] && !touched[from] {
			dependents[from] = true
		}
	}
	return sortedKeys(dependents)
}

// subtract returns the lines of a left over after removing one occurrence per
// line of b.
func subtract(a, b []string) []string {
	budget := make(map[string]int, len(b))
	for _, line := range b {
		budget[line]++
	}
	var out []string
	for _, line := range a {
		if budget[line] > 0 {
			budget[line]--
			continue
		}
		out = append(out, line)
	}
	return out
}

// keysOf returns the subject of a line, plus the target for edges.
func keysOf(line string) []string {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil
	}
	keys := []string{fields[1]}
	if len(fields) > 2 && diagram.EventKind(fields[0]).IsEdge() {
		keys = append(keys, fields[2])
	}
	return keys
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
