package storage

import (
	"context"
	"errors"
	"time"

	"typeuml/internal/diag"
)

// ErrRunNotFound is returned when no stored run matches an id.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded diagram generation. Lines holds the recorded sink
// events in emission order; it is left empty by LatestRuns.
type Run struct {
	ID          string
	CreatedAt   time.Time
	Roots       []string
	Revision    string // Source revision, when the roots are under version control
	Format      string
	Types       int
	Edges       int
	Diagnostics []diag.Diagnostic
	Lines       []string
}

// RunStore persists the history of generated diagrams.
type RunStore interface {
	// SaveRun stores r, assigning ID and CreatedAt when they are unset.
	SaveRun(ctx context.Context, r *Run) error

	// LatestRuns returns up to n runs, newest first, without their lines.
	LatestRuns(ctx context.Context, n int) ([]Run, error)

	// LoadRun returns the run whose id equals or uniquely starts with id.
	LoadRun(ctx context.Context, id string) (*Run, error)

	Close() error
}
