// Package store persists completed pipeline runs.
package store

import (
	"context"
	"encoding/json"
	"time"
)

// Store is the interface for persisting and querying pipeline runs
type Store interface {
	Close() error

	SaveRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

// Run is one persisted pipeline execution. Entries keep the post-run order,
// so a termlist-sorted report is stored sorted.
type Run struct {
	ID        string
	StartedAt time.Time
	Entries   []RunEntry
}

// RunEntry is one document of a persisted run
type RunEntry struct {
	Title       string
	Evaluations []RunEvaluation
}

// RunEvaluation is one serialized operation result
type RunEvaluation struct {
	Feature string
	Library string
	Result  json.RawMessage
}
