// Package memstore is an in-memory implementation of store.Store for tests
// and ephemeral runs.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/insightlab/docsight/pkg/docsight/internalerr"
	"github.com/insightlab/docsight/pkg/docsight/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu   sync.RWMutex
	runs map[string]store.Run
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{runs: make(map[string]store.Run)}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveRun inserts or replaces a run, keyed by its id.
func (s *Store) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("save run: empty id: %w", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = copyRun(r)
	return nil
}

// GetRun returns a run by id.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.runs[id]; ok {
		return copyRun(r), nil
	}
	return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
}

// ListRuns returns up to limit runs, most recent first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, copyRun(r))
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].StartedAt.Equal(out[b].StartedAt) {
			return out[a].StartedAt.After(out[b].StartedAt)
		}
		return out[a].ID > out[b].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func copyRun(r store.Run) store.Run {
	out := r
	out.Entries = make([]store.RunEntry, len(r.Entries))
	for i, e := range r.Entries {
		out.Entries[i] = store.RunEntry{
			Title:       e.Title,
			Evaluations: append([]store.RunEvaluation(nil), e.Evaluations...),
		}
	}
	return out
}
