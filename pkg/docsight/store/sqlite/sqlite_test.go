package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/insightlab/docsight/pkg/docsight/internalerr"
	"github.com/insightlab/docsight/pkg/docsight/store"
)

func openTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGetRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	in := store.Run{
		ID:        "01RUN",
		StartedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Entries: []store.RunEntry{
			{
				Title: "First",
				Evaluations: []store.RunEvaluation{
					{Feature: "Segmentation", Library: "none", Result: json.RawMessage(`["a.","b."]`)},
					{Feature: "Sentiment", Library: "analyzer", Result: json.RawMessage(`[{"score":1}]`)},
				},
			},
			{Title: "Second"},
		},
	}
	if err := s.SaveRun(ctx, in); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	out, err := s.GetRun(ctx, "01RUN")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if !out.StartedAt.Equal(in.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", out.StartedAt, in.StartedAt)
	}
	if len(out.Entries) != 2 {
		t.Fatalf("got %d entries", len(out.Entries))
	}
	if out.Entries[0].Title != "First" || out.Entries[1].Title != "Second" {
		t.Errorf("entry order lost: %+v", out.Entries)
	}
	evals := out.Entries[0].Evaluations
	if len(evals) != 2 || evals[0].Feature != "Segmentation" || evals[1].Feature != "Sentiment" {
		t.Errorf("evaluation order lost: %+v", evals)
	}
	if string(evals[0].Result) != `["a.","b."]` {
		t.Errorf("result payload = %s", evals[0].Result)
	}
}

func TestSaveRunReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := store.Run{ID: "01RUN", StartedAt: time.Now().UTC(), Entries: []store.RunEntry{{Title: "old"}}}
	if err := s.SaveRun(ctx, first); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	second := store.Run{ID: "01RUN", StartedAt: time.Now().UTC(), Entries: []store.RunEntry{{Title: "new"}}}
	if err := s.SaveRun(ctx, second); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	out, err := s.GetRun(ctx, "01RUN")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if len(out.Entries) != 1 || out.Entries[0].Title != "new" {
		t.Errorf("entries = %+v", out.Entries)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetRun(context.Background(), "missing"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListRunsMostRecentFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"01A", "01B", "01C"} {
		run := store.Run{ID: id, StartedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := s.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	runs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs", len(runs))
	}
	if runs[0].ID != "01C" || runs[1].ID != "01B" {
		t.Errorf("order = %s, %s", runs[0].ID, runs[1].ID)
	}
}
