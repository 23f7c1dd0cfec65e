package docsight

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/insightlab/docsight/pkg/docsight/internalerr"
	"github.com/insightlab/docsight/pkg/docsight/pipeline"
	"github.com/insightlab/docsight/pkg/docsight/store/memstore"
	"github.com/insightlab/docsight/pkg/docsight/terms"
)

// stubAnalyzer is a minimal SegmentAnalyzer. When gate is non-nil, Analyze
// blocks until the gate closes.
type stubAnalyzer struct {
	gate chan struct{}
}

func (s *stubAnalyzer) Analyze(text string) (*pipeline.Analysis, error) {
	if s.gate != nil {
		<-s.gate
	}
	an := &pipeline.Analysis{Text: text, Score: 1}
	for _, w := range strings.Fields(text) {
		an.Tokens = append(an.Tokens, pipeline.AnalyzedToken{Raw: w, Tag: "NN", Stem: w})
	}
	return an, nil
}

func (s *stubAnalyzer) Tag(tokens []string) ([]terms.TaggedToken, error) {
	out := make([]terms.TaggedToken, len(tokens))
	for i, tok := range tokens {
		out[i] = terms.TaggedToken{Text: tok, Tag: "NN"}
	}
	return out, nil
}

func testReport() *pipeline.Report {
	return &pipeline.Report{Entries: []*pipeline.Entry{
		{Title: "Plant", Content: "turbine rotor blade. turbine shaft rotor."},
		{Title: "Office", Content: "keyboard mouse monitor. monitor cable screen."},
	}}
}

func TestRunRejectsConcurrentRuns(t *testing.T) {
	gate := make(chan struct{})
	engine, err := New(Options{Analyzer: &stubAnalyzer{gate: gate}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Close()

	ops := []pipeline.Operation{
		{Feature: pipeline.FeatureSegmentation, Library: pipeline.LibraryNone},
		{Feature: pipeline.FeatureSentiment, Library: pipeline.LibraryAnalyzer},
	}

	firstDone := make(chan error, 1)
	go func() {
		_, err := engine.Run(context.Background(), testReport(), ops)
		firstDone <- err
	}()

	// wait until the first run is inside the executor
	deadline := time.After(2 * time.Second)
	for {
		engine.mu.Lock()
		running := engine.running
		engine.mu.Unlock()
		if running {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first run never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if _, err := engine.Run(context.Background(), testReport(), ops); !errors.Is(err, internalerr.ErrRunInFlight) {
		t.Errorf("second run: err = %v, want ErrRunInFlight", err)
	}

	close(gate)
	if err := <-firstDone; err != nil {
		t.Fatalf("first run: %v", err)
	}

	// the gate lifts once the first run finished
	if _, err := engine.Run(context.Background(), testReport(), ops); err != nil {
		t.Errorf("run after completion: %v", err)
	}
}

func TestRunPersists(t *testing.T) {
	st := memstore.New()
	engine, err := New(Options{Analyzer: &stubAnalyzer{}, Store: st})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Close()

	report := testReport()
	ops := []pipeline.Operation{{Feature: pipeline.FeatureSegmentation, Library: pipeline.LibraryNone}}

	res, err := engine.Run(context.Background(), report, ops)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	saved, err := st.GetRun(context.Background(), res.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if len(saved.Entries) != 2 {
		t.Fatalf("got %d entries", len(saved.Entries))
	}
	if saved.Entries[0].Evaluations[0].Feature != pipeline.FeatureSegmentation.String() {
		t.Errorf("evaluation = %+v", saved.Entries[0].Evaluations[0])
	}
	if len(saved.Entries[0].Evaluations[0].Result) == 0 {
		t.Error("evaluation payload not serialized")
	}
}

func TestGlobalSummary(t *testing.T) {
	engine, err := New(Options{Analyzer: &stubAnalyzer{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Close()

	graph, err := engine.GlobalSummary(context.Background(), testReport(), nil, 2, 2)
	if err != nil {
		t.Fatalf("GlobalSummary: %v", err)
	}

	if len(graph.Domains) != 2 {
		t.Errorf("domains = %v", graph.Domains)
	}
	// 2 titles + 2 topics, fully connected
	if len(graph.Entities) != 4 {
		t.Errorf("got %d entities", len(graph.Entities))
	}
	if len(graph.Links) != 4 {
		t.Errorf("got %d links", len(graph.Links))
	}
}

func TestGlobalSummaryStreamMismatch(t *testing.T) {
	engine, err := New(Options{Analyzer: &stubAnalyzer{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer engine.Close()

	_, err = engine.GlobalSummary(context.Background(), testReport(), [][]string{{"only one"}}, 2, 2)
	if !errors.Is(err, internalerr.ErrDimension) {
		t.Errorf("err = %v, want ErrDimension", err)
	}
}
