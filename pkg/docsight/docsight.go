// Package docsight is the document analysis engine facade: it wires the
// pipeline executor, the remote collaborator and run persistence behind a
// small API.
package docsight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/insightlab/docsight/pkg/docsight/internalerr"
	"github.com/insightlab/docsight/pkg/docsight/pipeline"
	"github.com/insightlab/docsight/pkg/docsight/store"
	"github.com/insightlab/docsight/pkg/docsight/summary"
	"github.com/insightlab/docsight/pkg/docsight/textutil"
	"github.com/insightlab/docsight/pkg/docsight/topics"
)

// Engine is the main document analysis facade
type Engine struct {
	exec     *pipeline.Executor
	analyzer pipeline.SegmentAnalyzer
	store    store.Store
	log      *slog.Logger

	mu      sync.Mutex
	running bool
}

// Options configures an Engine instance
type Options struct {
	// Analyzer overrides the default linguistic analyzer, mainly for tests.
	Analyzer pipeline.SegmentAnalyzer
	// Remote is the companion service client; nil disables remote operations.
	Remote pipeline.Remote
	// Store persists completed runs; nil disables persistence.
	Store  store.Store
	Logger *slog.Logger
}

// New creates an Engine instance with the given dependencies
func New(opts Options) (*Engine, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	analyzer := opts.Analyzer
	if analyzer == nil {
		a, err := pipeline.NewAnalyzer()
		if err != nil {
			return nil, err
		}
		analyzer = a
	}
	return &Engine{
		exec: pipeline.New(pipeline.Config{
			Analyzer: analyzer,
			Remote:   opts.Remote,
			Logger:   log,
		}),
		analyzer: analyzer,
		store:    opts.Store,
		log:      log,
	}, nil
}

// Close cleanly shuts down the engine
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Run executes the configured operations over the report. Only one run may
// be active at a time; a second concurrent call fails with ErrRunInFlight.
// When a store is configured the completed run is persisted before Run
// returns.
func (e *Engine) Run(ctx context.Context, report *pipeline.Report, ops []pipeline.Operation) (*pipeline.Result, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, fmt.Errorf("pipeline: %w", internalerr.ErrRunInFlight)
	}
	e.running = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	started := time.Now()
	result, err := e.exec.Run(ctx, report, ops)
	if err != nil {
		return nil, err
	}

	if e.store != nil {
		if err := e.store.SaveRun(ctx, runRecord(result.RunID, started, report)); err != nil {
			e.log.Warn("persisting run failed", "run", result.RunID, "err", err)
		}
	}
	return result, nil
}

// runRecord serializes a completed report into its persistent form.
// Evaluation payloads that fail to marshal are stored as null rather than
// losing the run.
func runRecord(id string, started time.Time, report *pipeline.Report) store.Run {
	run := store.Run{ID: id, StartedAt: started}
	for _, entry := range report.Entries {
		re := store.RunEntry{Title: entry.Title}
		for _, eval := range entry.Evals {
			raw, err := json.Marshal(eval.Result)
			if err != nil {
				slog.Warn("marshal evaluation failed",
					"feature", eval.Operation.Feature.String(), "err", err)
				raw = []byte("null")
			}
			re.Evaluations = append(re.Evaluations, store.RunEvaluation{
				Feature: eval.Operation.Feature.String(),
				Library: eval.Operation.Library.String(),
				Result:  raw,
			})
		}
		run.Entries = append(run.Entries, re)
	}
	return run
}

// GlobalSummary builds the corpus-wide topic graph connecting document
// titles to topics. streams are the per-document text streams of a previous
// run; when nil the stripped entry contents are modelled instead.
func (e *Engine) GlobalSummary(ctx context.Context, report *pipeline.Report, streams [][]string, topicCount, termsEach int) (*summary.Graph, error) {
	if report == nil || len(report.Entries) == 0 {
		return nil, fmt.Errorf("global summary: empty report: %w", internalerr.ErrInvalidInput)
	}
	if streams != nil && len(streams) != len(report.Entries) {
		return nil, fmt.Errorf("global summary: %d streams for %d entries: %w",
			len(streams), len(report.Entries), internalerr.ErrDimension)
	}
	if topicCount <= 0 {
		topicCount = pipeline.DefaultTopicCount
	}
	if termsEach <= 0 {
		termsEach = pipeline.DefaultTermsEach
	}

	texts := make([]string, len(report.Entries))
	titles := make([]string, len(report.Entries))
	for i, entry := range report.Entries {
		titles[i] = entry.Title
		if streams != nil {
			texts[i] = strings.Join(streams[i], " ")
		} else {
			texts[i] = textutil.StripMarkup(entry.Content)
		}
	}

	model, err := topics.TopicModel(texts, topicCount, termsEach, titles, e.analyzer)
	if err != nil {
		return nil, err
	}
	return summary.Build(titles, model)
}
