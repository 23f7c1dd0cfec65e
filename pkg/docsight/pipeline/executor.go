package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	snowball "github.com/kljensen/snowball/english"
	"github.com/oklog/ulid/v2"

	"github.com/insightlab/docsight/pkg/docsight/internalerr"
	"github.com/insightlab/docsight/pkg/docsight/textutil"
	"github.com/insightlab/docsight/pkg/docsight/topics"
)

// segmentCacheCap bounds the per-run analysis cache. One entry per
// (document, segment) pair.
const segmentCacheCap = 4096

// Remote is the contract of the remote computation collaborator.
type Remote interface {
	Lda(ctx context.Context, texts []string, topicCount, termsEach int) (json.RawMessage, error)
	Tfidf(ctx context.Context, texts []string) (json.RawMessage, error)
	StopwordRemoval(ctx context.Context, texts, custom []string) ([]string, error)
}

// Config wires an Executor.
type Config struct {
	Analyzer SegmentAnalyzer
	Remote   Remote // optional; remote-backed operations are skipped without it
	Logger   *slog.Logger
}

// Executor runs ordered operation lists over document batches. Operations
// execute strictly in the supplied order; the executor never reorders them.
type Executor struct {
	analyzer SegmentAnalyzer
	remote   Remote
	log      *slog.Logger
	entropy  *ulid.MonotonicEntropy

	mu    sync.Mutex // guards runID and all evaluation/stream appends
	runID string
}

// New creates an executor.
func New(cfg Config) *Executor {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Executor{
		analyzer: cfg.Analyzer,
		remote:   cfg.Remote,
		log:      log,
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}
}

// Result is the outcome of one pipeline run. TextStreams is index-aligned
// with the report entries (after the optional termlist sort both are
// reordered together).
type Result struct {
	RunID        string
	TextStreams  [][]string
	TopicCount   int
	TermsEach    int
	TopicLibrary Library
}

// run is the state owned by exactly one pipeline execution. The analysis
// cache lives and dies with it.
type run struct {
	id          string
	cache       *lru.Cache[segKey, *Analysis]
	result      *Result
	sortByScore bool
	// overrides holds final text streams delivered by deferred remote
	// results; applied after all operations finished.
	overrides map[int][]string
	wg        sync.WaitGroup
}

type segKey struct {
	doc, seg int
}

// docState tracks the text stream of one document while its operations run.
type docState struct {
	stream  []string
	segMode string
}

// Run executes the operations over every report entry, in entry order and,
// within an entry, in operation order. Prior evaluations are cleared first.
//
// Remote-backed operations do not block the processing of other documents:
// they are dispatched concurrently, tagged with the run id, and their
// evaluations may append in any order. Run waits for all of them before
// returning, so the returned result is complete. Results from a superseded
// run are discarded.
func (e *Executor) Run(ctx context.Context, report *Report, ops []Operation) (*Result, error) {
	if report == nil || len(report.Entries) == 0 {
		return nil, fmt.Errorf("pipeline run: empty report: %w", internalerr.ErrInvalidInput)
	}

	cache, err := lru.New[segKey, *Analysis](segmentCacheCap)
	if err != nil {
		return nil, err
	}
	r := &run{
		cache:     cache,
		overrides: make(map[int][]string),
		result: &Result{
			TextStreams:  make([][]string, len(report.Entries)),
			TopicCount:   DefaultTopicCount,
			TermsEach:    DefaultTermsEach,
			TopicLibrary: LibraryNmf,
		},
	}

	e.mu.Lock()
	r.id = ulid.MustNew(ulid.Now(), e.entropy).String()
	e.runID = r.id
	r.result.RunID = r.id
	for _, entry := range report.Entries {
		entry.Evals = nil
	}
	e.mu.Unlock()

	for i, entry := range report.Entries {
		if ctx.Err() != nil {
			break
		}
		st := &docState{}
		for _, op := range ops {
			e.apply(ctx, r, entry, i, op, st)
		}
		e.mu.Lock()
		r.result.TextStreams[i] = st.stream
		e.mu.Unlock()
	}

	r.wg.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	for idx, stream := range r.overrides {
		r.result.TextStreams[idx] = stream
	}
	if r.sortByScore {
		sortByTermlistScore(report, r.result)
	}
	return r.result, nil
}

// sortByTermlistScore stable-sorts entries and their text streams together,
// best net rating first.
func sortByTermlistScore(report *Report, result *Result) {
	idx := make([]int, len(report.Entries))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return LessByTermlistScore(report.Entries[idx[a]], report.Entries[idx[b]])
	})
	entries := make([]*Entry, len(idx))
	streams := make([][]string, len(idx))
	for to, from := range idx {
		entries[to] = report.Entries[from]
		streams[to] = result.TextStreams[from]
	}
	report.Entries = entries
	result.TextStreams = streams
}

func (e *Executor) apply(ctx context.Context, r *run, entry *Entry, idx int, op Operation, st *docState) {
	if !op.Supported() {
		e.log.Debug("no implementation for operation, skipping",
			"feature", op.Feature.String(), "library", op.Library.String())
		return
	}
	switch op.Feature {
	case FeatureTermlistRating:
		e.doTermlistRating(r, entry, op)
	case FeatureSegmentation:
		e.doSegmentation(r, entry, op, st)
	case FeaturePosSelection:
		e.doPosSelection(r, entry, idx, op, st)
	case FeatureStopwordRemoval:
		e.doStopwordRemoval(ctx, r, entry, idx, op, st)
	case FeatureSentiment:
		e.doSentiment(r, entry, idx, op, st)
	case FeatureTopic:
		e.doTopic(ctx, r, entry, idx, op, st)
	case FeatureTfidf:
		e.doTfidf(ctx, r, entry, op, st)
	case FeatureStemming:
		e.doStemming(r, entry, idx, op, st)
	}
}

// append records an evaluation under the run lock. op must already be a
// snapshot. Appends from superseded runs are dropped.
func (e *Executor) append(r *run, entry *Entry, op Operation, result any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.runID != r.id {
		e.log.Debug("discarding evaluation of superseded run",
			"run", r.id, "feature", op.Feature.String())
		return
	}
	entry.Evals = append(entry.Evals, Evaluation{Operation: op, Result: result})
}

// setFinalStream records a deferred replacement of a document's final text
// stream. Applied after all operations finished, so it always wins over the
// locally computed stream.
func (e *Executor) setFinalStream(r *run, idx int, stream []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.runID != r.id {
		return
	}
	r.overrides[idx] = stream
}

// ensureStream recovers a missing text stream by falling back to the
// stripped document content. Logged, never fatal.
func (e *Executor) ensureStream(entry *Entry, st *docState, f Feature) {
	if st.stream != nil {
		return
	}
	e.log.Debug("no text stream, falling back to document content", "feature", f.String())
	st.stream = textutil.DropEmpty([]string{textutil.StripMarkup(entry.Content)})
}

// analyses returns the shared linguistic analysis of every stream segment,
// computing each (document, segment) pair at most once per run.
func (e *Executor) analyses(r *run, docIdx int, stream []string) SegmentAnalyses {
	out := make(SegmentAnalyses, len(stream))
	for i, seg := range stream {
		key := segKey{doc: docIdx, seg: i}
		if an, ok := r.cache.Get(key); ok {
			out[i] = an
			continue
		}
		an, err := e.analyzer.Analyze(seg)
		if err != nil {
			e.log.Warn("segment analysis failed", "doc", docIdx, "segment", i, "err", err)
			continue
		}
		r.cache.Add(key, an)
		out[i] = an
	}
	return out
}

func (e *Executor) doTermlistRating(r *run, entry *Entry, op Operation) {
	snap := op.Snapshot()
	positive := op.Params.List(ParamPositiveTerms)
	negative := op.Params.List(ParamNegativeTerms)
	if len(positive) == 0 && len(negative) == 0 {
		e.log.Debug("termlist rating without terms, skipping")
		return
	}

	plain := strings.ToLower(textutil.StripMarkup(entry.Content))
	var res TermlistResult
	if len(positive) > 0 {
		res.PositiveMap = textutil.CountTermOccurrences(positive, plain)
		for _, n := range res.PositiveMap {
			res.PositiveSum += n
		}
	}
	if len(negative) > 0 {
		res.NegativeMap = textutil.CountTermOccurrences(negative, plain)
		for _, n := range res.NegativeMap {
			res.NegativeSum += n
		}
	}

	r.sortByScore = true
	e.append(r, entry, snap, res)
}

func (e *Executor) doSegmentation(r *run, entry *Entry, op Operation, st *docState) {
	snap := op.Snapshot()
	mode := op.Params.First(ParamSplitting, DefaultSplitting)

	text := entry.Content // markup-bearing on first segmentation
	if st.stream != nil {
		text = strings.Join(st.stream, " ")
	}
	st.stream = textutil.Segment(text, mode)
	st.segMode = mode
	e.append(r, entry, snap, SegmentationResult{Mode: mode, Segments: st.stream})
}

func (e *Executor) doPosSelection(r *run, entry *Entry, idx int, op Operation, st *docState) {
	snap := op.Snapshot()
	e.ensureStream(entry, st, op.Feature)

	sel := PosSelection{
		Nouns:      op.Params.Bool(ParamNouns),
		Verbs:      op.Params.Bool(ParamVerbs),
		Adjectives: op.Params.Bool(ParamAdjectives),
	}
	analyses := e.analyses(r, idx, st.stream)
	e.append(r, entry, snap, analyses)

	// highlight-only leaves the stream for downstream features untouched
	if !sel.Empty() && !op.Params.Bool(ParamHighlightOnly) {
		st.stream = selectPos(analyses, sel)
	}
}

func (e *Executor) doStopwordRemoval(ctx context.Context, r *run, entry *Entry, idx int, op Operation, st *docState) {
	snap := op.Snapshot()
	e.ensureStream(entry, st, op.Feature)
	custom := op.Params.List(ParamStopwordList)

	switch op.Library {
	case LibraryNone:
		res := textutil.RemoveStopwords(st.stream, st.segMode, custom)
		st.stream = res
		e.append(r, entry, snap, StopwordResult(res))
	case LibraryStopwordRemote:
		if e.remote == nil {
			e.log.Warn("no remote client configured, skipping remote stopword removal")
			return
		}
		stream := append([]string(nil), st.stream...)
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			res, err := e.remote.StopwordRemoval(ctx, stream, custom)
			if err != nil {
				e.log.Warn("remote stopword removal failed", "doc", idx, "err", err)
				return
			}
			e.append(r, entry, snap, StopwordResult(res))
			e.setFinalStream(r, idx, res)
		}()
	}
}

func (e *Executor) doSentiment(r *run, entry *Entry, idx int, op Operation, st *docState) {
	snap := op.Snapshot()
	e.ensureStream(entry, st, op.Feature)
	e.append(r, entry, snap, e.analyses(r, idx, st.stream))
}

func (e *Executor) doTopic(ctx context.Context, r *run, entry *Entry, idx int, op Operation, st *docState) {
	snap := op.Snapshot()
	e.ensureStream(entry, st, op.Feature)

	topicCount := op.Params.Int(ParamTopicCount, DefaultTopicCount)
	termsEach := op.Params.Int(ParamTermsEach, DefaultTermsEach)
	r.result.TopicCount = topicCount
	r.result.TermsEach = termsEach
	r.result.TopicLibrary = op.Library

	switch op.Library {
	case LibraryNmf:
		res, err := topics.TopicModel(st.stream, topicCount, termsEach, []string{entry.Title}, e.analyzer)
		if err != nil {
			// fatal for this invocation only, the pipeline continues
			e.log.Warn("topic modelling failed", "doc", idx, "err", err)
			return
		}
		e.append(r, entry, snap, res)
	case LibraryLdaRemote:
		if e.remote == nil {
			e.log.Warn("no remote client configured, skipping remote lda")
			return
		}
		stream := append([]string(nil), st.stream...)
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			res, err := e.remote.Lda(ctx, stream, topicCount, termsEach)
			if err != nil {
				e.log.Warn("remote lda failed", "doc", idx, "err", err)
				return
			}
			e.append(r, entry, snap, RemoteResult(res))
		}()
	}
}

func (e *Executor) doTfidf(ctx context.Context, r *run, entry *Entry, op Operation, st *docState) {
	snap := op.Snapshot()
	e.ensureStream(entry, st, op.Feature)
	if e.remote == nil {
		e.log.Warn("no remote client configured, skipping remote tfidf")
		return
	}
	stream := append([]string(nil), st.stream...)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		res, err := e.remote.Tfidf(ctx, stream)
		if err != nil {
			e.log.Warn("remote tfidf failed", "err", err)
			return
		}
		e.append(r, entry, snap, RemoteResult(res))
	}()
}

func (e *Executor) doStemming(r *run, entry *Entry, idx int, op Operation, st *docState) {
	snap := op.Snapshot()
	e.ensureStream(entry, st, op.Feature)

	switch op.Library {
	case LibraryAnalyzer:
		e.append(r, entry, snap, e.analyses(r, idx, st.stream))
	case LibrarySnowball:
		res := StemmingResult{StemTerms: make(map[string]string)}
		for _, seg := range st.stream {
			for _, tok := range textutil.Tokenize(seg) {
				stem := snowball.Stem(tok, false)
				res.Stems = append(res.Stems, stem)
				if _, ok := res.StemTerms[stem]; !ok {
					res.StemTerms[stem] = tok
				}
			}
		}
		e.append(r, entry, snap, res)
	}
}
