// Package pipeline models and executes configurable NLP analysis pipelines
// over document reports.
package pipeline

import (
	"fmt"
	"strconv"

	"github.com/insightlab/docsight/pkg/docsight/internalerr"
)

// Feature identifies one analysis capability of the pipeline.
type Feature int

const (
	FeatureTermlistRating Feature = iota
	FeatureSegmentation
	FeaturePosSelection
	FeatureStopwordRemoval
	FeatureSentiment
	FeatureTopic
	FeatureTfidf
	FeatureStemming
)

var featureNames = map[Feature]string{
	FeatureTermlistRating:  "Termlist Rating",
	FeatureSegmentation:    "Segmentation",
	FeaturePosSelection:    "Part-of-Speech Selection",
	FeatureStopwordRemoval: "Stopword Removal",
	FeatureSentiment:       "Sentiment",
	FeatureTopic:           "Topic Modelling",
	FeatureTfidf:           "Term Frequency",
	FeatureStemming:        "Stemming",
}

func (f Feature) String() string { return featureNames[f] }

// ParseFeature resolves a feature by its display name.
func ParseFeature(name string) (Feature, error) {
	for f, n := range featureNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("feature %q: %w", name, internalerr.ErrInvalidConfig)
}

// Library identifies the implementation backing a feature.
type Library int

const (
	// LibraryNone selects the builtin local implementation.
	LibraryNone Library = iota
	// LibraryAnalyzer selects the local linguistic analyzer (tokenization,
	// part-of-speech tags, sentiment, stems).
	LibraryAnalyzer
	// LibraryNmf selects local NMF topic modelling.
	LibraryNmf
	// LibrarySnowball selects local snowball stemming.
	LibrarySnowball
	// LibraryLdaRemote delegates topic modelling to the remote collaborator.
	LibraryLdaRemote
	// LibraryTfidfRemote delegates tf-idf statistics to the remote collaborator.
	LibraryTfidfRemote
	// LibraryStopwordRemote delegates stopword removal to the remote collaborator.
	LibraryStopwordRemote
)

var libraryNames = map[Library]string{
	LibraryNone:           "none",
	LibraryAnalyzer:       "analyzer",
	LibraryNmf:            "nmf",
	LibrarySnowball:       "snowball",
	LibraryLdaRemote:      "lda (remote)",
	LibraryTfidfRemote:    "tfidf (remote)",
	LibraryStopwordRemote: "stopword (remote)",
}

func (l Library) String() string { return libraryNames[l] }

// ParseLibrary resolves a library by its display name.
func ParseLibrary(name string) (Library, error) {
	if name == "" {
		return LibraryNone, nil
	}
	for l, n := range libraryNames {
		if n == name {
			return l, nil
		}
	}
	return 0, fmt.Errorf("library %q: %w", name, internalerr.ErrInvalidConfig)
}

// Parameter names recognized by the features.
const (
	ParamPositiveTerms = "Positive Terms"
	ParamNegativeTerms = "Negative Terms"
	ParamTopicCount    = "Topic Count"
	ParamTermsEach     = "Terms Each"
	ParamSplitting     = "Splitting"
	ParamStopwordList  = "Stopword list"
	ParamNouns         = "Noun Selection"
	ParamVerbs         = "Verb Selection"
	ParamAdjectives    = "Adjective Selection"
	ParamHighlightOnly = "Highlight only"
)

// Parameter defaults.
const (
	DefaultTopicCount = 2
	DefaultTermsEach  = 3
	DefaultSplitting  = "Sentence"
)

// Params maps parameter names to ordered value lists. Unrecognized names are
// ignored by the executor; missing required parameters fall back to the
// documented defaults.
type Params map[string][]string

// First returns the first value for name, or fallback when absent or empty.
func (p Params) First(name, fallback string) string {
	if vals, ok := p[name]; ok && len(vals) > 0 {
		return vals[0]
	}
	return fallback
}

// Int returns the first value for name parsed as an integer, or fallback.
func (p Params) Int(name string, fallback int) int {
	if vals, ok := p[name]; ok && len(vals) > 0 {
		if n, err := strconv.Atoi(vals[0]); err == nil {
			return n
		}
	}
	return fallback
}

// Bool reports whether the first value for name is "true".
func (p Params) Bool(name string) bool {
	return p.First(name, "") == "true"
}

// List returns all values for name.
func (p Params) List(name string) []string { return p[name] }

func (p Params) clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		vals := make([]string, len(v))
		copy(vals, v)
		out[k] = vals
	}
	return out
}

// Operation is one configured pipeline step: a feature, the library backing
// it and its parameters. It is configuration only and carries no behavior.
type Operation struct {
	Feature Feature
	Library Library
	Params  Params
}

// Snapshot returns an immutable value copy of the operation, decoupled from
// later mutation of the live configuration.
func (o Operation) Snapshot() Operation {
	o.Params = o.Params.clone()
	return o
}

// supportedLibraries enumerates the implemented (feature, library) pairs.
var supportedLibraries = map[Feature][]Library{
	FeatureTermlistRating:  {LibraryNone},
	FeatureSegmentation:    {LibraryNone},
	FeaturePosSelection:    {LibraryAnalyzer},
	FeatureStopwordRemoval: {LibraryNone, LibraryStopwordRemote},
	FeatureSentiment:       {LibraryAnalyzer},
	FeatureTopic:           {LibraryNmf, LibraryLdaRemote},
	FeatureTfidf:           {LibraryTfidfRemote},
	FeatureStemming:        {LibraryAnalyzer, LibrarySnowball},
}

// Supported reports whether the operation's feature/library pair has an
// implementation.
func (o Operation) Supported() bool {
	for _, l := range supportedLibraries[o.Feature] {
		if l == o.Library {
			return true
		}
	}
	return false
}

// Validate rejects unknown feature/library combinations up front, so a
// misconfigured pipeline fails at configuration time rather than silently
// at execution time.
func Validate(ops []Operation) error {
	for i, op := range ops {
		if _, ok := featureNames[op.Feature]; !ok {
			return fmt.Errorf("operation %d: unknown feature %d: %w",
				i, op.Feature, internalerr.ErrInvalidConfig)
		}
		if !op.Supported() {
			return fmt.Errorf("operation %d: %s does not support %s: %w",
				i, op.Feature, op.Library, internalerr.ErrUnsupportedLibrary)
		}
	}
	return nil
}
