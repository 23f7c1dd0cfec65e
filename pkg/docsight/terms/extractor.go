// Package terms builds part-of-speech filtered term dictionaries from a
// document corpus and weights them with tf-idf.
package terms

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/insightlab/docsight/pkg/docsight/internalerr"
	"github.com/insightlab/docsight/pkg/docsight/textutil"
)

// Document is one corpus entry. Content may carry markup.
type Document struct {
	Title   string
	Content string
}

// TaggedToken is a token with its part-of-speech tag (Penn Treebank style:
// NN*, JJ*, VB*, ...).
type TaggedToken struct {
	Text string
	Tag  string
}

// Tagger assigns part-of-speech tags to a token sequence.
type Tagger interface {
	Tag(tokens []string) ([]TaggedToken, error)
}

// Vector holds the per-document frequency vector of one term. Tfidf stays
// nil until Score has run.
type Vector struct {
	Term     string
	RawCount int
	PerDoc   []int
	Tfidf    []float64
}

// Dictionary maps terms to frequency vectors while preserving the order in
// which terms were first seen.
type Dictionary struct {
	order    []string
	vectors  map[string]*Vector
	docCount int
}

// Terms returns all terms in insertion order.
func (d *Dictionary) Terms() []string { return d.order }

// Vector returns the frequency vector for term, or nil.
func (d *Dictionary) Vector(term string) *Vector { return d.vectors[term] }

// Len returns the number of distinct terms.
func (d *Dictionary) Len() int { return len(d.order) }

// DocCount returns the corpus size the dictionary was built from.
func (d *Dictionary) DocCount() int { return d.docCount }

func (d *Dictionary) add(term string, doc int) {
	vec, ok := d.vectors[term]
	if !ok {
		vec = &Vector{Term: term, PerDoc: make([]int, d.docCount)}
		d.vectors[term] = vec
		d.order = append(d.order, term)
	}
	vec.RawCount++
	vec.PerDoc[doc]++
}

// Extractor builds corpus dictionaries restricted to nouns and adjectives.
type Extractor struct {
	tagger Tagger
	log    *slog.Logger
}

// NewExtractor creates an extractor using the given tagger.
func NewExtractor(tagger Tagger) *Extractor {
	return &Extractor{tagger: tagger, log: slog.Default()}
}

// BuildCorpusDictionary normalizes every document (title prepended to the
// content when present, markup stripped, lowercased, digits removed,
// stopwords dropped), keeps tokens tagged as nouns or adjectives and
// accumulates per-document frequency vectors. Every vector has exactly one
// slot per corpus document; terms occurring nowhere are never materialized.
//
// A single-document corpus is permitted but logged as degenerate: document
// frequency weighting needs at least two documents to discriminate.
func (e *Extractor) BuildCorpusDictionary(docs []Document) (*Dictionary, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("build dictionary: %w", internalerr.ErrInvalidInput)
	}
	if len(docs) == 1 {
		e.log.Warn("corpus has a single document, topic separation will be degenerate")
	}

	dict := &Dictionary{
		vectors:  make(map[string]*Vector),
		docCount: len(docs),
	}
	for i, doc := range docs {
		content := doc.Content
		if doc.Title != "" {
			content = doc.Title + " " + doc.Content
		}
		tokens := textutil.Preprocess(textutil.StripMarkup(content))
		if len(tokens) == 0 {
			continue
		}
		tagged, err := e.tagger.Tag(tokens)
		if err != nil {
			return nil, fmt.Errorf("tag document %d: %w", i, err)
		}
		for _, tok := range tagged {
			if !isNounOrAdjective(tok.Tag) {
				continue
			}
			dict.add(strings.ToLower(tok.Text), i)
		}
	}
	return dict, nil
}

func isNounOrAdjective(tag string) bool {
	return strings.HasPrefix(tag, "NN") || strings.HasPrefix(tag, "JJ")
}
