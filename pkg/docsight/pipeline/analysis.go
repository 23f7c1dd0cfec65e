package pipeline

import (
	"fmt"
	"strings"

	"github.com/cdipaolo/sentiment"
	prose "github.com/jdkato/prose/v2"
	snowball "github.com/kljensen/snowball/english"

	"github.com/insightlab/docsight/pkg/docsight/internalerr"
	"github.com/insightlab/docsight/pkg/docsight/terms"
)

// AnalyzedToken is one token of a segment with its part-of-speech tag and
// snowball stem.
type AnalyzedToken struct {
	Raw  string `json:"raw"`
	Tag  string `json:"tag"`
	Stem string `json:"stem"`
}

// SentenceSentiment is the polarity of one sentence inside a segment.
// Score is 1 for positive, 0 for negative.
type SentenceSentiment struct {
	Sentence string `json:"sentence"`
	Score    uint8  `json:"score"`
}

// Analysis is the shared linguistic analysis of one text segment. It is
// computed at most once per (document, segment) pair per pipeline run and
// reused by every feature that needs it.
type Analysis struct {
	Text      string              `json:"text"`
	Tokens    []AnalyzedToken     `json:"tokens"`
	Sentences []SentenceSentiment `json:"sentences"`
	Score     uint8               `json:"score"`
}

// SegmentAnalyzer produces shared segment analyses and doubles as the
// part-of-speech tagger for dictionary construction.
type SegmentAnalyzer interface {
	terms.Tagger
	Analyze(text string) (*Analysis, error)
}

// Analyzer is the default SegmentAnalyzer, backed by the prose tagger, the
// sentiment polarity model and the snowball stemmer.
type Analyzer struct {
	models sentiment.Models
}

// NewAnalyzer restores the sentiment model and returns a ready analyzer.
func NewAnalyzer() (*Analyzer, error) {
	models, err := sentiment.Restore()
	if err != nil {
		return nil, fmt.Errorf("restore sentiment model: %w", err)
	}
	return &Analyzer{models: models}, nil
}

// Analyze runs the full linguistic analysis of one segment.
func (a *Analyzer) Analyze(text string) (*Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("analyze segment: %w", internalerr.ErrInvalidInput)
	}
	doc, err := prose.NewDocument(text, prose.WithExtraction(false))
	if err != nil {
		return nil, fmt.Errorf("analyze segment: %w", err)
	}

	analysis := &Analysis{Text: text}
	for _, tok := range doc.Tokens() {
		analysis.Tokens = append(analysis.Tokens, AnalyzedToken{
			Raw:  tok.Text,
			Tag:  tok.Tag,
			Stem: snowball.Stem(tok.Text, false),
		})
	}

	polarity := a.models.SentimentAnalysis(text, sentiment.English)
	analysis.Score = polarity.Score
	for _, s := range polarity.Sentences {
		analysis.Sentences = append(analysis.Sentences, SentenceSentiment{
			Sentence: s.Sentence,
			Score:    s.Score,
		})
	}
	return analysis, nil
}

// Tag implements terms.Tagger on top of the prose tagger.
func (a *Analyzer) Tag(tokens []string) ([]terms.TaggedToken, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	doc, err := prose.NewDocument(strings.Join(tokens, " "),
		prose.WithExtraction(false), prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("tag tokens: %w", err)
	}
	tagged := make([]terms.TaggedToken, 0, len(tokens))
	for _, tok := range doc.Tokens() {
		tagged = append(tagged, terms.TaggedToken{Text: tok.Text, Tag: tok.Tag})
	}
	return tagged, nil
}

// PosSelection is the set of word classes the Part-of-Speech Selection
// feature keeps in the text stream.
type PosSelection struct {
	Nouns      bool
	Verbs      bool
	Adjectives bool
}

// Empty reports whether no word class is selected.
func (s PosSelection) Empty() bool { return !s.Nouns && !s.Verbs && !s.Adjectives }

func (s PosSelection) keeps(tag string) bool {
	switch {
	case s.Nouns && strings.HasPrefix(tag, "NN"):
		return true
	case s.Verbs && strings.HasPrefix(tag, "VB"):
		return true
	case s.Adjectives && strings.HasPrefix(tag, "JJ"):
		return true
	}
	return false
}

// selectPos rebuilds the text stream keeping only tokens of the selected
// word classes, one result segment per analyzed segment.
func selectPos(analyses []*Analysis, sel PosSelection) []string {
	stream := make([]string, 0, len(analyses))
	for _, an := range analyses {
		var kept []string
		if an != nil {
			for _, tok := range an.Tokens {
				if sel.keeps(tok.Tag) {
					kept = append(kept, tok.Raw)
				}
			}
		}
		stream = append(stream, strings.Join(kept, " "))
	}
	return stream
}
