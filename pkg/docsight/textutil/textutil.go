// Package textutil provides stateless text normalization used throughout the
// analysis pipeline: markup stripping, segmentation, term counting and
// stopword removal.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// Segmentation modes accepted by Segment.
const (
	ModeSentence  = "Sentence"
	ModeParagraph = "Paragraph"
	ModeReport    = "Report"
)

// separator runes between tokens in a sentence
func isSeparator(r rune) bool {
	switch r {
	case '(', ')', '.', ',', '"', ':', '[', ']', ';', '|', '@', '?':
		return true
	}
	return unicode.IsSpace(r)
}

// filterSymbols is residue that survives separator splitting but carries no
// term value.
var filterSymbols = map[string]struct{}{
	"–": {}, "-": {}, "_": {}, "'": {}, "↵": {}, "↵↵": {}, "↵↵↵": {},
	"↑": {}, "→": {}, "↓": {}, "{}": {}, "//": {}, "=": {}, "{": {},
	"}": {}, "+": {}, "$": {}, ">": {}, "<": {}, "''": {}, "•": {},
	"/": {}, "%": {}, "--": {}, "---": {}, "&": {}, "»": {}, "«": {},
	"€": {},
}

// StripMarkup removes tag constructs from text and returns the plain text
// content. Text without markup passes through unchanged, so the function is
// idempotent. An empty string maps to an empty string.
func StripMarkup(text string) string {
	if text == "" {
		return ""
	}
	if !strings.ContainsRune(text, '<') {
		return text
	}
	var b strings.Builder
	tok := html.NewTokenizer(strings.NewReader(text))
	for {
		tt := tok.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.Write(tok.Text())
		}
	}
	return b.String()
}

// Segment splits text into segments according to mode. Sentence mode strips
// markup first and splits on runs of '.', '!' and '?', keeping the
// terminators attached. Paragraph mode extracts <p> blocks from the original
// markup-bearing text and then strips each block. Report mode returns the
// whole stripped text as one segment. Unknown modes behave like Sentence.
// Empty or markup-only segments are discarded.
func Segment(text, mode string) []string {
	var segments []string
	switch mode {
	case ModeParagraph:
		segments = paragraphs(text)
	case ModeReport:
		segments = []string{StripMarkup(text)}
	default:
		segments = sentences(StripMarkup(text))
	}
	return DropEmpty(segments)
}

func sentences(text string) []string {
	var segs []string
	var cur strings.Builder
	prevTerminator := false
	for _, r := range text {
		terminator := r == '.' || r == '!' || r == '?'
		if terminator && cur.Len() == 0 {
			continue // stray terminators belong to no sentence
		}
		if !terminator && prevTerminator {
			segs = append(segs, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
		cur.WriteRune(r)
		prevTerminator = terminator
	}
	// trailing text without a terminator is not a sentence
	if prevTerminator && cur.Len() > 0 {
		segs = append(segs, strings.TrimSpace(cur.String()))
	}
	return segs
}

func paragraphs(text string) []string {
	root, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return nil
	}
	var segs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "p" {
			segs = append(segs, nodeText(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return segs
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// CountTermOccurrences counts case-insensitive occurrences of each term in
// text. Multi-word terms match as substrings; matches of different terms may
// overlap each other.
func CountTermOccurrences(terms []string, text string) map[string]int {
	lower := strings.ToLower(text)
	counts := make(map[string]int, len(terms))
	for _, term := range terms {
		t := strings.ToLower(strings.TrimSpace(term))
		if t == "" {
			continue
		}
		counts[term] = strings.Count(lower, t)
	}
	return counts
}

// Tokenize lowercases text, strips digit runs and splits on the separator
// set, dropping empty tokens and symbol noise. Stopwords are NOT removed.
func Tokenize(text string) []string {
	text = stripDigits(strings.ToLower(text))
	fields := strings.FieldsFunc(text, isSeparator)
	tokens := fields[:0]
	for _, f := range fields {
		if _, noise := filterSymbols[f]; noise {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// Preprocess tokenizes text and removes builtin English stopwords. This is
// the normalization applied before dictionary construction.
func Preprocess(text string) []string {
	var out []string
	for _, tok := range Tokenize(text) {
		if _, stop := englishStopwords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// RemoveStopwords filters stopwords out of each segment, using the builtin
// English list unioned with custom. For segmentation modes other than
// Sentence the sentences inside each segment are processed independently and
// rejoined, preserving the segment granularity. Segments that end up empty
// are dropped.
func RemoveStopwords(segments []string, mode string, custom []string) []string {
	customSet := make(map[string]struct{}, len(custom))
	for _, w := range custom {
		customSet[strings.ToLower(w)] = struct{}{}
	}

	result := make([]string, 0, len(segments))
	for _, seg := range segments {
		var cleaned string
		if mode != "" && mode != ModeSentence {
			parts := strings.FieldsFunc(seg, func(r rune) bool {
				return r == '.' || r == '?' || r == '!'
			})
			for i, p := range parts {
				parts[i] = removeStopwordsFromSentence(p, customSet)
			}
			cleaned = strings.TrimSpace(strings.Join(parts, " "))
		} else {
			cleaned = removeStopwordsFromSentence(seg, customSet)
		}
		result = append(result, cleaned)
	}
	return DropEmpty(result)
}

func removeStopwordsFromSentence(sentence string, custom map[string]struct{}) string {
	var kept []string
	for _, tok := range Tokenize(sentence) {
		if _, stop := englishStopwords[tok]; stop {
			continue
		}
		if _, stop := custom[tok]; stop {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// DropEmpty returns segments without empty or whitespace-only entries.
func DropEmpty(segments []string) []string {
	result := make([]string, 0, len(segments))
	for _, s := range segments {
		if strings.TrimSpace(s) != "" {
			result = append(result, s)
		}
	}
	return result
}

func stripDigits(s string) string {
	if !strings.ContainsFunc(s, unicode.IsDigit) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return -1
		}
		return r
	}, s)
}
