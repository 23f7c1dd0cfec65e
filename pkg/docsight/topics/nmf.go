// Package topics implements topic modelling over a tf-idf weighted
// term-document matrix using multiplicative-update non-negative matrix
// factorization.
package topics

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/insightlab/docsight/pkg/docsight/internalerr"
	"github.com/insightlab/docsight/pkg/docsight/terms"
)

// Factorization defaults, matching the tuning of the reference pipeline.
const (
	DefaultMaxIterations = 75
	DefaultTolerance     = 0.001
)

// nmfSeed fixes the factor initialization so repeated runs over identical
// input converge to identical factors.
const nmfSeed = 1

const epsilon = 1e-9

// TermScore is one ranked term inside a topic.
type TermScore struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

// Topic is a ranked term list, strongest first.
type Topic []TermScore

// Result is a complete topic model. TermWeights (W) is terms-by-topics and
// DocWeights (H) is topics-by-documents, so DocWeights.At(t, d) is the
// strength of topic t in document d.
type Result struct {
	Topics      []Topic
	Terms       []string
	TermWeights *mat.Dense
	DocWeights  *mat.Dense
}

// MarshalJSON renders the model with the factor matrices as nested arrays.
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Topics []Topic     `json:"topics"`
		Terms  []string    `json:"terms"`
		W      [][]float64 `json:"w"`
		H      [][]float64 `json:"h"`
	}{r.Topics, r.Terms, denseRows(r.TermWeights), denseRows(r.DocWeights)})
}

func denseRows(m *mat.Dense) [][]float64 {
	if m == nil {
		return nil
	}
	rows, cols := m.Dims()
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}

// Factorize decomposes the non-negative matrix a (terms by documents) into
// W (terms by topics) and H (topics by documents) by multiplicative updates
// minimizing the Frobenius norm of a - W*H. Iteration stops when the
// reconstruction improvement drops below tolerance or after maxIterations.
//
// A zero dimension makes the updates non-terminating, so it is rejected with
// ErrDimension before any work happens.
func Factorize(a *mat.Dense, topicCount, maxIterations int, tolerance float64) (w, h *mat.Dense, err error) {
	rows, cols := a.Dims()
	if rows == 0 || cols == 0 || topicCount <= 0 {
		return nil, nil, fmt.Errorf("factorize %dx%d into %d topics: %w",
			rows, cols, topicCount, internalerr.ErrDimension)
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	rng := rand.New(rand.NewSource(nmfSeed))
	w = randDense(rows, topicCount, rng)
	h = randDense(topicCount, cols, rng)

	prev := math.Inf(1)
	for iter := 0; iter < maxIterations; iter++ {
		// H <- H .* (Wt A) ./ (Wt W H)
		var wta, wtw, wtwh mat.Dense
		wta.Mul(w.T(), a)
		wtw.Mul(w.T(), w)
		wtwh.Mul(&wtw, h)
		scaleElements(h, &wta, &wtwh)

		// W <- W .* (A Ht) ./ (W H Ht)
		var aht, hht, whht mat.Dense
		aht.Mul(a, h.T())
		hht.Mul(h, h.T())
		whht.Mul(w, &hht)
		scaleElements(w, &aht, &whht)

		var wh, diff mat.Dense
		wh.Mul(w, h)
		diff.Sub(a, &wh)
		norm := mat.Norm(&diff, 2)
		if math.Abs(prev-norm) < tolerance {
			break
		}
		prev = norm
	}
	return w, h, nil
}

// scaleElements applies m[i][j] *= num[i][j] / (den[i][j] + epsilon).
func scaleElements(m, num, den *mat.Dense) {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.Set(i, j, m.At(i, j)*num.At(i, j)/(den.At(i, j)+epsilon))
		}
	}
}

func randDense(rows, cols int, rng *rand.Rand) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.Float64() + epsilon
	}
	return mat.NewDense(rows, cols, data)
}

// RankTopics ranks the terms of every topic column of w by weight,
// descending, and keeps the top termsEach. Ties keep the original term
// insertion order.
func RankTopics(w *mat.Dense, termList []string, topicCount, termsEach int) []Topic {
	topics := make([]Topic, topicCount)
	for t := 0; t < topicCount; t++ {
		idx := make([]int, len(termList))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool {
			return w.At(idx[a], t) > w.At(idx[b], t)
		})
		n := termsEach
		if n > len(idx) {
			n = len(idx)
		}
		topic := make(Topic, 0, n)
		for _, i := range idx[:n] {
			topic = append(topic, TermScore{Term: termList[i], Score: w.At(i, t)})
		}
		topics[t] = topic
	}
	return topics
}

// TopicModel builds the complete model for the given texts: dictionary
// construction, tf-idf weighting, factorization and topic ranking. names
// titles the texts; it must be empty, hold a single shared title, or align
// one-to-one with texts.
//
// A single text is permitted but produces trivial all-identical topic
// scores, which is logged.
func TopicModel(texts []string, topicCount, termsEach int, names []string, tagger terms.Tagger) (*Result, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("topic model: no texts: %w", internalerr.ErrInvalidInput)
	}
	if len(names) > 1 && len(names) != len(texts) {
		return nil, fmt.Errorf("topic model: %d names for %d texts: %w",
			len(names), len(texts), internalerr.ErrInvalidInput)
	}
	if len(texts) == 1 {
		slog.Warn("topic model over a single text degenerates to identical scores")
	}

	docs := make([]terms.Document, len(texts))
	for i, text := range texts {
		docs[i] = terms.Document{Content: text}
		switch len(names) {
		case 0:
		case 1:
			docs[i].Title = names[0]
		default:
			docs[i].Title = names[i]
		}
	}

	dict, err := terms.NewExtractor(tagger).BuildCorpusDictionary(docs)
	if err != nil {
		return nil, err
	}
	terms.Score(dict)

	termList := dict.Terms()
	if len(termList) == 0 {
		return nil, fmt.Errorf("topic model: empty dictionary: %w", internalerr.ErrDimension)
	}
	a := mat.NewDense(len(termList), len(texts), nil)
	for i, term := range termList {
		for j, weight := range dict.Vector(term).Tfidf {
			a.Set(i, j, weight)
		}
	}

	w, h, err := Factorize(a, topicCount, DefaultMaxIterations, DefaultTolerance)
	if err != nil {
		return nil, err
	}
	return &Result{
		Topics:      RankTopics(w, termList, topicCount, termsEach),
		Terms:       termList,
		TermWeights: w,
		DocWeights:  h,
	}, nil
}
