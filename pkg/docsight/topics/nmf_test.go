package topics

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/insightlab/docsight/pkg/docsight/internalerr"
	"github.com/insightlab/docsight/pkg/docsight/terms"
)

type nounTagger struct{}

func (nounTagger) Tag(tokens []string) ([]terms.TaggedToken, error) {
	out := make([]terms.TaggedToken, len(tokens))
	for i, tok := range tokens {
		out[i] = terms.TaggedToken{Text: tok, Tag: "NN"}
	}
	return out, nil
}

func TestFactorizeReconstructs(t *testing.T) {
	// rank-2 block structure, easy to reconstruct
	a := mat.NewDense(4, 4, []float64{
		5, 5, 0, 0,
		4, 6, 0, 0,
		0, 0, 5, 5,
		0, 0, 6, 4,
	})
	w, h, err := Factorize(a, 2, DefaultMaxIterations, DefaultTolerance)
	if err != nil {
		t.Fatalf("Factorize: %v", err)
	}

	var wh mat.Dense
	wh.Mul(w, h)
	var diff mat.Dense
	diff.Sub(a, &wh)
	if norm := mat.Norm(&diff, 2); norm > 1.0 {
		t.Errorf("reconstruction error %f too large", norm)
	}

	rows, cols := w.Dims()
	if rows != 4 || cols != 2 {
		t.Errorf("W dims = %dx%d, want 4x2", rows, cols)
	}
	rows, cols = h.Dims()
	if rows != 2 || cols != 4 {
		t.Errorf("H dims = %dx%d, want 2x4", rows, cols)
	}
	for i := 0; i < 4; i++ {
		for j := 0; j < 2; j++ {
			if w.At(i, j) < 0 {
				t.Fatalf("negative factor entry W[%d][%d] = %f", i, j, w.At(i, j))
			}
		}
	}
}

func TestFactorizeDeterministic(t *testing.T) {
	a := mat.NewDense(3, 3, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	w1, h1, err := Factorize(a, 2, 10, 0)
	if err != nil {
		t.Fatalf("Factorize: %v", err)
	}
	w2, h2, err := Factorize(a, 2, 10, 0)
	if err != nil {
		t.Fatalf("Factorize: %v", err)
	}
	if !mat.EqualApprox(w1, w2, 1e-12) || !mat.EqualApprox(h1, h2, 1e-12) {
		t.Error("repeated factorization of identical input diverged")
	}
}

func TestFactorizeRejectsZeroDimensions(t *testing.T) {
	a := mat.NewDense(1, 1, []float64{1})
	if _, _, err := Factorize(a, 0, 10, 0); !errors.Is(err, internalerr.ErrDimension) {
		t.Errorf("zero topics: err = %v, want ErrDimension", err)
	}
}

func TestRankTopics(t *testing.T) {
	w := mat.NewDense(3, 2, []float64{
		0.9, 0.1,
		0.5, 0.5,
		0.1, 0.9,
	})
	topics := RankTopics(w, []string{"first", "middle", "last"}, 2, 2)
	if len(topics) != 2 {
		t.Fatalf("got %d topics, want 2", len(topics))
	}
	if topics[0][0].Term != "first" || topics[0][1].Term != "middle" {
		t.Errorf("topic 0 = %v", topics[0])
	}
	if topics[1][0].Term != "last" || topics[1][1].Term != "middle" {
		t.Errorf("topic 1 = %v", topics[1])
	}
}

func TestRankTopicsTermsEachClamped(t *testing.T) {
	w := mat.NewDense(2, 1, []float64{1, 2})
	topics := RankTopics(w, []string{"a", "b"}, 1, 10)
	if len(topics[0]) != 2 {
		t.Errorf("got %d terms, want all 2", len(topics[0]))
	}
}

func TestTopicModel(t *testing.T) {
	texts := []string{
		"turbine turbine rotor blade",
		"turbine rotor shaft",
		"keyboard mouse monitor screen",
		"keyboard monitor cable",
	}
	res, err := TopicModel(texts, 2, 3, nil, nounTagger{})
	if err != nil {
		t.Fatalf("TopicModel: %v", err)
	}

	if len(res.Topics) != 2 {
		t.Fatalf("got %d topics, want 2", len(res.Topics))
	}
	for i, topic := range res.Topics {
		if len(topic) == 0 || len(topic) > 3 {
			t.Errorf("topic %d has %d terms", i, len(topic))
		}
		for j := 1; j < len(topic); j++ {
			if topic[j].Score > topic[j-1].Score {
				t.Errorf("topic %d not sorted descending at %d", i, j)
			}
		}
	}

	tRows, tCols := res.TermWeights.Dims()
	if tRows != len(res.Terms) || tCols != 2 {
		t.Errorf("W dims = %dx%d, want %dx2", tRows, tCols, len(res.Terms))
	}
	dRows, dCols := res.DocWeights.Dims()
	if dRows != 2 || dCols != len(texts) {
		t.Errorf("H dims = %dx%d, want 2x%d", dRows, dCols, len(texts))
	}
	for _, weights := range [][2]int{{dRows, dCols}} {
		for i := 0; i < weights[0]; i++ {
			for j := 0; j < weights[1]; j++ {
				if v := res.DocWeights.At(i, j); v < 0 || math.IsNaN(v) {
					t.Fatalf("invalid document weight [%d][%d] = %f", i, j, v)
				}
			}
		}
	}
}

func TestTopicModelNameValidation(t *testing.T) {
	texts := []string{"alpha", "beta", "gamma"}
	if _, err := TopicModel(texts, 1, 1, []string{"one", "two"}, nounTagger{}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("mismatched names: err = %v, want ErrInvalidInput", err)
	}
	if _, err := TopicModel(nil, 1, 1, nil, nounTagger{}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("empty corpus: err = %v, want ErrInvalidInput", err)
	}
}

func TestTopicModelEmptyDictionary(t *testing.T) {
	// nothing but stopwords leaves no terms to model
	texts := []string{"the and of", "to in for"}
	if _, err := TopicModel(texts, 2, 3, nil, nounTagger{}); !errors.Is(err, internalerr.ErrDimension) {
		t.Errorf("err = %v, want ErrDimension", err)
	}
}
