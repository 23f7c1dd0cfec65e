package terms

import "math"

// Score populates the tf-idf weight vector of every term in the dictionary:
// tfidf[i] = count[i] * log10(N / df) with N the corpus size and df the
// number of documents the term occurs in. A term with df == 0 cannot occur
// in a built dictionary, but is defensively given an all-zero vector rather
// than dividing by zero.
func Score(dict *Dictionary) {
	n := float64(dict.DocCount())
	for _, term := range dict.Terms() {
		vec := dict.Vector(term)
		df := 0
		for _, c := range vec.PerDoc {
			if c > 0 {
				df++
			}
		}
		vec.Tfidf = make([]float64, len(vec.PerDoc))
		if df == 0 {
			continue
		}
		idf := math.Log10(n / float64(df))
		for i, c := range vec.PerDoc {
			vec.Tfidf[i] = float64(c) * idf
		}
	}
}
