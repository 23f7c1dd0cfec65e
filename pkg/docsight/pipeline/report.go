package pipeline

import "encoding/json"

// Entry is one document of a report. Title and Content are caller-owned,
// read-only inputs; Evals is appended by the executor and cleared at the
// start of every run.
type Entry struct {
	Title   string
	Content string
	Evals   []Evaluation
}

// Report is the document batch a pipeline runs over.
type Report struct {
	Entries []*Entry
}

// Evaluation records the output of one operation applied to one document.
// Operation is a value snapshot taken at execution time.
type Evaluation struct {
	Operation Operation
	Result    any
}

// TermlistResult is the payload of a Termlist Rating evaluation.
type TermlistResult struct {
	PositiveSum int            `json:"positiveSum"`
	NegativeSum int            `json:"negativeSum"`
	PositiveMap map[string]int `json:"positiveMap,omitempty"`
	NegativeMap map[string]int `json:"negativeMap,omitempty"`
}

// Net is the rating score the report is sorted by.
func (r TermlistResult) Net() int { return r.PositiveSum - r.NegativeSum }

// SegmentationResult is the payload of a Segmentation evaluation.
type SegmentationResult struct {
	Mode     string   `json:"mode"`
	Segments []string `json:"segments"`
}

// SegmentAnalyses is the payload of an analyzer-backed evaluation
// (part-of-speech selection, sentiment, analyzer stemming), one analysis per
// stream segment.
type SegmentAnalyses []*Analysis

// StemmingResult is the payload of a snowball Stemming evaluation. StemTerms
// maps each stem to the first surface form it was produced from.
type StemmingResult struct {
	Stems     []string          `json:"stems"`
	StemTerms map[string]string `json:"stemTerms"`
}

// StopwordResult is the payload of a Stopword Removal evaluation: the
// filtered text stream.
type StopwordResult []string

// RemoteResult is the opaque payload returned by a remote collaborator.
type RemoteResult json.RawMessage

// MarshalJSON passes the raw payload through.
func (r RemoteResult) MarshalJSON() ([]byte, error) {
	return json.RawMessage(r).MarshalJSON()
}

// termlistResult returns the entry's first termlist rating payload.
func termlistResult(e *Entry) (TermlistResult, bool) {
	for _, eval := range e.Evals {
		if eval.Operation.Feature == FeatureTermlistRating {
			if res, ok := eval.Result.(TermlistResult); ok {
				return res, true
			}
		}
	}
	return TermlistResult{}, false
}

// LessByTermlistScore orders entries descending by net termlist score
// (PositiveSum - NegativeSum); equal net scores rank the entry with the
// higher PositiveSum first. Entries without a rating sort last.
func LessByTermlistScore(a, b *Entry) bool {
	ra, oka := termlistResult(a)
	rb, okb := termlistResult(b)
	if oka != okb {
		return oka
	}
	if !oka {
		return false
	}
	if ra.Net() != rb.Net() {
		return ra.Net() > rb.Net()
	}
	return ra.PositiveSum > rb.PositiveSum
}
