package textutil

import (
	"reflect"
	"strings"
	"testing"
)

func TestStripMarkup(t *testing.T) {
	in := `<div class="a"><p>Hello <b>world</b>.</p><p>Second.</p></div>`
	got := StripMarkup(in)
	if strings.ContainsAny(got, "<>") {
		t.Errorf("markup left in output: %q", got)
	}
	if !strings.Contains(got, "Hello world.") {
		t.Errorf("text content lost: %q", got)
	}
}

func TestStripMarkupIdempotent(t *testing.T) {
	in := `<p>One paragraph with a &amp; entity.</p>`
	once := StripMarkup(in)
	twice := StripMarkup(once)
	if once != twice {
		t.Errorf("not idempotent: %q vs %q", once, twice)
	}
}

func TestStripMarkupPlainText(t *testing.T) {
	in := "no markup here at all"
	if got := StripMarkup(in); got != in {
		t.Errorf("plain text changed: %q", got)
	}
}

func TestSegmentSentences(t *testing.T) {
	got := Segment("First one. Second one! Third one? trailing fragment", ModeSentence)
	want := []string{"First one.", "Second one!", "Third one?"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment = %v, want %v", got, want)
	}
}

func TestSegmentSentencesKeepsTerminators(t *testing.T) {
	got := Segment("Really?! Yes...", ModeSentence)
	if len(got) != 2 {
		t.Fatalf("got %d segments: %v", len(got), got)
	}
	if got[0] != "Really?!" {
		t.Errorf("terminator run split: %q", got[0])
	}
}

func TestSegmentParagraphs(t *testing.T) {
	got := Segment("<p>One.</p><p>Two.</p>", ModeParagraph)
	want := []string{"One.", "Two."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment = %v, want %v", got, want)
	}
}

func TestSegmentReport(t *testing.T) {
	got := Segment("<p>One.</p><p>Two.</p>", ModeReport)
	if len(got) != 1 {
		t.Fatalf("report mode must yield one segment, got %v", got)
	}
	if strings.ContainsAny(got[0], "<>") {
		t.Errorf("markup left in report segment: %q", got[0])
	}
}

func TestSegmentUnknownModeFallsBackToSentences(t *testing.T) {
	got := Segment("One. Two.", "Chapter")
	want := Segment("One. Two.", ModeSentence)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unknown mode = %v, want sentence split %v", got, want)
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("The Cat, sat; on (the) mat 42 times!")
	for _, tok := range got {
		if tok != strings.ToLower(tok) {
			t.Errorf("token not lowercased: %q", tok)
		}
		if strings.ContainsAny(tok, "(),;0123456789") {
			t.Errorf("separator or digit survived: %q", tok)
		}
	}
}

func TestPreprocess(t *testing.T) {
	got := Preprocess("The cat sat on the mat.")
	want := []string{"cat", "sat", "mat"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Preprocess = %v, want %v", got, want)
	}
}

func TestCountTermOccurrences(t *testing.T) {
	counts := CountTermOccurrences([]string{"growth", "loss"}, "growth drives growth, not loss")
	if counts["growth"] != 2 {
		t.Errorf("growth = %d, want 2", counts["growth"])
	}
	if counts["loss"] != 1 {
		t.Errorf("loss = %d, want 1", counts["loss"])
	}
}

func TestRemoveStopwordsSentenceMode(t *testing.T) {
	got := RemoveStopwords([]string{"The cat sat on the mat."}, ModeSentence, nil)
	if len(got) != 1 {
		t.Fatalf("got %d segments", len(got))
	}
	if strings.Contains(" "+got[0]+" ", " the ") {
		t.Errorf("stopword survived: %q", got[0])
	}
	if !strings.Contains(got[0], "cat") {
		t.Errorf("content word lost: %q", got[0])
	}
}

func TestRemoveStopwordsCustomList(t *testing.T) {
	got := RemoveStopwords([]string{"alpha beta gamma"}, ModeSentence, []string{"beta"})
	if strings.Contains(got[0], "beta") {
		t.Errorf("custom stopword survived: %q", got[0])
	}
	if !strings.Contains(got[0], "alpha") || !strings.Contains(got[0], "gamma") {
		t.Errorf("non-stopwords lost: %q", got[0])
	}
}

func TestDropEmpty(t *testing.T) {
	got := DropEmpty([]string{"a", "", "  ", "b"})
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DropEmpty = %v, want %v", got, want)
	}
}
