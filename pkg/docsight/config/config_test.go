package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/insightlab/docsight/pkg/docsight/pipeline"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPipeline(t *testing.T) {
	path := writeFile(t, "pipeline.yaml", `operations:
  - feature: Segmentation
    params:
      Splitting:
        - Paragraph
  - feature: Stopword Removal
  - feature: Topic Modelling
    library: nmf
    params:
      Topic Count:
        - "3"
`)

	cfg, err := LoadPipeline(path)
	if err != nil {
		t.Fatalf("LoadPipeline: %v", err)
	}
	ops, err := cfg.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(ops) != 3 {
		t.Fatalf("got %d operations", len(ops))
	}
	if ops[0].Feature != pipeline.FeatureSegmentation {
		t.Errorf("ops[0] = %v", ops[0].Feature)
	}
	if got := ops[0].Params.First(pipeline.ParamSplitting, ""); got != "Paragraph" {
		t.Errorf("splitting = %q", got)
	}
	if ops[1].Library != pipeline.LibraryNone {
		t.Errorf("missing library must default to none, got %v", ops[1].Library)
	}
	if ops[2].Library != pipeline.LibraryNmf {
		t.Errorf("ops[2] library = %v", ops[2].Library)
	}
	if got := ops[2].Params.Int(pipeline.ParamTopicCount, 0); got != 3 {
		t.Errorf("topic count = %d", got)
	}
}

func TestBuildRejectsUnknownFeature(t *testing.T) {
	cfg := &Pipeline{Operations: []OperationConfig{{Feature: "Telepathy"}}}
	if _, err := cfg.Build(); err == nil {
		t.Fatal("expected error for unknown feature")
	}
}

func TestBuildRejectsUnsupportedCombination(t *testing.T) {
	cfg := &Pipeline{Operations: []OperationConfig{
		{Feature: "Segmentation", Library: "snowball"},
	}}
	if _, err := cfg.Build(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadTermlist(t *testing.T) {
	path := writeFile(t, "terms.txt", "growth\n# comment\n\nprofit\n  expansion  \n")

	terms, err := LoadTermlist(path)
	if err != nil {
		t.Fatalf("LoadTermlist: %v", err)
	}
	want := []string{"growth", "profit", "expansion"}
	if len(terms) != len(want) {
		t.Fatalf("terms = %v", terms)
	}
	for i := range want {
		if terms[i] != want[i] {
			t.Errorf("terms[%d] = %q, want %q", i, terms[i], want[i])
		}
	}
}

func TestLoaderInjectsTermlists(t *testing.T) {
	pipelinePath := writeFile(t, "pipeline.yaml", `operations:
  - feature: Termlist Rating
  - feature: Stopword Removal
`)
	positive := writeFile(t, "positive.txt", "growth\nprofit\n")
	stoplist := writeFile(t, "stop.txt", "filler\n")

	loader := &Loader{
		PipelinePath:      pipelinePath,
		PositiveTermsPath: positive,
		StoplistPath:      stoplist,
	}
	ops, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := ops[0].Params.List(pipeline.ParamPositiveTerms); len(got) != 2 {
		t.Errorf("positive terms = %v", got)
	}
	if got := ops[0].Params.List(pipeline.ParamNegativeTerms); len(got) != 0 {
		t.Errorf("negative terms injected from nothing: %v", got)
	}
	if got := ops[1].Params.List(pipeline.ParamStopwordList); len(got) != 1 || got[0] != "filler" {
		t.Errorf("stoplist = %v", got)
	}
}

func TestLoaderKeepsExplicitParams(t *testing.T) {
	pipelinePath := writeFile(t, "pipeline.yaml", `operations:
  - feature: Termlist Rating
    params:
      Positive Terms:
        - inline
`)
	positive := writeFile(t, "positive.txt", "fromfile\n")

	loader := &Loader{PipelinePath: pipelinePath, PositiveTermsPath: positive}
	ops, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := ops[0].Params.List(pipeline.ParamPositiveTerms)
	if len(got) != 1 || got[0] != "inline" {
		t.Errorf("explicit params overridden: %v", got)
	}
}
