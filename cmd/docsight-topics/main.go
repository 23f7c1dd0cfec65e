package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/insightlab/docsight/internal/feed"
	"github.com/insightlab/docsight/pkg/docsight"
)

func main() {
	input := flag.String("input", "", "Path to JSONL document batch (required)")
	topicCount := flag.Int("topics", 0, "Number of topics (default 2)")
	termsEach := flag.Int("terms", 0, "Terms per topic (default 3)")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	if *input == "" {
		log.Fatal("--input required")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	items, err := feed.LoadFromJSONL(*input)
	if err != nil {
		log.Fatalf("load input: %v", err)
	}
	report := feed.Report(items)

	engine, err := docsight.New(docsight.Options{Logger: logger})
	if err != nil {
		log.Fatalf("init engine: %v", err)
	}
	defer engine.Close()

	graph, err := engine.GlobalSummary(context.Background(), report, nil, *topicCount, *termsEach)
	if err != nil {
		log.Fatalf("build summary: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(graph); err != nil {
		log.Fatalf("encode summary: %v", err)
	}
}
