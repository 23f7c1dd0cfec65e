package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/insightlab/docsight/internal/feed"
	"github.com/insightlab/docsight/pkg/docsight"
	"github.com/insightlab/docsight/pkg/docsight/config"
	"github.com/insightlab/docsight/pkg/docsight/pipeline"
	"github.com/insightlab/docsight/pkg/docsight/remote"
	"github.com/insightlab/docsight/pkg/docsight/store"
	"github.com/insightlab/docsight/pkg/docsight/store/sqlite"
)

func main() {
	input := flag.String("input", "", "Path to JSONL document batch (required)")
	pipelinePath := flag.String("pipeline", "", "Path to pipeline YAML (required)")
	positive := flag.String("positive", "", "Path to positive term list")
	negative := flag.String("negative", "", "Path to negative term list")
	stoplist := flag.String("stoplist", "", "Path to custom stopword list")
	remoteURL := flag.String("remote", "", "Base URL of the companion analysis service")
	dbPath := flag.String("db", "", "SQLite path for run persistence (omit to disable)")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	if *input == "" {
		log.Fatal("--input required")
	}
	if *pipelinePath == "" {
		log.Fatal("--pipeline required")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	loader := &config.Loader{
		PipelinePath:      *pipelinePath,
		PositiveTermsPath: *positive,
		NegativeTermsPath: *negative,
		StoplistPath:      *stoplist,
	}
	ops, err := loader.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	items, err := feed.LoadFromJSONL(*input)
	if err != nil {
		log.Fatalf("load input: %v", err)
	}
	report := feed.Report(items)

	ctx := context.Background()

	var runStore store.Store
	if *dbPath != "" {
		runStore, err = sqlite.Open(ctx, *dbPath)
		if err != nil {
			log.Fatalf("open store: %v", err)
		}
	}

	var remoteClient pipeline.Remote
	if *remoteURL != "" {
		remoteClient = &remote.Client{BaseURL: *remoteURL}
	}

	engine, err := docsight.New(docsight.Options{
		Remote: remoteClient,
		Store:  runStore,
		Logger: logger,
	})
	if err != nil {
		log.Fatalf("init engine: %v", err)
	}
	defer engine.Close()

	result, err := engine.Run(ctx, report, ops)
	if err != nil {
		log.Fatalf("run pipeline: %v", err)
	}

	logger.Info("run complete", "run", result.RunID, "documents", len(report.Entries))
	printReport(report)
}

func printReport(report *pipeline.Report) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, entry := range report.Entries {
		fmt.Printf("== %s ==\n", entry.Title)
		for _, eval := range entry.Evals {
			fmt.Printf("-- %s (%s)\n", eval.Operation.Feature, eval.Operation.Library)
			if err := enc.Encode(eval.Result); err != nil {
				fmt.Printf("<unprintable: %v>\n", err)
			}
		}
	}
}
