// Package feed loads document batches from JSONL files.
package feed

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/insightlab/docsight/pkg/docsight/pipeline"
)

// Item represents one document of a JSONL feed
type Item struct {
	Title       string    `json:"title"`
	Body        string    `json:"text"`
	Source      string    `json:"source,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// LoadFromJSONL loads items from a JSONL file with proper error handling
func LoadFromJSONL(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	var items []Item
	lines := strings.Split(string(data), "\n")

	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var item Item
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			log.Printf("Warning: skipping malformed JSON at line %d in %s: %v", i+1, path, err)
			continue
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no valid items found in %s", path)
	}

	return items, nil
}

// Report converts loaded items into a pipeline report.
func Report(items []Item) *pipeline.Report {
	report := &pipeline.Report{}
	for _, item := range items {
		report.Entries = append(report.Entries, &pipeline.Entry{
			Title:   item.Title,
			Content: item.Body,
		})
	}
	return report
}
