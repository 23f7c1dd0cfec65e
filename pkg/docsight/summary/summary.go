// Package summary renders a topic model as a bipartite graph connecting
// document titles to the topics they load on.
package summary

import (
	"fmt"
	"strings"

	"github.com/insightlab/docsight/pkg/docsight/internalerr"
	"github.com/insightlab/docsight/pkg/docsight/topics"
)

// Domain names of the two entity classes in the graph.
const (
	DomainTitles = "title"
	DomainTopics = "topics"
)

// RelationName labels the single relation connecting the two domains.
const RelationName = "loads"

// Entity is one node of the summary graph.
type Entity struct {
	Label     string `json:"label"`
	Domain    string `json:"domain"`
	Frequency int    `json:"frequency"`
}

// Link is one weighted edge from a title to a topic. Weight is the topic's
// strength in the document, taken from the model's document weights.
type Link struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Relation string  `json:"relation"`
	Weight   float64 `json:"weight"`
}

// Graph is the bipartite summary of a topic model over a corpus.
type Graph struct {
	Domains  []string `json:"domains"`
	Entities []Entity `json:"entities"`
	Links    []Link   `json:"links"`
}

// TopicLabel names a topic by its ranked terms, strongest first.
func TopicLabel(t topics.Topic) string {
	parts := make([]string, 0, len(t))
	for _, ts := range t {
		parts = append(parts, ts.Term)
	}
	return strings.Join(parts, " ")
}

// Build constructs the summary graph for one topic model. titles must align
// one-to-one with the model's document axis. Every title is linked to every
// topic; each entity's frequency is the number of links it participates in.
func Build(titles []string, model *topics.Result) (*Graph, error) {
	if model == nil || model.DocWeights == nil {
		return nil, fmt.Errorf("summary: no topic model: %w", internalerr.ErrInvalidInput)
	}
	topicCount, docCount := model.DocWeights.Dims()
	if len(titles) != docCount {
		return nil, fmt.Errorf("summary: %d titles for %d documents: %w",
			len(titles), docCount, internalerr.ErrDimension)
	}
	if topicCount != len(model.Topics) {
		return nil, fmt.Errorf("summary: %d topics but %d weight rows: %w",
			len(model.Topics), topicCount, internalerr.ErrDimension)
	}

	g := &Graph{Domains: []string{DomainTitles, DomainTopics}}

	for _, title := range titles {
		g.Entities = append(g.Entities, Entity{
			Label:     title,
			Domain:    DomainTitles,
			Frequency: topicCount,
		})
	}
	labels := make([]string, topicCount)
	for t, topic := range model.Topics {
		labels[t] = TopicLabel(topic)
		g.Entities = append(g.Entities, Entity{
			Label:     labels[t],
			Domain:    DomainTopics,
			Frequency: docCount,
		})
	}

	for d, title := range titles {
		for t := 0; t < topicCount; t++ {
			g.Links = append(g.Links, Link{
				Source:   title,
				Target:   labels[t],
				Relation: RelationName,
				Weight:   model.DocWeights.At(t, d),
			})
		}
	}
	return g, nil
}
