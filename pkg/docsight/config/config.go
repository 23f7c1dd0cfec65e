// Package config loads pipeline configurations and term lists from files.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/insightlab/docsight/pkg/docsight/pipeline"
)

// Pipeline represents a pipeline configuration file
type Pipeline struct {
	Operations []OperationConfig `yaml:"operations"`
}

// OperationConfig represents one configured operation
type OperationConfig struct {
	Feature string              `yaml:"feature"`
	Library string              `yaml:"library,omitempty"`
	Params  map[string][]string `yaml:"params,omitempty"`
}

// LoadPipeline loads a pipeline configuration from a YAML file
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}

	return &p, nil
}

// Build resolves the configuration into executable operations and validates
// every feature/library combination.
func (p *Pipeline) Build() ([]pipeline.Operation, error) {
	ops := make([]pipeline.Operation, 0, len(p.Operations))
	for i, oc := range p.Operations {
		feature, err := pipeline.ParseFeature(oc.Feature)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		library, err := pipeline.ParseLibrary(oc.Library)
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i, err)
		}
		op := pipeline.Operation{Feature: feature, Library: library}
		if len(oc.Params) > 0 {
			op.Params = make(pipeline.Params, len(oc.Params))
			for name, vals := range oc.Params {
				op.Params[name] = append([]string(nil), vals...)
			}
		}
		ops = append(ops, op)
	}
	if err := pipeline.Validate(ops); err != nil {
		return nil, err
	}
	return ops, nil
}

// LoadTermlist loads a plain term list, one term per line. Blank lines and
// lines starting with # are skipped.
func LoadTermlist(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var terms []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		terms = append(terms, line)
	}
	return terms, nil
}
