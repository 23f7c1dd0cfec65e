package config

import (
	"fmt"

	"github.com/insightlab/docsight/pkg/docsight/pipeline"
)

// Loader loads a pipeline configuration together with the external term
// lists its operations reference, and injects the lists as parameters.
type Loader struct {
	PipelinePath      string
	PositiveTermsPath string
	NegativeTermsPath string
	StoplistPath      string
}

// Load reads all configuration files and returns the ready operation list.
func (l *Loader) Load() ([]pipeline.Operation, error) {
	if l.PipelinePath == "" {
		return nil, fmt.Errorf("load pipeline: no path")
	}
	cfg, err := LoadPipeline(l.PipelinePath)
	if err != nil {
		return nil, fmt.Errorf("load pipeline: %w", err)
	}
	ops, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	positive, err := l.termlist(l.PositiveTermsPath)
	if err != nil {
		return nil, fmt.Errorf("load positive terms: %w", err)
	}
	negative, err := l.termlist(l.NegativeTermsPath)
	if err != nil {
		return nil, fmt.Errorf("load negative terms: %w", err)
	}
	stoplist, err := l.termlist(l.StoplistPath)
	if err != nil {
		return nil, fmt.Errorf("load stoplist: %w", err)
	}

	for i := range ops {
		switch ops[i].Feature {
		case pipeline.FeatureTermlistRating:
			ops[i].Params = inject(ops[i].Params, pipeline.ParamPositiveTerms, positive)
			ops[i].Params = inject(ops[i].Params, pipeline.ParamNegativeTerms, negative)
		case pipeline.FeatureStopwordRemoval:
			ops[i].Params = inject(ops[i].Params, pipeline.ParamStopwordList, stoplist)
		}
	}
	return ops, nil
}

func (l *Loader) termlist(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	return LoadTermlist(path)
}

// inject adds terms under name unless the configuration already set them.
func inject(p pipeline.Params, name string, terms []string) pipeline.Params {
	if len(terms) == 0 || len(p[name]) > 0 {
		return p
	}
	if p == nil {
		p = make(pipeline.Params)
	}
	p[name] = terms
	return p
}
