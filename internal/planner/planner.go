// Package planner decides, for one variant and mode, how every document in scope
// appears in the output.
package planner

import (
	"fmt"

	"git.home.luguber.info/inful/promptkit/internal/config"
	"git.home.luguber.info/inful/promptkit/internal/docstore"
	"git.home.luguber.info/inful/promptkit/internal/foundation/errors"
)

// Kind is the inclusion decision for a document.
type Kind int

const (
	Skip Kind = iota
	Full
	Reference
)

func (k Kind) String() string {
	switch k {
	case Full:
		return "full"
	case Reference:
		return "reference"
	default:
		return "skip"
	}
}

// Action is one planned inclusion. Summary is only set for Reference actions.
type Action struct {
	Kind    Kind
	Entry   *docstore.Entry
	Summary string
}

// Corpus is the subset of the document store the planner reads.
type Corpus interface {
	List(category string) []*docstore.Entry
	Get(path string) (*docstore.Entry, error)
}

// Plan walks the configured category order and emits one action per document in a
// category the variant mentions. Identical inputs always produce identical plans.
func Plan(cfg *config.Config, corpus Corpus, spec config.VariantSpec) ([]Action, error) {
	var actions []Action
	for _, cat := range cfg.Categories {
		if !spec.InScope(cat.Name) {
			continue
		}

		for _, f := range cat.Files {
			if _, err := corpus.Get(cat.LogicalPath(f.File)); err != nil {
				if classified, ok := errors.AsClassified(err); ok {
					return nil, classified.WithContext("category", cat.Name).WithContext("variant", spec.Key())
				}
				return nil, err
			}
		}

		referenced := spec.References(cat.Name)
		for _, entry := range corpus.List(cat.Name) {
			action, err := decide(cfg, entry, referenced)
			if err != nil {
				return nil, fmt.Errorf("plan %s: %w", spec.Key(), err)
			}
			actions = append(actions, action)
		}
	}
	return actions, nil
}

func decide(cfg *config.Config, entry *docstore.Entry, referenced bool) (Action, error) {
	switch {
	case !entry.Excluded:
		return Action{Kind: Full, Entry: entry}, nil
	case !referenced:
		return Action{Kind: Skip, Entry: entry}, nil
	}

	summary, ok := cfg.Summary(entry.Path)
	if !ok {
		return Action{}, errors.ConfigError("excluded document in reference category has no summary").
			WithContext("path", entry.Path).
			WithContext("category", entry.Category).
			Build()
	}
	return Action{Kind: Reference, Entry: entry, Summary: summary}, nil
}

// Summary counts actions per kind.
type Summary struct {
	Full      int
	Reference int
	Skip      int
}

// Summarize tallies a plan.
func Summarize(actions []Action) Summary {
	var s Summary
	for _, a := range actions {
		switch a.Kind {
		case Full:
			s.Full++
		case Reference:
			s.Reference++
		default:
			s.Skip++
		}
	}
	return s
}
