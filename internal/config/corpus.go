package config

import "git.home.luguber.info/inful/promptkit/internal/foundation/errors"

// DocumentCounter reports how many documents the corpus holds for a category.
type DocumentCounter interface {
	Count(category string) int
}

// CheckCorpus verifies that every category referenced by a variant has at least one
// document. It is run once per build, before any variant is planned.
func CheckCorpus(cfg *Config, corpus DocumentCounter) error {
	checked := make(map[string]bool)
	for _, variant := range cfg.Variants {
		for _, category := range append(append([]string(nil), variant.Include...), variant.Reference...) {
			if checked[category] {
				continue
			}
			checked[category] = true
			if corpus.Count(category) == 0 {
				return errors.ConfigError("category has no matching documents").
					WithContext("category", category).
					WithContext("variant", variant.Name).
					Build()
			}
		}
	}
	return nil
}
