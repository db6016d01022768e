package config

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/promptkit/internal/foundation/errors"
)

const exampleConfig = `version: "1"
title: Master Prompt
description: Complete reference for AI agents.
docs_root: docs
output:
  directory: output
  pattern: "prompt_{variant}_{mode}.md"
links:
  repo_url: https://github.com/example/project
  ref: main
categories:
  - name: guide
    dir: .
    files:
      - main_guide.md
  - name: mechanics
  - name: events
  - name: classes
exclude:
  - "*_advanced.md"
variants:
  - name: compact
    include: [guide, mechanics]
    reference: [events, classes]
  - name: optimum
    include: [guide, mechanics, events]
    reference: [classes]
  - name: extended
    include: [guide, mechanics, events, classes]
tokens:
  chars_per_token: 4
validation:
  concurrency: 12
  request_timeout: 10s
  max_retries: 2
  retry_backoff: exponential
  freshness: 24h
logging:
  level: info
  format: text
`

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("file", configPath).Build()
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create config directory").Build()
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write config file").Build()
	}
	return nil
}
