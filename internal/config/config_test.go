package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/promptkit/internal/foundation/errors"
)

const minimalConfig = `version: "1"
title: NiceGUI Master Prompt
links:
  repo_url: https://github.com/Alyxion/nice-prompt
categories:
  - name: guide
    dir: .
    files:
      - main_guide.md
  - name: events
    files:
      - file: b.md
        summary: "Event docs — see b.md"
exclude: ["b.md"]
variants:
  - name: compact
    include: [guide]
    reference: [events]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "prompt_config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, DefaultDocsRoot, cfg.DocsRoot)
	assert.Equal(t, DefaultOutputDir, cfg.Output.Directory)
	assert.Equal(t, []Mode{ModeOnline, ModeOffline}, cfg.Output.Modes)
	assert.Equal(t, DefaultRef, cfg.Links.Ref)
	assert.Equal(t, DefaultURLTemplate, cfg.Links.RawTemplate)
	assert.Equal(t, "events", cfg.Categories[1].Dir)
	assert.Equal(t, DefaultCharsPerToken, cfg.Tokens.CharsPerToken)
	assert.Equal(t, DefaultMaxRetries, cfg.Validation.MaxRetries)
	assert.Equal(t, RetryBackoffExponential, cfg.Validation.RetryBackoff)
	assert.Equal(t, DefaultConcurrency, cfg.Validation.Concurrency)
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
}

func TestLoad_FileEntryForms(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	guide, ok := cfg.Category("guide")
	require.True(t, ok)
	assert.Equal(t, "main_guide.md", guide.Files[0].File)
	assert.Equal(t, "main_guide.md", guide.LogicalPath(guide.Files[0].File))

	summary, ok := cfg.Summary("events/b.md")
	require.True(t, ok)
	assert.Equal(t, "Event docs — see b.md", summary)

	_, ok = cfg.Summary("guide/missing.md")
	assert.False(t, ok)
}

func TestLoad_ExplicitZeroRetriesSurvivesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+"validation:\n  max_retries: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Validation.MaxRetries)
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("PROMPTKIT_TEST_REPO", "https://example.org/repo")
	content := `version: "1"
links:
  repo_url: ${PROMPTKIT_TEST_REPO}
categories:
  - name: guide
variants:
  - name: compact
    include: [guide]
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/repo", cfg.Links.RepoURL)
}

func TestLoad_NormalizesEnumerations(t *testing.T) {
	content := minimalConfig + `output:
  modes: [OFFLINE, bogus]
validation:
  retry_backoff: " Linear "
logging:
  level: WARNING
  format: yaml
`
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "level=WARN msg=\"Config normalization\"")
	assert.Contains(t, logs.String(), "bogus")
	assert.Equal(t, []Mode{ModeOffline}, cfg.Output.Modes)
	assert.Equal(t, RetryBackoffLinear, cfg.Validation.RetryBackoff)
	assert.Equal(t, LogLevelWarn, cfg.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestLoad_UnsupportedVersion(t *testing.T) {
	_, err := Load(writeConfig(t, "version: \"2\"\n"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	assert.Contains(t, err.Error(), "unsupported configuration version")
}

func TestVariantSpecs_OrderAndMembership(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`  - name: extended
    include: [guide, events]
`))
	require.NoError(t, err)

	specs := cfg.VariantSpecs()
	require.Len(t, specs, 4)
	assert.Equal(t, "compact/online", specs[0].Key())
	assert.Equal(t, "compact/offline", specs[1].Key())
	assert.Equal(t, "extended/online", specs[2].Key())

	compact := specs[1]
	assert.True(t, compact.Includes("guide"))
	assert.True(t, compact.References("events"))
	assert.False(t, compact.Includes("events"))
	assert.True(t, compact.InScope("events"))
	assert.False(t, compact.InScope("classes"))
}

func TestIsExcluded(t *testing.T) {
	cfg := &Config{Exclude: []string{"*_advanced.md", "classes/internal_*"}}

	assert.True(t, cfg.IsExcluded("mechanics/state_advanced.md"))
	assert.True(t, cfg.IsExcluded("classes/internal_widget.md"))
	assert.False(t, cfg.IsExcluded("mechanics/state.md"))
	assert.False(t, cfg.IsExcluded("events/internal_x.md"))
}

func TestInitWritesLoadableConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), "docs", "prompt_config.yaml")
	require.NoError(t, Init(p, false))

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Len(t, cfg.Variants, 3)

	err = Init(p, false)
	require.Error(t, err)
	require.NoError(t, Init(p, true))
}
