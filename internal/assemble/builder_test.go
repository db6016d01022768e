package assemble

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/promptkit/internal/config"
	"git.home.luguber.info/inful/promptkit/internal/docstore"
	"git.home.luguber.info/inful/promptkit/internal/foundation/errors"
	"git.home.luguber.info/inful/promptkit/internal/links"
	"git.home.luguber.info/inful/promptkit/internal/manifest"
)

func builderFixture(t *testing.T) (*config.Config, *docstore.Store) {
	t.Helper()
	cfg := scenarioConfig()
	cfg.Variants = append(cfg.Variants, config.Variant{Name: "optimum", Include: []string{"guide", "events"}})
	return cfg, scenarioStore(t, cfg)
}

func TestBuilder_BuildsEveryVariantAndMode(t *testing.T) {
	cfg, store := builderFixture(t)
	out := t.TempDir()

	report, err := NewBuilder(cfg, store, links.New(cfg, ""), WithOutputDir(out)).Build(context.Background())
	require.NoError(t, err)
	require.True(t, report.OK())
	require.Len(t, report.Outcomes, 4)

	for _, name := range []string{"prompt_compact_online.md", "prompt_compact_offline.md", "prompt_optimum_online.md", "prompt_optimum_offline.md"} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}

	data, err := os.ReadFile(report.ManifestPath)
	require.NoError(t, err)
	m, err := manifest.FromJSON(data)
	require.NoError(t, err)
	assert.Len(t, m.Artifacts, 4)
	assert.Equal(t, "prompt_compact_offline.md", m.Artifacts[0].File)
	require.Len(t, m.Documents, 2)
	assert.Equal(t, "events/b.md", m.Documents[0].Path)
	assert.NotEmpty(t, m.Documents[0].Fingerprint)
	assert.Equal(t, "main", m.Ref)
}

func TestBuilder_MissingDocumentFailsOnlyThatVariant(t *testing.T) {
	cfg, store := builderFixture(t)
	cfg.Categories = append(cfg.Categories, config.Category{Name: "classes", Dir: "classes", Files: []config.FileEntry{{File: "gone.md"}}})
	cfg.Variants[1].Include = append(cfg.Variants[1].Include, "classes")

	root := store.Root()
	writeDoc(t, root, "classes/button.md", "button")
	store, err := docstore.Open(root, cfg)
	require.NoError(t, err)

	out := t.TempDir()
	report, err := NewBuilder(cfg, store, links.New(cfg, ""), WithOutputDir(out)).Build(context.Background())
	require.NoError(t, err)
	assert.False(t, report.OK())

	failed := report.Failed()
	require.Len(t, failed, 2)
	for _, f := range failed {
		assert.Equal(t, "optimum", f.Spec.Name)
		assert.True(t, errors.HasCategory(f.Err, errors.CategoryNotFound))
	}
	for _, name := range []string{"prompt_compact_online.md", "prompt_compact_offline.md"} {
		_, err = os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}
	assert.Equal(t, "failed", report.Manifest.Status)
	assert.Len(t, report.Manifest.Failures, 2)
}

func TestBuilder_ConfigErrorAbortsBeforeWriting(t *testing.T) {
	cfg, store := builderFixture(t)
	cfg.Categories[1].Files = nil // excluded b.md loses its summary

	out := filepath.Join(t.TempDir(), "out")
	_, err := NewBuilder(cfg, store, links.New(cfg, ""), WithOutputDir(out)).Build(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBuilder_EmptyCategoryIsConfigError(t *testing.T) {
	cfg, store := builderFixture(t)
	cfg.Categories = append(cfg.Categories, config.Category{Name: "classes", Dir: "classes"})
	cfg.Variants[0].Include = append(cfg.Variants[0].Include, "classes")

	_, err := NewBuilder(cfg, store, links.New(cfg, ""), WithOutputDir(t.TempDir())).Build(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestBuilder_CanceledContext(t *testing.T) {
	cfg, store := builderFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewBuilder(cfg, store, links.New(cfg, ""), WithOutputDir(t.TempDir())).Build(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Failed(), 4)
}
