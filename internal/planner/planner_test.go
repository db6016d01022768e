package planner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/promptkit/internal/config"
	"git.home.luguber.info/inful/promptkit/internal/docstore"
	"git.home.luguber.info/inful/promptkit/internal/foundation/errors"
)

type fakeCorpus map[string][]*docstore.Entry

func (f fakeCorpus) List(category string) []*docstore.Entry { return f[category] }

func (f fakeCorpus) Get(p string) (*docstore.Entry, error) {
	for _, entries := range f {
		for _, e := range entries {
			if e.Path == p {
				return e, nil
			}
		}
	}
	return nil, errors.NotFoundError("document not found").WithContext("path", p).Build()
}

type step struct {
	Kind    Kind
	Path    string
	Summary string
}

func steps(actions []Action) []step {
	out := make([]step, 0, len(actions))
	for _, a := range actions {
		out = append(out, step{Kind: a.Kind, Path: a.Entry.Path, Summary: a.Summary})
	}
	return out
}

func fixture() (*config.Config, fakeCorpus) {
	cfg := &config.Config{
		Categories: []config.Category{
			{Name: "guide", Dir: "guide"},
			{Name: "events", Dir: "events", Files: []config.FileEntry{{File: "b.md", Summary: "Event docs — see b.md"}}},
			{Name: "classes", Dir: "classes"},
		},
	}
	corpus := fakeCorpus{
		"guide": {
			{Path: "guide/a.md", Category: "guide", Content: "A"},
			{Path: "guide/x_advanced.md", Category: "guide", Content: "X", Excluded: true},
		},
		"events": {
			{Path: "events/b.md", Category: "events", Content: "B", Excluded: true},
			{Path: "events/c.md", Category: "events", Content: "C"},
		},
		"classes": {
			{Path: "classes/button.md", Category: "classes", Content: "btn"},
		},
	}
	return cfg, corpus
}

func TestPlan_DecisionTable(t *testing.T) {
	cfg, corpus := fixture()
	spec := config.VariantSpec{Name: "compact", Include: []string{"guide"}, Reference: []string{"events"}, Mode: config.ModeOffline}

	actions, err := Plan(cfg, corpus, spec)
	require.NoError(t, err)

	want := []step{
		{Kind: Full, Path: "guide/a.md"},
		{Kind: Skip, Path: "guide/x_advanced.md"},
		{Kind: Reference, Path: "events/b.md", Summary: "Event docs — see b.md"},
		{Kind: Full, Path: "events/c.md"},
	}
	if diff := cmp.Diff(want, steps(actions)); diff != "" {
		t.Fatalf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_IsDeterministic(t *testing.T) {
	cfg, corpus := fixture()
	spec := config.VariantSpec{Name: "optimum", Include: []string{"guide", "events", "classes"}, Mode: config.ModeOnline}

	first, err := Plan(cfg, corpus, spec)
	require.NoError(t, err)
	for range 5 {
		again, err := Plan(cfg, corpus, spec)
		require.NoError(t, err)
		if diff := cmp.Diff(steps(first), steps(again)); diff != "" {
			t.Fatalf("non-deterministic plan:\n%s", diff)
		}
	}
}

func TestPlan_EachDocumentExactlyOnce(t *testing.T) {
	cfg, corpus := fixture()
	spec := config.VariantSpec{Name: "extended", Include: []string{"classes", "guide", "events"}, Mode: config.ModeOnline}

	actions, err := Plan(cfg, corpus, spec)
	require.NoError(t, err)

	seen := map[string]int{}
	for _, a := range actions {
		require.NotNil(t, a.Entry)
		seen[a.Entry.Path]++
	}
	for p, n := range seen {
		assert.Equal(t, 1, n, p)
	}
	assert.Len(t, seen, 5)
	// Category order comes from the config, not from the variant.
	assert.Equal(t, "guide/a.md", actions[0].Entry.Path)
	assert.Equal(t, "classes/button.md", actions[len(actions)-1].Entry.Path)
}

func TestPlan_UnmentionedCategoriesAreSilent(t *testing.T) {
	cfg, corpus := fixture()
	spec := config.VariantSpec{Name: "tiny", Include: []string{"classes"}, Mode: config.ModeOnline}

	actions, err := Plan(cfg, corpus, spec)
	require.NoError(t, err)
	assert.Equal(t, []step{{Kind: Full, Path: "classes/button.md"}}, steps(actions))
}

func TestPlan_ExcludedReferenceWithoutSummary(t *testing.T) {
	cfg, corpus := fixture()
	cfg.Categories[1].Files = nil
	spec := config.VariantSpec{Name: "compact", Include: []string{"guide"}, Reference: []string{"events"}, Mode: config.ModeOffline}

	_, err := Plan(cfg, corpus, spec)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestPlan_MissingListedFileIsNotFound(t *testing.T) {
	cfg, corpus := fixture()
	cfg.Categories[0].Files = []config.FileEntry{{File: "gone.md"}}
	spec := config.VariantSpec{Name: "compact", Include: []string{"guide"}, Mode: config.ModeOnline}

	_, err := Plan(cfg, corpus, spec)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestPlan_ConcreteCompactOffline(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "guide"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "events"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "guide", "a.md"), []byte("A"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "events", "b.md"), []byte("B raw"), 0o644))

	cfg := &config.Config{
		Categories: []config.Category{
			{Name: "guide", Dir: "guide"},
			{Name: "events", Dir: "events", Files: []config.FileEntry{{File: "b.md", Summary: "Event docs — see b.md"}}},
		},
		Exclude:  []string{"b.md"},
		Variants: []config.Variant{{Name: "compact", Include: []string{"guide"}, Reference: []string{"events"}}},
		Output:   config.OutputConfig{Modes: []config.Mode{config.ModeOffline}},
	}
	store, err := docstore.Open(root, cfg)
	require.NoError(t, err)

	specs := cfg.VariantSpecs()
	require.Len(t, specs, 1)
	actions, err := Plan(cfg, store, specs[0])
	require.NoError(t, err)

	want := []step{
		{Kind: Full, Path: "guide/a.md"},
		{Kind: Reference, Path: "events/b.md", Summary: "Event docs — see b.md"},
	}
	if diff := cmp.Diff(want, steps(actions)); diff != "" {
		t.Fatalf("plan mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Summary{Full: 1, Reference: 1}, Summarize(actions))
}
