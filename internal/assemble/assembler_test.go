package assemble

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/promptkit/internal/config"
	"git.home.luguber.info/inful/promptkit/internal/docstore"
	"git.home.luguber.info/inful/promptkit/internal/foundation/errors"
	"git.home.luguber.info/inful/promptkit/internal/links"
	"git.home.luguber.info/inful/promptkit/internal/planner"
)

func writeDoc(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func scenarioConfig() *config.Config {
	return &config.Config{
		Title:    "NiceGUI Master Prompt",
		DocsRoot: "docs",
		Output:   config.OutputConfig{Pattern: config.DefaultOutputPattern, Modes: config.AllModes},
		Links: config.LinksConfig{
			RepoURL:     "https://github.com/Alyxion/nice-prompt",
			Ref:         "main",
			URLTemplate: config.DefaultURLTemplate,
		},
		Categories: []config.Category{
			{Name: "guide", Dir: "guide"},
			{Name: "events", Dir: "events", Files: []config.FileEntry{{File: "b.md", Summary: "Event docs — see b.md"}}},
		},
		Exclude:  []string{"b.md"},
		Variants: []config.Variant{{Name: "compact", Include: []string{"guide"}, Reference: []string{"events"}}},
		Tokens:   config.TokensConfig{CharsPerToken: 4},
	}
}

func scenarioStore(t *testing.T, cfg *config.Config) *docstore.Store {
	t.Helper()
	root := t.TempDir()
	writeDoc(t, root, "guide/a.md", "A")
	writeDoc(t, root, "events/b.md", "B raw event content")
	store, err := docstore.Open(root, cfg)
	require.NoError(t, err)
	return store
}

func assembleSpec(t *testing.T, cfg *config.Config, store *docstore.Store, spec config.VariantSpec) *Result {
	t.Helper()
	actions, err := planner.Plan(cfg, store, spec)
	require.NoError(t, err)
	res, err := New(cfg, links.New(cfg, "")).Assemble(spec, actions)
	require.NoError(t, err)
	return res
}

func TestAssemble_CompactOffline(t *testing.T) {
	cfg := scenarioConfig()
	store := scenarioStore(t, cfg)
	spec := config.NewVariantSpec(cfg.Variants[0], config.ModeOffline)

	res := assembleSpec(t, cfg, store, spec)

	want := "# NiceGUI Master Prompt\n\n" +
		"Source: docs\n\n" +
		"---\n" +
		"\n## Guide\n" +
		"\n<!-- Source: guide/a.md -->\n" +
		"A\n" +
		"\n## Events\n" +
		"\n<!-- Reference: events/b.md -->\n" +
		"Event docs — see b.md\n\n" +
		"See: [events/b.md](events/b.md)\n"
	assert.Equal(t, want, res.Content)
	assert.NotContains(t, res.Content, "B raw event content")
	assert.Equal(t, len(want), res.SizeBytes)
	assert.Equal(t, 17, res.Lines)
	assert.Equal(t, EstimateTokens(want, 4), res.EstimatedTokens)
	assert.Equal(t, "compact", res.Variant)
	assert.Len(t, res.Documents, 2)
}

func TestAssemble_CompactOnlineUsesAbsoluteLinks(t *testing.T) {
	cfg := scenarioConfig()
	store := scenarioStore(t, cfg)
	spec := config.NewVariantSpec(cfg.Variants[0], config.ModeOnline)

	res := assembleSpec(t, cfg, store, spec)

	assert.Contains(t, res.Content, "Source: https://github.com/Alyxion/nice-prompt\n")
	assert.Contains(t, res.Content, "<!-- Source: https://github.com/Alyxion/nice-prompt/blob/main/docs/guide/a.md -->")
	assert.Contains(t, res.Content, "See: [events/b.md](https://github.com/Alyxion/nice-prompt/blob/main/docs/events/b.md)")
}

func TestAssemble_IsDeterministic(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Variants = []config.Variant{{Name: "optimum", Include: []string{"guide", "events"}}}
	store := scenarioStore(t, cfg)
	spec := config.NewVariantSpec(cfg.Variants[0], config.ModeOnline)

	first := assembleSpec(t, cfg, store, spec)
	for range 3 {
		assert.Equal(t, first.Content, assembleSpec(t, cfg, store, spec).Content)
	}
}

func TestAssemble_SharedAssemblerConcurrentUse(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Categories = append(cfg.Categories, config.Category{Name: "mechanics_and_events", Dir: "mechanics"})
	cfg.Variants = []config.Variant{{Name: "optimum", Include: []string{"guide", "events", "mechanics_and_events"}}}
	root := t.TempDir()
	writeDoc(t, root, "guide/a.md", "A")
	writeDoc(t, root, "events/b.md", "B")
	writeDoc(t, root, "mechanics/m.md", "M")
	store, err := docstore.Open(root, cfg)
	require.NoError(t, err)

	spec := config.NewVariantSpec(cfg.Variants[0], config.ModeOffline)
	actions, err := planner.Plan(cfg, store, spec)
	require.NoError(t, err)
	asm := New(cfg, links.New(cfg, ""))
	want, err := asm.Assemble(spec, actions)
	require.NoError(t, err)
	require.Contains(t, want.Content, "\n## Mechanics And Events\n")

	results := make([]string, 8)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res, err := asm.Assemble(spec, actions); err == nil {
				results[i] = res.Content
			}
		}()
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, want.Content, got)
	}
}

func TestAssemble_IncludedDocumentsAppearOnceInOrder(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Exclude = nil
	cfg.Categories[0].Files = []config.FileEntry{{File: "z.md"}}
	root := t.TempDir()
	writeDoc(t, root, "guide/a.md", "alpha")
	writeDoc(t, root, "guide/z.md", "zulu")
	writeDoc(t, root, "events/b.md", "bravo")
	store, err := docstore.Open(root, cfg)
	require.NoError(t, err)

	spec := config.VariantSpec{Name: "optimum", Include: []string{"events", "guide"}, Mode: config.ModeOffline}
	res := assembleSpec(t, cfg, store, spec)

	for _, body := range []string{"alpha", "zulu", "bravo"} {
		assert.Equal(t, 1, strings.Count(res.Content, body), body)
	}
	z := strings.Index(res.Content, "zulu")
	a := strings.Index(res.Content, "alpha")
	b := strings.Index(res.Content, "bravo")
	assert.Less(t, z, a)
	assert.Less(t, a, b)
}

func TestAssemble_AttributionComment(t *testing.T) {
	cfg := scenarioConfig()
	root := t.TempDir()
	writeDoc(t, root, "guide/a.md", "---\nsource: https://nicegui.io/documentation/section_text_elements\n---\nA\n")
	writeDoc(t, root, "events/b.md", "B")
	store, err := docstore.Open(root, cfg)
	require.NoError(t, err)

	res := assembleSpec(t, cfg, store, config.NewVariantSpec(cfg.Variants[0], config.ModeOffline))
	assert.Contains(t, res.Content, "<!-- Source: guide/a.md -->\n<!-- Attribution: https://nicegui.io/documentation/section_text_elements -->\nA\n")
	assert.NotContains(t, res.Content, "source: https")
}

func TestAssemble_ReferenceWithoutSummaryIsAssemblyError(t *testing.T) {
	cfg := scenarioConfig()
	entry := &docstore.Entry{Path: "events/b.md", Category: "events", Content: "B"}
	spec := config.NewVariantSpec(cfg.Variants[0], config.ModeOffline)

	_, err := New(cfg, links.New(cfg, "")).Assemble(spec, []planner.Action{{Kind: planner.Reference, Entry: entry}})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryAssembly))

	_, err = New(cfg, links.New(cfg, "")).Assemble(spec, []planner.Action{{Kind: planner.Full}})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryAssembly))
}

func TestAssemble_LinkRoundTrip(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Exclude = nil
	root := t.TempDir()
	writeDoc(t, root, "guide/a.md", "See [events](../events/b.md#usage).")
	writeDoc(t, root, "events/b.md", "B")
	store, err := docstore.Open(root, cfg)
	require.NoError(t, err)
	resolver := links.New(cfg, "")

	spec := config.VariantSpec{Name: "optimum", Include: []string{"guide"}}
	spec.Mode = config.ModeOnline
	online := assembleSpec(t, cfg, store, spec)
	spec.Mode = config.ModeOffline
	offline := assembleSpec(t, cfg, store, spec)

	assert.Contains(t, offline.Content, "[events](events/b.md#usage)")
	onlineURL := resolver.URL("events/b.md")
	assert.Contains(t, online.Content, "[events]("+onlineURL+"#usage)")

	logical, ok := resolver.LogicalPath(onlineURL)
	require.True(t, ok)
	assert.Equal(t, "events/b.md", logical)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens("", 4))
	assert.Equal(t, 1, EstimateTokens("abcd", 4))
	assert.Equal(t, 2, EstimateTokens("abcde", 4))
	assert.Equal(t, 1, EstimateTokens("äöü", 4))
	assert.Equal(t, 2, EstimateTokens("abcde", 0))
}

func TestCountLines(t *testing.T) {
	assert.Equal(t, 0, CountLines(""))
	assert.Equal(t, 1, CountLines("one"))
	assert.Equal(t, 1, CountLines("one\n"))
	assert.Equal(t, 3, CountLines("a\n\nb"))
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	res := &Result{Variant: "compact", Mode: config.ModeOnline, Content: "# Prompt\n"}

	path, err := Write(dir, "{mode}/nice_prompt_{variant}.md", res)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "online", "nice_prompt_compact.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, res.Content, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm()&0o644)
}
