package links

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/promptkit/internal/config"
)

func testResolver() *Resolver {
	cfg := &config.Config{
		DocsRoot: "docs",
		Links: config.LinksConfig{
			RepoURL:     "https://github.com/Alyxion/nice-prompt/",
			Ref:         "main",
			URLTemplate: config.DefaultURLTemplate,
			RawTemplate: "https://raw.githubusercontent.com/Alyxion/nice-prompt/{ref}/{path}",
		},
	}
	return New(cfg, "")
}

func TestResolver_URL(t *testing.T) {
	r := testResolver()
	assert.Equal(t, "https://github.com/Alyxion/nice-prompt/blob/main/docs/events/b.md", r.URL("events/b.md"))
	assert.Equal(t, "https://raw.githubusercontent.com/Alyxion/nice-prompt/main/docs/img/a%20b.png", r.AssetURL("img/a b.png"))
	assert.Equal(t, "https://github.com/Alyxion/nice-prompt/blob/main/docs/", r.Prefix())
	assert.Equal(t, "https://raw.githubusercontent.com/Alyxion/nice-prompt/main/docs/", r.AssetPrefix())
	assert.Equal(t, "https://github.com/Alyxion/nice-prompt/blob/main/", r.RepoPrefix())
}

func TestResolver_PathByMode(t *testing.T) {
	r := testResolver()
	assert.Equal(t, "events/b.md", r.Path("events/b.md", config.ModeOffline))
	assert.Equal(t, r.URL("events/b.md"), r.Path("events/b.md", config.ModeOnline))
}

func TestResolver_RefOverride(t *testing.T) {
	cfg := &config.Config{DocsRoot: ".", Links: config.LinksConfig{RepoURL: "https://example.com/r", Ref: "auto", URLTemplate: config.DefaultURLTemplate}}
	r := New(cfg, "0123abc")
	assert.Equal(t, "https://example.com/r/blob/0123abc/guide.md", r.URL("guide.md"))
}

func TestResolver_RoundTrip(t *testing.T) {
	r := testResolver()
	for _, logical := range []string{"main_guide.md", "events/b.md", "classes/with space.md", "nested/dir/x_y.md"} {
		online := r.Path(logical, config.ModeOnline)
		offline := r.Path(logical, config.ModeOffline)

		back, ok := r.LogicalPath(online)
		require.True(t, ok, online)
		assert.Equal(t, offline, back)
	}
}

func TestResolver_LogicalPathRejectsForeignURLs(t *testing.T) {
	r := testResolver()
	for _, u := range []string{
		"https://example.com/other.md",
		"https://github.com/Alyxion/nice-prompt/blob/main/README.md",
		"https://github.com/Alyxion/nice-prompt/blob/dev/docs/a.md",
	} {
		_, ok := r.LogicalPath(u)
		assert.False(t, ok, u)
	}
}
