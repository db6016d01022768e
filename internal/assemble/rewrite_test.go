package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/promptkit/internal/config"
	"git.home.luguber.info/inful/promptkit/internal/docstore"
)

func TestRewriteLinks(t *testing.T) {
	entry := &docstore.Entry{
		Path: "guide/intro.md",
		Content: "[same](other.md) [up](../events/b.md#top) ![img](img/a.png)\n" +
			"[abs](https://nicegui.io) [anchor](#x) [root](/x.md) [tpl]({{DOCS_PREFIX}}x.md)\n" +
			"[escape](../../outside.md) [mail](mailto:a@b.c)\n" +
			"`[code](inline.md)`\n",
	}

	offline, err := rewriteLinks(entry, testResolver(), config.ModeOffline)
	require.NoError(t, err)
	assert.Equal(t, "[same](guide/other.md) [up](events/b.md#top) ![img](guide/img/a.png)\n"+
		"[abs](https://nicegui.io) [anchor](#x) [root](/x.md) [tpl]({{DOCS_PREFIX}}x.md)\n"+
		"[escape](../../outside.md) [mail](mailto:a@b.c)\n"+
		"`[code](inline.md)`\n", offline)

	online, err := rewriteLinks(entry, testResolver(), config.ModeOnline)
	require.NoError(t, err)
	assert.Contains(t, online, "[same](https://github.com/Alyxion/nice-prompt/blob/main/docs/guide/other.md)")
	assert.Contains(t, online, "[up](https://github.com/Alyxion/nice-prompt/blob/main/docs/events/b.md#top)")
	assert.Contains(t, online, "![img](https://raw.githubusercontent.com/Alyxion/nice-prompt/main/docs/guide/img/a.png)")
	assert.Contains(t, online, "[escape](../../outside.md)")
}

func TestRewriteLinks_NoLinksReturnsContent(t *testing.T) {
	entry := &docstore.Entry{Path: "a.md", Content: "plain text"}
	out, err := rewriteLinks(entry, testResolver(), config.ModeOnline)
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)
}
