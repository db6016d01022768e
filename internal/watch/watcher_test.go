package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, root, configPath string) <-chan struct{} {
	t.Helper()
	rebuilt := make(chan struct{}, 16)
	w, err := New(root, configPath, func(context.Context) error {
		rebuilt <- struct{}{}
		return nil
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	return rebuilt
}

func waitRebuild(t *testing.T, rebuilt <-chan struct{}) {
	t.Helper()
	select {
	case <-rebuilt:
	case <-time.After(3 * time.Second):
		t.Fatal("no rebuild after change")
	}
}

func TestWatcherRebuildsOnDocumentChange(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "guide"), 0o750))
	rebuilt := startWatcher(t, root, "")

	require.NoError(t, os.WriteFile(filepath.Join(root, "guide", "intro.md"), []byte("# Intro\n"), 0o600))
	waitRebuild(t, rebuilt)
}

func TestWatcherRebuildsOnConfigChange(t *testing.T) {
	root := t.TempDir()
	cfgDir := t.TempDir()
	cfgPath := filepath.Join(cfgDir, "prompt_config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("title: a\n"), 0o600))
	rebuilt := startWatcher(t, root, cfgPath)

	require.NoError(t, os.WriteFile(cfgPath, []byte("title: b\n"), 0o600))
	waitRebuild(t, rebuilt)
}

func TestShouldIgnoreEvent(t *testing.T) {
	for _, p := range []string{"/x/.hidden.md", "/x/a.md~", "/x/.a.md.swp", "/x/a.swp", "/x/#a.md#"} {
		assert.True(t, shouldIgnoreEvent(p), p)
	}
	assert.False(t, shouldIgnoreEvent("/x/guide/intro.md"))
}
