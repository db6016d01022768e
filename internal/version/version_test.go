package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringIncludesInjectedMetadata(t *testing.T) {
	oldVersion, oldCommit, oldTime := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = oldVersion, oldCommit, oldTime })

	Version, GitCommit, BuildTime = "v1.2.0", "0123456789abcdef0123", "2026-01-02T03:04:05Z"
	assert.Equal(t, "promptkit v1.2.0 (commit 0123456789ab, built 2026-01-02T03:04:05Z)", String())
}

func TestStringDefaults(t *testing.T) {
	assert.Contains(t, String(), "promptkit dev")
}
