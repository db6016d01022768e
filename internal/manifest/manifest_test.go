package manifest

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(started time.Time, reverse bool) *BuildManifest {
	m := New("main", started)
	add := []func(){
		func() { m.AddArtifact("optimum", "online", "prompt_optimum_online.md", []byte("B"), 1) },
		func() { m.AddArtifact("compact", "offline", "prompt_compact_offline.md", []byte("A"), 1) },
		func() { m.AddDocument("guide/a.md", "fp-a") },
		func() { m.AddDocument("events/b.md", "fp-b") },
	}
	if reverse {
		for i := len(add) - 1; i >= 0; i-- {
			add[i]()
		}
	} else {
		for _, f := range add {
			f()
		}
	}
	m.Finish(started.Add(1500 * time.Millisecond))
	return m
}

func TestManifest_DeterministicOrdering(t *testing.T) {
	started := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a := sample(started, false)
	b := sample(started, true)

	assert.Equal(t, a.Artifacts, b.Artifacts)
	assert.Equal(t, a.Documents, b.Documents)
	assert.Equal(t, "compact", a.Artifacts[0].Variant)
	assert.Equal(t, "events/b.md", a.Documents[0].Path)

	ha, err := a.Hash()
	require.NoError(t, err)
	hb, err := b.Hash()
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestManifest_Fields(t *testing.T) {
	m := sample(time.Now(), false)
	_, err := uuid.Parse(m.ID)
	require.NoError(t, err)
	assert.Equal(t, "success", m.Status)
	assert.Equal(t, int64(1500), m.Duration)
	// sha256("A")
	assert.Equal(t, "559aead08264d5795d3909718cdd05abd49572e84fe55590eef31a88a08fdffd", m.Artifacts[0].SHA256)
	assert.Equal(t, 1, m.Artifacts[0].SizeBytes)

	m.AddDocument("guide/a.md", "fp-a")
	assert.Len(t, m.Documents, 2)
}

func TestManifest_FailureStatus(t *testing.T) {
	m := New("main", time.Now())
	m.AddFailure("compact", "online", "document not found")
	m.Finish(time.Now())
	assert.Equal(t, "failed", m.Status)
}

func TestManifest_WriteAndRead(t *testing.T) {
	dir := t.TempDir()
	m := sample(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), false)

	path, err := m.Write(dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	back, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, m.ID, back.ID)
	assert.Equal(t, m.Artifacts, back.Artifacts)
	assert.True(t, m.Timestamp.Equal(back.Timestamp))
}
