package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	fm, body, had, err := Split([]byte("---\nsource: https://nicegui.io/documentation/button\n---\n# Button\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, "source: https://nicegui.io/documentation/button\n", string(fm))
	require.Equal(t, "# Button\n", string(body))
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, _, had, err := Split([]byte("---\nkey: value\n# Title\n"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
	require.False(t, had)
}

func TestSplit_CRLF(t *testing.T) {
	fm, body, had, err := Split([]byte("---\r\nkey: value\r\n---\r\n# Title\r\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, "key: value\r\n", string(fm))
	require.Equal(t, "# Title\r\n", string(body))
}

func TestSplit_EmptyBlockAndHeaderOnly(t *testing.T) {
	fm, body, had, err := Split([]byte("---\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, "# Title\n", string(body))

	fm, body, had, err = Split([]byte("---\nsource: x\n---"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, "source: x\n", string(fm))
	require.Empty(t, body)
}

func TestParse_ReadsAttribution(t *testing.T) {
	h, body, err := Parse([]byte("---\nsource: \" https://example.com/page \"\ntags: [a]\n---\nBody\n"))
	require.NoError(t, err)
	require.Equal(t, "https://example.com/page", h.Source)
	require.Equal(t, []any{"a"}, h.Extra["tags"])
	require.Equal(t, "Body\n", string(body))
}

func TestParse_NoHeader(t *testing.T) {
	h, body, err := Parse([]byte("plain"))
	require.NoError(t, err)
	require.Equal(t, Header{}, h)
	require.Equal(t, "plain", string(body))
}

func TestParse_InvalidYAML_ReturnsError(t *testing.T) {
	_, _, err := Parse([]byte("---\n: not yaml\n---\nbody"))
	require.Error(t, err)
}
