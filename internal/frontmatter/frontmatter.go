// Package frontmatter separates the optional YAML header of a corpus document from
// its markdown body.
package frontmatter

import (
	"bytes"
	"errors"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Header holds the front matter keys promptkit understands. Unknown keys are kept in Extra.
type Header struct {
	// Source is the attribution header, e.g. the upstream page a document was derived from.
	Source  string         `yaml:"source"`
	Title   string         `yaml:"title"`
	Summary string         `yaml:"summary"`
	Extra   map[string]any `yaml:",inline"`
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a YAML frontmatter delimiter, had is false
// and body is the full input.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		return []byte{}, content[start+len(open):], true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	if idx < 0 {
		// A closing delimiter on the final line without a trailing newline.
		if bytes.HasSuffix(content, []byte(nl+"---")) {
			end := len(content) - len("---")
			return content[start:end], []byte{}, true, nil
		}
		return nil, nil, false, ErrMissingClosingDelimiter
	}

	end := start + idx + len(nl)
	return content[start:end], content[start+idx+len(closeSeq):], true, nil
}

// Parse splits content and decodes the header. Documents without front matter yield
// a zero Header and the unchanged body.
func Parse(content []byte) (Header, []byte, error) {
	raw, body, had, err := Split(content)
	if err != nil {
		return Header{}, nil, err
	}
	if !had || len(bytes.TrimSpace(raw)) == 0 {
		return Header{}, body, nil
	}

	var h Header
	if err := yaml.Unmarshal(raw, &h); err != nil {
		return Header{}, nil, err
	}
	h.Source = strings.TrimSpace(h.Source)
	h.Summary = strings.TrimSpace(h.Summary)
	return h, body, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
