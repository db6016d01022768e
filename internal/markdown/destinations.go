package markdown

import "strings"

// DestinationKind distinguishes the construct a destination belongs to.
type DestinationKind string

const (
	DestinationLink       DestinationKind = "link"
	DestinationImage      DestinationKind = "image"
	DestinationDefinition DestinationKind = "definition"
)

// Destination is the byte range of a link destination inside a markdown body.
type Destination struct {
	Kind  DestinationKind
	Start int
	End   int
	Value string
}

// Destinations scans body for inline link, image and reference definition
// destinations. Fenced code, indented code and inline code spans are ignored.
// Offsets are suitable for ApplyEdits.
func Destinations(body []byte) []Destination {
	var out []Destination
	inFence := false
	fence := ""

	offset := 0
	for _, line := range strings.SplitAfter(string(body), "\n") {
		lineStart := offset
		offset += len(line)

		trimmed := strings.TrimSpace(line)
		if marker := fenceMarker(trimmed); marker != "" {
			switch {
			case !inFence:
				inFence, fence = true, marker
			case strings.HasPrefix(marker, fence):
				inFence, fence = false, ""
			}
			continue
		}
		if inFence || strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			continue
		}

		masked := maskCodeSpans(line)
		for _, d := range inlineDestinations(masked) {
			d.Value = line[d.Start:d.End]
			d.Start += lineStart
			d.End += lineStart
			out = append(out, d)
		}
		if d, ok := definitionDestination(masked); ok {
			d.Value = line[d.Start:d.End]
			d.Start += lineStart
			d.End += lineStart
			out = append(out, d)
		}
	}
	return out
}

func fenceMarker(trimmed string) string {
	for _, ch := range []string{"`", "~"} {
		n := 0
		for n < len(trimmed) && trimmed[n] == ch[0] {
			n++
		}
		if n >= 3 {
			return strings.Repeat(ch, n)
		}
	}
	return ""
}

// maskCodeSpans blanks inline code spans while keeping byte offsets stable.
func maskCodeSpans(s string) string {
	if !strings.Contains(s, "`") {
		return s
	}
	b := []byte(s)
	for i := 0; i < len(b); {
		if b[i] != '`' {
			i++
			continue
		}
		run := 1
		for i+run < len(b) && b[i+run] == '`' {
			run++
		}
		closeRel := strings.Index(string(b[i+run:]), strings.Repeat("`", run))
		if closeRel < 0 {
			i += run
			continue
		}
		end := i + run + closeRel + run
		for j := i; j < end; j++ {
			b[j] = ' '
		}
		i = end
	}
	return string(b)
}

func inlineDestinations(line string) []Destination {
	var out []Destination
	for i := 0; i+1 < len(line); i++ {
		if line[i] != ']' || line[i+1] != '(' {
			continue
		}
		open := strings.LastIndexByte(line[:i], '[')
		if open < 0 {
			continue
		}
		kind := DestinationLink
		if open > 0 && line[open-1] == '!' {
			kind = DestinationImage
		}
		start, end, ok := scanDestination(line, i+2)
		if !ok {
			continue
		}
		out = append(out, Destination{Kind: kind, Start: start, End: end})
		i = end - 1
	}
	return out
}

// scanDestination returns the destination bounds starting at pos, which points just
// after the opening parenthesis.
func scanDestination(line string, pos int) (int, int, bool) {
	for pos < len(line) && (line[pos] == ' ' || line[pos] == '\t') {
		pos++
	}
	if pos >= len(line) {
		return 0, 0, false
	}
	if line[pos] == '<' {
		end := strings.IndexByte(line[pos+1:], '>')
		if end < 0 {
			return 0, 0, false
		}
		return pos + 1, pos + 1 + end, true
	}

	depth := 0
	end := pos
	for ; end < len(line); end++ {
		c := line[end]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			break
		}
		if c == '(' {
			depth++
		}
		if c == ')' {
			if depth == 0 {
				break
			}
			depth--
		}
	}
	if end == pos {
		return 0, 0, false
	}
	return pos, end, true
}

func definitionDestination(line string) (Destination, bool) {
	indent := len(line) - len(strings.TrimLeft(line, " "))
	if indent > 3 || indent >= len(line) || line[indent] != '[' || strings.HasPrefix(line[indent:], "[^") {
		return Destination{}, false
	}
	colon := strings.Index(line[indent:], "]:")
	if colon < 0 {
		return Destination{}, false
	}
	start, end, ok := scanDestination(line, indent+colon+2)
	if !ok {
		return Destination{}, false
	}
	return Destination{Kind: DestinationDefinition, Start: start, End: end}, true
}
