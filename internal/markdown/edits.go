package markdown

import (
	"cmp"
	"fmt"
	"slices"
)

// Edit replaces source[Start:End] with Replacement. Offsets refer to the original
// source, End exclusive.
type Edit struct {
	Start       int
	End         int
	Replacement []byte
}

// ApplyEdits splices non-overlapping edits into a copy of source. Edits may be
// given in any order.
func ApplyEdits(source []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return source, nil
	}

	ordered := slices.Clone(edits)
	slices.SortFunc(ordered, func(a, b Edit) int {
		return cmp.Or(cmp.Compare(a.Start, b.Start), cmp.Compare(a.End, b.End))
	})

	grow := 0
	last := 0
	for _, e := range ordered {
		if e.Start < last || e.End < e.Start || e.End > len(source) {
			return nil, fmt.Errorf("edit [%d,%d) is out of range or overlaps a previous edit", e.Start, e.End)
		}
		last = e.End
		grow += len(e.Replacement) - (e.End - e.Start)
	}

	out := make([]byte, 0, len(source)+grow)
	pos := 0
	for _, e := range ordered {
		out = append(append(out, source[pos:e.Start]...), e.Replacement...)
		pos = e.End
	}
	return append(out, source[pos:]...), nil
}
