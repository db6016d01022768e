package refextract

import "strings"

// layout maps recognized columns to their index. Missing columns are -1.
type layout struct {
	class, inherits, description, source, docs int
}

var (
	classHeaders    = []string{"class", "element", "component"}
	inheritsHeaders = []string{"inherits", "base", "extends"}
	sourceHeaders   = []string{"source"}
	docsHeaders     = []string{"documentation", "docs"}
)

// detectLayout recognizes a reference table header. A reference table has a class
// column and at least one URL column.
func detectLayout(columns []string) (layout, bool) {
	l := layout{class: -1, inherits: -1, description: -1, source: -1, docs: -1}
	for i, col := range columns {
		col = strings.Trim(col, "* _`")
		switch {
		case l.class < 0 && contains(classHeaders, col):
			l.class = i
		case l.inherits < 0 && contains(inheritsHeaders, col):
			l.inherits = i
		case l.description < 0 && col == "description":
			l.description = i
		case l.source < 0 && contains(sourceHeaders, col):
			l.source = i
		case l.docs < 0 && contains(docsHeaders, col):
			l.docs = i
		}
	}
	return l, l.class >= 0 && (l.source >= 0 || l.docs >= 0)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
