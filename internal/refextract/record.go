// Package refextract collects source and documentation links from the class
// reference tables of the corpus.
package refextract

import "fmt"

// Kind tells which column a URL came from.
type Kind string

const (
	KindSource        Kind = "source"
	KindDocumentation Kind = "documentation"
)

// Record is one URL claim made by a reference table row. Records are not
// deduplicated; every occurrence needs to be verified.
type Record struct {
	SourceFile string `json:"source_file"`
	Category   string `json:"category"`
	Class      string `json:"class"`
	Inherits   string `json:"inherits,omitempty"`
	TargetURL  string `json:"target_url"`
	Kind       Kind   `json:"kind"`
	Line       int    `json:"line"`
}

// Issue is a structural problem in a recognized reference table.
type Issue struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s:%d: %s", i.File, i.Line, i.Message)
}
