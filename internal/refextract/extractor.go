package refextract

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/promptkit/internal/docstore"
	"git.home.luguber.info/inful/promptkit/internal/logfields"
	"git.home.luguber.info/inful/promptkit/internal/markdown"
)

// Corpus lists the documents to scan in output order.
type Corpus interface {
	Entries() []*docstore.Entry
}

// Result holds the records and structural issues of a scan.
type Result struct {
	Records []Record
	Issues  []Issue
	Tables  int
}

// Extract scans every document of the corpus. Order follows category order, then
// file order, table order and row order.
func Extract(corpus Corpus) *Result {
	res := &Result{}
	for _, e := range corpus.Entries() {
		ExtractEntry(e, res)
	}
	slog.Debug("Reference tables scanned",
		slog.Int("tables", res.Tables),
		logfields.Count(len(res.Records)),
		slog.Int("issues", len(res.Issues)))
	return res
}

// ExtractEntry appends the records and issues of one document to res.
func ExtractEntry(e *docstore.Entry, res *Result) {
	for _, table := range markdown.Tables([]byte(e.Content)) {
		l, ok := detectLayout(table.Columns())
		if !ok {
			continue
		}
		res.Tables++
		for _, row := range table.Rows {
			extractRow(e, table, l, row, res)
		}
	}
}

func extractRow(e *docstore.Entry, table markdown.Table, l layout, row markdown.Row, res *Result) {
	issue := func(msg string) {
		res.Issues = append(res.Issues, Issue{File: e.Path, Line: row.Line, Message: msg})
	}

	missing := 0
	for _, c := range row.Cells {
		if c.Missing {
			missing++
		}
	}
	if missing > 0 {
		issue(fmt.Sprintf("row has %d cells, header has %d", len(table.Header)-missing, len(table.Header)))
	}

	class := cellText(row, l.class)
	if class == "" {
		if missing == 0 {
			issue("row has an empty class cell")
		}
		return
	}

	cols := []struct {
		index int
		kind  Kind
	}{{l.source, KindSource}, {l.docs, KindDocumentation}}
	if l.docs >= 0 && (l.source < 0 || l.docs < l.source) {
		cols[0], cols[1] = cols[1], cols[0]
	}
	for _, col := range cols {
		if col.index < 0 || col.index >= len(row.Cells) {
			continue
		}
		target := cellURL(row.Cells[col.index])
		if target == "" {
			continue
		}
		if msg := CheckURL(target); msg != "" {
			issue(msg)
			slog.Debug("Skipping reference URL", logfields.File(e.Path), logfields.URL(target), slog.String("reason", msg))
			continue
		}
		res.Records = append(res.Records, Record{
			SourceFile: e.Path,
			Category:   e.Category,
			Class:      class,
			Inherits:   cellText(row, l.inherits),
			TargetURL:  target,
			Kind:       col.kind,
			Line:       row.Line,
		})
	}
}

func cellText(row markdown.Row, index int) string {
	if index < 0 || index >= len(row.Cells) {
		return ""
	}
	return row.Cells[index].Text
}
