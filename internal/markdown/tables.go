package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Cell is one parsed table cell.
type Cell struct {
	// Text is the visible text with markup removed.
	Text string
	// Links holds link and autolink destinations in document order.
	Links []string
	// HTML is the concatenated raw inline HTML of the cell.
	HTML string
	// Missing marks a cell the parser padded because the row was too short.
	Missing bool
}

// Row is a table body row.
type Row struct {
	Line  int
	Cells []Cell
}

// Table is a GFM table.
type Table struct {
	Line   int
	Header []Cell
	Rows   []Row
}

// Columns returns the lower-cased header texts.
func (t Table) Columns() []string {
	cols := make([]string, len(t.Header))
	for i, c := range t.Header {
		cols[i] = strings.ToLower(strings.TrimSpace(c.Text))
	}
	return cols
}

var gfm = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Linkify))

// Tables parses body and returns its GFM tables in document order.
func Tables(body []byte) []Table {
	root := gfm.Parser().Parse(text.NewReader(body))

	var tables []Table
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		table, ok := n.(*extast.Table)
		if !ok {
			return gmast.WalkContinue, nil
		}

		var t Table
		for row := table.FirstChild(); row != nil; row = row.NextSibling() {
			cells, line := readCells(row, body)
			switch row.(type) {
			case *extast.TableHeader:
				t.Header, t.Line = cells, line
			case *extast.TableRow:
				t.Rows = append(t.Rows, Row{Line: line, Cells: cells})
			}
		}
		tables = append(tables, t)
		return gmast.WalkSkipChildren, nil
	})
	return tables
}

func readCells(row gmast.Node, source []byte) ([]Cell, int) {
	var cells []Cell
	line := 0
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		lines := c.Lines()
		if lines.Len() == 0 {
			cells = append(cells, Cell{Missing: true})
			continue
		}
		if line == 0 {
			line = lineAt(source, lines.At(0).Start)
		}
		cells = append(cells, readCell(c, source))
	}
	return cells, line
}

func readCell(cell gmast.Node, source []byte) Cell {
	var textBuf, htmlBuf strings.Builder
	var links []string
	_ = gmast.Walk(cell, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Text:
			textBuf.Write(node.Segment.Value(source))
			if node.SoftLineBreak() {
				textBuf.WriteByte(' ')
			}
		case *gmast.String:
			textBuf.Write(node.Value)
		case *gmast.Link:
			links = append(links, string(node.Destination))
		case *gmast.AutoLink:
			links = append(links, string(node.URL(source)))
			textBuf.Write(node.Label(source))
			return gmast.WalkSkipChildren, nil
		case *gmast.RawHTML:
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				htmlBuf.Write(seg.Value(source))
			}
		}
		return gmast.WalkContinue, nil
	})
	return Cell{Text: strings.TrimSpace(textBuf.String()), Links: links, HTML: htmlBuf.String()}
}

func lineAt(source []byte, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	return bytes.Count(source[:offset], []byte("\n")) + 1
}
