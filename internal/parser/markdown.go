package parser

import (
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"orgdex/internal/doctree"
)

// MarkdownParser handles Markdown files using goldmark. Heading positions
// come from the AST line segments, so node spans index into the original
// source exactly as they do for org files.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, docID string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw := string(src)
	d := doctree.New(docID, raw)
	d.Nodes[0].Title = baseTitle(docID)

	md := goldmark.New()
	docNode := md.Parser().Parse(text.NewReader(src))

	type open struct{ idx, level int }
	var stack []open

	for n := docNode.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			continue
		}
		if h.Lines().Len() == 0 {
			continue // no source position to anchor a span on
		}
		start := lineStartBefore(raw, h.Lines().At(0).Start)
		title := string(h.Text(src))

		for len(stack) > 0 && stack[len(stack)-1].level >= h.Level {
			d.Nodes[stack[len(stack)-1].idx].Span.End = start
			stack = stack[:len(stack)-1]
		}
		parent := d.Root()
		if len(stack) > 0 {
			parent = stack[len(stack)-1].idx
		}
		idx := d.AddChild(parent, doctree.Node{
			Title: title,
			Span:  doctree.Span{Start: start, End: len(raw)},
		})
		stack = append(stack, open{idx: idx, level: h.Level})
	}

	return d, nil
}

// lineStartBefore walks back from off to the start of its line.
func lineStartBefore(s string, off int) int {
	if off > len(s) {
		off = len(s)
	}
	for off > 0 && s[off-1] != '\n' {
		off--
	}
	return off
}
