package parser

import (
	"io"

	"orgdex/internal/doctree"
)

// TextParser handles plain text files. Plain text has no heading structure,
// so the whole file is the root node's content.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, docID string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	d := doctree.New(docID, string(src))
	d.Nodes[0].Title = baseTitle(docID)
	return d, nil
}
