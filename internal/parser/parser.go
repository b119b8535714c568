package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"orgdex/internal/doctree"
)

// Parser converts one raw document source into a doctree.Document.
type Parser interface {
	Parse(r io.Reader, docID string) (*doctree.Document, error)
}

// Options carries the parse settings that apply corpus-wide.
type Options struct {
	// Strict makes structural recovery a hard error instead of falling back
	// to treating the malformed region as plain content.
	Strict bool
	// TodoKeywords and DoneKeywords are the unfinished/finished task
	// keywords recognized on org headings. Empty means the defaults
	// (TODO / DONE).
	TodoKeywords []string
	DoneKeywords []string
	// PDFFallback shells out to pdftotext when the native PDF reader
	// extracts nothing.
	PDFFallback bool
}

// SupportedExtensions lists file extensions the corpus can index.
var SupportedExtensions = map[string]bool{
	".org":      true,
	".md":       true,
	".markdown": true,
	".txt":      true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a document identifier.
func ForFile(docID string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(docID))
	switch ext {
	case ".org":
		return &OrgParser{
			Strict:       opts.Strict,
			TodoKeywords: opts.TodoKeywords,
			DoneKeywords: opts.DoneKeywords,
		}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".txt":
		return &TextParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallback}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a document identifier names a supported format.
func IsSupportedExtension(docID string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(docID))]
}

// MalformedError reports a structural parse failure in strict mode.
type MalformedError struct {
	Doc    string
	Line   int // 1-based line number of the offending region
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("parser: malformed structure in %s at line %d: %s", e.Doc, e.Line, e.Reason)
}

// baseTitle derives a fallback document title from its identifier.
func baseTitle(docID string) string {
	base := filepath.Base(docID)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// renderSpans fills Raw and the node spans for documents whose source format
// carries no usable byte offsets (html, pdf, docx, csv). Titles and per-node
// text are rendered into a plaintext buffer and the spans index into that.
func renderSpans(d *doctree.Document, text map[int]string) {
	var buf strings.Builder
	var render func(i int)
	render = func(i int) {
		d.Nodes[i].Span.Start = buf.Len()
		if i != d.Root() && d.Nodes[i].Title != "" {
			buf.WriteString(d.Nodes[i].Title)
			buf.WriteString("\n")
		}
		if t := text[i]; t != "" {
			buf.WriteString(t)
			if !strings.HasSuffix(t, "\n") {
				buf.WriteString("\n")
			}
		}
		for _, c := range d.Nodes[i].Children {
			render(c)
		}
		d.Nodes[i].Span.End = buf.Len()
	}
	render(d.Root())
	d.Raw = buf.String()
}
