// Package query is the read-side façade over a built corpus. Every
// operation the service exposes validates its input first, then touches
// only the immutable corpus, so a Service is safe for concurrent use.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"orgdex/internal/corpus"
	"orgdex/internal/doctree"
	"orgdex/internal/search"
)

// NotFoundError reports a missing document, heading, or identifier.
type NotFoundError struct {
	Kind string // "document", "heading", "identifier"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("query: %s %q not found", e.Kind, e.Key)
}

// InvalidInputError reports a request that failed validation.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("query: invalid %s: %s", e.Field, e.Reason)
}

// Config carries the defaults applied when a request omits a value.
type Config struct {
	DefaultSearchLimit int
	DefaultSnippetSize int
}

// Service answers queries against one corpus build.
type Service struct {
	c        *corpus.Corpus
	skipped  []corpus.DocError
	warnings []corpus.DuplicateID
	cfg      Config
}

// NewService wraps a build result. Zero config fields fall back to a
// search limit of 10 and the engine's default snippet size.
func NewService(res *corpus.Result, cfg Config) *Service {
	if cfg.DefaultSearchLimit <= 0 {
		cfg.DefaultSearchLimit = 10
	}
	return &Service{
		c:        res.Corpus,
		skipped:  res.Skipped,
		warnings: res.Warnings,
		cfg:      cfg,
	}
}

// DocumentInfo is one corpus entry as reported by Documents.
type DocumentInfo struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Tags  []string `json:"tags,omitempty"`
}

// Documents lists the corpus in build order. With tags, only documents
// where at least one node carries one of the tags are listed; file-level
// tags live on the root node and qualify like any other.
func (s *Service) Documents(tags []string) []DocumentInfo {
	keep := func(string) bool { return true }
	if len(tags) > 0 {
		tagged := make(map[string]bool)
		for _, tag := range tags {
			for _, ref := range s.c.TagRefs(tag) {
				tagged[ref.Doc] = true
			}
		}
		keep = func(id string) bool { return tagged[id] }
	}

	out := make([]DocumentInfo, 0, s.c.Len())
	for _, d := range s.c.Documents() {
		if !keep(d.ID) {
			continue
		}
		root := d.Nodes[d.Root()]
		out = append(out, DocumentInfo{ID: d.ID, Title: root.Title, Tags: root.Tags})
	}
	return out
}

// Raw returns a document's full raw text.
func (s *Service) Raw(docID string) (string, error) {
	d, ok := s.c.Document(docID)
	if !ok {
		return "", &NotFoundError{Kind: "document", Key: docID}
	}
	return d.Raw, nil
}

// Outline is the structural skeleton of a document: titles, levels, and
// metadata, without any body text.
type Outline struct {
	Level      int        `json:"level"`
	Title      string     `json:"title"`
	Tags       []string   `json:"tags,omitempty"`
	Todo       string     `json:"todo,omitempty"`
	Priority   string     `json:"priority,omitempty"`
	Properties []string   `json:"properties,omitempty"` // keys only, sorted
	Children   []*Outline `json:"children,omitempty"`
}

// Outline returns the document's heading skeleton rooted at the
// synthetic level-0 node.
func (s *Service) Outline(docID string) (*Outline, error) {
	d, ok := s.c.Document(docID)
	if !ok {
		return nil, &NotFoundError{Kind: "document", Key: docID}
	}
	return buildOutline(d, d.Root()), nil
}

func buildOutline(d *doctree.Document, i int) *Outline {
	n := &d.Nodes[i]
	o := &Outline{
		Level:    n.Level,
		Title:    n.Title,
		Tags:     n.Tags,
		Todo:     n.Todo,
		Priority: n.Priority,
	}
	for key := range n.Properties {
		o.Properties = append(o.Properties, key)
	}
	sort.Strings(o.Properties)
	for _, c := range n.Children {
		o.Children = append(o.Children, buildOutline(d, c))
	}
	return o
}

// Heading resolves a '/'-separated heading path inside a document and
// returns that node's content. Each segment is percent-decoded before
// matching, so titles containing '/' remain addressable.
func (s *Service) Heading(docID, path string) (string, error) {
	d, ok := s.c.Document(docID)
	if !ok {
		return "", &NotFoundError{Kind: "document", Key: docID}
	}
	segments, err := splitHeadingPath(path)
	if err != nil {
		return "", err
	}
	idx, err := d.Resolve(segments)
	if err != nil {
		var hnf *doctree.HeadingNotFoundError
		if errors.As(err, &hnf) {
			return "", &NotFoundError{Kind: "heading", Key: path}
		}
		return "", err
	}
	return d.Content(idx), nil
}

func splitHeadingPath(path string) ([]string, error) {
	if path == "" {
		return nil, &InvalidInputError{Field: "path", Reason: "must not be empty"}
	}
	raw := strings.Split(path, "/")
	segments := make([]string, 0, len(raw))
	for _, seg := range raw {
		if seg == "" {
			return nil, &InvalidInputError{Field: "path", Reason: "empty segment"}
		}
		decoded, err := url.PathUnescape(seg)
		if err != nil {
			return nil, &InvalidInputError{Field: "path", Reason: fmt.Sprintf("bad escape in %q", seg)}
		}
		segments = append(segments, decoded)
	}
	return segments, nil
}

// Located is a node found through the identifier index.
type Located struct {
	Ref     doctree.Ref `json:"ref"`
	Path    []string    `json:"path"`
	Content string      `json:"content"`
}

// ByID resolves a global identifier to its node.
func (s *Service) ByID(id string) (*Located, error) {
	if id == "" {
		return nil, &InvalidInputError{Field: "id", Reason: "must not be empty"}
	}
	ref, ok := s.c.ResolveID(id)
	if !ok {
		return nil, &NotFoundError{Kind: "identifier", Key: id}
	}
	d, _ := s.c.Document(ref.Doc)
	return &Located{
		Ref:     ref,
		Path:    d.PathTo(ref.Node),
		Content: d.Content(ref.Node),
	}, nil
}

// Search runs a ranked query. A zero limit takes the configured default;
// a negative limit is rejected by the engine.
func (s *Service) Search(q search.Query) ([]search.Result, error) {
	if q.Limit == 0 {
		q.Limit = s.cfg.DefaultSearchLimit
	}
	if q.SnippetSize == 0 {
		q.SnippetSize = s.cfg.DefaultSnippetSize
	}
	return search.Run(s.c, q)
}

// Warnings returns the duplicate-identifier warnings from the build.
func (s *Service) Warnings() []corpus.DuplicateID {
	return s.warnings
}

// Skipped returns the documents the build could not parse.
func (s *Service) Skipped() []corpus.DocError {
	return s.skipped
}

// DocumentCount reports the number of documents in the corpus.
func (s *Service) DocumentCount() int {
	return s.c.Len()
}
