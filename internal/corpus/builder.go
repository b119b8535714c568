package corpus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"orgdex/internal/doctree"
	"orgdex/internal/parser"
)

// ErrNoDocuments is returned when Build is called with no sources at all.
var ErrNoDocuments = errors.New("corpus: no documents provided")

// Source is one raw document handed to the builder. The builder performs no
// I/O itself; enumeration and loading are the caller's concern.
type Source struct {
	ID   string
	Data []byte
}

// DocError records a per-document failure that did not abort the build.
type DocError struct {
	Doc string `json:"doc"`
	Err error  `json:"-"`
}

func (e DocError) Error() string {
	return fmt.Sprintf("corpus: document %s skipped: %v", e.Doc, e.Err)
}

// DuplicateID is a non-fatal warning: the identifier was already claimed by
// an earlier node (in input order), which stays in the index.
type DuplicateID struct {
	ID      string      `json:"id"`
	Kept    doctree.Ref `json:"kept"`
	Dropped doctree.Ref `json:"dropped"`
}

// Result is the outcome of a corpus build. Skipped and Warnings let callers
// distinguish "built with N documents, M skipped" from a failed build.
type Result struct {
	Corpus   *Corpus
	Skipped  []DocError
	Warnings []DuplicateID
}

// Builder parses raw sources and assembles the corpus indices.
type Builder struct {
	Options parser.Options
	Workers int // parse concurrency, default 4
	Log     *slog.Logger
}

// Build parses every source (per-document failures are collected, not
// fatal) and constructs the identifier and tag indices over the surviving
// documents. The build fails as a whole only when there are no sources or
// when every document failed to parse.
func (b *Builder) Build(ctx context.Context, sources []Source) (*Result, error) {
	if len(sources) == 0 {
		return nil, ErrNoDocuments
	}
	log := b.Log
	if log == nil {
		log = slog.Default()
	}
	workers := b.Workers
	if workers <= 0 {
		workers = 4
	}

	// Parse with bounded concurrency; slots keep input order.
	docs := make([]*doctree.Document, len(sources))
	parseErrs := make([]error, len(sources))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			defer func() { <-sem }()
			p, err := parser.ForFile(src.ID, b.Options)
			if err != nil {
				parseErrs[i] = err
				return
			}
			d, err := p.Parse(bytes.NewReader(src.Data), src.ID)
			if err != nil {
				parseErrs[i] = err
				return
			}
			docs[i] = d
		}(i, src)
	}
	wg.Wait()

	c := &Corpus{
		byDoc: make(map[string]int),
		ids:   make(map[string]doctree.Ref),
		tags:  make(map[string][]doctree.Ref),
	}
	res := &Result{Corpus: c}

	for i, src := range sources {
		if parseErrs[i] != nil {
			log.Warn("document skipped", "doc", src.ID, "error", parseErrs[i])
			res.Skipped = append(res.Skipped, DocError{Doc: src.ID, Err: parseErrs[i]})
			continue
		}
		if _, dup := c.byDoc[src.ID]; dup {
			err := fmt.Errorf("duplicate document id")
			log.Warn("document skipped", "doc", src.ID, "error", err)
			res.Skipped = append(res.Skipped, DocError{Doc: src.ID, Err: err})
			continue
		}
		c.byDoc[src.ID] = len(c.docs)
		c.docs = append(c.docs, docs[i])
	}

	if len(c.docs) == 0 {
		return nil, fmt.Errorf("corpus: all %d documents failed to parse (first: %w)",
			len(sources), res.Skipped[0].Err)
	}

	for _, d := range c.docs {
		b.indexDocument(c, d, res, log)
	}

	log.Info("corpus built",
		"documents", len(c.docs),
		"skipped", len(res.Skipped),
		"identifiers", len(c.ids),
		"duplicate_ids", len(res.Warnings),
	)
	return res, nil
}

// indexDocument adds one document's identifiers and tags to the indices.
// Nodes are visited in document order so the first occurrence of a
// duplicate identifier wins deterministically.
func (b *Builder) indexDocument(c *Corpus, d *doctree.Document, res *Result, log *slog.Logger) {
	d.Walk(func(i int) {
		n := &d.Nodes[i]
		ref := doctree.Ref{Doc: d.ID, Node: i}

		if id := n.ID(); id != "" {
			if kept, exists := c.ids[id]; exists {
				log.Warn("duplicate identifier",
					"id", id, "kept", kept.Doc, "dropped", d.ID)
				res.Warnings = append(res.Warnings, DuplicateID{ID: id, Kept: kept, Dropped: ref})
			} else {
				c.ids[id] = ref
			}
		}

		for _, tag := range n.Tags {
			c.tags[tag] = append(c.tags[tag], ref)
		}
	})
}
