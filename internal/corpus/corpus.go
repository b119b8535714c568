// Package corpus aggregates parsed documents into a queryable corpus with
// derived identifier and tag indices. A Corpus is read-only after Build;
// rebuilding produces a fresh value that can be swapped in atomically while
// in-flight queries keep using the old one.
package corpus

import (
	"orgdex/internal/doctree"
)

// Corpus is an ordered set of documents plus derived indices.
type Corpus struct {
	docs  []*doctree.Document
	byDoc map[string]int           // document id -> position in docs
	ids   map[string]doctree.Ref   // global identifier -> node
	tags  map[string][]doctree.Ref // tag -> nodes carrying it (own tags only)
}

// Documents returns all documents in input order.
func (c *Corpus) Documents() []*doctree.Document {
	return c.docs
}

// Document looks up a document by id.
func (c *Corpus) Document(id string) (*doctree.Document, bool) {
	pos, ok := c.byDoc[id]
	if !ok {
		return nil, false
	}
	return c.docs[pos], true
}

// ResolveID resolves a global identifier to its node. Amortized O(1).
func (c *Corpus) ResolveID(id string) (doctree.Ref, bool) {
	ref, ok := c.ids[id]
	return ref, ok
}

// TagRefs returns the nodes carrying the given tag, in corpus order.
// Ancestor tag inheritance is a query-time concern and not reflected here.
func (c *Corpus) TagRefs(tag string) []doctree.Ref {
	return c.tags[tag]
}

// Len returns the number of documents.
func (c *Corpus) Len() int {
	return len(c.docs)
}
