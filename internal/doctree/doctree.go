// Package doctree holds the in-memory model for one parsed document: a flat
// arena of heading nodes linked by index. Keeping children as arena indices
// instead of pointers makes cross-document node references cheap to copy,
// comparable, and safe to hold after the owning corpus is rebuilt.
package doctree

import (
	"fmt"
	"strings"
)

// Span is a half-open byte range [Start, End) into Document.Raw.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Node is one heading, or the synthetic document root at index 0.
type Node struct {
	Level      int               // 0 for the root, display depth otherwise
	Title      string            //
	Children   []int             // arena indices, document order
	Properties map[string]string // keys lower-cased; at most one value per key
	Tags       []string          // own tags only
	Todo       string            // TODO keyword, "" when not a task
	Done       bool              // true when Todo is a finished keyword
	Priority   string            // "A".."C" style cookie, "" when absent
	Span       Span              // heading line through end of subtree
}

// PropertyID is the reserved property key carrying a node's global identifier.
const PropertyID = "id"

// ID returns the node's global identifier, or "" when it has none.
func (n *Node) ID() string {
	return n.Properties[PropertyID]
}

// Property looks up a property value by key, case-insensitively.
func (n *Node) Property(key string) (string, bool) {
	v, ok := n.Properties[strings.ToLower(key)]
	return v, ok
}

// SetProperty stores a property, lower-casing the key. Later writes of the
// same key (in any case) replace the earlier value.
func (n *Node) SetProperty(key, value string) {
	if n.Properties == nil {
		n.Properties = make(map[string]string)
	}
	n.Properties[strings.ToLower(key)] = value
}

// Document is one parsed source: its identifier, the raw text all node spans
// index into, and the node arena. The document exclusively owns its nodes.
type Document struct {
	ID    string
	Raw   string
	Nodes []Node
}

// Ref is a non-owning reference to a node in some document of a corpus.
type Ref struct {
	Doc  string `json:"doc"`
	Node int    `json:"node"`
}

// New creates a Document whose root node spans the whole raw text.
func New(id, raw string) *Document {
	return &Document{
		ID:  id,
		Raw: raw,
		Nodes: []Node{{
			Level: 0,
			Span:  Span{Start: 0, End: len(raw)},
		}},
	}
}

// Root returns the arena index of the synthetic root, which is always 0.
func (d *Document) Root() int { return 0 }

// AddChild appends a node under parent and returns its arena index. The
// child's level is normalized to parent level + 1 regardless of how deep the
// source nesting jumped.
func (d *Document) AddChild(parent int, n Node) int {
	n.Level = d.Nodes[parent].Level + 1
	idx := len(d.Nodes)
	d.Nodes = append(d.Nodes, n)
	d.Nodes[parent].Children = append(d.Nodes[parent].Children, idx)
	return idx
}

// Content materializes a node's raw text from its span.
func (d *Document) Content(i int) string {
	s := d.Nodes[i].Span
	if s.Start < 0 || s.End > len(d.Raw) || s.Start > s.End {
		return ""
	}
	return d.Raw[s.Start:s.End]
}

// Parents computes the parent arena index for every node. The arena stores
// no upward links, so this is derived on demand. The root's parent is -1.
func (d *Document) Parents() []int {
	parents := make([]int, len(d.Nodes))
	parents[0] = -1
	for i := range d.Nodes {
		for _, c := range d.Nodes[i].Children {
			parents[c] = i
		}
	}
	return parents
}

// PathTo reconstructs the heading path from the root to node i. The root
// itself has an empty path.
func (d *Document) PathTo(i int) []string {
	parents := d.Parents()
	var rev []string
	for at := i; at > 0; at = parents[at] {
		rev = append(rev, d.Nodes[at].Title)
	}
	path := make([]string, 0, len(rev))
	for j := len(rev) - 1; j >= 0; j-- {
		path = append(path, rev[j])
	}
	return path
}

// HeadingNotFoundError reports a path segment with no matching heading.
type HeadingNotFoundError struct {
	Doc     string
	Path    []string
	Segment int // index of the segment that failed to match
}

func (e *HeadingNotFoundError) Error() string {
	return fmt.Sprintf("doctree: heading %q not found in %s (no match for segment %q)",
		strings.Join(e.Path, "/"), e.Doc, e.Path[e.Segment])
}

// Resolve walks the tree from the root, selecting at each step the first
// direct child (in document order) whose title equals the segment exactly.
// It returns the arena index of the final node. Matching is case-sensitive
// and considers titles only.
func (d *Document) Resolve(segments []string) (int, error) {
	at := 0
	for si, seg := range segments {
		found := -1
		for _, c := range d.Nodes[at].Children {
			if d.Nodes[c].Title == seg {
				found = c
				break
			}
		}
		if found < 0 {
			return 0, &HeadingNotFoundError{Doc: d.ID, Path: segments, Segment: si}
		}
		at = found
	}
	return at, nil
}

// Walk visits every node reachable from the root in document order,
// calling fn with each arena index.
func (d *Document) Walk(fn func(i int)) {
	var visit func(i int)
	visit = func(i int) {
		fn(i)
		for _, c := range d.Nodes[i].Children {
			visit(c)
		}
	}
	visit(0)
}
