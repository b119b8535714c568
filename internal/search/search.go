// Package search ranks corpus nodes against a free-text query. An exact
// substring occurrence always outranks a scattered character subsequence,
// and ties break on corpus position so repeated queries over an unchanged
// corpus return identical result lists.
package search

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"

	"orgdex/internal/corpus"
	"orgdex/internal/doctree"
)

// DefaultSnippetSize is the snippet window in bytes when the query
// does not set one.
const DefaultSnippetSize = 100

// maxCandidate caps the text scored per node. Spans can cover an entire
// document, and scoring megabytes per node would dominate query time.
const maxCandidate = 2048

// exactScoreBase lifts exact-substring hits above any possible subsequence
// score. Subtracting the match offset ranks earlier occurrences higher.
const exactScoreBase = 1 << 20

// ErrInvalidLimit is returned when a query's limit is zero or negative.
var ErrInvalidLimit = errors.New("search: limit must be positive")

// Query is one search request.
type Query struct {
	Text        string
	Tags        []string // nodes must carry or inherit at least one
	Limit       int      // must be > 0
	SnippetSize int      // 0 means DefaultSnippetSize
}

// Result is one ranked hit.
type Result struct {
	Doc     string   `json:"doc"`
	Node    int      `json:"node"`
	Path    []string `json:"path"`
	Score   int      `json:"score"`
	Snippet string   `json:"snippet"`
}

type candidate struct {
	ref   doctree.Ref
	order int // document position in the corpus
	text  string
}

// Run executes the query against the corpus. A blank (empty or
// whitespace-only) query matches nothing and is not an error.
func Run(c *corpus.Corpus, q Query) ([]Result, error) {
	if q.Limit <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLimit, q.Limit)
	}
	if strings.TrimSpace(q.Text) == "" {
		return nil, nil
	}
	snippetSize := q.SnippetSize
	if snippetSize <= 0 {
		snippetSize = DefaultSnippetSize
	}

	cands := collect(c, q.Tags)
	if len(cands) == 0 {
		return nil, nil
	}

	data := make([]string, len(cands))
	for i, cand := range cands {
		data[i] = cand.text
	}

	type scored struct {
		cand  candidate
		score int
		start int // match span in cand.text
		end   int
	}
	lowerQuery := strings.ToLower(q.Text)
	var hits []scored
	for _, m := range fuzzy.Find(q.Text, data) {
		s := scored{cand: cands[m.Index], score: m.Score}
		if len(m.MatchedIndexes) > 0 {
			s.start = m.MatchedIndexes[0]
			s.end = m.MatchedIndexes[len(m.MatchedIndexes)-1] + 1
		}
		if at := strings.Index(strings.ToLower(s.cand.text), lowerQuery); at >= 0 {
			s.score = exactScoreBase - at
			s.start = at
			s.end = at + len(lowerQuery)
		}
		hits = append(hits, s)
	}

	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].score != hits[b].score {
			return hits[a].score > hits[b].score
		}
		if hits[a].cand.order != hits[b].cand.order {
			return hits[a].cand.order < hits[b].cand.order
		}
		return hits[a].cand.ref.Node < hits[b].cand.ref.Node
	})

	if len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		d, _ := c.Document(h.cand.ref.Doc)
		results = append(results, Result{
			Doc:     h.cand.ref.Doc,
			Node:    h.cand.ref.Node,
			Path:    d.PathTo(h.cand.ref.Node),
			Score:   h.score,
			Snippet: snippet(h.cand.text, h.start, h.end, snippetSize),
		})
	}
	return results, nil
}

// collect walks every document and gathers the nodes eligible for scoring.
// With a tag filter, a node qualifies when it or any ancestor carries one
// of the filter tags; file-level tags on the root therefore admit the
// whole document.
func collect(c *corpus.Corpus, tags []string) []candidate {
	var out []candidate
	for pos, d := range c.Documents() {
		var visit func(i int, inherited bool)
		visit = func(i int, inherited bool) {
			ok := inherited || hasAny(d.Nodes[i].Tags, tags)
			if ok {
				out = append(out, candidate{
					ref:   doctree.Ref{Doc: d.ID, Node: i},
					order: pos,
					text:  candidateText(d, i),
				})
			}
			for _, child := range d.Nodes[i].Children {
				visit(child, ok)
			}
		}
		visit(d.Root(), len(tags) == 0)
	}
	return out
}

func hasAny(own, wanted []string) bool {
	for _, w := range wanted {
		for _, t := range own {
			if t == w {
				return true
			}
		}
	}
	return false
}

// candidateText is the node's title plus span content, capped at
// maxCandidate bytes on a rune boundary.
func candidateText(d *doctree.Document, i int) string {
	text := d.Nodes[i].Title + "\n" + d.Content(i)
	if len(text) <= maxCandidate {
		return text
	}
	cut := maxCandidate
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// snippet returns a window of roughly size bytes centered on the match
// span, widened to rune boundaries, with "..." marking truncated edges.
func snippet(text string, start, end, size int) string {
	if len(text) <= size {
		return text
	}
	pad := (size - (end - start)) / 2
	if pad < 0 {
		pad = 0
	}
	from := start - pad
	if from < 0 {
		from = 0
	}
	to := from + size
	if to > len(text) {
		to = len(text)
		from = to - size
		if from < 0 {
			from = 0
		}
	}
	for from > 0 && !utf8.RuneStart(text[from]) {
		from--
	}
	for to < len(text) && !utf8.RuneStart(text[to]) {
		to++
	}

	out := text[from:to]
	if from > 0 {
		out = "..." + out
	}
	if to < len(text) {
		out += "..."
	}
	return out
}
