package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"orgdex/internal/corpus"
)

func testCorpus(t *testing.T, sources []corpus.Source) *corpus.Corpus {
	t.Helper()
	b := &corpus.Builder{Log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	res, err := b.Build(context.Background(), sources)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return res.Corpus
}

func TestRun_ExactSubstringOutranksSubsequence(t *testing.T) {
	c := testCorpus(t, []corpus.Source{
		{ID: "scattered.org", Data: []byte("* Notes\ncan order rapid pulses under stress\n")},
		{ID: "literal.org", Data: []byte("* Notes\nrebuild the corpus nightly\n")},
	})

	results, err := Run(c, Query{Text: "corpus", Limit: 10})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].Doc != "literal.org" {
		t.Errorf("expected the literal occurrence first, got %s", results[0].Doc)
	}
	if !strings.Contains(results[0].Snippet, "corpus") {
		t.Errorf("snippet should contain the match, got %q", results[0].Snippet)
	}
}

func TestRun_TieBreaksOnCorpusOrder(t *testing.T) {
	c := testCorpus(t, []corpus.Source{
		{ID: "a.org", Data: []byte("* Projects\n** Q1\nShip it.\n")},
		{ID: "b.org", Data: []byte("* Projects\n** Q1\nShip it.\n")},
	})

	results, err := Run(c, Query{Text: "Q1", Limit: 1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly 1 result, got %d", len(results))
	}
	if results[0].Doc != "a.org" {
		t.Errorf("expected a.org to win the tie, got %s", results[0].Doc)
	}
	if want := []string{"Projects", "Q1"}; !reflect.DeepEqual(results[0].Path, want) {
		t.Errorf("path = %v, want %v", results[0].Path, want)
	}
}

func TestRun_Deterministic(t *testing.T) {
	c := testCorpus(t, []corpus.Source{
		{ID: "a.org", Data: []byte("* Alpha\nplan the plan\n* Beta\nplan again\n")},
		{ID: "b.org", Data: []byte("* Gamma\nplanning session\n")},
	})

	first, err := Run(c, Query{Text: "plan", Limit: 10})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for range 5 {
		again, err := Run(c, Query{Text: "plan", Limit: 10})
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("results differ across runs:\n%v\n%v", first, again)
		}
	}
}

func TestRun_BlankQuery(t *testing.T) {
	c := testCorpus(t, []corpus.Source{
		{ID: "a.org", Data: []byte("* Heading\ntext\n")},
	})
	for _, q := range []string{"", "   ", "\t\n"} {
		results, err := Run(c, Query{Text: q, Limit: 5})
		if err != nil {
			t.Errorf("query %q: unexpected error %v", q, err)
		}
		if len(results) != 0 {
			t.Errorf("query %q: expected no results, got %d", q, len(results))
		}
	}
}

func TestRun_InvalidLimit(t *testing.T) {
	c := testCorpus(t, []corpus.Source{
		{ID: "a.org", Data: []byte("* Heading\ntext\n")},
	})
	for _, limit := range []int{0, -1, -100} {
		_, err := Run(c, Query{Text: "heading", Limit: limit})
		if !errors.Is(err, ErrInvalidLimit) {
			t.Errorf("limit %d: expected ErrInvalidLimit, got %v", limit, err)
		}
	}
}

func TestRun_TagFilterWithInheritance(t *testing.T) {
	c := testCorpus(t, []corpus.Source{
		{ID: "a.org", Data: []byte("* Work :work:\n** Report\ndraft the report\n* Home\ndraft the shopping list\n")},
	})

	results, err := Run(c, Query{Text: "draft", Tags: []string{"work"}, Limit: 10})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, r := range results {
		last := r.Path[len(r.Path)-1]
		if last == "Home" {
			t.Errorf("untagged sibling leaked through the filter: %+v", r)
		}
	}
	var sawChild bool
	for _, r := range results {
		if len(r.Path) == 2 && r.Path[1] == "Report" {
			sawChild = true
		}
	}
	if !sawChild {
		t.Error("child of tagged heading should inherit the tag")
	}
}

func TestRun_EmptyTagFilterMatchesUnfiltered(t *testing.T) {
	c := testCorpus(t, []corpus.Source{
		{ID: "a.org", Data: []byte("* Work :work:\ndraft the report\n* Home\ndraft the list\n")},
		{ID: "b.org", Data: []byte("* Misc\nanother draft\n")},
	})

	unfiltered, err := Run(c, Query{Text: "draft", Tags: nil, Limit: 10})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	empty, err := Run(c, Query{Text: "draft", Tags: []string{}, Limit: 10})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !reflect.DeepEqual(unfiltered, empty) {
		t.Errorf("empty tag set should behave like no filter:\n%v\n%v", unfiltered, empty)
	}
}

func TestRun_TagFilterNoMatches(t *testing.T) {
	c := testCorpus(t, []corpus.Source{
		{ID: "a.org", Data: []byte("* Heading\ntext\n")},
	})
	results, err := Run(c, Query{Text: "text", Tags: []string{"nope"}, Limit: 10})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestRun_SnippetWindow(t *testing.T) {
	long := strings.Repeat("filler words here ", 40) + "needle in the middle " + strings.Repeat("more filler text ", 40)
	c := testCorpus(t, []corpus.Source{
		{ID: "a.org", Data: []byte("* Long\n" + long + "\n")},
	})

	results, err := Run(c, Query{Text: "needle", Limit: 1, SnippetSize: 60})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	s := results[0].Snippet
	if !strings.Contains(s, "needle") {
		t.Errorf("snippet does not contain the match: %q", s)
	}
	if !strings.HasPrefix(s, "...") || !strings.HasSuffix(s, "...") {
		t.Errorf("expected truncation markers on both sides: %q", s)
	}
	if len(s) > 60+8 {
		t.Errorf("snippet too long (%d bytes): %q", len(s), s)
	}
}

func TestRun_ShortTextReturnedWhole(t *testing.T) {
	c := testCorpus(t, []corpus.Source{
		{ID: "a.org", Data: []byte("* Tiny\nbit\n")},
	})
	results, err := Run(c, Query{Text: "bit", Limit: 1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if strings.Contains(results[0].Snippet, "...") {
		t.Errorf("short text should not be truncated: %q", results[0].Snippet)
	}
}

func TestSnippet_RuneBoundaries(t *testing.T) {
	text := strings.Repeat("é", 100)
	got := snippet(text, 100, 106, 20)
	if !strings.HasPrefix(got, "...") {
		t.Errorf("expected leading marker, got %q", got)
	}
	trimmed := strings.TrimPrefix(strings.TrimSuffix(got, "..."), "...")
	for _, r := range trimmed {
		if r != 'é' {
			t.Fatalf("snippet split a rune: %q", got)
		}
	}
}
