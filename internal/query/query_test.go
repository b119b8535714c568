package query

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"orgdex/internal/corpus"
	"orgdex/internal/search"
)

func testService(t *testing.T, sources []corpus.Source) *Service {
	t.Helper()
	b := &corpus.Builder{Log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	res, err := b.Build(context.Background(), sources)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return NewService(res, Config{})
}

func fixtureService(t *testing.T) *Service {
	t.Helper()
	return testService(t, []corpus.Source{
		{ID: "work.org", Data: []byte(`#+TITLE: Work
#+FILETAGS: :work:
* Projects
** TODO [#A] Ship indexer :dev:
:PROPERTIES:
:ID: ship-1
:END:
Finish the ranking pass.
** DONE Write docs
All done.
* Admin
Expense reports.
`)},
		{ID: "home.org", Data: []byte(`* Chores
** TODO Mow lawn :garden:
Before Saturday.
`)},
	})
}

func TestDocuments_ListAndTagFilter(t *testing.T) {
	s := fixtureService(t)

	all := s.Documents(nil)
	if len(all) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(all))
	}
	if all[0].ID != "work.org" || all[1].ID != "home.org" {
		t.Errorf("order = %s, %s", all[0].ID, all[1].ID)
	}
	if all[0].Title != "Work" {
		t.Errorf("title = %q", all[0].Title)
	}

	dev := s.Documents([]string{"dev"})
	if len(dev) != 1 || dev[0].ID != "work.org" {
		t.Errorf("tag filter dev: %+v", dev)
	}

	work := s.Documents([]string{"work"})
	if len(work) != 1 || work[0].ID != "work.org" {
		t.Errorf("file-level tag should qualify the document: %+v", work)
	}

	if none := s.Documents([]string{"nope"}); len(none) != 0 {
		t.Errorf("expected empty list, got %+v", none)
	}
}

func TestRaw(t *testing.T) {
	s := fixtureService(t)
	raw, err := s.Raw("home.org")
	if err != nil {
		t.Fatalf("raw: %v", err)
	}
	if !strings.HasPrefix(raw, "* Chores\n") {
		t.Errorf("raw = %q", raw)
	}

	_, err = s.Raw("missing.org")
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "document" {
		t.Errorf("expected document NotFoundError, got %v", err)
	}
}

func TestOutline(t *testing.T) {
	s := fixtureService(t)
	o, err := s.Outline("work.org")
	if err != nil {
		t.Fatalf("outline: %v", err)
	}
	if o.Level != 0 || o.Title != "Work" {
		t.Errorf("root = %+v", o)
	}
	if len(o.Children) != 2 {
		t.Fatalf("expected 2 top-level headings, got %d", len(o.Children))
	}
	projects := o.Children[0]
	if projects.Title != "Projects" || len(projects.Children) != 2 {
		t.Fatalf("projects = %+v", projects)
	}
	ship := projects.Children[0]
	if ship.Todo != "TODO" || ship.Priority != "A" {
		t.Errorf("task metadata missing: %+v", ship)
	}
	if !reflect.DeepEqual(ship.Properties, []string{"id"}) {
		t.Errorf("property keys = %v", ship.Properties)
	}
	if strings.Contains(ship.Title, "Finish the ranking") {
		t.Error("outline must not carry body text")
	}
}

func TestHeading(t *testing.T) {
	s := fixtureService(t)

	content, err := s.Heading("work.org", "Projects/Ship indexer")
	if err != nil {
		t.Fatalf("heading: %v", err)
	}
	if !strings.Contains(content, "Finish the ranking pass.") {
		t.Errorf("content = %q", content)
	}

	_, err = s.Heading("work.org", "Projects/Nope")
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "heading" {
		t.Errorf("expected heading NotFoundError, got %v", err)
	}

	var inv *InvalidInputError
	for _, path := range []string{"", "Projects//Ship indexer", "/Projects"} {
		_, err := s.Heading("work.org", path)
		if !errors.As(err, &inv) {
			t.Errorf("path %q: expected InvalidInputError, got %v", path, err)
		}
	}
}

func TestHeading_PercentDecoding(t *testing.T) {
	s := testService(t, []corpus.Source{
		{ID: "n.org", Data: []byte("* Either/Or\nthe book\n")},
	})
	content, err := s.Heading("n.org", "Either%2FOr")
	if err != nil {
		t.Fatalf("heading: %v", err)
	}
	if !strings.Contains(content, "the book") {
		t.Errorf("content = %q", content)
	}
}

func TestByID(t *testing.T) {
	s := fixtureService(t)

	loc, err := s.ByID("ship-1")
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if loc.Ref.Doc != "work.org" {
		t.Errorf("ref = %+v", loc.Ref)
	}
	if want := []string{"Projects", "Ship indexer"}; !reflect.DeepEqual(loc.Path, want) {
		t.Errorf("path = %v", loc.Path)
	}
	if !strings.Contains(loc.Content, "Finish the ranking pass.") {
		t.Errorf("content = %q", loc.Content)
	}

	_, err = s.ByID("ghost")
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "identifier" {
		t.Errorf("expected identifier NotFoundError, got %v", err)
	}

	var inv *InvalidInputError
	if _, err := s.ByID(""); !errors.As(err, &inv) {
		t.Errorf("expected InvalidInputError, got %v", err)
	}
}

func TestSearch_DefaultsApplied(t *testing.T) {
	s := fixtureService(t)

	results, err := s.Search(search.Query{Text: "ranking"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results with defaulted limit")
	}

	if _, err := s.Search(search.Query{Text: "ranking", Limit: -1}); !errors.Is(err, search.ErrInvalidLimit) {
		t.Errorf("negative limit should stay an error, got %v", err)
	}
}

func TestTasks(t *testing.T) {
	s := fixtureService(t)

	open := s.Tasks(TaskFilter{})
	if len(open) != 2 {
		t.Fatalf("expected 2 unfinished tasks, got %+v", open)
	}
	if open[0].Title != "Ship indexer" || open[1].Title != "Mow lawn" {
		t.Errorf("order = %q, %q", open[0].Title, open[1].Title)
	}

	done := s.Tasks(TaskFilter{States: []string{"DONE"}})
	if len(done) != 1 || done[0].Title != "Write docs" {
		t.Errorf("done filter: %+v", done)
	}

	garden := s.Tasks(TaskFilter{Tags: []string{"garden"}})
	if len(garden) != 1 || garden[0].Doc != "home.org" {
		t.Errorf("tag filter: %+v", garden)
	}

	prioA := s.Tasks(TaskFilter{Priority: "A"})
	if len(prioA) != 1 || prioA[0].Title != "Ship indexer" {
		t.Errorf("priority filter: %+v", prioA)
	}

	limited := s.Tasks(TaskFilter{Limit: 1})
	if len(limited) != 1 || limited[0].Title != "Ship indexer" {
		t.Errorf("limit: %+v", limited)
	}
}

func TestWarningsAndCount(t *testing.T) {
	s := testService(t, []corpus.Source{
		{ID: "a.org", Data: []byte("* A\n:PROPERTIES:\n:ID: x\n:END:\n")},
		{ID: "b.org", Data: []byte("* B\n:PROPERTIES:\n:ID: x\n:END:\n")},
	})
	if s.DocumentCount() != 2 {
		t.Errorf("count = %d", s.DocumentCount())
	}
	if len(s.Warnings()) != 1 || s.Warnings()[0].ID != "x" {
		t.Errorf("warnings = %+v", s.Warnings())
	}
	if len(s.Skipped()) != 0 {
		t.Errorf("skipped = %+v", s.Skipped())
	}
}
