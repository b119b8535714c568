package parser

import (
	"io"
	"strings"

	"orgdex/internal/doctree"
)

// OrgParser parses org-mode text into a heading tree with exact byte spans.
// Headings carry TODO keywords, priority cookies, trailing tag runs, and an
// optional :PROPERTIES: drawer. Malformed regions (an unclosed drawer, a
// stray line inside one) are recovered as plain content of the enclosing
// node unless Strict is set, in which case they fail the parse.
type OrgParser struct {
	Strict       bool
	TodoKeywords []string // unfinished task keywords, default TODO
	DoneKeywords []string // finished task keywords, default DONE
}

// line is one source line with the byte offset of its start.
type line struct {
	text  string
	start int
}

func (p *OrgParser) Parse(r io.Reader, docID string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw := string(src)
	doc := doctree.New(docID, raw)
	doc.Nodes[0].Title = baseTitle(docID)

	todoKw := p.TodoKeywords
	if len(todoKw) == 0 {
		todoKw = []string{"TODO"}
	}
	doneKw := p.DoneKeywords
	if len(doneKw) == 0 {
		doneKw = []string{"DONE"}
	}

	lines := splitLines(raw)

	i := 0
	// A property drawer at the very top belongs to the document root, so a
	// file-level :ID: is addressable like any heading's.
	props, ni, ok, err := p.drawer(docID, lines, 0)
	if err != nil {
		return nil, err
	}
	if ok {
		for k, v := range props {
			doc.Nodes[0].SetProperty(k, v)
		}
		i = ni
	}

	// stack tracks open headings by source star count; arena levels are
	// normalized by AddChild.
	type open struct{ idx, stars int }
	var stack []open
	sawHeading := false

	for i < len(lines) {
		ln := lines[i]
		stars, rest, isHeading := headingLine(ln.text)
		if !isHeading {
			if !sawHeading {
				if t, ok := keywordLine(ln.text, "TITLE"); ok {
					doc.Nodes[0].Title = t
				} else if t, ok := keywordLine(ln.text, "FILETAGS"); ok {
					doc.Nodes[0].Tags = parseFiletags(t)
				}
			}
			i++
			continue
		}

		sawHeading = true
		for len(stack) > 0 && stack[len(stack)-1].stars >= stars {
			doc.Nodes[stack[len(stack)-1].idx].Span.End = ln.start
			stack = stack[:len(stack)-1]
		}
		parent := doc.Root()
		if len(stack) > 0 {
			parent = stack[len(stack)-1].idx
		}

		n := parseHeadline(rest, todoKw, doneKw)
		n.Span = doctree.Span{Start: ln.start, End: len(raw)}
		idx := doc.AddChild(parent, n)
		stack = append(stack, open{idx: idx, stars: stars})
		i++

		props, ni, ok, err := p.drawer(docID, lines, i)
		if err != nil {
			return nil, err
		}
		if ok {
			for k, v := range props {
				doc.Nodes[idx].SetProperty(k, v)
			}
			i = ni
		}
	}

	return doc, nil
}

// drawer parses a :PROPERTIES: drawer starting at lines[i], skipping leading
// blank lines. It returns the properties, the index of the line after :END:,
// and whether a drawer was consumed. A malformed drawer is an error in
// strict mode; otherwise consumed is false and the lines fall through as
// plain content.
func (p *OrgParser) drawer(docID string, lines []line, i int) (map[string]string, int, bool, error) {
	j := i
	for j < len(lines) && strings.TrimSpace(lines[j].text) == "" {
		j++
	}
	if j >= len(lines) || !strings.EqualFold(strings.TrimSpace(lines[j].text), ":PROPERTIES:") {
		return nil, i, false, nil
	}
	startLine := j
	props := make(map[string]string)
	for j++; j < len(lines); j++ {
		t := strings.TrimSpace(lines[j].text)
		if strings.EqualFold(t, ":END:") {
			return props, j + 1, true, nil
		}
		if t == "" {
			continue
		}
		key, val, ok := propertyLine(t)
		if !ok {
			if p.Strict {
				return nil, i, false, &MalformedError{Doc: docID, Line: j + 1, Reason: "unexpected line in property drawer"}
			}
			return nil, i, false, nil
		}
		props[strings.ToLower(key)] = val
	}
	if p.Strict {
		return nil, i, false, &MalformedError{Doc: docID, Line: startLine + 1, Reason: "property drawer never closed"}
	}
	return nil, i, false, nil
}

// splitLines breaks raw text into lines with their start offsets. Trailing
// \r is stripped from the text but offsets stay byte-exact.
func splitLines(raw string) []line {
	var lines []line
	start := 0
	for start < len(raw) {
		nl := strings.IndexByte(raw[start:], '\n')
		if nl < 0 {
			lines = append(lines, line{text: strings.TrimSuffix(raw[start:], "\r"), start: start})
			break
		}
		lines = append(lines, line{text: strings.TrimSuffix(raw[start:start+nl], "\r"), start: start})
		start += nl + 1
	}
	return lines
}

// headingLine reports whether s is a heading: one or more stars followed by
// a space. Returns the star count and the remainder after the space.
func headingLine(s string) (int, string, bool) {
	n := 0
	for n < len(s) && s[n] == '*' {
		n++
	}
	if n == 0 || n >= len(s) || s[n] != ' ' {
		return 0, "", false
	}
	return n, s[n+1:], true
}

// parseHeadline splits the text after the stars into TODO keyword, priority
// cookie, title, and trailing tag run.
func parseHeadline(rest string, todoKw, doneKw []string) doctree.Node {
	var n doctree.Node
	s := strings.TrimSpace(rest)

	if fields := strings.Fields(s); len(fields) > 0 {
		if tags := parseTagString(fields[len(fields)-1]); tags != nil {
			n.Tags = tags
			s = strings.TrimSpace(strings.TrimSuffix(s, fields[len(fields)-1]))
		}
	}

	if kw, remainder, ok := leadingKeyword(s, todoKw); ok {
		n.Todo = kw
		s = remainder
	} else if kw, remainder, ok := leadingKeyword(s, doneKw); ok {
		n.Todo = kw
		n.Done = true
		s = remainder
	}

	if strings.HasPrefix(s, "[#") && len(s) >= 4 && s[3] == ']' {
		n.Priority = s[2:3]
		s = strings.TrimSpace(s[4:])
	}

	n.Title = s
	return n
}

// leadingKeyword matches a keyword from the set at the start of s, followed
// by a space or end of line. Keywords are case-sensitive, as in org.
func leadingKeyword(s string, keywords []string) (string, string, bool) {
	for _, kw := range keywords {
		if s == kw {
			return kw, "", true
		}
		if strings.HasPrefix(s, kw+" ") {
			return kw, strings.TrimSpace(s[len(kw)+1:]), true
		}
	}
	return "", "", false
}

// propertyLine parses a drawer line of the form :KEY: value.
func propertyLine(t string) (key, value string, ok bool) {
	if !strings.HasPrefix(t, ":") {
		return "", "", false
	}
	rest := t[1:]
	ci := strings.IndexByte(rest, ':')
	if ci <= 0 {
		return "", "", false
	}
	key = rest[:ci]
	if strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	return key, strings.TrimSpace(rest[ci+1:]), true
}

// parseTagString parses an org tag run like :work:urgent: into its tags.
// Returns nil when s is not a well-formed tag run.
func parseTagString(s string) []string {
	if len(s) < 3 || s[0] != ':' || s[len(s)-1] != ':' {
		return nil
	}
	parts := strings.Split(s[1:len(s)-1], ":")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" || !validTag(p) {
			return nil
		}
		tags = append(tags, p)
	}
	return tags
}

func validTag(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '@', r == '#', r == '%':
		default:
			return false
		}
	}
	return true
}

// keywordLine matches a file-level keyword like #+TITLE: and returns its value.
func keywordLine(s, key string) (string, bool) {
	t := strings.TrimSpace(s)
	prefix := "#+" + key + ":"
	if len(t) >= len(prefix) && strings.EqualFold(t[:len(prefix)], prefix) {
		return strings.TrimSpace(t[len(prefix):]), true
	}
	return "", false
}

// parseFiletags accepts both the :a:b: run form and a space-separated list.
func parseFiletags(v string) []string {
	if tags := parseTagString(v); tags != nil {
		return tags
	}
	return strings.Fields(v)
}
