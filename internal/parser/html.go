package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"orgdex/internal/doctree"
)

// HTMLParser handles HTML files. The HTML DOM carries no byte offsets, so
// the document's Raw is the extracted plaintext and spans index into that.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, docID string) (*doctree.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	d := doctree.New(docID, "")
	d.Nodes[0].Title = baseTitle(docID)
	if title := findTitle(root); title != "" {
		d.Nodes[0].Title = title
	}

	type open struct{ idx, level int }
	var stack []open
	text := make(map[int]string)
	var currentText strings.Builder

	flushText := func() {
		t := strings.TrimSpace(currentText.String())
		if t != "" {
			top := d.Root()
			if len(stack) > 0 {
				top = stack[len(stack)-1].idx
			}
			if text[top] != "" {
				text[top] += "\n\n" + t
			} else {
				text[top] = t
			}
		}
		currentText.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			level := headingLevel(n.Data)
			if level > 0 {
				flushText()
				title := textContent(n)

				for len(stack) > 0 && stack[len(stack)-1].level >= level {
					stack = stack[:len(stack)-1]
				}
				parent := d.Root()
				if len(stack) > 0 {
					parent = stack[len(stack)-1].idx
				}
				idx := d.AddChild(parent, doctree.Node{Title: title})
				stack = append(stack, open{idx: idx, level: level})
				return // heading text already extracted
			}

			// Skip non-content elements.
			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "p", "li", "td", "blockquote", "pre":
				t := textContent(n)
				if t != "" {
					if currentText.Len() > 0 {
						currentText.WriteString("\n\n")
					}
					currentText.WriteString(t)
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	body := findBody(root)
	if body != nil {
		walk(body)
	} else {
		walk(root)
	}
	flushText()

	renderSpans(d, text)
	return d, nil
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
