package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"orgdex/internal/doctree"
)

// CSVParser handles CSV files. Rows are grouped into batches under synthetic
// headings so large tables stay searchable without one giant candidate.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, docID string) (*doctree.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	d := doctree.New(docID, "")
	d.Nodes[0].Title = baseTitle(docID)

	if len(records) == 0 {
		renderSpans(d, nil)
		return d, nil
	}

	headers := records[0]
	dataRows := records[1:]
	text := make(map[int]string)

	const batchSize = 20
	for i := 0; i < len(dataRows); i += batchSize {
		end := i + batchSize
		if end > len(dataRows) {
			end = len(dataRows)
		}
		batch := dataRows[i:end]

		var sb strings.Builder
		sb.WriteString("Headers: " + strings.Join(headers, ", ") + "\n\n")
		for _, row := range batch {
			for j, cell := range row {
				if j < len(headers) {
					sb.WriteString(headers[j] + ": " + cell)
				} else {
					sb.WriteString(cell)
				}
				if j < len(row)-1 {
					sb.WriteString(", ")
				}
			}
			sb.WriteString("\n")
		}

		// 1-indexed source rows, skipping the header line.
		idx := d.AddChild(d.Root(), doctree.Node{
			Title: fmt.Sprintf("Rows %d-%d", i+2, end+1),
		})
		text[idx] = sb.String()
	}

	renderSpans(d, text)
	return d, nil
}
