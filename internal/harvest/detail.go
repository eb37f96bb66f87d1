package harvest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractDetail parses one detail page and returns the standard values found
// in the description column's nested table. The column is located by a
// case-insensitive header match; pages without it fail with
// ErrStructureNotFound rather than returning an empty success.
//
// Within the nested table a row qualifies only when it has at least three
// cells and the middle cell's trimmed text is exactly "=". The first cell
// becomes the id and the third the description; anything else is skipped
// silently. Row order is preserved and duplicate ids are kept.
func ExtractDetail(markup []byte) ([]CodeEntry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse detail markup: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("detail page has no table: %w", ErrStructureNotFound)
	}

	rows := table.Find("tr")
	descIdx := descriptionColumn(rows.First())
	if descIdx < 0 {
		return nil, fmt.Errorf("detail page: %w", ErrStructureNotFound)
	}

	var entries []CodeEntry
	rows.Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() <= descIdx {
			return
		}
		nested := cells.Eq(descIdx).Find("table").First()
		if nested.Length() == 0 {
			return
		}
		nested.Find("tr").Each(func(_ int, valueRow *goquery.Selection) {
			if entry, ok := standardValue(valueRow); ok {
				entries = append(entries, entry)
			}
		})
	})
	return entries, nil
}

// descriptionColumn returns the index of the header cell labeled as the
// description column, or -1 when the header lacks one.
func descriptionColumn(header *goquery.Selection) int {
	idx := -1
	header.Find("th, td").Each(func(i int, cell *goquery.Selection) {
		if idx >= 0 {
			return
		}
		if strings.Contains(strings.ToLower(cell.Text()), "description") {
			idx = i
		}
	})
	return idx
}

// standardValue applies the row acceptance rule to one nested-table row.
func standardValue(row *goquery.Selection) (CodeEntry, bool) {
	cells := row.Find("td")
	if cells.Length() < 3 {
		return CodeEntry{}, false
	}
	if strings.TrimSpace(cells.Eq(1).Text()) != "=" {
		return CodeEntry{}, false
	}
	entry := CodeEntry{
		ID:          strings.TrimSpace(cells.Eq(0).Text()),
		Description: descriptionText(cells.Eq(2)),
	}
	if entry.ID == "" || entry.Description == "" {
		return CodeEntry{}, false
	}
	return entry, true
}

// descriptionText prefers the cell's first paragraph and falls back to the
// whole cell text.
func descriptionText(cell *goquery.Selection) string {
	if p := cell.Find("p").First(); p.Length() > 0 {
		return strings.TrimSpace(p.Text())
	}
	return strings.TrimSpace(cell.Text())
}
