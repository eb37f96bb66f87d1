package harvest

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// ExtractIndex parses the index page into the ordered category list. Entry
// order matches the source table and becomes the canonical order of the final
// document. Rows missing a usable name or detail link are skipped; a page
// without any table fails the whole extraction.
func ExtractIndex(markup []byte, base *url.URL, logger *zap.Logger) ([]IndexEntry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse index markup: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("index page has no table: %w", ErrStructureNotFound)
	}

	rows := table.Find("tr")
	start := 0
	if rows.First().Find("th, td").Length() > 0 {
		// First populated row is the header.
		start = 1
	}

	var entries []IndexEntry
	rows.Each(func(i int, row *goquery.Selection) {
		if i < start {
			return
		}
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}

		name := trimmedText(cells.Eq(1))
		if name == "" {
			logger.Debug("skipping unnamed index row", zap.Int("row", i))
			return
		}

		href, ok := cells.Eq(0).Find("a").First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			logger.Warn("no detail link for category, skipping", zap.String("name", name))
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			logger.Warn("unresolvable detail link, skipping",
				zap.String("name", name), zap.String("href", href), zap.Error(err))
			return
		}

		entry := IndexEntry{
			Name:    name,
			Locator: Locator(base.ResolveReference(ref).String()),
			TagID:   trimmedText(cells.Eq(0)),
		}
		if cells.Length() > 4 {
			entry.Datatype = trimmedText(cells.Eq(4))
		}
		if cells.Length() > 6 {
			entry.Description = trimmedText(cells.Eq(6))
		}
		entries = append(entries, entry)
	})
	return entries, nil
}

func trimmedText(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}
