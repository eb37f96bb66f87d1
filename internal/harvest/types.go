package harvest

import (
	"time"

	"github.com/google/uuid"
)

// Locator is the resolved address of one fetchable page.
type Locator string

// String returns the locator as a plain URL string.
func (l Locator) String() string { return string(l) }

// CodeEntry is one standard value extracted from a detail page.
type CodeEntry struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// IndexEntry is one data row of the index page: the category name, its detail
// locator, and whatever metadata columns the row carried.
type IndexEntry struct {
	Name        string
	Locator     Locator
	TagID       string
	Datatype    string
	Description string
}

// CodeSet is one category's metadata plus its ordered standard values. JSON
// field names follow the published document format.
type CodeSet struct {
	Name        string      `json:"tagName"`
	TagID       string      `json:"tagId"`
	Description string      `json:"description"`
	Datatype    string      `json:"tagType"`
	Entries     []CodeEntry `json:"stdValues"`
}

// FetchResult is the outcome for one category: a populated code set or a
// classified failure, never both.
type FetchResult struct {
	Name string
	Set  *CodeSet
	Err  *Error
}

// Failed reports whether the result is the failure variant.
func (r FetchResult) Failed() bool { return r.Err != nil }

// Page is a fetched page's raw markup plus transport metadata.
type Page struct {
	Locator    Locator
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Outcome is everything one orchestrated run produced. Results appear in
// completion order; document order is restored by Assemble.
type Outcome struct {
	RunID          uuid.UUID
	Index          []IndexEntry
	Results        []FetchResult
	GlobalTimedOut bool
}

// Failures returns the failed results in completion order.
func (o *Outcome) Failures() []*Error {
	var failed []*Error
	for _, res := range o.Results {
		if res.Failed() {
			failed = append(failed, res.Err)
		}
	}
	return failed
}

// Document is the serialized artifact written at the end of a run.
type Document struct {
	CreatedTime time.Time   `json:"createdTime"`
	Version     string      `json:"version"`
	Author      string      `json:"author"`
	FixData     []DataBlock `json:"fixData"`
}

// DataBlock groups code sets under a protocol label.
type DataBlock struct {
	Type string    `json:"type"`
	Data []CodeSet `json:"data"`
}

// CodeSets returns the document's code sets across all data blocks.
func (d *Document) CodeSets() []CodeSet {
	var sets []CodeSet
	for _, block := range d.FixData {
		sets = append(sets, block.Data...)
	}
	return sets
}
