package harvest

import "time"

const versionTimestampLayout = "20060102T150405Z"

// Metadata is the document-level identity stamped onto the artifact.
type Metadata struct {
	VersionName string
	Author      string
}

// VersionString renders the document version: the configured name joined to a
// UTC build timestamp, or the timestamp alone when no name is set.
func VersionString(name string, now time.Time) string {
	ts := now.UTC().Format(versionTimestampLayout)
	if name == "" {
		return ts
	}
	return name + "+" + ts
}

// Assemble builds the output document in index order from completion-order
// results. Failed categories never appear in the document; their errors are
// returned alongside it. Duplicate category names keep their first result.
func Assemble(index []IndexEntry, results []FetchResult, meta Metadata, now time.Time) (*Document, []*Error) {
	byName := make(map[string]FetchResult, len(results))
	var failures []*Error
	for _, res := range results {
		if _, ok := byName[res.Name]; ok {
			continue
		}
		byName[res.Name] = res
		if res.Failed() {
			failures = append(failures, res.Err)
		}
	}

	sets := make([]CodeSet, 0, len(index))
	seen := make(map[string]struct{}, len(index))
	for _, entry := range index {
		if _, ok := seen[entry.Name]; ok {
			continue
		}
		seen[entry.Name] = struct{}{}
		res, ok := byName[entry.Name]
		if !ok || res.Failed() || res.Set == nil {
			continue
		}
		sets = append(sets, *res.Set)
	}

	doc := &Document{
		CreatedTime: now.UTC().Truncate(time.Second),
		Version:     VersionString(meta.VersionName, now),
		Author:      meta.Author,
		FixData:     []DataBlock{{Type: "FIX", Data: sets}},
	}
	return doc, failures
}
