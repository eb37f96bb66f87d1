package harvest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const detailPage = `<html><body>
<table>
  <tr><th>Tag</th><th>Field Name</th><th>Description</th></tr>
  <tr>
    <td>54</td>
    <td>Side</td>
    <td>
      <p>Side of order.</p>
      <table>
        <tr><td>1</td><td>=</td><td>Buy</td></tr>
        <tr><td>2</td><td>=</td><td>Sell</td></tr>
        <tr><td>3</td><td>=</td><td><p>Buy minus</p><p>legacy wording</p></td></tr>
      </table>
    </td>
  </tr>
</table>
</body></html>`

// TestExtractDetailStandardValues parses a realistic page and keeps row order.
func TestExtractDetailStandardValues(t *testing.T) {
	t.Parallel()

	entries, err := ExtractDetail([]byte(detailPage))
	require.NoError(t, err)
	require.Equal(t, []CodeEntry{
		{ID: "1", Description: "Buy"},
		{ID: "2", Description: "Sell"},
		{ID: "3", Description: "Buy minus"},
	}, entries)
}

// TestExtractDetailRowAcceptance exercises the nested-row rule: at least three
// cells and a middle cell that is exactly "=" after trimming.
func TestExtractDetailRowAcceptance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		row  string
		want []CodeEntry
	}{
		{
			name: "plain equals",
			row:  `<tr><td>1</td><td>=</td><td>Buy</td></tr>`,
			want: []CodeEntry{{ID: "1", Description: "Buy"}},
		},
		{
			name: "equals with surrounding whitespace",
			row:  "<tr><td> 2 </td><td>\n  =  \n</td><td>  Sell  </td></tr>",
			want: []CodeEntry{{ID: "2", Description: "Sell"}},
		},
		{
			name: "not-equals is rejected",
			row:  `<tr><td>1</td><td>!=</td><td>Buy</td></tr>`,
			want: nil,
		},
		{
			name: "equals embedded in longer text is rejected",
			row:  `<tr><td>1</td><td>a=b</td><td>Buy</td></tr>`,
			want: nil,
		},
		{
			name: "two cells are rejected",
			row:  `<tr><td>1</td><td>=</td></tr>`,
			want: nil,
		},
		{
			name: "extra trailing cells are tolerated",
			row:  `<tr><td>4</td><td>=</td><td>Cross</td><td>ignored</td></tr>`,
			want: []CodeEntry{{ID: "4", Description: "Cross"}},
		},
		{
			name: "empty id is discarded",
			row:  `<tr><td>  </td><td>=</td><td>Buy</td></tr>`,
			want: nil,
		},
		{
			name: "empty description is discarded",
			row:  `<tr><td>1</td><td>=</td><td>   </td></tr>`,
			want: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			markup := `<table><tr><th>Description</th></tr>` +
				`<tr><td><table>` + tc.row + `</table></td></tr></table>`
			entries, err := ExtractDetail([]byte(markup))
			require.NoError(t, err)
			require.Equal(t, tc.want, entries)
		})
	}
}

// TestExtractDetailKeepsDuplicateIDs verifies repeated ids survive in order.
func TestExtractDetailKeepsDuplicateIDs(t *testing.T) {
	t.Parallel()

	markup := `<table><tr><th>Description</th></tr>
<tr><td><table>
  <tr><td>1</td><td>=</td><td>Buy</td></tr>
  <tr><td>1</td><td>=</td><td>Buy again</td></tr>
</table></td></tr></table>`
	entries, err := ExtractDetail([]byte(markup))
	require.NoError(t, err)
	require.Equal(t, []CodeEntry{
		{ID: "1", Description: "Buy"},
		{ID: "1", Description: "Buy again"},
	}, entries)
}

// TestExtractDetailDescriptionColumnLookup finds the column case-insensitively
// and respects its position.
func TestExtractDetailDescriptionColumnLookup(t *testing.T) {
	t.Parallel()

	markup := `<table>
<tr><th>Tag</th><th>Name</th><th>Full DESCRIPTION text</th></tr>
<tr>
  <td>40</td>
  <td>OrdType</td>
  <td><table><tr><td>1</td><td>=</td><td>Market</td></tr></table></td>
</tr>
</table>`
	entries, err := ExtractDetail([]byte(markup))
	require.NoError(t, err)
	require.Equal(t, []CodeEntry{{ID: "1", Description: "Market"}}, entries)
}

// TestExtractDetailSkipsShortRows ignores data rows with fewer cells than the
// description column index.
func TestExtractDetailSkipsShortRows(t *testing.T) {
	t.Parallel()

	markup := `<table>
<tr><th>Tag</th><th>Name</th><th>Description</th></tr>
<tr><td>40</td></tr>
<tr><td>41</td><td>X</td><td><table><tr><td>9</td><td>=</td><td>Suspended</td></tr></table></td></tr>
</table>`
	entries, err := ExtractDetail([]byte(markup))
	require.NoError(t, err)
	require.Equal(t, []CodeEntry{{ID: "9", Description: "Suspended"}}, entries)
}

// TestExtractDetailNoNestedTable yields an empty success when the description
// cells hold plain text instead of value tables.
func TestExtractDetailNoNestedTable(t *testing.T) {
	t.Parallel()

	markup := `<table>
<tr><th>Description</th></tr>
<tr><td>free-form prose, no standard values</td></tr>
</table>`
	entries, err := ExtractDetail([]byte(markup))
	require.NoError(t, err)
	require.Empty(t, entries)
}

// TestExtractDetailMissingStructure distinguishes structural failures from
// empty pages.
func TestExtractDetailMissingStructure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		markup string
	}{
		{name: "no table at all", markup: `<html><body><p>nothing here</p></body></html>`},
		{name: "no description column", markup: `<table><tr><th>Tag</th><th>Name</th></tr></table>`},
		{name: "empty table", markup: `<table></table>`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			entries, err := ExtractDetail([]byte(tc.markup))
			require.ErrorIs(t, err, ErrStructureNotFound)
			require.Nil(t, entries)
		})
	}
}
