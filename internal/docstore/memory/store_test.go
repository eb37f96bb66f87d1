package memory_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixwire/fixharvest/internal/docstore/memory"
	"github.com/fixwire/fixharvest/internal/harvest"
)

func TestSaveAndDocument(t *testing.T) {
	store := memory.New("out.json")

	doc := &harvest.Document{
		CreatedTime: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
		Version:     "FIX.Latest+20250314T092653Z",
		Author:      "fixharvest",
		FixData:     []harvest.DataBlock{{Type: "FIX", Data: []harvest.CodeSet{}}},
	}
	uri, err := store.Save(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "memory://out.json", uri)

	data, ok := store.Document("out.json")
	require.True(t, ok)

	var got harvest.Document
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, doc.Version, got.Version)
	assert.Equal(t, doc.Author, got.Author)
}

func TestDefaultName(t *testing.T) {
	store := memory.New("")

	uri, err := store.Save(context.Background(), &harvest.Document{})
	require.NoError(t, err)
	assert.Equal(t, "memory://fix_code_sets.json", uri)

	_, ok := store.Document("missing.json")
	assert.False(t, ok)
}

func TestDocumentReturnsCopy(t *testing.T) {
	store := memory.New("out.json")
	_, err := store.Save(context.Background(), &harvest.Document{Version: "v1"})
	require.NoError(t, err)

	data, ok := store.Document("out.json")
	require.True(t, ok)
	data[0] = 'x'

	fresh, ok := store.Document("out.json")
	require.True(t, ok)
	assert.EqualValues(t, '{', fresh[0])
}
