package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindLatest(t *testing.T) {
	assert.Nil(t, FindLatest(nil))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	files := []FileInfo{
		{Path: "snapshots/a.json", ModifiedAt: base},
		{Path: "snapshots/c.json", ModifiedAt: base.Add(time.Hour)},
		{Path: "snapshots/b.json", ModifiedAt: base.Add(time.Hour)},
	}
	latest := FindLatest(files)
	require.NotNil(t, latest)
	assert.Equal(t, "snapshots/c.json", latest.Path)
}

func TestFilterAndSort(t *testing.T) {
	files := []FileInfo{{Path: "b.json"}, {Path: "notes.txt"}, {Path: "a.json"}}

	jsonFiles := FilterFiles(files, func(f FileInfo) bool { return strings.HasSuffix(f.Path, ".json") })
	SortByPath(jsonFiles)

	require.Len(t, jsonFiles, 2)
	assert.Equal(t, "a.json", jsonFiles[0].Path)
	assert.Equal(t, "b.json", jsonFiles[1].Path)
}
