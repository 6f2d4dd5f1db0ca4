package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshharrison/depweave/internal/graph"
)

func sample() graph.Snapshot {
	return graph.Snapshot{
		Tasks: []graph.Task{{ID: "a", Title: "first"}, {ID: "b", Title: "second"}},
		Edges: []graph.Edge{{From: "a", To: "b", Kind: graph.Blocks}},
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "snapshot.json")

	f := New(path, sample(), "file")
	require.NoError(t, f.Save())
	assert.True(t, Exists(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file", loaded.Source)
	assert.Equal(t, path, loaded.Path())
	assert.Equal(t, sample(), loaded.Snapshot())
	assert.False(t, loaded.SavedAt.IsZero())
}

func TestReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	f := New(path, sample(), "file")
	require.NoError(t, f.Save())

	next := sample()
	next.Edges = append(next.Edges, graph.Edge{From: "b", To: "a", Kind: graph.RelatesTo})
	require.NoError(t, f.Replace(next))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, loaded.Edges, 2)
}

func TestSaveEmptyWritesArrays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, New(path, graph.Snapshot{}, "file").Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tasks": []`)
	assert.Contains(t, string(data), `"edges": []`)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, graph.ErrInvalidSnapshot))
}

func TestClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, New(path, sample(), "file").Save())

	require.NoError(t, Clean(path))
	assert.False(t, Exists(path))
	assert.NoError(t, Clean(path))
}
