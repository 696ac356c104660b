package traversal

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lattice-graph/latticedb/internal/storage"
)

func fixedNow() int64 { return 1700000000 }

func openTestStore(t *testing.T) *storage.GraphStore {
	t.Helper()
	dir := t.TempDir()
	tuning := storage.DefaultTuning(dir)
	tuning.Nodes.NowFunc = fixedNow
	tuning.Edges.NowFunc = fixedNow
	tuning.Indices.NowFunc = fixedNow
	s, err := storage.Open(tuning)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestVReturnsAllNodesAsSingleNodeListCell(t *testing.T) {
	s := openTestStore(t)
	b := New(s)
	b.AddV("person", nil)
	b.AddV("person", nil)

	result := New(s).V()
	require.NoError(t, result.Err())
	require.Len(t, result.Current(), 1)
	require.Equal(t, KindNodeList, result.Current()[0].Kind)
	require.Len(t, result.Current()[0].Nodes, 2)
}

func TestOutRequiresNodeFrontier(t *testing.T) {
	s := openTestStore(t)
	result := New(s).E().OutE("knows")
	require.Error(t, result.Err())
	require.ErrorIs(t, result.Err(), ErrKindMismatch)
}

func TestOutProducesPerSourceCellsNotFlattened(t *testing.T) {
	s := openTestStore(t)
	p1, err := s.CreateNode("person", nil)
	require.NoError(t, err)
	p2, err := s.CreateNode("person", nil)
	require.NoError(t, err)
	p3, err := s.CreateNode("person", nil)
	require.NoError(t, err)
	_, err = s.CreateEdge("knows", p1.ID, p3.ID, nil)
	require.NoError(t, err)
	_, err = s.CreateEdge("knows", p2.ID, p3.ID, nil)
	require.NoError(t, err)

	result := New(s).V().Out("knows")
	require.NoError(t, result.Err())
	// V() yields one node-list cell of 3 nodes; out() fans out to one
	// cell PER SOURCE NODE, so the frontier now has 3 cells, not 1.
	require.Len(t, result.Current(), 3)
}

func TestAddVThenAddE(t *testing.T) {
	s := openTestStore(t)
	b := New(s)
	b.AddV("person", map[string]any{"name": "alice"})
	require.NoError(t, b.Err())
	p1 := b.Current()[0].Node

	b2 := New(s)
	b2.AddV("person", map[string]any{"name": "bob"})
	require.NoError(t, b2.Err())
	p2 := b2.Current()[0].Node

	b3 := New(s).AddE("knows", p1.ID, p2.ID, nil)
	require.NoError(t, b3.Err())
	require.Equal(t, KindSingleEdge, b3.Current()[0].Kind)
}
