package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lattice-graph/latticedb/internal/value"
)

func fixedNow() int64 { return 1700000000 }

func openTestStore(t *testing.T) *GraphStore {
	t.Helper()
	dir := t.TempDir()
	tuning := DefaultTuning(dir)
	tuning.Nodes.NowFunc = fixedNow
	tuning.Edges.NowFunc = fixedNow
	tuning.Indices.NowFunc = fixedNow
	s, err := Open(tuning)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func props(t *testing.T, kv ...any) value.PropertyMap {
	t.Helper()
	b := value.NewBuilder()
	for i := 0; i < len(kv); i += 2 {
		require.NoError(t, b.Set(kv[i].(string), kv[i+1]))
	}
	return b.Build()
}

func TestCreateAndGetNode(t *testing.T) {
	s := openTestStore(t)
	n, err := s.CreateNode("person", props(t, "name", "alice"))
	require.NoError(t, err)
	require.NotEmpty(t, n.ID)

	got, err := s.GetNode(n.ID)
	require.NoError(t, err)
	require.Equal(t, "person", got.Label)
	name, ok := got.Properties["name"].StringVal()
	require.True(t, ok)
	require.Equal(t, "alice", name)
}

func TestGetNodeNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetNode("does-not-exist")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateEdgeRequiresExistingEndpoints(t *testing.T) {
	s := openTestStore(t)
	p1, err := s.CreateNode("person", props(t))
	require.NoError(t, err)

	_, err = s.CreateEdge("knows", p1.ID, "ghost-id", props(t))
	require.ErrorIs(t, err, ErrInvalid)
}

func TestCreateEdgeAndAdjacency(t *testing.T) {
	s := openTestStore(t)
	p1, err := s.CreateNode("person", props(t))
	require.NoError(t, err)
	p2, err := s.CreateNode("person", props(t))
	require.NoError(t, err)

	e, err := s.CreateEdge("knows", p1.ID, p2.ID, props(t))
	require.NoError(t, err)

	out, err := s.GetOutEdges(p1.ID, "knows")
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, e.ID, out[0].ID)

	in, err := s.GetInEdges(p2.ID, "knows")
	require.NoError(t, err)
	require.Len(t, in, 1)
	require.Equal(t, e.ID, in[0].ID)

	outNodes, err := s.GetOutNodes(p1.ID, "knows")
	require.NoError(t, err)
	require.Len(t, outNodes, 1)
	require.Equal(t, p2.ID, outNodes[0].ID)
}

func TestGetAllNodesAndEdges(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 3; i++ {
		_, err := s.CreateNode("person", props(t))
		require.NoError(t, err)
	}
	all, err := s.GetAllNodes()
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, n := range all {
		require.Equal(t, "person", n.Label)
	}
}

func TestDropEdgeReclaimsAdjacencyAndLabelIndex(t *testing.T) {
	s := openTestStore(t)
	p1, err := s.CreateNode("person", props(t))
	require.NoError(t, err)
	p2, err := s.CreateNode("person", props(t))
	require.NoError(t, err)
	e, err := s.CreateEdge("knows", p1.ID, p2.ID, props(t))
	require.NoError(t, err)

	require.NoError(t, s.DropEdge(e.ID))

	_, err = s.GetEdge(e.ID)
	require.ErrorIs(t, err, ErrNotFound)

	out, err := s.GetOutEdges(p1.ID, "knows")
	require.NoError(t, err)
	require.Empty(t, out)

	in, err := s.GetInEdges(p2.ID, "knows")
	require.NoError(t, err)
	require.Empty(t, in)
}

func TestDropNodeCascadesEdgesBothDirections(t *testing.T) {
	s := openTestStore(t)
	p1, err := s.CreateNode("person", props(t))
	require.NoError(t, err)
	p2, err := s.CreateNode("person", props(t))
	require.NoError(t, err)
	e, err := s.CreateEdge("knows", p1.ID, p2.ID, props(t))
	require.NoError(t, err)

	require.NoError(t, s.DropNode(p1.ID))

	_, err = s.GetNode(p1.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetEdge(e.ID)
	require.ErrorIs(t, err, ErrNotFound)

	in, err := s.GetInEdges(p2.ID, "knows")
	require.NoError(t, err)
	require.Empty(t, in)
}

func TestScenarioS1ThreeNodesSameLabel(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 3; i++ {
		_, err := s.CreateNode("person", props(t))
		require.NoError(t, err)
	}
	all, err := s.GetAllNodes()
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, n := range all {
		require.Equal(t, "person", n.Label)
	}
}

func TestScenarioS5DropNodeThenEdgeAndAdjacencyGone(t *testing.T) {
	s := openTestStore(t)
	p1, err := s.CreateNode("person", props(t))
	require.NoError(t, err)
	p2, err := s.CreateNode("person", props(t))
	require.NoError(t, err)
	e, err := s.CreateEdge("knows", p1.ID, p2.ID, props(t))
	require.NoError(t, err)

	require.NoError(t, s.DropNode(p1.ID))

	_, err = s.GetEdge(e.ID)
	require.ErrorIs(t, err, ErrNotFound)

	in, err := s.GetInEdges(p2.ID, "knows")
	require.NoError(t, err)
	require.Empty(t, in)
}
