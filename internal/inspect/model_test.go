package inspect

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/lattice-graph/latticedb/internal/storage"
)

func fixedNow() int64 { return 1735700000 }

func openTestStore(t *testing.T) *storage.GraphStore {
	t.Helper()
	dir := t.TempDir()
	tuning := storage.DefaultTuning(dir)
	tuning.Nodes.NowFunc = fixedNow
	tuning.Edges.NowFunc = fixedNow
	tuning.Indices.NowFunc = fixedNow
	store, err := storage.Open(tuning)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewLoadsExistingNodesAndEdges(t *testing.T) {
	store := openTestStore(t)
	a, err := store.CreateNode("person", nil)
	require.NoError(t, err)
	b, err := store.CreateNode("person", nil)
	require.NoError(t, err)
	_, err = store.CreateEdge("knows", a.ID, b.ID, nil)
	require.NoError(t, err)

	m, err := New(store)
	require.NoError(t, err)
	require.Equal(t, 2, len(m.nodes.Items()))
	require.Equal(t, 1, len(m.edges.Items()))
}

func TestTabCyclesActivePane(t *testing.T) {
	store := openTestStore(t)
	m, err := New(store)
	require.NoError(t, err)
	require.Equal(t, paneNodes, m.active)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(*Model)
	require.Equal(t, paneEdges, m.active)
}

func TestEnterOnNodeLoadsAdjacency(t *testing.T) {
	store := openTestStore(t)
	a, err := store.CreateNode("person", nil)
	require.NoError(t, err)
	b, err := store.CreateNode("person", nil)
	require.NoError(t, err)
	_, err = store.CreateEdge("knows", a.ID, b.ID, nil)
	require.NoError(t, err)

	m, err := New(store)
	require.NoError(t, err)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = next.(*Model)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(*Model)
	require.Equal(t, paneAdjacency, m.active)
	require.Len(t, m.adj.Items(), 1)
}

func TestQuitReturnsQuitCommand(t *testing.T) {
	store := openTestStore(t)
	m, err := New(store)
	require.NoError(t, err)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
}
