// Package inspect implements the read-only terminal browser named in
// SPEC_FULL.md §4.10: a bubbletea TUI listing nodes and edges, drilling
// into one record's adjacency, and showing per-column-family storage
// statistics. Grounded on the teacher's cmd/graphdb-inspect TUI, which
// uses the same charmbracelet/bubbletea + bubbles/list + lipgloss stack
// over a read-only storage handle.
package inspect

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lattice-graph/latticedb/internal/storage"
)

// pane identifies which of the inspector's top-level views is active.
type pane int

const (
	paneNodes pane = iota
	paneEdges
	paneAdjacency
	paneStats
)

var paneTitles = map[pane]string{
	paneNodes:     "Nodes",
	paneEdges:     "Edges",
	paneAdjacency: "Adjacency",
	paneStats:     "Stats",
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// nodeItem/edgeItem adapt storage records to bubbles/list.Item.
type nodeItem struct{ node storage.Node }

func (i nodeItem) Title() string { return fmt.Sprintf("%s  %s", i.node.Label, i.node.ID) }
func (i nodeItem) Description() string {
	return fmt.Sprintf("%d properties", len(i.node.Properties))
}
func (i nodeItem) FilterValue() string { return i.node.Label + " " + i.node.ID }

type edgeItem struct{ edge storage.Edge }

func (i edgeItem) Title() string { return fmt.Sprintf("%s  %s", i.edge.Label, i.edge.ID) }
func (i edgeItem) Description() string {
	return fmt.Sprintf("%s -> %s", i.edge.FromID, i.edge.ToID)
}
func (i edgeItem) FilterValue() string { return i.edge.Label }

// Model is the bubbletea model driving the inspector.
type Model struct {
	store *storage.GraphStore

	active pane
	nodes  list.Model
	edges  list.Model
	adj    list.Model

	selectedNode storage.Node
	statsText    string
	err          error

	width, height int
}

// New loads every node and edge up front (the store is expected to be
// small enough for a local debugging session; spec §4.10 scopes the
// inspector to read-only ad hoc use, not production dashboards) and
// builds the initial model.
func New(store *storage.GraphStore) (*Model, error) {
	nodes, err := store.GetAllNodes()
	if err != nil {
		return nil, fmt.Errorf("inspect: load nodes: %w", err)
	}
	edges, err := store.GetAllEdges()
	if err != nil {
		return nil, fmt.Errorf("inspect: load edges: %w", err)
	}

	nodeItems := make([]list.Item, len(nodes))
	for i, n := range nodes {
		nodeItems[i] = nodeItem{node: n}
	}
	edgeItems := make([]list.Item, len(edges))
	for i, e := range edges {
		edgeItems[i] = edgeItem{edge: e}
	}

	nodeList := list.New(nodeItems, list.NewDefaultDelegate(), 0, 0)
	nodeList.Title = "Nodes"
	edgeList := list.New(edgeItems, list.NewDefaultDelegate(), 0, 0)
	edgeList.Title = "Edges"
	adjList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	adjList.Title = "Adjacency"

	m := &Model{store: store, active: paneNodes, nodes: nodeList, edges: edgeList, adj: adjList}
	m.statsText = m.renderStats()
	return m, nil
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		listHeight := msg.Height - 4
		m.nodes.SetSize(msg.Width, listHeight)
		m.edges.SetSize(msg.Width, listHeight)
		m.adj.SetSize(msg.Width, listHeight)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.active = (m.active + 1) % (paneStats + 1)
			return m, nil
		case "enter":
			if m.active == paneNodes {
				if it, ok := m.nodes.SelectedItem().(nodeItem); ok {
					m.loadAdjacency(it.node)
					m.active = paneAdjacency
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.active {
	case paneNodes:
		m.nodes, cmd = m.nodes.Update(msg)
	case paneEdges:
		m.edges, cmd = m.edges.Update(msg)
	case paneAdjacency:
		m.adj, cmd = m.adj.Update(msg)
	}
	return m, cmd
}

// loadAdjacency populates the adjacency pane with n's outgoing and
// incoming edges, the same scan the traversal evaluator's Out/In steps
// use.
func (m *Model) loadAdjacency(n storage.Node) {
	m.selectedNode = n
	out, err := m.store.GetAllOutEdges(n.ID)
	if err != nil {
		m.err = err
		return
	}
	in, err := m.store.GetAllInEdges(n.ID)
	if err != nil {
		m.err = err
		return
	}
	items := make([]list.Item, 0, len(out)+len(in))
	for _, e := range out {
		items = append(items, edgeItem{edge: e})
	}
	for _, e := range in {
		items = append(items, edgeItem{edge: e})
	}
	m.adj.SetItems(items)
	m.adj.Title = fmt.Sprintf("Adjacency of %s (%s)", n.ID, n.Label)
}

func (m *Model) renderStats() string {
	s := m.store.Stats()
	var b strings.Builder
	fmt.Fprintf(&b, "nodes:   tables=%d memtable=%dB cache_hit=%.2f\n", s.Nodes.TableCount, s.Nodes.MemtableSize, s.Nodes.CacheHitRate)
	fmt.Fprintf(&b, "edges:   tables=%d memtable=%dB cache_hit=%.2f\n", s.Edges.TableCount, s.Edges.MemtableSize, s.Edges.CacheHitRate)
	fmt.Fprintf(&b, "indices: tables=%d memtable=%dB cache_hit=%.2f\n", s.Indices.TableCount, s.Indices.MemtableSize, s.Indices.CacheHitRate)
	return b.String()
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("latticedb inspect") + "  ")
	for p := paneNodes; p <= paneStats; p++ {
		label := paneTitles[p]
		if p == m.active {
			label = "[" + label + "]"
		}
		b.WriteString(label + " ")
	}
	b.WriteString("\n\n")

	switch m.active {
	case paneNodes:
		b.WriteString(m.nodes.View())
	case paneEdges:
		b.WriteString(m.edges.View())
	case paneAdjacency:
		b.WriteString(m.adj.View())
	case paneStats:
		b.WriteString(m.renderStats())
	}

	if m.err != nil {
		b.WriteString("\n" + errStyle.Render(m.err.Error()))
	}
	b.WriteString("\n" + helpStyle.Render("tab: switch pane · enter: inspect adjacency · q: quit"))
	return b.String()
}
