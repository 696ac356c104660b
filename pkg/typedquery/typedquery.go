// Package typedquery is the public phantom-state typed traversal builder
// emitted queries are compiled against (spec §4.5/§9). It exists as a
// non-internal package specifically so a generated project — a separate
// Go module scaffolded by internal/codegen — can import it: Go's
// "internal/" visibility rule would otherwise make
// github.com/lattice-graph/latticedb/internal/traversal unreachable from
// outside this module (see DESIGN.md).
//
// Each traversal state is a distinct Go type; transition methods exist
// only on the states that legally support them, so a chain like
// "V().OutE(...).Out(...)" fails to compile — EdgeState has no Out/In/OutE
// /InE methods, matching "EdgeList ──(no chained ops defined)──▶ terminal"
// from the frontier kind state machine.
package typedquery

import (
	"github.com/lattice-graph/latticedb/internal/storage"
	"github.com/lattice-graph/latticedb/internal/traversal"
)

// NoState is the builder's state before any source step has run.
type NoState struct{ b *traversal.Builder }

// VertexState is the builder's state after a step that left a node-typed
// frontier (V, add_v, out, in).
type VertexState struct{ b *traversal.Builder }

// EdgeState is the builder's state after a step that left an edge-typed
// frontier (E, add_e, out_e, in_e). Terminal: no further chained steps are
// defined on it.
type EdgeState struct{ b *traversal.Builder }

// New starts a traversal against store.
func New(store *storage.GraphStore) NoState {
	return NoState{b: traversal.New(store)}
}

// V transitions NoState -> VertexState, frontier becomes every live node.
func (s NoState) V() VertexState {
	s.b.V()
	return VertexState{b: s.b}
}

// E transitions NoState -> EdgeState, frontier becomes every live edge.
func (s NoState) E() EdgeState {
	s.b.E()
	return EdgeState{b: s.b}
}

// AddV creates a node, transitioning NoState -> VertexState.
func (s NoState) AddV(label string, props map[string]any) VertexState {
	s.b.AddV(label, props)
	return VertexState{b: s.b}
}

// AddE creates an edge, transitioning NoState -> EdgeState.
func (s NoState) AddE(label, from, to string, props map[string]any) EdgeState {
	s.b.AddE(label, from, to, props)
	return EdgeState{b: s.b}
}

// Out stays in VertexState: for each source node, the far endpoints of its
// matching outgoing edges.
func (s VertexState) Out(edgeLabel string) VertexState {
	s.b.Out(edgeLabel)
	return VertexState{b: s.b}
}

// In stays in VertexState over incoming edges.
func (s VertexState) In(edgeLabel string) VertexState {
	s.b.In(edgeLabel)
	return VertexState{b: s.b}
}

// OutE transitions VertexState -> EdgeState.
func (s VertexState) OutE(edgeLabel string) EdgeState {
	s.b.OutE(edgeLabel)
	return EdgeState{b: s.b}
}

// InE transitions VertexState -> EdgeState.
func (s VertexState) InE(edgeLabel string) EdgeState {
	s.b.InE(edgeLabel)
	return EdgeState{b: s.b}
}

// Cell is the public projection of one frontier cell, the only shape a
// generated project (a separate Go module) may reference: wrapping
// internal/traversal.Cell directly in an exported function signature
// would violate Go's internal-package visibility rule the moment the
// generated module tried to name the type (see package doc).
type Cell struct{ c traversal.Cell }

// JSON projects the cell the same way internal/traversal.Cell.JSON does.
func (c Cell) JSON() any { return c.c.JSON() }

func wrapCells(cells []traversal.Cell) []Cell {
	out := make([]Cell, len(cells))
	for i, c := range cells {
		out[i] = Cell{c: c}
	}
	return out
}

// Result returns the current frontier from a vertex-typed state, or the
// first error any step produced.
func (s VertexState) Result() ([]Cell, error) {
	if err := s.b.Err(); err != nil {
		return nil, err
	}
	return wrapCells(s.b.Current()), nil
}

// Result returns the current frontier from an edge-typed (terminal)
// state.
func (s EdgeState) Result() ([]Cell, error) {
	if err := s.b.Err(); err != nil {
		return nil, err
	}
	return wrapCells(s.b.Current()), nil
}
