// Package traversal implements the frontier-based step evaluator (spec
// §4.4): a builder carrying named variables and a current frontier,
// advanced by the eight step operators V/E/add_v/add_e/out/in/out_e/in_e.
// Grounded on the teacher's stateful pkg/query/executor.go pattern.
package traversal

import (
	"fmt"

	"github.com/lattice-graph/latticedb/internal/storage"
	"github.com/lattice-graph/latticedb/internal/value"
)

// CellKind tags a Cell's payload, the six cases named in spec §4.4.
type CellKind int

const (
	KindSingleNode CellKind = iota
	KindSingleEdge
	KindSingleValue
	KindNodeList
	KindEdgeList
	KindValueList
)

// Cell is a tagged union over one traversal result, per spec §4.4.
type Cell struct {
	Kind  CellKind
	Node  storage.Node
	Edge  storage.Edge
	Value value.Value
	Nodes []storage.Node
	Edges []storage.Edge
	Vals  []value.Value
}

func nodeCell(n storage.Node) Cell     { return Cell{Kind: KindSingleNode, Node: n} }
func edgeCell(e storage.Edge) Cell     { return Cell{Kind: KindSingleEdge, Edge: e} }
func nodeListCell(ns []storage.Node) Cell { return Cell{Kind: KindNodeList, Nodes: ns} }
func edgeListCell(es []storage.Edge) Cell { return Cell{Kind: KindEdgeList, Edges: es} }

// IsNodeKind reports whether the cell carries node(s) — single-node or
// node-list — the guard chained vertex-to-* steps check.
func (c Cell) IsNodeKind() bool {
	return c.Kind == KindSingleNode || c.Kind == KindNodeList
}

// IsEdgeKind reports whether the cell carries edge(s).
func (c Cell) IsEdgeKind() bool {
	return c.Kind == KindSingleEdge || c.Kind == KindEdgeList
}

// nodesOf flattens a node-carrying cell to a slice, single-node becoming a
// one-element slice.
func (c Cell) nodesOf() []storage.Node {
	if c.Kind == KindSingleNode {
		return []storage.Node{c.Node}
	}
	return c.Nodes
}

// JSON projects the cell to the structure serialized as the handler's
// response body (spec §4.4 "Result projection").
func (c Cell) JSON() any {
	switch c.Kind {
	case KindSingleNode:
		return nodeJSON(c.Node)
	case KindSingleEdge:
		return edgeJSON(c.Edge)
	case KindSingleValue:
		return c.Value.JSON()
	case KindNodeList:
		out := make([]any, len(c.Nodes))
		for i, n := range c.Nodes {
			out[i] = nodeJSON(n)
		}
		return out
	case KindEdgeList:
		out := make([]any, len(c.Edges))
		for i, e := range c.Edges {
			out[i] = edgeJSON(e)
		}
		return out
	case KindValueList:
		out := make([]any, len(c.Vals))
		for i, v := range c.Vals {
			out[i] = v.JSON()
		}
		return out
	default:
		return nil
	}
}

func nodeJSON(n storage.Node) map[string]any {
	return map[string]any{"id": n.ID, "label": n.Label, "properties": n.Properties.JSONMap()}
}

func edgeJSON(e storage.Edge) map[string]any {
	return map[string]any{
		"id": e.ID, "label": e.Label, "from_id": e.FromID, "to_id": e.ToID,
		"properties": e.Properties.JSONMap(),
	}
}

// ErrKindMismatch is the *TraversalError* a kind-guard failure surfaces
// (spec §4.4), distinct from storage.ErrKindMismatch so traversal failures
// can be distinguished from storage-layer ones while still satisfying the
// shared error taxonomy via errors.Is against storage.ErrKindMismatch.
var ErrKindMismatch = fmt.Errorf("traversal: %w", storage.ErrKindMismatch)
