package traversal

import (
	"fmt"

	"github.com/lattice-graph/latticedb/internal/storage"
	"github.com/lattice-graph/latticedb/internal/value"
)

// Builder is the stateful evaluator described in spec §4.4: a mapping of
// named variables to frontiers, plus the current frontier itself. Per the
// spec, "the new frontier is the sequence of per-source cells (not a
// single flattened list)" for out/in/out_e/in_e, so current is a slice of
// per-source Cells even immediately after a source step (a one-element
// slice).
type Builder struct {
	store     *storage.GraphStore
	variables map[string][]Cell
	current   []Cell
	err       error
}

// Err returns the first error encountered by a step, if any. Once set, all
// subsequent step calls become no-ops, mirroring a Result-chain short
// circuit (the handler checks this after the last emitted call).
func (b *Builder) Err() error {
	return b.err
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// New creates a builder bound to store, with an empty variable set and no
// current frontier (any source step discards it, per spec §4.4).
func New(store *storage.GraphStore) *Builder {
	return &Builder{store: store, variables: make(map[string][]Cell)}
}

// Current returns the current frontier, the handler's observable output
// after the last step (spec §4.4 "Result projection").
func (b *Builder) Current() []Cell {
	return b.current
}

// Assign stores the current frontier under name, for DSL `assign <-`
// bindings.
func (b *Builder) Assign(name string) {
	b.variables[name] = b.current
}

// Variable retrieves a previously assigned frontier.
func (b *Builder) Variable(name string) ([]Cell, bool) {
	v, ok := b.variables[name]
	return v, ok
}

// V makes the frontier a single node-list cell containing every live node
// (spec §4.4 "V(storage)").
func (b *Builder) V() *Builder {
	if b.err != nil {
		return b
	}
	nodes, err := b.store.GetAllNodes()
	if err != nil {
		return b.fail(err)
	}
	b.current = []Cell{nodeListCell(nodes)}
	return b
}

// E makes the frontier a single edge-list cell containing every live edge.
func (b *Builder) E() *Builder {
	if b.err != nil {
		return b
	}
	edges, err := b.store.GetAllEdges()
	if err != nil {
		return b.fail(err)
	}
	b.current = []Cell{edgeListCell(edges)}
	return b
}

// AddV creates a node and makes the frontier a single-node cell.
func (b *Builder) AddV(label string, props map[string]any) *Builder {
	if b.err != nil {
		return b
	}
	pm, err := buildProperties(props)
	if err != nil {
		return b.fail(err)
	}
	n, err := b.store.CreateNode(label, pm)
	if err != nil {
		return b.fail(err)
	}
	b.current = []Cell{nodeCell(n)}
	return b
}

// AddE creates an edge between from and to and makes the frontier a
// single-edge cell.
func (b *Builder) AddE(label, from, to string, props map[string]any) *Builder {
	if b.err != nil {
		return b
	}
	pm, err := buildProperties(props)
	if err != nil {
		return b.fail(err)
	}
	e, err := b.store.CreateEdge(label, from, to, pm)
	if err != nil {
		return b.fail(err)
	}
	b.current = []Cell{edgeCell(e)}
	return b
}

// FromNode seeds the frontier at a single known node, the "starting at
// [p1]" shorthand spec §8's scenario tests use in place of a full V()
// scan plus filter.
func (b *Builder) FromNode(n storage.Node) *Builder {
	if b.err != nil {
		return b
	}
	b.current = []Cell{nodeCell(n)}
	return b
}

// Out computes get_out_nodes per source node in the current frontier,
// requiring a node-typed frontier (spec §4.4 chained-step kind guard).
func (b *Builder) Out(edgeLabel string) *Builder {
	return b.stepNodes(edgeLabel, b.store.GetOutNodes)
}

// In computes get_in_nodes per source node.
func (b *Builder) In(edgeLabel string) *Builder {
	return b.stepNodes(edgeLabel, b.store.GetInNodes)
}

// OutE computes get_out_edges per source node.
func (b *Builder) OutE(edgeLabel string) *Builder {
	return b.stepEdges(edgeLabel, b.store.GetOutEdges)
}

// InE computes get_in_edges per source node.
func (b *Builder) InE(edgeLabel string) *Builder {
	return b.stepEdges(edgeLabel, b.store.GetInEdges)
}

func (b *Builder) stepNodes(edgeLabel string, fetch func(nodeID, edgeLabel string) ([]storage.Node, error)) *Builder {
	if b.err != nil {
		return b
	}
	sources, err := b.guardNodeSources()
	if err != nil {
		return b.fail(err)
	}
	next := make([]Cell, 0, len(sources))
	for _, n := range sources {
		ns, err := fetch(n.ID, edgeLabel)
		if err != nil {
			return b.fail(err)
		}
		next = append(next, nodeListCell(ns))
	}
	b.current = next
	return b
}

func (b *Builder) stepEdges(edgeLabel string, fetch func(nodeID, edgeLabel string) ([]storage.Edge, error)) *Builder {
	if b.err != nil {
		return b
	}
	sources, err := b.guardNodeSources()
	if err != nil {
		return b.fail(err)
	}
	next := make([]Cell, 0, len(sources))
	for _, n := range sources {
		es, err := fetch(n.ID, edgeLabel)
		if err != nil {
			return b.fail(err)
		}
		next = append(next, edgeListCell(es))
	}
	b.current = next
	return b
}

// guardNodeSources checks the kind guard (spec §4.4 "before each chained
// step, the evaluator checks that the first cell's kind matches") and
// flattens every node-typed cell in the current frontier into one source
// list for the next step to fan out over.
func (b *Builder) guardNodeSources() ([]storage.Node, error) {
	if len(b.current) == 0 {
		return nil, fmt.Errorf("traversal: chained step on empty frontier: %w", ErrKindMismatch)
	}
	if !b.current[0].IsNodeKind() {
		return nil, fmt.Errorf("traversal: expected node-typed frontier: %w", ErrKindMismatch)
	}
	var out []storage.Node
	for _, c := range b.current {
		if !c.IsNodeKind() {
			return nil, fmt.Errorf("traversal: mixed-kind frontier: %w", ErrKindMismatch)
		}
		out = append(out, c.nodesOf()...)
	}
	return out, nil
}

func buildProperties(props map[string]any) (value.PropertyMap, error) {
	b := value.NewBuilder()
	for k, v := range props {
		if err := b.Set(k, v); err != nil {
			return nil, fmt.Errorf("traversal: %w: %w", storage.ErrInvalid, err)
		}
	}
	return b.Build(), nil
}
