package storage

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/lattice-graph/latticedb/internal/keycodec"
	"github.com/lattice-graph/latticedb/internal/lsm"
	"github.com/lattice-graph/latticedb/internal/value"
)

// Tuning bundles the per-family lsm.Options the config layer (C8) exposes
// as the concrete tuning-contract knobs (spec §4.3).
type Tuning struct {
	Nodes   lsm.Options
	Edges   lsm.Options
	Indices lsm.Options
}

// DefaultTuning builds tuning with the bloom-filter/bits-per-key contract
// the spec calls out explicitly for the indices family.
func DefaultTuning(dir string) Tuning {
	nodes := lsm.DefaultOptions(dir, "nodes")
	edges := lsm.DefaultOptions(dir, "edges")
	indices := lsm.DefaultOptions(dir, "indices")
	indices.BloomBitsPerKey = 10
	return Tuning{Nodes: nodes, Edges: edges, Indices: indices}
}

// GraphStore is the CRUD and adjacency-maintenance layer over three
// internal/lsm.Tree column families, grounded on the teacher's
// pkg/storage/storage.go GraphStorage wrapper.
type GraphStore struct {
	nodes   *lsm.Tree
	edges   *lsm.Tree
	indices *lsm.Tree

	// mu serializes the multi-tree "batches" create_node/create_edge/
	// drop_node/drop_edge perform, since no single underlying transaction
	// spans the three column families. The gateway (C7) also holds a
	// single exclusive mutex per spec §5; this one additionally protects
	// direct callers (the inspector CLI, tests) that bypass the gateway.
	mu sync.Mutex
}

// Open opens (or creates) a graph store rooted at the three tunings'
// directories, normally all children of one storage directory.
func Open(t Tuning) (*GraphStore, error) {
	nodes, err := lsm.Open(t.Nodes)
	if err != nil {
		return nil, fmt.Errorf("storage: open nodes family: %w", err)
	}
	edges, err := lsm.Open(t.Edges)
	if err != nil {
		return nil, fmt.Errorf("storage: open edges family: %w", err)
	}
	indices, err := lsm.Open(t.Indices)
	if err != nil {
		return nil, fmt.Errorf("storage: open indices family: %w", err)
	}
	return &GraphStore{nodes: nodes, edges: edges, indices: indices}, nil
}

// Close flushes and releases all three column families.
func (s *GraphStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.nodes.Close(); err != nil {
		return err
	}
	if err := s.edges.Close(); err != nil {
		return err
	}
	return s.indices.Close()
}

// Flush forces all three families to disk, used by the snapshot backup
// path (C9) before copying the directory tree.
func (s *GraphStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.nodes.Flush(); err != nil {
		return err
	}
	if err := s.edges.Flush(); err != nil {
		return err
	}
	return s.indices.Flush()
}

// CheckExists reports whether a node with the given id has a live record,
// without decoding it.
func (s *GraphStore) CheckExists(id string) (bool, error) {
	_, ok, err := s.nodes.Get(string(keycodec.NodeKey(id)))
	if err != nil {
		return false, fmt.Errorf("storage: check_exists %s: %w", id, err)
	}
	return ok, nil
}

// GetNode returns an owned copy of the node record, or ErrNotFound.
func (s *GraphStore) GetNode(id string) (Node, error) {
	data, ok, err := s.nodes.Get(string(keycodec.NodeKey(id)))
	if err != nil {
		return Node{}, fmt.Errorf("storage: get_node %s: %w: %w", id, ErrStorage, err)
	}
	if !ok {
		return Node{}, fmt.Errorf("get_node %s: %w", id, ErrNotFound)
	}
	return DecodeNode(id, data)
}

// GetEdge returns an owned copy of the edge record, or ErrNotFound.
func (s *GraphStore) GetEdge(id string) (Edge, error) {
	data, ok, err := s.edges.Get(string(keycodec.EdgeKey(id)))
	if err != nil {
		return Edge{}, fmt.Errorf("storage: get_edge %s: %w: %w", id, ErrStorage, err)
	}
	if !ok {
		return Edge{}, fmt.Errorf("get_edge %s: %w", id, ErrNotFound)
	}
	return DecodeEdge(id, data)
}

// GetTempNode mirrors GetNode. Go's garbage collector makes the
// zero-copy/"pinned" distinction the spec draws (§4.3) unobservable: every
// returned Node is already an independently-owned value, so there is no
// separate pinned representation to expose.
func (s *GraphStore) GetTempNode(id string) (Node, error) {
	return s.GetNode(id)
}

// GetTempEdge mirrors GetEdge; see GetTempNode.
func (s *GraphStore) GetTempEdge(id string) (Edge, error) {
	return s.GetEdge(id)
}

// GetOutEdges prefix-iterates the outgoing-adjacency range for nodeID,
// resolves each edge record, and filters in memory by label — the
// normative adjacency scan algorithm (spec §4.3).
func (s *GraphStore) GetOutEdges(nodeID, edgeLabel string) ([]Edge, error) {
	return s.scanAdjacencyEdges(keycodec.OutAdjPrefix(nodeID), edgeLabel)
}

// GetInEdges is GetOutEdges over the incoming-adjacency range.
func (s *GraphStore) GetInEdges(nodeID, edgeLabel string) ([]Edge, error) {
	return s.scanAdjacencyEdges(keycodec.InAdjPrefix(nodeID), edgeLabel)
}

// GetAllOutEdges is GetOutEdges with no label filter, for callers (the
// inspector CLI's adjacency drill-down) that want every outgoing edge
// regardless of label rather than one label's worth.
func (s *GraphStore) GetAllOutEdges(nodeID string) ([]Edge, error) {
	return s.scanAllAdjacencyEdges(keycodec.OutAdjPrefix(nodeID))
}

// GetAllInEdges is GetAllOutEdges over the incoming-adjacency range.
func (s *GraphStore) GetAllInEdges(nodeID string) ([]Edge, error) {
	return s.scanAllAdjacencyEdges(keycodec.InAdjPrefix(nodeID))
}

func (s *GraphStore) scanAdjacencyEdges(prefix []byte, edgeLabel string) ([]Edge, error) {
	edges, err := s.scanAllAdjacencyEdges(prefix)
	if err != nil {
		return nil, err
	}
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if e.Label == edgeLabel {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *GraphStore) scanAllAdjacencyEdges(prefix []byte) ([]Edge, error) {
	keys, _, err := s.indices.ScanOrdered(string(prefix), prefixEnd(string(prefix)))
	if err != nil {
		return nil, fmt.Errorf("storage: scan adjacency: %w", err)
	}
	out := make([]Edge, 0, len(keys))
	for _, k := range keys {
		edgeID, err := keycodec.SuffixAfter([]byte(k), prefix)
		if err != nil {
			return nil, err
		}
		e, err := s.GetEdge(edgeID)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// GetOutNodes resolves the far endpoint (ToID) of every matching outgoing
// edge.
func (s *GraphStore) GetOutNodes(nodeID, edgeLabel string) ([]Node, error) {
	edges, err := s.GetOutEdges(nodeID, edgeLabel)
	if err != nil {
		return nil, err
	}
	return s.resolveFarEndpoints(edges, func(e Edge) string { return e.ToID })
}

// GetInNodes resolves the far endpoint (FromID) of every matching
// incoming edge.
func (s *GraphStore) GetInNodes(nodeID, edgeLabel string) ([]Node, error) {
	edges, err := s.GetInEdges(nodeID, edgeLabel)
	if err != nil {
		return nil, err
	}
	return s.resolveFarEndpoints(edges, func(e Edge) string { return e.FromID })
}

func (s *GraphStore) resolveFarEndpoints(edges []Edge, endpoint func(Edge) string) ([]Node, error) {
	out := make([]Node, 0, len(edges))
	for _, e := range edges {
		n, err := s.GetNode(endpoint(e))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// GetAllNodes prefix-scans the entire nodes record family.
func (s *GraphStore) GetAllNodes() ([]Node, error) {
	keys, m, err := s.nodes.ScanOrdered(keycodec.PrefixNode, prefixEnd(keycodec.PrefixNode))
	if err != nil {
		return nil, fmt.Errorf("storage: get_all_nodes: %w", err)
	}
	out := make([]Node, 0, len(keys))
	for _, k := range keys {
		id, err := keycodec.SuffixAfter([]byte(k), []byte(keycodec.PrefixNode))
		if err != nil {
			return nil, err
		}
		n, err := DecodeNode(id, m[k])
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// GetAllEdges prefix-scans the entire edges record family.
func (s *GraphStore) GetAllEdges() ([]Edge, error) {
	keys, m, err := s.edges.ScanOrdered(keycodec.PrefixEdge, prefixEnd(keycodec.PrefixEdge))
	if err != nil {
		return nil, fmt.Errorf("storage: get_all_edges: %w", err)
	}
	out := make([]Edge, 0, len(keys))
	for _, k := range keys {
		id, err := keycodec.SuffixAfter([]byte(k), []byte(keycodec.PrefixEdge))
		if err != nil {
			return nil, err
		}
		e, err := DecodeEdge(id, m[k])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// CreateNode generates a fresh UUIDv4 id, writes the node record and its
// label-index entry, and returns the created node (spec §4.3).
func (s *GraphStore) CreateNode(label string, props value.PropertyMap) (Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	n := Node{ID: id, Label: label, Properties: props}

	if err := s.nodes.Put(string(keycodec.NodeKey(id)), EncodeNode(n)); err != nil {
		return Node{}, fmt.Errorf("storage: create_node write record: %w", err)
	}
	if err := s.indices.Put(string(keycodec.NodeLabelKey(label, id)), nil); err != nil {
		return Node{}, fmt.Errorf("storage: create_node write label index: %w", err)
	}
	return n, nil
}

// CreateEdge preflight-checks both endpoints exist, then writes the edge
// record, edge-label index, and both adjacency entries. Returns ErrInvalid
// if either endpoint is missing.
func (s *GraphStore) CreateEdge(label, fromID, toID string, props value.PropertyMap) (Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fromOK, err := s.checkExistsLocked(fromID)
	if err != nil {
		return Edge{}, err
	}
	toOK, err := s.checkExistsLocked(toID)
	if err != nil {
		return Edge{}, err
	}
	if !fromOK || !toOK {
		return Edge{}, fmt.Errorf("create_edge: endpoint missing (from=%s to=%s): %w", fromID, toID, ErrInvalid)
	}

	id := uuid.NewString()
	e := Edge{ID: id, Label: label, FromID: fromID, ToID: toID, Properties: props}

	if err := s.edges.Put(string(keycodec.EdgeKey(id)), EncodeEdge(e)); err != nil {
		return Edge{}, fmt.Errorf("storage: create_edge write record: %w", err)
	}
	if err := s.indices.Put(string(keycodec.EdgeLabelKey(label, id)), nil); err != nil {
		return Edge{}, fmt.Errorf("storage: create_edge write label index: %w", err)
	}
	if err := s.indices.Put(string(keycodec.OutAdjKey(fromID, id)), nil); err != nil {
		return Edge{}, fmt.Errorf("storage: create_edge write out adjacency: %w", err)
	}
	if err := s.indices.Put(string(keycodec.InAdjKey(toID, id)), nil); err != nil {
		return Edge{}, fmt.Errorf("storage: create_edge write in adjacency: %w", err)
	}
	return e, nil
}

func (s *GraphStore) checkExistsLocked(id string) (bool, error) {
	_, ok, err := s.nodes.Get(string(keycodec.NodeKey(id)))
	if err != nil {
		return false, fmt.Errorf("storage: check_exists %s: %w", id, err)
	}
	return ok, nil
}

// DropEdge reads the edge record to find its endpoints, then deletes the
// outgoing adjacency entry, the incoming adjacency entry, the edge-label
// index entry, and the edge record itself. Unlike the reference this
// reclaims the label-index entry, satisfying invariant 4 (see DESIGN.md).
func (s *GraphStore) DropEdge(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropEdgeLocked(id)
}

func (s *GraphStore) dropEdgeLocked(id string) error {
	data, ok, err := s.edges.Get(string(keycodec.EdgeKey(id)))
	if err != nil {
		return fmt.Errorf("storage: drop_edge read %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("drop_edge %s: %w", id, ErrNotFound)
	}
	e, err := DecodeEdge(id, data)
	if err != nil {
		return err
	}

	if err := s.indices.Delete(string(keycodec.OutAdjKey(e.FromID, id))); err != nil {
		return fmt.Errorf("storage: drop_edge delete out adjacency: %w", err)
	}
	if err := s.indices.Delete(string(keycodec.InAdjKey(e.ToID, id))); err != nil {
		return fmt.Errorf("storage: drop_edge delete in adjacency: %w", err)
	}
	if err := s.indices.Delete(string(keycodec.EdgeLabelKey(e.Label, id))); err != nil {
		return fmt.Errorf("storage: drop_edge delete label index: %w", err)
	}
	if err := s.edges.Delete(string(keycodec.EdgeKey(id))); err != nil {
		return fmt.Errorf("storage: drop_edge delete record: %w", err)
	}
	return nil
}

// DropNode scans the outgoing and incoming adjacency prefixes for id,
// drops each incident edge, then deletes the node record and its
// label-index entry. Mirroring the reference, this is not one atomic
// batch across the constituent edge drops (see DESIGN.md for why this
// limitation is preserved rather than papered over).
func (s *GraphStore) DropNode(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.getNodeLocked(id)
	if err != nil {
		return err
	}

	incident := make(map[string]struct{})
	outKeys, _, err := s.indices.ScanOrdered(
		string(keycodec.OutAdjPrefix(id)), prefixEnd(string(keycodec.OutAdjPrefix(id))))
	if err != nil {
		return fmt.Errorf("storage: drop_node scan out adjacency: %w", err)
	}
	for _, k := range outKeys {
		eid, err := keycodec.SuffixAfter([]byte(k), keycodec.OutAdjPrefix(id))
		if err != nil {
			return err
		}
		incident[eid] = struct{}{}
	}
	inKeys, _, err := s.indices.ScanOrdered(
		string(keycodec.InAdjPrefix(id)), prefixEnd(string(keycodec.InAdjPrefix(id))))
	if err != nil {
		return fmt.Errorf("storage: drop_node scan in adjacency: %w", err)
	}
	for _, k := range inKeys {
		eid, err := keycodec.SuffixAfter([]byte(k), keycodec.InAdjPrefix(id))
		if err != nil {
			return err
		}
		incident[eid] = struct{}{}
	}

	for eid := range incident {
		if err := s.dropEdgeLocked(eid); err != nil && err != ErrNotFound {
			return fmt.Errorf("storage: drop_node cascade drop_edge %s: %w", eid, err)
		}
	}

	if err := s.indices.Delete(string(keycodec.NodeLabelKey(n.Label, id))); err != nil {
		return fmt.Errorf("storage: drop_node delete label index: %w", err)
	}
	if err := s.nodes.Delete(string(keycodec.NodeKey(id))); err != nil {
		return fmt.Errorf("storage: drop_node delete record: %w", err)
	}
	return nil
}

func (s *GraphStore) getNodeLocked(id string) (Node, error) {
	data, ok, err := s.nodes.Get(string(keycodec.NodeKey(id)))
	if err != nil {
		return Node{}, fmt.Errorf("storage: get_node %s: %w", id, err)
	}
	if !ok {
		return Node{}, fmt.Errorf("get_node %s: %w", id, ErrNotFound)
	}
	return DecodeNode(id, data)
}

// Stats reports point-in-time statistics across all three families, used
// by the metrics layer (C8) and the inspector CLI (C10).
type Stats struct {
	Nodes   lsm.Stats
	Edges   lsm.Stats
	Indices lsm.Stats
}

// Stats returns the store's current per-family statistics.
func (s *GraphStore) Stats() Stats {
	return Stats{Nodes: s.nodes.Stats(), Edges: s.edges.Stats(), Indices: s.indices.Stats()}
}
