// Package keycodec implements the bidirectional encoding of logical graph
// keys to ordered byte strings, per spec §4.2. Keys are deliberately
// trivial — colon-separated ASCII — so that prefix-range scans map onto
// adjacency queries in O(result-size), the same design goal behind the
// teacher's makeNodeKey/makeOutEdgeKey family in lsm_storage_keys.go.
package keycodec

import (
	"fmt"
	"strings"

	"github.com/lattice-graph/latticedb/internal/pools"
)

// Logical key prefixes (spec §4.2 table). Each family below has a distinct
// byte sequence; the teacher's reference had an open bug where the
// in-adjacency key reused the out-adjacency prefix byte-for-byte (see
// DESIGN.md) — this codec keeps every prefix distinct.
const (
	PrefixNode      = "n:"
	PrefixEdge      = "e:"
	PrefixNodeLabel = "nl:"
	PrefixEdgeLabel = "el:"
	PrefixOutAdj    = "o:"
	PrefixInAdj     = "i:"
)

const sep = ':'

// NodeKey encodes the primary record key for a node.
func NodeKey(id string) []byte {
	b := pools.NewBufferBuilder(len(PrefixNode) + len(id))
	b.WriteString(PrefixNode)
	b.WriteString(id)
	return b.Bytes()
}

// EdgeKey encodes the primary record key for an edge.
func EdgeKey(id string) []byte {
	b := pools.NewBufferBuilder(len(PrefixEdge) + len(id))
	b.WriteString(PrefixEdge)
	b.WriteString(id)
	return b.Bytes()
}

// NodeLabelKey encodes a node-label index entry: "nl:" ∥ label ∥ ":" ∥ node_id.
func NodeLabelKey(label, nodeID string) []byte {
	b := pools.NewBufferBuilder(len(PrefixNodeLabel) + len(label) + 1 + len(nodeID))
	b.WriteString(PrefixNodeLabel)
	b.WriteString(label)
	b.WriteByte(sep)
	b.WriteString(nodeID)
	return b.Bytes()
}

// NodeLabelPrefix encodes the scan prefix for all nodes of a label.
func NodeLabelPrefix(label string) []byte {
	b := pools.NewBufferBuilder(len(PrefixNodeLabel) + len(label) + 1)
	b.WriteString(PrefixNodeLabel)
	b.WriteString(label)
	b.WriteByte(sep)
	return b.Bytes()
}

// EdgeLabelKey encodes an edge-label index entry: "el:" ∥ label ∥ ":" ∥ edge_id.
func EdgeLabelKey(label, edgeID string) []byte {
	b := pools.NewBufferBuilder(len(PrefixEdgeLabel) + len(label) + 1 + len(edgeID))
	b.WriteString(PrefixEdgeLabel)
	b.WriteString(label)
	b.WriteByte(sep)
	b.WriteString(edgeID)
	return b.Bytes()
}

// EdgeLabelPrefix encodes the scan prefix for all edges of a label.
func EdgeLabelPrefix(label string) []byte {
	b := pools.NewBufferBuilder(len(PrefixEdgeLabel) + len(label) + 1)
	b.WriteString(PrefixEdgeLabel)
	b.WriteString(label)
	b.WriteByte(sep)
	return b.Bytes()
}

// OutAdjKey encodes an outgoing-adjacency entry: "o:" ∥ from_id ∥ ":" ∥ edge_id.
func OutAdjKey(fromID, edgeID string) []byte {
	b := pools.NewBufferBuilder(len(PrefixOutAdj) + len(fromID) + 1 + len(edgeID))
	b.WriteString(PrefixOutAdj)
	b.WriteString(fromID)
	b.WriteByte(sep)
	b.WriteString(edgeID)
	return b.Bytes()
}

// OutAdjPrefix encodes the scan prefix "o:" ∥ from_id ∥ ":" used by
// get_out_edges/get_out_nodes and by drop_node's cascade scan.
func OutAdjPrefix(fromID string) []byte {
	b := pools.NewBufferBuilder(len(PrefixOutAdj) + len(fromID) + 1)
	b.WriteString(PrefixOutAdj)
	b.WriteString(fromID)
	b.WriteByte(sep)
	return b.Bytes()
}

// InAdjKey encodes an incoming-adjacency entry: "i:" ∥ to_id ∥ ":" ∥ edge_id.
func InAdjKey(toID, edgeID string) []byte {
	b := pools.NewBufferBuilder(len(PrefixInAdj) + len(toID) + 1 + len(edgeID))
	b.WriteString(PrefixInAdj)
	b.WriteString(toID)
	b.WriteByte(sep)
	b.WriteString(edgeID)
	return b.Bytes()
}

// InAdjPrefix encodes the scan prefix "i:" ∥ to_id ∥ ":".
func InAdjPrefix(toID string) []byte {
	b := pools.NewBufferBuilder(len(PrefixInAdj) + len(toID) + 1)
	b.WriteString(PrefixInAdj)
	b.WriteString(toID)
	b.WriteByte(sep)
	return b.Bytes()
}

// SuffixAfter strips prefix from key and returns the remaining id, used by
// the normative adjacency scan algorithm (spec §4.3) to recover the edge id
// carried in an adjacency key's suffix.
func SuffixAfter(key, prefix []byte) (string, error) {
	if !strings.HasPrefix(string(key), string(prefix)) {
		return "", fmt.Errorf("keycodec: key %q does not have prefix %q", key, prefix)
	}
	return string(key[len(prefix):]), nil
}
