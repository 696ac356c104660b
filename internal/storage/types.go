package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/lattice-graph/latticedb/internal/value"
)

// Node is a graph vertex record, grounded on the teacher's pkg/storage/types.go
// GraphNode shape, concretized to spec §3.
type Node struct {
	ID         string
	Label      string
	Properties value.PropertyMap
}

// Edge is a graph edge record, grounded on the teacher's pkg/storage/types.go
// GraphEdge shape.
type Edge struct {
	ID         string
	Label      string
	FromID     string
	ToID       string
	Properties value.PropertyMap
}

// EncodeNode serializes n to the compact binary format persisted in the
// nodes column family.
func EncodeNode(n Node) []byte {
	return encodeRecord(n.Label, "", "", n.Properties)
}

// DecodeNode deserializes a node record previously produced by EncodeNode;
// id is supplied by the caller (it is carried in the key, not the value).
func DecodeNode(id string, data []byte) (Node, error) {
	label, _, _, props, err := decodeRecord(data)
	if err != nil {
		return Node{}, fmt.Errorf("storage: decode node %s: %w", id, err)
	}
	return Node{ID: id, Label: label, Properties: props}, nil
}

// EncodeEdge serializes e to the compact binary format persisted in the
// edges column family.
func EncodeEdge(e Edge) []byte {
	return encodeRecord(e.Label, e.FromID, e.ToID, e.Properties)
}

// DecodeEdge deserializes an edge record previously produced by EncodeEdge.
func DecodeEdge(id string, data []byte) (Edge, error) {
	label, from, to, props, err := decodeRecord(data)
	if err != nil {
		return Edge{}, fmt.Errorf("storage: decode edge %s: %w", id, err)
	}
	return Edge{ID: id, Label: label, FromID: from, ToID: to, Properties: props}, nil
}

// encodeRecord shares one wire layout across nodes and edges: a string
// field for each of label/from/to (from/to empty for nodes) followed by the
// property map, each property value using value.Encode.
func encodeRecord(label, from, to string, props value.PropertyMap) []byte {
	buf := make([]byte, 0, 64)
	buf = appendString(buf, label)
	buf = appendString(buf, from)
	buf = appendString(buf, to)

	countBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(countBuf, uint32(len(props)))
	buf = append(buf, countBuf...)
	for k, v := range props {
		buf = appendString(buf, k)
		encoded := value.Encode(v)
		lenBuf := make([]byte, 4)
		binary.BigEndian.PutUint32(lenBuf, uint32(len(encoded)))
		buf = append(buf, lenBuf...)
		buf = append(buf, encoded...)
	}
	return buf
}

func decodeRecord(data []byte) (label, from, to string, props value.PropertyMap, err error) {
	pos := 0
	label, pos, err = readString(data, pos)
	if err != nil {
		return "", "", "", nil, err
	}
	from, pos, err = readString(data, pos)
	if err != nil {
		return "", "", "", nil, err
	}
	to, pos, err = readString(data, pos)
	if err != nil {
		return "", "", "", nil, err
	}
	if pos+4 > len(data) {
		return "", "", "", nil, fmt.Errorf("storage: truncated property count")
	}
	count := binary.BigEndian.Uint32(data[pos : pos+4])
	pos += 4

	props = make(value.PropertyMap, count)
	for i := uint32(0); i < count; i++ {
		var key string
		key, pos, err = readString(data, pos)
		if err != nil {
			return "", "", "", nil, err
		}
		if pos+4 > len(data) {
			return "", "", "", nil, fmt.Errorf("storage: truncated property value length")
		}
		valLen := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4
		if pos+valLen > len(data) {
			return "", "", "", nil, fmt.Errorf("storage: truncated property value")
		}
		v, err := value.Decode(data[pos : pos+valLen])
		if err != nil {
			return "", "", "", nil, fmt.Errorf("storage: decode property %q: %w", key, err)
		}
		props[key] = v
		pos += valLen
	}
	return label, from, to, props, nil
}

func appendString(buf []byte, s string) []byte {
	lenBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(lenBuf, uint32(len(s)))
	buf = append(buf, lenBuf...)
	return append(buf, s...)
}

func readString(data []byte, pos int) (string, int, error) {
	if pos+4 > len(data) {
		return "", 0, fmt.Errorf("storage: truncated string length")
	}
	l := int(binary.BigEndian.Uint32(data[pos : pos+4]))
	pos += 4
	if pos+l > len(data) {
		return "", 0, fmt.Errorf("storage: truncated string body")
	}
	return string(data[pos : pos+l]), pos + l, nil
}
