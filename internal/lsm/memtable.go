package lsm

import "sort"

// entry is a single logical record in the memtable: a tombstone is a live
// key whose deleted flag is set, kept around until it is flushed into an
// SSTable and compacted away.
type entry struct {
	key     string
	value   []byte
	deleted bool
}

// MemTable is the mutable, in-memory write buffer for one column family.
// Writes land here first; once approxSize crosses the family's write
// buffer budget the tree swaps in a fresh MemTable and flushes this one.
type MemTable struct {
	data       map[string]entry
	approxSize int
}

// NewMemTable creates an empty memtable.
func NewMemTable() *MemTable {
	return &MemTable{data: make(map[string]entry)}
}

// Put inserts or overwrites key with value.
func (m *MemTable) Put(key string, value []byte) {
	if old, ok := m.data[key]; ok {
		m.approxSize -= len(old.key) + len(old.value)
	}
	m.data[key] = entry{key: key, value: value}
	m.approxSize += len(key) + len(value)
}

// Delete records a tombstone for key.
func (m *MemTable) Delete(key string) {
	if old, ok := m.data[key]; ok {
		m.approxSize -= len(old.key) + len(old.value)
	}
	m.data[key] = entry{key: key, deleted: true}
	m.approxSize += len(key)
}

// Get returns the value for key and whether it was found live (a tombstone
// reports found=true, deleted=true so callers above the memtable stop the
// lookup instead of falling through to older SSTables).
func (m *MemTable) Get(key string) (value []byte, deleted bool, found bool) {
	e, ok := m.data[key]
	if !ok {
		return nil, false, false
	}
	return e.value, e.deleted, true
}

// Size reports the approximate memory footprint used to decide when to flush.
func (m *MemTable) Size() int {
	return m.approxSize
}

// Len reports the number of entries, tombstones included.
func (m *MemTable) Len() int {
	return len(m.data)
}

// SortedEntries returns every entry ordered by key, the form a flush writes
// to a new SSTable and Scan merges against overlapping ranges.
func (m *MemTable) SortedEntries() []entry {
	out := make([]entry, 0, len(m.data))
	for _, e := range m.data {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

// Scan returns every entry in [startKey, endKey), tombstones included, in
// key order, honoring the half-open range memtables and SSTables share.
func (m *MemTable) Scan(startKey, endKey string) []entry {
	all := m.SortedEntries()
	lo := sort.Search(len(all), func(i int) bool { return all[i].key >= startKey })
	var out []entry
	for i := lo; i < len(all); i++ {
		if endKey != "" && all[i].key >= endKey {
			break
		}
		out = append(out, all[i])
	}
	return out
}
