// Package lsm implements the embedded log-structured-merge storage engine
// backing each column family (nodes, edges, indices), adapted from the
// teacher's pkg/lsm package (lsm.go, memtable.go, sstable.go, bloom.go,
// cache.go, compaction.go).
package lsm

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
	"golang.org/x/exp/mmap"
)

// On-disk SSTable layout:
//
//	[data block]...[index block][bloom block][footer]
//
// Each data entry is length-prefixed and snappy-compressed individually,
// the same per-entry compression granularity as the teacher's writeEntry.
// The footer is fixed width so Open can seek straight to it.
const footerSize = 28 // indexOffset(8) + indexLen(8) + bloomOffset(8) + bloomLen(4)

type indexEntry struct {
	key    string
	offset int64
}

// SSTable is an immutable, sorted, on-disk run produced by flushing a
// MemTable or by compacting older SSTables together.
type SSTable struct {
	path   string
	reader *mmap.ReaderAt
	index  []indexEntry
	bloom  *BloomFilter
	minKey string
	maxKey string
}

// SSTablePath builds the on-disk filename for the given column family and
// generation number, grounded on the teacher's sequential-generation naming.
func SSTablePath(dir, family string, generation int) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%06d.sst", family, generation))
}

// WriteSSTable flushes sorted entries (as produced by MemTable.SortedEntries)
// to a new file at path, building the index and bloom filter alongside the
// data as it streams through.
func WriteSSTable(path string, entries []entry, bitsPerKey int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("lsm: create sstable: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	bloom := NewBloomFilterBits(len(entries), bitsPerKey)
	index := make([]indexEntry, 0, len(entries))

	var offset int64
	for _, e := range entries {
		index = append(index, indexEntry{key: e.key, offset: offset})
		bloom.Add([]byte(e.key))

		n, err := writeEntry(w, e)
		if err != nil {
			return fmt.Errorf("lsm: write entry: %w", err)
		}
		offset += int64(n)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("lsm: flush data blocks: %w", err)
	}

	indexOffset := offset
	indexBytes, err := encodeIndex(index)
	if err != nil {
		return err
	}
	if _, err := f.Write(indexBytes); err != nil {
		return fmt.Errorf("lsm: write index: %w", err)
	}

	bloomOffset := indexOffset + int64(len(indexBytes))
	bloomBytes := bloom.MarshalBinary()
	if _, err := f.Write(bloomBytes); err != nil {
		return fmt.Errorf("lsm: write bloom: %w", err)
	}

	footer := make([]byte, footerSize)
	binary.BigEndian.PutUint64(footer[0:8], uint64(indexOffset))
	binary.BigEndian.PutUint64(footer[8:16], uint64(len(indexBytes)))
	binary.BigEndian.PutUint64(footer[16:24], uint64(bloomOffset))
	binary.BigEndian.PutUint32(footer[24:28], uint32(len(bloomBytes)))
	if _, err := f.Write(footer); err != nil {
		return fmt.Errorf("lsm: write footer: %w", err)
	}
	return nil
}

func writeEntry(w *bufio.Writer, e entry) (int, error) {
	payload := snappy.Encode(nil, e.value)
	flags := byte(0)
	if e.deleted {
		flags = 1
		payload = nil
	}

	header := make([]byte, 1+4+4)
	header[0] = flags
	binary.BigEndian.PutUint32(header[1:5], uint32(len(e.key)))
	binary.BigEndian.PutUint32(header[5:9], uint32(len(payload)))
	n1, err := w.Write(header)
	if err != nil {
		return n1, err
	}
	n2, err := w.Write([]byte(e.key))
	if err != nil {
		return n1 + n2, err
	}
	n3, err := w.Write(payload)
	return n1 + n2 + n3, err
}

func encodeIndex(index []indexEntry) ([]byte, error) {
	buf := make([]byte, 0, len(index)*16)
	countHdr := make([]byte, 4)
	binary.BigEndian.PutUint32(countHdr, uint32(len(index)))
	buf = append(buf, countHdr...)
	for _, ie := range index {
		keyLen := make([]byte, 4)
		binary.BigEndian.PutUint32(keyLen, uint32(len(ie.key)))
		buf = append(buf, keyLen...)
		buf = append(buf, ie.key...)
		offBuf := make([]byte, 8)
		binary.BigEndian.PutUint64(offBuf, uint64(ie.offset))
		buf = append(buf, offBuf...)
	}
	return buf, nil
}

func decodeIndex(data []byte) ([]indexEntry, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("lsm: truncated index header")
	}
	count := binary.BigEndian.Uint32(data[0:4])
	pos := 4
	out := make([]indexEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		if pos+4 > len(data) {
			return nil, fmt.Errorf("lsm: truncated index entry %d", i)
		}
		keyLen := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		pos += 4
		if pos+keyLen+8 > len(data) {
			return nil, fmt.Errorf("lsm: truncated index entry %d body", i)
		}
		key := string(data[pos : pos+keyLen])
		pos += keyLen
		offset := int64(binary.BigEndian.Uint64(data[pos : pos+8]))
		pos += 8
		out = append(out, indexEntry{key: key, offset: offset})
	}
	return out, nil
}

// OpenSSTable mmaps path and loads its index and bloom filter into memory,
// leaving the data blocks to be paged in on demand by Get/Scan.
func OpenSSTable(path string) (*SSTable, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lsm: open sstable %s: %w", path, err)
	}

	size := r.Len()
	if size < footerSize {
		r.Close()
		return nil, fmt.Errorf("lsm: sstable %s too small for footer", path)
	}
	footer := make([]byte, footerSize)
	if _, err := r.ReadAt(footer, int64(size-footerSize)); err != nil {
		r.Close()
		return nil, fmt.Errorf("lsm: read footer: %w", err)
	}
	indexOffset := int64(binary.BigEndian.Uint64(footer[0:8]))
	indexLen := int64(binary.BigEndian.Uint64(footer[8:16]))
	bloomOffset := int64(binary.BigEndian.Uint64(footer[16:24]))
	bloomLen := binary.BigEndian.Uint32(footer[24:28])

	indexBytes := make([]byte, indexLen)
	if _, err := r.ReadAt(indexBytes, indexOffset); err != nil {
		r.Close()
		return nil, fmt.Errorf("lsm: read index: %w", err)
	}
	index, err := decodeIndex(indexBytes)
	if err != nil {
		r.Close()
		return nil, err
	}

	bloomBytes := make([]byte, bloomLen)
	if _, err := r.ReadAt(bloomBytes, bloomOffset); err != nil {
		r.Close()
		return nil, fmt.Errorf("lsm: read bloom: %w", err)
	}
	bloom := NewBloomFilterBits(len(index), 10)
	bloom.UnmarshalBinary(bloomBytes)

	st := &SSTable{path: path, reader: r, index: index, bloom: bloom}
	if len(index) > 0 {
		st.minKey = index[0].key
		st.maxKey = index[len(index)-1].key
	}
	return st, nil
}

// Close releases the mmap'd file handle.
func (st *SSTable) Close() error {
	return st.reader.Close()
}

// MinKey and MaxKey bound the table's key range, used by the tree to skip
// tables that cannot possibly contain a scanned range.
func (st *SSTable) MinKey() string { return st.minKey }
func (st *SSTable) MaxKey() string { return st.maxKey }

// Get looks up key, returning found=false if the bloom filter rules it out
// or the binary search over the index misses entirely.
func (st *SSTable) Get(key string) (value []byte, deleted bool, found bool, err error) {
	if !st.bloom.MayContain([]byte(key)) {
		return nil, false, false, nil
	}
	pos, ok := st.search(key)
	if !ok {
		return nil, false, false, nil
	}
	return st.readAt(st.index[pos].offset)
}

func (st *SSTable) search(key string) (int, bool) {
	lo, hi := 0, len(st.index)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		switch {
		case st.index[mid].key == key:
			return mid, true
		case st.index[mid].key < key:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return 0, false
}

func (st *SSTable) readAt(offset int64) (value []byte, deleted bool, found bool, err error) {
	header := make([]byte, 1+4+4)
	if _, err := st.reader.ReadAt(header, offset); err != nil {
		return nil, false, false, fmt.Errorf("lsm: read entry header: %w", err)
	}
	flags := header[0]
	keyLen := binary.BigEndian.Uint32(header[1:5])
	valLen := binary.BigEndian.Uint32(header[5:9])

	payload := make([]byte, valLen)
	if valLen > 0 {
		if _, err := st.reader.ReadAt(payload, offset+9+int64(keyLen)); err != nil {
			return nil, false, false, fmt.Errorf("lsm: read entry payload: %w", err)
		}
	}
	if flags&1 != 0 {
		return nil, true, true, nil
	}
	v, err := snappy.Decode(nil, payload)
	if err != nil {
		return nil, false, false, fmt.Errorf("lsm: snappy decode: %w", err)
	}
	return v, false, true, nil
}

// Scan returns every entry with key in [startKey, endKey); endKey == ""
// means unbounded. Tombstones are returned too so the caller (the tree's
// merge step) can shadow older, lower-generation tables correctly.
func (st *SSTable) Scan(startKey, endKey string) ([]entry, error) {
	lo := 0
	hi := len(st.index)
	for lo < hi {
		mid := (lo + hi) / 2
		if st.index[mid].key < startKey {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	var out []entry
	for i := lo; i < len(st.index); i++ {
		k := st.index[i].key
		if endKey != "" && k >= endKey {
			break
		}
		v, deleted, _, err := st.readAt(st.index[i].offset)
		if err != nil {
			return nil, err
		}
		out = append(out, entry{key: k, value: v, deleted: deleted})
	}
	return out, nil
}

// Len reports the number of index entries (live and tombstoned).
func (st *SSTable) Len() int { return len(st.index) }
