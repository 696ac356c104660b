package lsm

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Options tunes one column family's tree, the concrete form of the
// config-layer knobs named in SPEC_FULL.md §6 (write buffer size, block
// cache size, bloom bits/key, WAL durability mode).
type Options struct {
	Dir               string
	Family            string
	WriteBufferBytes   int
	BlockCacheEntries int
	BloomBitsPerKey   int
	MaxTablesPerLevel int
	Durability        DurabilityMode
	NowFunc           func() int64
}

// DefaultOptions fills in the tuning defaults named by the spec's tuning
// contract.
func DefaultOptions(dir, family string) Options {
	return Options{
		Dir:               dir,
		Family:            family,
		WriteBufferBytes:  4 << 20,
		BlockCacheEntries: 4096,
		BloomBitsPerKey:   10,
		MaxTablesPerLevel: 4,
		Durability:        ModeDurable,
	}
}

// Tree is one column family's LSM engine: an active memtable, an immutable
// memtable awaiting flush, a generation-ordered set of on-disk SSTables, a
// shared block cache, a WAL, and a compactor — grounded on the teacher's
// pkg/lsm/lsm.go LSMStorage. Compaction runs synchronously at the end of
// each flush, on the goroutine that triggered the flush; there is no
// background or parallel compaction.
type Tree struct {
	opts Options

	mu        sync.RWMutex
	active    *MemTable
	flushing  *MemTable
	tables    []*SSTable // oldest first
	nextGen   int
	cache     *BlockCache
	wal       *WAL
	compactor *Compactor

	closed bool
}

// Open opens (or creates) a tree rooted at opts.Dir for opts.Family,
// replaying its WAL if one exists.
func Open(opts Options) (*Tree, error) {
	if opts.WriteBufferBytes <= 0 {
		opts.WriteBufferBytes = 4 << 20
	}
	if opts.BlockCacheEntries <= 0 {
		opts.BlockCacheEntries = 4096
	}
	if opts.BloomBitsPerKey <= 0 {
		opts.BloomBitsPerKey = 10
	}
	if opts.MaxTablesPerLevel <= 0 {
		opts.MaxTablesPerLevel = 4
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("lsm: mkdir %s: %w", opts.Dir, err)
	}

	t := &Tree{
		opts:      opts,
		active:    NewMemTable(),
		cache:     NewBlockCache(opts.BlockCacheEntries),
		compactor: NewCompactor(NewLeveledCompactionStrategy(opts.MaxTablesPerLevel)),
	}

	walPath := walPath(opts.Dir, opts.Family)
	wal, err := OpenWAL(walPath, opts.Durability, opts.NowFunc)
	if err != nil {
		return nil, err
	}
	t.wal = wal

	existing, err := loadExistingTables(opts.Dir, opts.Family)
	if err != nil {
		return nil, err
	}
	t.tables = existing
	if n := len(existing); n > 0 {
		t.nextGen = generationOf(existing[n-1].path) + 1
	}

	entries, err := Replay(walPath)
	if err != nil {
		return nil, fmt.Errorf("lsm: replay wal: %w", err)
	}
	for _, e := range entries {
		switch e.Op {
		case OpPut:
			t.active.Put(e.Key, e.Value)
		case OpDelete:
			t.active.Delete(e.Key)
		}
	}
	return t, nil
}

func walPath(dir, family string) string {
	return dir + "/" + family + ".wal"
}

func generationOf(path string) int {
	base := trimExt(filepath.Base(path))
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '-' {
			var gen int
			_, _ = fmt.Sscanf(base[i+1:], "%06d", &gen)
			return gen
		}
	}
	return 0
}

func trimExt(path string) string {
	if len(path) > 4 && path[len(path)-4:] == ".sst" {
		return path[:len(path)-4]
	}
	return path
}

func loadExistingTables(dir, family string) ([]*SSTable, error) {
	matches, err := filepathGlob(dir, family)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	out := make([]*SSTable, 0, len(matches))
	for _, m := range matches {
		st, err := OpenSSTable(m)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func filepathGlob(dir, family string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lsm: read dir %s: %w", dir, err)
	}
	var out []string
	prefix := family + "-"
	for _, e := range entries {
		name := e.Name()
		if len(name) > len(prefix) && name[:len(prefix)] == prefix && name[len(name)-4:] == ".sst" {
			out = append(out, dir+"/"+name)
		}
	}
	return out, nil
}

// Put writes key/value, going through the WAL first (unless in bulk mode)
// and then into the active memtable, flushing if the write buffer budget
// is exceeded.
func (t *Tree) Put(key string, value []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("lsm: tree %s is closed", t.opts.Family)
	}
	if _, err := t.wal.Append(OpPut, key, value); err != nil {
		return err
	}
	t.active.Put(key, value)
	t.cache.Invalidate(key)
	return t.maybeFlushLocked()
}

// Delete tombstones key.
func (t *Tree) Delete(key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("lsm: tree %s is closed", t.opts.Family)
	}
	if _, err := t.wal.Append(OpDelete, key, nil); err != nil {
		return err
	}
	t.active.Delete(key)
	t.cache.Invalidate(key)
	return t.maybeFlushLocked()
}

// Get looks up key across the active memtable, the flushing memtable (if
// any), the block cache, and on-disk SSTables newest-first.
func (t *Tree) Get(key string) ([]byte, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if v, deleted, found := t.active.Get(key); found {
		if deleted {
			return nil, false, nil
		}
		return v, true, nil
	}
	if t.flushing != nil {
		if v, deleted, found := t.flushing.Get(key); found {
			if deleted {
				return nil, false, nil
			}
			return v, true, nil
		}
	}
	if v, ok := t.cache.Get(key); ok {
		return v, true, nil
	}
	for i := len(t.tables) - 1; i >= 0; i-- {
		v, deleted, found, err := t.tables[i].Get(key)
		if err != nil {
			return nil, false, err
		}
		if found {
			if deleted {
				return nil, false, nil
			}
			t.cache.Put(key, v)
			return v, true, nil
		}
	}
	return nil, false, nil
}

// Scan returns every live key/value pair with key in [startKey, endKey),
// merged across the active memtable, the flushing memtable, and on-disk
// SSTables, newer sources shadowing older ones. The result is an unordered
// map; ScanOrdered returns the keys sorted.
func (t *Tree) Scan(startKey, endKey string) (map[string][]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	merged := make(map[string]entry)
	for i := 0; i < len(t.tables); i++ {
		es, err := t.tables[i].Scan(startKey, endKey)
		if err != nil {
			return nil, err
		}
		for _, e := range es {
			merged[e.key] = e
		}
	}
	if t.flushing != nil {
		for _, e := range t.flushing.Scan(startKey, endKey) {
			merged[e.key] = e
		}
	}
	for _, e := range t.active.Scan(startKey, endKey) {
		merged[e.key] = e
	}

	out := make(map[string][]byte, len(merged))
	for k, e := range merged {
		if !e.deleted {
			out[k] = e.value
		}
	}
	return out, nil
}

// ScanOrdered is Scan with its results sorted by key, used by traversal
// adjacency walks that need a deterministic order.
func (t *Tree) ScanOrdered(startKey, endKey string) ([]string, map[string][]byte, error) {
	m, err := t.Scan(startKey, endKey)
	if err != nil {
		return nil, nil, err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, m, nil
}

func (t *Tree) maybeFlushLocked() error {
	if t.active.Size() < t.opts.WriteBufferBytes {
		return nil
	}
	return t.flushLocked()
}

func (t *Tree) flushLocked() error {
	if t.active.Len() == 0 {
		return nil
	}
	t.flushing = t.active
	t.active = NewMemTable()

	path := SSTablePath(t.opts.Dir, t.opts.Family, t.nextGen)
	t.nextGen++
	if err := WriteSSTable(path, t.flushing.SortedEntries(), t.opts.BloomBitsPerKey); err != nil {
		return fmt.Errorf("lsm: flush: %w", err)
	}
	st, err := OpenSSTable(path)
	if err != nil {
		return err
	}
	t.tables = append(t.tables, st)
	t.flushing = nil
	if err := t.wal.Truncate(); err != nil {
		return fmt.Errorf("lsm: truncate wal after flush: %w", err)
	}
	return t.compactLocked()
}

// Flush forces the active memtable to disk regardless of its size,
// exercised by the snapshot backup path (C9) before copying files.
func (t *Tree) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flushLocked()
}

func (t *Tree) compactLocked() error {
	path := SSTablePath(t.opts.Dir, t.opts.Family, t.nextGen)
	newTable, consumed, err := t.compactor.Run(t.tables, t.nextGen, path, t.opts.BloomBitsPerKey)
	if err != nil {
		return fmt.Errorf("lsm: compact: %w", err)
	}
	if newTable == nil {
		return nil
	}
	t.nextGen++

	consumedSet := make(map[*SSTable]bool, len(consumed))
	for _, c := range consumed {
		consumedSet[c] = true
	}
	remaining := make([]*SSTable, 0, len(t.tables)-len(consumed)+1)
	for _, tb := range t.tables {
		if !consumedSet[tb] {
			remaining = append(remaining, tb)
		}
	}
	remaining = append(remaining, newTable)
	t.tables = remaining

	for _, c := range consumed {
		path := c.path
		if err := c.Close(); err != nil {
			return err
		}
		_ = os.Remove(path)
	}
	return nil
}

// Close flushes any pending writes and releases all SSTable file handles.
func (t *Tree) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if t.active.Len() > 0 {
		if err := t.flushLocked(); err != nil {
			return err
		}
	}
	if err := t.wal.Close(); err != nil {
		return err
	}
	for _, st := range t.tables {
		if err := st.Close(); err != nil {
			return err
		}
	}
	return nil
}

// Stats reports point-in-time statistics for the metrics layer.
type Stats struct {
	TableCount   int
	MemtableSize int
	CacheHitRate float64
}

// Stats returns the tree's current statistics.
func (t *Tree) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Stats{
		TableCount:   len(t.tables),
		MemtableSize: t.active.Size(),
		CacheHitRate: t.cache.HitRate(),
	}
}
