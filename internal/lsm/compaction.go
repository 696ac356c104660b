package lsm

import (
	"fmt"
	"sort"
)

// CompactionPlan names the input tables to merge and the generation number
// of the resulting table, grounded on the teacher's pkg/lsm/compaction_types.go.
type CompactionPlan struct {
	Inputs     []*SSTable
	Generation int
}

// LeveledCompactionStrategy triggers a compaction once more than
// maxTablesPerLevel tables have accumulated, merging the oldest tables
// first — the same trigger the teacher's LeveledCompactionStrategy uses.
type LeveledCompactionStrategy struct {
	maxTablesPerLevel int
}

// NewLeveledCompactionStrategy builds a strategy that compacts once a
// family holds more than maxTablesPerLevel SSTables.
func NewLeveledCompactionStrategy(maxTablesPerLevel int) *LeveledCompactionStrategy {
	if maxTablesPerLevel <= 0 {
		maxTablesPerLevel = 4
	}
	return &LeveledCompactionStrategy{maxTablesPerLevel: maxTablesPerLevel}
}

// Plan decides whether tables (oldest-first) should be compacted, and if
// so, which ones.
func (s *LeveledCompactionStrategy) Plan(tables []*SSTable, nextGeneration int) *CompactionPlan {
	if len(tables) <= s.maxTablesPerLevel {
		return nil
	}
	n := len(tables) - s.maxTablesPerLevel + 1
	if n > len(tables) {
		n = len(tables)
	}
	return &CompactionPlan{Inputs: tables[:n], Generation: nextGeneration}
}

// MergeTables merges the sorted contents of multiple SSTables (oldest to
// newest) into one sorted entry slice, newer entries (including tombstones)
// shadowing older ones for the same key — the standard LSM merge-iterator
// semantics behind the teacher's compaction pass.
func MergeTables(tables []*SSTable) ([]entry, error) {
	merged := make(map[string]entry)
	for _, t := range tables {
		es, err := t.Scan("", "")
		if err != nil {
			return nil, fmt.Errorf("lsm: scan table during compaction: %w", err)
		}
		for _, e := range es {
			merged[e.key] = e
		}
	}
	out := make([]entry, 0, len(merged))
	for _, e := range merged {
		if !e.deleted {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out, nil
}

// Compactor runs leveled compaction for one column family's table set.
type Compactor struct {
	strategy *LeveledCompactionStrategy
}

// NewCompactor builds a compactor using the given strategy.
func NewCompactor(strategy *LeveledCompactionStrategy) *Compactor {
	return &Compactor{strategy: strategy}
}

// Run executes one compaction pass if the strategy decides one is due,
// writing the merged result to outPath and returning the tables that were
// consumed so the caller can remove them from the live set and disk.
func (c *Compactor) Run(tables []*SSTable, nextGeneration int, outPath string, bitsPerKey int) (*SSTable, []*SSTable, error) {
	plan := c.strategy.Plan(tables, nextGeneration)
	if plan == nil {
		return nil, nil, nil
	}
	merged, err := MergeTables(plan.Inputs)
	if err != nil {
		return nil, nil, err
	}
	if err := WriteSSTable(outPath, merged, bitsPerKey); err != nil {
		return nil, nil, fmt.Errorf("lsm: write compacted table: %w", err)
	}
	newTable, err := OpenSSTable(outPath)
	if err != nil {
		return nil, nil, err
	}
	return newTable, plan.Inputs, nil
}
