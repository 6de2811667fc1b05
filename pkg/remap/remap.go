// Package remap builds compacting index maps from hash sequences.
//
// Given one hash per element, Build assigns each distinct hash a new
// index in order of first occurrence. The result renumbers a vertex or
// triangle array so that equal-hash elements collapse onto a single
// survivor.
package remap

// Map is a compacting renumbering of an indexed sequence.
type Map struct {
	// OldToNew maps every old index to its new index. Many-to-one:
	// all elements sharing a hash map to the first occurrence.
	OldToNew []int
	// NewToOld maps every new index back to the representative old
	// index (the first element seen with that hash).
	NewToOld []int
}

// NewCount returns the number of distinct elements after compaction.
func (m Map) NewCount() int {
	return len(m.NewToOld)
}

// Build scans keys once and produces the compacting map. The first
// occurrence of a key claims the next new index; later equal keys map
// to it. First-occurrence order is preserved exactly, which keeps the
// downstream array compaction deterministic.
func Build(keys []uint64) Map {
	m := Map{
		OldToNew: make([]int, len(keys)),
		NewToOld: make([]int, 0, len(keys)),
	}
	seen := make(map[uint64]int, len(keys))
	for i, k := range keys {
		if j, ok := seen[k]; ok {
			m.OldToNew[i] = j
			continue
		}
		j := len(m.NewToOld)
		seen[k] = j
		m.OldToNew[i] = j
		m.NewToOld = append(m.NewToOld, i)
	}
	return m
}

// Identity reports whether the map leaves the sequence unchanged.
func (m Map) Identity() bool {
	if len(m.OldToNew) != len(m.NewToOld) {
		return false
	}
	for i, j := range m.OldToNew {
		if i != j {
			return false
		}
	}
	return true
}
