package ordering

// Rebalance spaces every item evenly, keeping the caller's order:
// the item at index i gets (i+1) * increment.
func (s *Sequencer) Rebalance(items []Orderable) []Write {
	writes := make([]Write, len(items))
	for i, it := range items {
		writes[i] = Write{ID: it.ID, SortOrder: int64(i+1) * s.increment}
	}
	return writes
}

// NeedsRebalancing reports whether any adjacent pair in items is closer than
// the minimum insertable gap. items are expected in ascending key order; ties
// or inversions count as exhausted.
func NeedsRebalancing(items []Orderable) bool {
	for i := 1; i < len(items); i++ {
		if items[i].SortOrder-items[i-1].SortOrder < minGap {
			return true
		}
	}
	return false
}

// changedWrites keeps only the writes whose key differs from the current one.
func changedWrites(items []Orderable, writes []Write) []Write {
	current := make(map[string]int64, len(items))
	for _, it := range items {
		current[it.ID] = it.SortOrder
	}
	var out []Write
	for _, w := range writes {
		if k, ok := current[w.ID]; ok && k == w.SortOrder {
			continue
		}
		out = append(out, w)
	}
	return out
}
