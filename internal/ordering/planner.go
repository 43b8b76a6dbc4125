package ordering

import (
	"errors"
	"fmt"
)

// Plan computes the write-set for moving movedID to targetIndex within items.
// items must be the complete scope sorted ascending by SortOrder. The same
// input always yields the same plan, so an optimistic client and the
// authoritative store converge on identical writes.
//
// The whole scope is scanned for exhausted gaps before every move, not only
// the neighbourhood of the target. That is O(n) per move.
func (s *Sequencer) Plan(items []Orderable, movedID string, targetIndex int) (Plan, error) {
	from := -1
	for i, it := range items {
		if it.ID == movedID {
			from = i
			break
		}
	}
	if from < 0 {
		return Plan{}, fmt.Errorf("%w: %s", ErrItemNotFound, movedID)
	}
	if targetIndex < 0 || targetIndex >= len(items) {
		return Plan{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfBounds, targetIndex, len(items))
	}

	reordered := moveItem(items, from, targetIndex)

	if NeedsRebalancing(items) {
		return s.rebalancePlan(items, reordered), nil
	}
	if from == targetIndex {
		return Plan{}, nil
	}

	var prev, next *int64
	if targetIndex > 0 {
		k := reordered[targetIndex-1].SortOrder
		prev = &k
	}
	if targetIndex < len(reordered)-1 {
		k := reordered[targetIndex+1].SortOrder
		next = &k
	}

	key, err := s.InsertOrder(prev, next)
	if errors.Is(err, ErrNeedsRebalancing) {
		// Only reachable at the int64 edges; the gap scan above rules out
		// exhaustion between neighbours.
		return s.rebalancePlan(items, reordered), nil
	}
	if err != nil {
		return Plan{}, err
	}
	return Plan{Writes: []Write{{ID: movedID, SortOrder: key}}}, nil
}

func (s *Sequencer) rebalancePlan(current, reordered []Orderable) Plan {
	return Plan{
		Writes:     changedWrites(current, s.Rebalance(reordered)),
		Rebalanced: true,
	}
}

// moveItem returns a copy of items with the element at from relocated to to.
func moveItem(items []Orderable, from, to int) []Orderable {
	out := make([]Orderable, 0, len(items))
	moved := items[from]
	for i, it := range items {
		if i != from {
			out = append(out, it)
		}
	}
	out = append(out, Orderable{})
	copy(out[to+1:], out[to:])
	out[to] = moved
	return out
}
