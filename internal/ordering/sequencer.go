// Package ordering computes fractional sort keys for user-ordered lists.
//
// Keys are int64 values spaced by a fixed increment. Inserting between two
// neighbours takes the integer midpoint, so a move rewrites one row until the
// gap between two neighbours is exhausted, at which point the whole scope is
// rebalanced. Every function here is pure: callers load a scope, plan, and
// persist the returned writes in one storage transaction.
package ordering

import (
	"errors"
	"math"
)

// DefaultIncrement is the spacing between keys after a rebalance and the
// step used when appending or prepending.
const DefaultIncrement int64 = 1000

// minGap is the smallest distance between neighbours that still leaves room
// for one more insert between them.
const minGap = 2

var (
	// ErrNeedsRebalancing means no integer key exists strictly between two neighbours.
	ErrNeedsRebalancing = errors.New("no key between neighbours, scope needs rebalancing")
	// ErrItemNotFound means the moved id is not part of the scope.
	ErrItemNotFound = errors.New("item not found in scope")
	// ErrIndexOutOfBounds means the target index is outside the scope.
	ErrIndexOutOfBounds = errors.New("target index out of bounds")
)

// Sequencer holds the key spacing shared by all ordering operations.
type Sequencer struct {
	increment int64
}

// NewSequencer creates a Sequencer. A non-positive increment selects DefaultIncrement.
func NewSequencer(increment int64) *Sequencer {
	if increment <= 0 {
		increment = DefaultIncrement
	}
	return &Sequencer{increment: increment}
}

// Increment returns the configured key spacing.
func (s *Sequencer) Increment() int64 {
	return s.increment
}

// InsertOrder returns a key strictly between prev and next. A nil bound means
// the key goes at that end of the scope.
func (s *Sequencer) InsertOrder(prev, next *int64) (int64, error) {
	switch {
	case prev == nil && next == nil:
		return s.increment, nil
	case prev == nil:
		if *next < math.MinInt64+s.increment {
			return 0, ErrNeedsRebalancing
		}
		return *next - s.increment, nil
	case next == nil:
		if *prev > math.MaxInt64-s.increment {
			return 0, ErrNeedsRebalancing
		}
		return *prev + s.increment, nil
	}

	p, n := *prev, *next
	if n <= p {
		return 0, ErrNeedsRebalancing
	}
	// floor((p+n)/2) without overflowing p+n.
	mid := p + (n-p)/2
	if mid <= p || mid >= n {
		return 0, ErrNeedsRebalancing
	}
	return mid, nil
}

// AppendOrder returns the key for a new item placed after every item in the
// scope. items must be sorted ascending by SortOrder.
func (s *Sequencer) AppendOrder(items []Orderable) (int64, error) {
	if len(items) == 0 {
		return s.InsertOrder(nil, nil)
	}
	last := items[len(items)-1].SortOrder
	return s.InsertOrder(&last, nil)
}
