package ordering

import "github.com/cleared-dev/tally/internal/model"

// Orderable is the ordering projection of a row.
type Orderable = model.Orderable

// Write assigns a new sort key to one row.
type Write struct {
	ID        string
	SortOrder int64
}

// Plan is the write-set produced for a single move.
type Plan struct {
	Writes     []Write
	Rebalanced bool
}

// IsNoop reports whether the plan changes nothing.
func (p Plan) IsNoop() bool {
	return len(p.Writes) == 0
}
