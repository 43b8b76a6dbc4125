package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spaced(ids ...string) []Orderable {
	items := make([]Orderable, len(ids))
	for i, id := range ids {
		items[i] = Orderable{ID: id, SortOrder: int64(i+1) * 1000}
	}
	return items
}

// applyPlan returns items with the plan's writes applied, re-sorted by key.
func applyPlan(items []Orderable, p Plan) []Orderable {
	keys := make(map[string]int64, len(p.Writes))
	for _, w := range p.Writes {
		keys[w.ID] = w.SortOrder
	}
	out := make([]Orderable, len(items))
	for i, it := range items {
		if k, ok := keys[it.ID]; ok {
			it.SortOrder = k
		}
		out[i] = it
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].SortOrder < out[j-1].SortOrder; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func ids(items []Orderable) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestPlan_Errors(t *testing.T) {
	s := NewSequencer(DefaultIncrement)
	items := spaced("a", "b", "c")

	_, err := s.Plan(items, "zz", 0)
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = s.Plan(items, "a", 3)
	assert.ErrorIs(t, err, ErrIndexOutOfBounds)

	_, err = s.Plan(items, "a", -1)
	assert.ErrorIs(t, err, ErrIndexOutOfBounds)

	_, err = s.Plan(nil, "a", 0)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestPlan_FractionalMoves(t *testing.T) {
	s := NewSequencer(DefaultIncrement)
	items := spaced("a", "b", "c", "d")

	tests := []struct {
		name   string
		moved  string
		target int
		want   Write
		order  []string
	}{
		{"to front", "c", 0, Write{ID: "c", SortOrder: 0}, []string{"c", "a", "b", "d"}},
		{"to end", "a", 3, Write{ID: "a", SortOrder: 5000}, []string{"b", "c", "d", "a"}},
		{"down one", "a", 1, Write{ID: "a", SortOrder: 2500}, []string{"b", "a", "c", "d"}},
		{"up one", "d", 2, Write{ID: "d", SortOrder: 2500}, []string{"a", "b", "d", "c"}},
	}
	for _, tt := range tests {
		p, err := s.Plan(items, tt.moved, tt.target)
		require.NoError(t, err, tt.name)
		assert.False(t, p.Rebalanced, tt.name)
		assert.Equal(t, []Write{tt.want}, p.Writes, tt.name)
		assert.Equal(t, tt.order, ids(applyPlan(items, p)), tt.name)
	}
}

func TestPlan_SameIndexIsNoop(t *testing.T) {
	s := NewSequencer(DefaultIncrement)
	items := spaced("a", "b", "c")

	p, err := s.Plan(items, "b", 1)
	require.NoError(t, err)
	assert.True(t, p.IsNoop())
}

func TestPlan_RepeatedMoveAddsNoWrites(t *testing.T) {
	s := NewSequencer(DefaultIncrement)
	items := spaced("a", "b", "c", "d")

	first, err := s.Plan(items, "d", 1)
	require.NoError(t, err)
	require.Len(t, first.Writes, 1)

	after := applyPlan(items, first)
	second, err := s.Plan(after, "d", 1)
	require.NoError(t, err)
	assert.True(t, second.IsNoop())
}

func TestPlan_EveryFractionalMoveChangesTheKey(t *testing.T) {
	seq := NewSequencer(DefaultIncrement)
	items := spaced("a", "b", "c", "d")

	for from, it := range items {
		for to := range items {
			if from == to {
				continue
			}
			p, err := seq.Plan(items, it.ID, to)
			require.NoError(t, err)
			require.False(t, p.Rebalanced)
			require.Len(t, p.Writes, 1, "%s to %d", it.ID, to)
			assert.NotEqual(t, it.SortOrder, p.Writes[0].SortOrder, "%s to %d", it.ID, to)
			assert.Equal(t, it.ID, ids(applyPlan(items, p))[to])
		}
	}
}

func TestPlan_Deterministic(t *testing.T) {
	s := NewSequencer(DefaultIncrement)
	items := []Orderable{{ID: "a", SortOrder: 10}, {ID: "b", SortOrder: 11}, {ID: "c", SortOrder: 40}, {ID: "d", SortOrder: 90}}

	p1, err := s.Plan(items, "a", 2)
	require.NoError(t, err)
	p2, err := s.Plan(items, "a", 2)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestPlan_RebalancesWhenGapExhaustedAnywhere(t *testing.T) {
	s := NewSequencer(DefaultIncrement)
	// b and c are adjacent keys; the move of d to the front does not touch
	// them but the scope is still rebalanced eagerly.
	items := []Orderable{
		{ID: "a", SortOrder: 1000},
		{ID: "b", SortOrder: 1999},
		{ID: "c", SortOrder: 2000},
		{ID: "d", SortOrder: 3000},
	}

	p, err := s.Plan(items, "d", 0)
	require.NoError(t, err)
	assert.True(t, p.Rebalanced)
	assert.Equal(t, []Write{
		{ID: "d", SortOrder: 1000},
		{ID: "a", SortOrder: 2000},
		{ID: "b", SortOrder: 3000},
		{ID: "c", SortOrder: 4000},
	}, p.Writes)
	assert.Equal(t, []string{"d", "a", "b", "c"}, ids(applyPlan(items, p)))
}

func TestPlan_RebalanceOmitsUnchangedRows(t *testing.T) {
	s := NewSequencer(DefaultIncrement)
	items := []Orderable{
		{ID: "a", SortOrder: 1000},
		{ID: "b", SortOrder: 2000},
		{ID: "c", SortOrder: 2001},
		{ID: "d", SortOrder: 4000},
	}

	p, err := s.Plan(items, "d", 3)
	require.NoError(t, err)
	assert.True(t, p.Rebalanced)
	assert.Equal(t, []Write{{ID: "c", SortOrder: 3000}}, p.Writes)
}

func TestPlan_TiesAreRepaired(t *testing.T) {
	s := NewSequencer(DefaultIncrement)
	items := []Orderable{{ID: "a", SortOrder: 5}, {ID: "b", SortOrder: 5}, {ID: "c", SortOrder: 5}}

	p, err := s.Plan(items, "a", 2)
	require.NoError(t, err)
	assert.True(t, p.Rebalanced)

	after := applyPlan(items, p)
	assert.Equal(t, []string{"b", "c", "a"}, ids(after))
	assert.False(t, NeedsRebalancing(after))
}

func TestPlan_ManyMovesStayOrdered(t *testing.T) {
	s := NewSequencer(DefaultIncrement)
	items := spaced("a", "b", "c", "d", "e")
	rebalances := 0

	// Repeatedly drag the last item between the first two; gaps shrink until
	// the planner rebalances, and the sequence never gains ties.
	for i := 0; i < 40; i++ {
		moved := items[len(items)-1].ID
		p, err := s.Plan(items, moved, 1)
		require.NoError(t, err)
		if p.Rebalanced {
			rebalances++
		}
		items = applyPlan(items, p)
		assert.Equal(t, moved, items[1].ID)
		for j := 1; j < len(items); j++ {
			assert.Less(t, items[j-1].SortOrder, items[j].SortOrder)
		}
	}
	assert.Positive(t, rebalances)
}
