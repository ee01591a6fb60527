package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduce_DoesNotMutateInput(t *testing.T) {
	products := fruit()
	before := Reduce(NewState(), RowToggled{ID: 1}, products)

	after := Reduce(before, RowToggled{ID: 2}, products)

	assert.Equal(t, []int64{1}, before.SelectedIDs())
	assert.Equal(t, []int64{1, 2}, after.SelectedIDs())
}

func TestRowToggled_IsItsOwnInverse(t *testing.T) {
	products := shelf()
	bases := []State{
		NewState(),
		reduceAll(NewState(), products, RowToggled{ID: 3}),
		reduceAll(NewState(), products, SelectAllToggled{}),
	}

	for _, base := range bases {
		for _, p := range products {
			got := reduceAll(base, products, RowToggled{ID: p.ID}, RowToggled{ID: p.ID})
			assert.Equal(t, base.SelectedIDs(), got.SelectedIDs(), "id %d", p.ID)
		}
	}
}

func TestRowToggled_IgnoresUnknownIDs(t *testing.T) {
	st := Reduce(NewState(), RowToggled{ID: 99}, fruit())
	assert.Equal(t, 0, st.SelectedCount())
}

func TestSelectAllToggled(t *testing.T) {
	products := shelf()

	t.Run("selects every loaded product", func(t *testing.T) {
		st := Reduce(NewState(), SelectAllToggled{}, products)
		assert.Equal(t, []int64{1, 2, 3, 9, 10}, st.SelectedIDs())
		assert.True(t, st.IsAllSelected(len(products)))
	})

	t.Run("ignores the current filter", func(t *testing.T) {
		st := reduceAll(NewState(), products, SearchChanged{Query: "apple"}, SelectAllToggled{})
		assert.Equal(t, len(products), st.SelectedCount())
	})

	t.Run("partial selection selects all", func(t *testing.T) {
		st := reduceAll(NewState(), products, RowToggled{ID: 2}, SelectAllToggled{})
		assert.Equal(t, len(products), st.SelectedCount())
	})

	t.Run("twice from unselected is an involution", func(t *testing.T) {
		st := reduceAll(NewState(), products, SelectAllToggled{}, SelectAllToggled{})
		assert.Equal(t, 0, st.SelectedCount())
		assert.False(t, st.IsAllSelected(len(products)))
	})

	t.Run("empty product list", func(t *testing.T) {
		st := Reduce(NewState(), SelectAllToggled{}, nil)
		assert.Equal(t, 0, st.SelectedCount())
		assert.False(t, st.IsAllSelected(0))
	})
}

func TestSortToggled(t *testing.T) {
	st := Reduce(NewState(), SortToggled{Key: "name"}, nil)
	assert.Equal(t, "name", st.SortKey)
	assert.Equal(t, SortAsc, st.SortOrder)

	st = Reduce(st, SortToggled{Key: "name"}, nil)
	assert.Equal(t, SortDesc, st.SortOrder)

	st = Reduce(st, SortToggled{Key: "name"}, nil)
	assert.Equal(t, SortAsc, st.SortOrder)

	st = Reduce(Reduce(st, SortToggled{Key: "name"}, nil), SortToggled{Key: "price"}, nil)
	assert.Equal(t, "price", st.SortKey)
	assert.Equal(t, SortAsc, st.SortOrder, "a new key starts ascending")
}

func TestPriceActions(t *testing.T) {
	st := reduceAll(NewState(), nil, MinPriceChanged{Value: "15"}, MaxPriceChanged{Value: "25"})
	assert.Equal(t, "15", st.MinPrice)
	assert.Equal(t, "25", st.MaxPrice)

	st = Reduce(st, PriceRangeChanged{Min: "", Max: "5"}, nil)
	assert.Equal(t, "", st.MinPrice)
	assert.Equal(t, "5", st.MaxPrice)
}

func TestDetails(t *testing.T) {
	products := fruit()

	st := Reduce(NewState(), DetailsViewed{ID: 2}, products)
	require.NotNil(t, st.Detail)
	assert.Equal(t, "Banana", st.Detail.DisplayName())
	assert.Equal(t, 0, st.SelectedCount(), "detail focus is not selection")

	st = Reduce(st, DetailsViewed{ID: 42}, products)
	require.NotNil(t, st.Detail)
	assert.Equal(t, int64(2), st.Detail.ID, "unknown id leaves the panel alone")

	st = Reduce(st, DetailsClosed{}, products)
	assert.Nil(t, st.Detail)
}

func TestActionNames(t *testing.T) {
	actions := []Action{
		SearchChanged{}, PriceRangeChanged{}, MinPriceChanged{}, MaxPriceChanged{},
		SortToggled{}, RowToggled{}, SelectAllToggled{}, DetailsViewed{}, DetailsClosed{},
	}
	seen := make(map[string]bool)
	for _, a := range actions {
		assert.NotEmpty(t, a.Name())
		assert.False(t, seen[a.Name()], "duplicate action name %q", a.Name())
		seen[a.Name()] = true
	}
}
