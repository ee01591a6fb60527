package core

import "github.com/JonMunkholm/ProductTable/internal/catalog"

// Action is a named intent that changes the View State.
type Action interface {
	// Name identifies the intent in logs and metrics.
	Name() string
	apply(s State, products []catalog.Product) State
}

// Reduce applies a to s and returns the new state. products is the raw
// product list; it is read, never modified. s is not mutated.
func Reduce(s State, a Action, products []catalog.Product) State {
	return a.apply(s.Clone(), products)
}

// SearchChanged replaces the name search text.
type SearchChanged struct {
	Query string
}

func (SearchChanged) Name() string { return "search_changed" }

func (a SearchChanged) apply(s State, _ []catalog.Product) State {
	s.SearchQuery = a.Query
	return s
}

// PriceRangeChanged replaces both price bound inputs.
type PriceRangeChanged struct {
	Min string
	Max string
}

func (PriceRangeChanged) Name() string { return "price_range_changed" }

func (a PriceRangeChanged) apply(s State, _ []catalog.Product) State {
	s.MinPrice = a.Min
	s.MaxPrice = a.Max
	return s
}

// MinPriceChanged replaces the lower price bound input.
type MinPriceChanged struct {
	Value string
}

func (MinPriceChanged) Name() string { return "min_price_changed" }

func (a MinPriceChanged) apply(s State, _ []catalog.Product) State {
	s.MinPrice = a.Value
	return s
}

// MaxPriceChanged replaces the upper price bound input.
type MaxPriceChanged struct {
	Value string
}

func (MaxPriceChanged) Name() string { return "max_price_changed" }

func (a MaxPriceChanged) apply(s State, _ []catalog.Product) State {
	s.MaxPrice = a.Value
	return s
}

// SortToggled flips the order when Key is already active, otherwise makes
// Key active in ascending order.
type SortToggled struct {
	Key string
}

func (SortToggled) Name() string { return "sort_toggled" }

func (a SortToggled) apply(s State, _ []catalog.Product) State {
	if s.SortKey == a.Key {
		if s.SortOrder == SortAsc {
			s.SortOrder = SortDesc
		} else {
			s.SortOrder = SortAsc
		}
		return s
	}
	s.SortKey = a.Key
	s.SortOrder = SortAsc
	return s
}

// RowToggled adds ID to the selection if absent, removes it otherwise.
// Ids that are not in the product list are ignored.
type RowToggled struct {
	ID int64
}

func (RowToggled) Name() string { return "row_toggled" }

func (a RowToggled) apply(s State, products []catalog.Product) State {
	if _, ok := s.selected[a.ID]; ok {
		delete(s.selected, a.ID)
		return s
	}
	if indexOf(products, a.ID) < 0 {
		return s
	}
	s.selected[a.ID] = struct{}{}
	return s
}

// SelectAllToggled clears the selection when every loaded product is
// selected, otherwise selects every loaded product, filtered out or not.
type SelectAllToggled struct{}

func (SelectAllToggled) Name() string { return "select_all_toggled" }

func (SelectAllToggled) apply(s State, products []catalog.Product) State {
	if len(s.selected) == len(products) {
		clear(s.selected)
		return s
	}
	for _, p := range products {
		s.selected[p.ID] = struct{}{}
	}
	return s
}

// DetailsViewed focuses the product with ID in the detail panel.
// Unknown ids leave the panel unchanged.
type DetailsViewed struct {
	ID int64
}

func (DetailsViewed) Name() string { return "details_viewed" }

func (a DetailsViewed) apply(s State, products []catalog.Product) State {
	if i := indexOf(products, a.ID); i >= 0 {
		p := products[i]
		s.Detail = &p
	}
	return s
}

// DetailsClosed clears the detail panel.
type DetailsClosed struct{}

func (DetailsClosed) Name() string { return "details_closed" }

func (DetailsClosed) apply(s State, _ []catalog.Product) State {
	s.Detail = nil
	return s
}

func indexOf(products []catalog.Product, id int64) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}
