package core

import (
	"slices"
	"strings"

	"github.com/JonMunkholm/ProductTable/internal/catalog"
	"github.com/shopspring/decimal"
)

// SortOrder is the direction of the active sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// DefaultSortKey is used when no column has been chosen.
const DefaultSortKey = catalog.KeyID

// State is the View State of one browser session: every user-adjustable
// display parameter plus the selection set and the detail panel.
//
// State is a value. It is only changed through Reduce, which returns a new
// State and never mutates its input.
type State struct {
	SearchQuery string
	SortKey     string // empty when no column has been chosen
	SortOrder   SortOrder
	MinPrice    string // raw input, parsed by PriceBounds
	MaxPrice    string

	selected map[int64]struct{}

	// Detail is the product focused in the detail panel, if any. It is not
	// part of the selection set.
	Detail *catalog.Product
}

// NewState returns the initial View State.
func NewState() State {
	return State{
		SortOrder: SortAsc,
		selected:  make(map[int64]struct{}),
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.selected = make(map[int64]struct{}, len(s.selected))
	for id := range s.selected {
		out.selected[id] = struct{}{}
	}
	return out
}

// EffectiveSortKey returns the sort key, defaulting to DefaultSortKey.
func (s State) EffectiveSortKey() string {
	if s.SortKey == "" {
		return DefaultSortKey
	}
	return s.SortKey
}

// IsSelected reports whether id is in the selection set.
func (s State) IsSelected(id int64) bool {
	_, ok := s.selected[id]
	return ok
}

// SelectedCount returns the size of the selection set.
func (s State) SelectedCount() int {
	return len(s.selected)
}

// SelectedIDs returns the selection set in ascending id order.
func (s State) SelectedIDs() []int64 {
	ids := make([]int64, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// SelectedSet returns a copy of the selection set.
func (s State) SelectedSet() map[int64]struct{} {
	return s.Clone().selected
}

// IsAllSelected reports whether the selection is non-empty and covers all
// total loaded products.
func (s State) IsAllSelected(total int) bool {
	return len(s.selected) > 0 && len(s.selected) == total
}

// PriceBounds parses the raw price inputs.
func (s State) PriceBounds() PriceBounds {
	var b PriceBounds
	b.Min, b.MinInvalid = parseBound(s.MinPrice)
	b.Max, b.MaxInvalid = parseBound(s.MaxPrice)
	return b
}

// PriceBounds is the parsed form of the min/max price inputs. A nil bound
// is unconstrained. Input that is not a number is treated as unconstrained
// and flagged so the UI can point it out.
type PriceBounds struct {
	Min        *decimal.Decimal
	Max        *decimal.Decimal
	MinInvalid bool
	MaxInvalid bool
}

// Contains reports whether p satisfies both bounds inclusively. A product
// without a price never satisfies a set bound.
func (b PriceBounds) Contains(p catalog.Product) bool {
	if b.Min == nil && b.Max == nil {
		return true
	}
	if !p.HasPrice() {
		return false
	}
	if b.Min != nil && p.Price.LessThan(*b.Min) {
		return false
	}
	if b.Max != nil && p.Price.GreaterThan(*b.Max) {
		return false
	}
	return true
}

// parseBound returns the bound and whether the raw input was rejected.
func parseBound(raw string) (*decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	d, err := catalog.ParseDecimal(raw)
	if err != nil {
		return nil, true
	}
	return &d, false
}
