// Package templates holds the HTML components of the product table UI.
//
// Components are written in templ; run `templ generate` after editing a
// .templ file. Handlers render the same components for a full page and for
// a partial table swap.
package templates

import (
	"strconv"

	"github.com/JonMunkholm/ProductTable/internal/catalog"
	"github.com/JonMunkholm/ProductTable/internal/core"
)

// TableID is the element replaced by partial intent responses.
const TableID = "product-table"

func checkbox(checked bool) string {
	if checked {
		return "☑"
	}
	return "☐"
}

func productID(p catalog.Product) string {
	return strconv.FormatInt(p.ID, 10)
}

func priceText(p catalog.Product) string {
	v, _ := p.Field(catalog.KeyPrice)
	return catalog.FormatValue(v)
}

func ariaSort(s core.State, key string) string {
	if s.SortKey != key {
		return "none"
	}
	if s.SortOrder == core.SortAsc {
		return "ascending"
	}
	return "descending"
}

func sortLabel(s core.State, key, label string) string {
	switch ariaSort(s, key) {
	case "ascending":
		return label + " ▲"
	case "descending":
		return label + " ▼"
	}
	return label
}

// detailFields lists the record's fields other than name and price, which
// the panel shows as its heading.
func detailFields(p catalog.Product) []catalog.Field {
	var out []catalog.Field
	for _, f := range p.Fields() {
		if f.Key == catalog.KeyName || f.Key == catalog.KeyPrice {
			continue
		}
		out = append(out, f)
	}
	return out
}
