package core

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"github.com/JonMunkholm/ProductTable/internal/catalog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Pipeline turns the raw product list and a View State into the ordered
// rows to display: name filter, then price filter, then a stable sort.
//
// By default numeric fields (id, price and any JSON number) sort by value
// and text fields sort with a locale-aware collator. With TextSort set,
// every key is compared as collated text, which reproduces the legacy
// behaviour where id 10 sorts before id 9.
type Pipeline struct {
	locale   language.Tag
	textSort bool
}

// NewPipeline creates a pipeline collating for locale.
func NewPipeline(locale language.Tag, textSort bool) Pipeline {
	return Pipeline{locale: locale, textSort: textSort}
}

// Apply returns the products to display for s. raw is not modified; the
// result is a new slice.
func (p Pipeline) Apply(raw []catalog.Product, s State) []catalog.Product {
	query := strings.ToLower(s.SearchQuery)
	bounds := s.PriceBounds()

	out := make([]catalog.Product, 0, len(raw))
	for _, prod := range raw {
		if !matchesName(prod, query) {
			continue
		}
		if !bounds.Contains(prod) {
			continue
		}
		out = append(out, prod)
	}

	key := s.EffectiveSortKey()
	sign := 1
	if s.SortOrder == SortDesc {
		sign = -1
	}

	// Collators keep scratch buffers and are not safe for concurrent use.
	col := collate.New(p.locale)
	slices.SortStableFunc(out, func(a, b catalog.Product) int {
		return p.compare(col, a, b, key) * sign
	})
	return out
}

// matchesName keeps products whose lowercased name contains query. A
// product without a name only matches the empty query.
func matchesName(p catalog.Product, query string) bool {
	if p.Name == nil {
		return query == ""
	}
	return strings.Contains(strings.ToLower(*p.Name), query)
}

func (p Pipeline) compare(col *collate.Collator, a, b catalog.Product, key string) int {
	if p.textSort {
		return col.CompareString(sortText(a, key), sortText(b, key))
	}

	va, vb := sortValueOf(a, key), sortValueOf(b, key)
	if va.kind != vb.kind {
		return int(va.kind) - int(vb.kind)
	}
	switch va.kind {
	case kindNumber:
		return va.num.Cmp(vb.num)
	case kindText:
		return col.CompareString(va.text, vb.text)
	default:
		return 0
	}
}

type valueKind int

// Missing values sort first, then numbers, then text.
const (
	kindMissing valueKind = iota
	kindNumber
	kindText
)

type sortValue struct {
	kind valueKind
	num  decimal.Decimal
	text string
}

func sortValueOf(p catalog.Product, key string) sortValue {
	switch key {
	case catalog.KeyID:
		return sortValue{kind: kindNumber, num: decimal.NewFromInt(p.ID)}
	case catalog.KeyPrice:
		if !p.HasPrice() {
			return sortValue{kind: kindMissing}
		}
		return sortValue{kind: kindNumber, num: p.Price}
	case catalog.KeyName:
		if p.Name == nil {
			return sortValue{kind: kindMissing}
		}
		return sortValue{kind: kindText, text: *p.Name}
	}

	v, ok := p.Field(key)
	if !ok || v == nil {
		return sortValue{kind: kindMissing}
	}
	if n, isNum := v.(json.Number); isNum {
		if d, err := catalog.ParseDecimal(n.String()); err == nil {
			return sortValue{kind: kindNumber, num: d}
		}
	}
	return sortValue{kind: kindText, text: catalog.FormatValue(v)}
}

func sortText(p catalog.Product, key string) string {
	if key == catalog.KeyID {
		return strconv.FormatInt(p.ID, 10)
	}
	v, _ := p.Field(key)
	return catalog.FormatValue(v)
}
