package core

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/ProductTable/internal/catalog"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestPipeline_Scenario(t *testing.T) {
	p := defaultPipeline()
	raw := fruit()

	st := Reduce(NewState(), SearchChanged{Query: "ban"}, raw)
	assert.Equal(t, []int64{2}, ids(p.Apply(raw, st)))

	st = Reduce(NewState(), PriceRangeChanged{Min: "15", Max: "25"}, raw)
	assert.Equal(t, []int64{2}, ids(p.Apply(raw, st)))
}

func TestPipeline_NameFilter(t *testing.T) {
	p := defaultPipeline()
	raw := shelf()

	tests := []struct {
		query string
		want  []int64
	}{
		{"", []int64{1, 2, 3, 9, 10}},
		{"AN", []int64{2}},
		{"a", []int64{1, 2, 10}},
		{"éclair", []int64{10}},
		{"zzz", []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			st := Reduce(NewState(), SearchChanged{Query: tt.query}, raw)
			assert.Equal(t, tt.want, ids(p.Apply(raw, st)))
		})
	}
}

func TestPipeline_PriceFilter(t *testing.T) {
	p := defaultPipeline()
	raw := shelf()

	tests := []struct {
		name     string
		min, max string
		want     []int64
	}{
		{"unbounded", "", "", []int64{1, 2, 3, 9, 10}},
		{"inclusive min", "20", "", []int64{2, 3}},
		{"inclusive max", "", "10", []int64{1, 10}},
		{"both", "10", "20", []int64{1, 2, 9}},
		{"decimal bound", "9.99", "10.01", []int64{1}},
		{"non-numeric is unconstrained", "abc", "", []int64{1, 2, 3, 9, 10}},
		{"whitespace is unconstrained", "  ", " 5 ", []int64{10}},
		{"inverted bounds match nothing", "30", "10", []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := Reduce(NewState(), PriceRangeChanged{Min: tt.min, Max: tt.max}, raw)
			assert.Equal(t, tt.want, ids(p.Apply(raw, st)))
		})
	}
}

func TestPipeline_HugeExponentBoundIsUnconstrained(t *testing.T) {
	raw := fruit()
	for _, a := range []Action{
		MaxPriceChanged{Value: "1e99999999"},
		MinPriceChanged{Value: "-1e99999999"},
		PriceRangeChanged{Min: "1e-99999999", Max: "1E99999999"},
	} {
		st := Reduce(NewState(), a, raw)

		done := make(chan []catalog.Product, 1)
		go func() { done <- defaultPipeline().Apply(raw, st) }()

		select {
		case got := <-done:
			assert.Equal(t, []int64{1, 2}, ids(got))
		case <-time.After(5 * time.Second):
			t.Fatalf("Apply did not finish for %#v", a)
		}

		b := st.PriceBounds()
		assert.Nil(t, b.Min)
		assert.Nil(t, b.Max)
	}
}

func TestPipeline_HugeExponentFieldSortsAsText(t *testing.T) {
	raw := []catalog.Product{
		item(1, "Apple", 10, catalog.Field{Key: "weight", Value: json.Number("1e99999999")}),
		item(2, "Banana", 20, catalog.Field{Key: "weight", Value: json.Number("5")}),
	}
	st := Reduce(NewState(), SortToggled{Key: "weight"}, raw)

	done := make(chan []catalog.Product, 1)
	go func() { done <- defaultPipeline().Apply(raw, st) }()

	select {
	case got := <-done:
		assert.Len(t, got, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("sort did not finish")
	}
}

func TestPipeline_UnpricedProductsFailSetBounds(t *testing.T) {
	p := defaultPipeline()
	raw := []catalog.Product{
		item(1, "Apple", 10),
		catalog.MustProduct(catalog.Field{Key: "id", Value: 2}, catalog.Field{Key: "name", Value: "Free"}),
	}

	assert.Equal(t, []int64{1, 2}, ids(p.Apply(raw, NewState())))

	st := Reduce(NewState(), MaxPriceChanged{Value: "100"}, raw)
	assert.Equal(t, []int64{1}, ids(p.Apply(raw, st)))
}

func TestPipeline_DefaultSortIsNumericByID(t *testing.T) {
	raw := shelf()
	got := defaultPipeline().Apply(raw, NewState())
	assert.Equal(t, []int64{1, 2, 3, 9, 10}, ids(got))
}

func TestPipeline_TextSortParity(t *testing.T) {
	raw := shelf()
	p := NewPipeline(language.English, true)
	assert.Equal(t, []int64{1, 10, 2, 3, 9}, ids(p.Apply(raw, NewState())))
}

func TestPipeline_SortByNameCollates(t *testing.T) {
	p := defaultPipeline()
	raw := shelf()

	st := Reduce(NewState(), SortToggled{Key: "name"}, raw)
	assert.Equal(t, []int64{9, 1, 2, 3, 10}, ids(p.Apply(raw, st)))

	st = Reduce(st, SortToggled{Key: "name"}, raw)
	assert.Equal(t, []int64{10, 3, 2, 1, 9}, ids(p.Apply(raw, st)))
}

func TestPipeline_SortIsStable(t *testing.T) {
	p := defaultPipeline()
	raw := shelf()

	st := Reduce(NewState(), SortToggled{Key: "brand"}, raw)
	assert.Equal(t, []int64{2, 9, 1, 10, 3}, ids(p.Apply(raw, st)))

	st = Reduce(st, SortToggled{Key: "brand"}, raw)
	assert.Equal(t, []int64{3, 1, 10, 2, 9}, ids(p.Apply(raw, st)))
}

func TestPipeline_DoubleToggleRestoresOrder(t *testing.T) {
	p := defaultPipeline()
	raw := shelf()

	for _, key := range []string{"id", "name", "price", "brand"} {
		st := Reduce(NewState(), SortToggled{Key: key}, raw)
		want := ids(p.Apply(raw, st))

		st = reduceAll(st, raw, SortToggled{Key: key}, SortToggled{Key: key})
		assert.Equal(t, want, ids(p.Apply(raw, st)), key)
	}
}

func TestPipeline_DoesNotMutateRaw(t *testing.T) {
	p := defaultPipeline()
	raw := shelf()
	before := ids(raw)

	st := reduceAll(NewState(), raw, SortToggled{Key: "name"}, SortToggled{Key: "name"})
	p.Apply(raw, st)

	assert.Equal(t, before, ids(raw))
}

func TestPipeline_OutputIsFilteredSubset(t *testing.T) {
	p := defaultPipeline()
	raw := shelf()

	queries := []string{"", "a", "E", "an", "ch", "x"}
	bounds := [][2]string{{"", ""}, {"10", ""}, {"", "20"}, {"5", "15"}, {"nope", "30"}}

	for _, q := range queries {
		for _, b := range bounds {
			st := reduceAll(NewState(), raw, SearchChanged{Query: q}, PriceRangeChanged{Min: b[0], Max: b[1]})
			out := p.Apply(raw, st)
			assert.LessOrEqual(t, len(out), len(raw))

			pb := st.PriceBounds()
			for _, prod := range out {
				if q != "" {
					if assert.NotNil(t, prod.Name) {
						assert.Contains(t, strings.ToLower(*prod.Name), strings.ToLower(q))
					}
				}
				assert.True(t, pb.Contains(prod))
			}

			kept := 0
			for _, prod := range raw {
				if matchesName(prod, strings.ToLower(q)) && pb.Contains(prod) {
					kept++
				}
			}
			assert.Equal(t, kept, len(out), "query=%q bounds=%v", q, b)
		}
	}
}
