package core

import (
	"github.com/JonMunkholm/ProductTable/internal/catalog"
	"golang.org/x/text/language"
)

func item(id int64, name string, price float64, extra ...catalog.Field) catalog.Product {
	fields := []catalog.Field{
		{Key: "id", Value: id},
		{Key: "name", Value: name},
		{Key: "price", Value: price},
	}
	return catalog.MustProduct(append(fields, extra...)...)
}

func fruit() []catalog.Product {
	return []catalog.Product{
		item(1, "Apple", 10),
		item(2, "Banana", 20),
	}
}

func shelf() []catalog.Product {
	return []catalog.Product{
		item(3, "cherry", 30, catalog.Field{Key: "brand", Value: "Zeta"}),
		item(1, "Apple", 10, catalog.Field{Key: "brand", Value: "Acme"}),
		item(10, "Éclair", 5, catalog.Field{Key: "brand", Value: "Acme"}),
		item(2, "banana", 20),
		catalog.MustProduct(catalog.Field{Key: "id", Value: 9}, catalog.Field{Key: "price", Value: 15}),
	}
}

func ids(products []catalog.Product) []int64 {
	out := make([]int64, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func defaultPipeline() Pipeline {
	return NewPipeline(language.English, false)
}

func reduceAll(st State, products []catalog.Product, actions ...Action) State {
	for _, a := range actions {
		st = Reduce(st, a, products)
	}
	return st
}
