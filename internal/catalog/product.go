// Package catalog fetches the product list from the remote catalog API.
//
// The catalog is read exactly once per process. A [Loader] owns the
// Loading -> Ready transition and keeps the fetched list immutable for the
// rest of the session; every other package reads products through it.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Well-known product field keys.
const (
	KeyID    = "id"
	KeyName  = "name"
	KeyPrice = "price"
)

var (
	// ErrMissingID is returned when a product record has no usable id.
	ErrMissingID = errors.New("product missing id")

	// ErrDuplicateID is returned when two records share an id.
	ErrDuplicateID = errors.New("duplicate product id")

	// ErrNumberRange is returned by ParseDecimal for exponents outside
	// ±MaxExponent.
	ErrNumberRange = errors.New("number out of range")
)

// MaxExponent bounds the exponent of prices and numeric sort values.
// Comparing two decimals rescales one to the other's exponent.
const MaxExponent = 32

// Field is one key/value pair of a product record, in API order.
type Field struct {
	Key   string
	Value any // string, json.Number, bool, nil, []any or map[string]any
}

// Product is a single catalog record.
//
// ID, Name and Price are lifted out for the view pipeline. Every field the
// API returned, including those three, stays available through Fields in
// its original order so exports can project the record unmodified.
type Product struct {
	ID    int64
	Name  *string // nil when the record has no string name
	Price decimal.Decimal

	priced bool
	fields []Field
}

// NewProduct builds a product from ordered fields, as if decoded from JSON.
// Numbers may be given as json.Number, int, int64 or float64.
func NewProduct(fields ...Field) (Product, error) {
	var p Product
	hasID := false
	for _, f := range fields {
		v := normalizeValue(f.Value)
		if err := p.set(f.Key, v); err != nil {
			return Product{}, err
		}
		if f.Key == KeyID {
			hasID = true
		}
	}
	if !hasID {
		return Product{}, ErrMissingID
	}
	return p, nil
}

// MustProduct is NewProduct for fixtures; it panics on error.
func MustProduct(fields ...Field) Product {
	p, err := NewProduct(fields...)
	if err != nil {
		panic(err)
	}
	return p
}

// Fields returns a copy of the product's fields in API order.
func (p Product) Fields() []Field {
	out := make([]Field, len(p.fields))
	copy(out, p.fields)
	return out
}

// Field returns the raw value stored under key.
func (p Product) Field(key string) (any, bool) {
	for _, f := range p.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// DisplayName returns the name or an empty string when absent.
func (p Product) DisplayName() string {
	if p.Name == nil {
		return ""
	}
	return *p.Name
}

// HasPrice reports whether the record carried a usable numeric price.
func (p Product) HasPrice() bool {
	return p.priced
}

// UnmarshalJSON decodes a product object while keeping key order.
func (p *Product) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("product: expected object, got %v", tok)
	}

	var out Product
	hasID := false
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("product: unexpected key token %v", keyTok)
		}

		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("product field %q: %w", key, err)
		}
		if err := out.set(key, v); err != nil {
			return err
		}
		if key == KeyID {
			hasID = true
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	if !hasID {
		return ErrMissingID
	}

	*p = out
	return nil
}

// MarshalJSON writes the fields back in their original order.
func (p Product) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range p.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("product field %q: %w", f.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// set stores a field, replacing an earlier value for the same key.
func (p *Product) set(key string, v any) error {
	switch key {
	case KeyID:
		id, err := parseID(v)
		if err != nil {
			return err
		}
		p.ID = id
	case KeyName:
		if s, ok := v.(string); ok {
			p.Name = &s
		} else {
			p.Name = nil
		}
	case KeyPrice:
		// Unusable prices are kept as raw fields; the product counts as
		// unpriced.
		p.Price, p.priced = parsePrice(v)
	}

	for i := range p.fields {
		if p.fields[i].Key == key {
			p.fields[i].Value = v
			return nil
		}
	}
	p.fields = append(p.fields, Field{Key: key, Value: v})
	return nil
}

func parseID(v any) (int64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, fmt.Errorf("%w: id is %T", ErrMissingID, v)
	}
	id, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: id %q is not an integer", ErrMissingID, n.String())
	}
	return id, nil
}

func parsePrice(v any) (decimal.Decimal, bool) {
	var raw string
	switch val := v.(type) {
	case json.Number:
		raw = val.String()
	case string:
		raw = val
	default:
		return decimal.Zero, false
	}
	d, err := ParseDecimal(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseDecimal parses s as a decimal number, rejecting exponents outside
// ±MaxExponent.
func ParseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, err
	}
	if e := d.Exponent(); e > MaxExponent || e < -MaxExponent {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNumberRange, s)
	}
	return d, nil
}

// normalizeValue converts Go numeric literals to json.Number so fixtures
// built in code look like decoded records.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case int:
		return json.Number(fmt.Sprintf("%d", n))
	case int64:
		return json.Number(fmt.Sprintf("%d", n))
	case float64:
		return json.Number(decimal.NewFromFloat(n).String())
	case decimal.Decimal:
		return json.Number(n.String())
	default:
		return v
	}
}

// FormatValue renders a field value as display text. Nested arrays and
// objects are rendered as compact JSON.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
