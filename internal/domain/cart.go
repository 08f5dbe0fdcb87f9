package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// UsePlainJSONNumbers makes every decimal marshal as a bare JSON number,
// which is how the backend expects prices. Call it once at startup, before
// any request is served.
func UsePlainJSONNumbers() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Variant is the chosen size of a wall-art product.
type Variant struct {
	Label  string  `json:"label"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Depth  float64 `json:"depth,omitempty"`
	Unit   string  `json:"unit,omitempty"`
}

// CartLineItem is one product and its quantity within a cart or an order.
// Identity is ProductID; the variant is an attribute, not part of the key.
type CartLineItem struct {
	ProductID       string          `json:"productId"`
	Name            string          `json:"name"`
	UnitPrice       decimal.Decimal `json:"price"`
	Quantity        int             `json:"qty"`
	SelectedVariant *Variant        `json:"selectedSize,omitempty"`
	ImageURL        string          `json:"image"`
}

func (i CartLineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Subtotal returns the sum of unit price times quantity over items.
func Subtotal(items []CartLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Images      []string        `json:"images,omitempty"`
	Sizes       []Variant       `json:"sizes,omitempty"`
}

// PrimaryImage returns the first image reference, or "" when the product has none.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// ResolveImageURL turns a stored image reference into an absolute URL.
// Relative references are prefixed with base; absolute ones pass through.
func ResolveImageURL(ref, base string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http") {
		return ref
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(ref, "/")
}
