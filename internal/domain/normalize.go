package domain

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// The backend and older clients disagree on a few shapes: ids arrive as
// "_id" or "id" (or as a populated object), images as strings, {url}
// objects or arrays of either, and sizes as objects or bare labels.
// Everything is folded into the canonical types here, once, at decode time.

func (i *CartLineItem) UnmarshalJSON(b []byte) error {
	var raw struct {
		ProductID    json.RawMessage   `json:"productId"`
		Product      json.RawMessage   `json:"product"`
		MongoID      string            `json:"_id"`
		ID           string            `json:"id"`
		Name         string            `json:"name"`
		Price        decimal.Decimal   `json:"price"`
		Qty          int               `json:"qty"`
		Quantity     int               `json:"quantity"`
		Image        json.RawMessage   `json:"image"`
		Images       []json.RawMessage `json:"images"`
		SelectedSize *Variant          `json:"selectedSize"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	qty := raw.Qty
	if qty == 0 {
		qty = raw.Quantity
	}
	if qty == 0 {
		qty = 1
	}

	image := imageRef(raw.Image)
	if image == "" && len(raw.Images) > 0 {
		image = imageRef(raw.Images[0])
	}

	*i = CartLineItem{
		ProductID:       firstNonEmpty(idOf(raw.ProductID), idOf(raw.Product), raw.MongoID, raw.ID),
		Name:            raw.Name,
		UnitPrice:       raw.Price,
		Quantity:        qty,
		SelectedVariant: raw.SelectedSize,
		ImageURL:        image,
	}
	return nil
}

func (v *Variant) UnmarshalJSON(b []byte) error {
	var label string
	if err := json.Unmarshal(b, &label); err == nil {
		*v = Variant{Label: label}
		return nil
	}
	type plain Variant
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*v = Variant(p)
	return nil
}

func (p *Product) UnmarshalJSON(b []byte) error {
	var raw struct {
		MongoID     string            `json:"_id"`
		ID          string            `json:"id"`
		Name        string            `json:"name"`
		Description string            `json:"description"`
		Price       decimal.Decimal   `json:"price"`
		Image       json.RawMessage   `json:"image"`
		Images      []json.RawMessage `json:"images"`
		Sizes       []Variant         `json:"sizes"`
		Specs       struct {
			Sizes []Variant `json:"sizes"`
		} `json:"specs"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	images := make([]string, 0, len(raw.Images)+1)
	for _, img := range raw.Images {
		if ref := imageRef(img); ref != "" {
			images = append(images, ref)
		}
	}
	if len(images) == 0 {
		if ref := imageRef(raw.Image); ref != "" {
			images = append(images, ref)
		}
	}

	sizes := raw.Sizes
	if len(sizes) == 0 {
		sizes = raw.Specs.Sizes
	}

	*p = Product{
		ID:          firstNonEmpty(raw.MongoID, raw.ID),
		Name:        raw.Name,
		Description: raw.Description,
		Price:       raw.Price,
		Images:      images,
		Sizes:       sizes,
	}
	return nil
}

// imageRef accepts "url" or {"url": ...} / {"secure_url": ...}.
func imageRef(raw json.RawMessage) string {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		URL       string `json:"url"`
		SecureURL string `json:"secure_url"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return firstNonEmpty(obj.URL, obj.SecureURL)
	}
	return ""
}

// idOf accepts "abc" or a populated document {"_id": "abc"}.
func idOf(raw json.RawMessage) string {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		MongoID string `json:"_id"`
		ID      string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return firstNonEmpty(obj.MongoID, obj.ID)
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
