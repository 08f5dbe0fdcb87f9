package api

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type productEnvelope struct {
	Product domain.Product
}

func (e *productEnvelope) UnmarshalJSON(b []byte) error {
	var wrapped struct {
		Product *domain.Product `json:"product"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return err
	}
	if wrapped.Product != nil {
		e.Product = *wrapped.Product
		return nil
	}
	return json.Unmarshal(b, &e.Product)
}

func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var resp struct {
		Products []domain.Product `json:"products"`
	}
	if err := c.get(ctx, "/products", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

func (c *Client) Product(ctx context.Context, id string) (domain.Product, error) {
	var resp productEnvelope
	if err := c.get(ctx, "/products/"+url.PathEscape(id), nil, &resp); err != nil {
		return domain.Product{}, err
	}
	return resp.Product, nil
}

// CheckPincode asks whether the backend delivers to pin.
func (c *Client) CheckPincode(ctx context.Context, pin string) (domain.PincodeCheck, error) {
	var resp domain.PincodeCheck
	if err := c.get(ctx, "/pincodes/check/"+url.PathEscape(pin), nil, &resp); err != nil {
		return domain.PincodeCheck{}, err
	}
	return resp, nil
}

type NewTicket struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	WhatsApp string `json:"whatsapp"`
	Message  string `json:"message"`
}

func (c *Client) CreateTicket(ctx context.Context, t NewTicket) (string, error) {
	var resp messageResponse
	if err := c.post(ctx, "/tickets", t, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}
