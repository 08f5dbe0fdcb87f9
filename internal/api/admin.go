package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

func (c *Client) AdminOrders(ctx context.Context) ([]domain.Order, error) {
	var resp struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := c.get(ctx, "/admin/orders", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

func (c *Client) AdminOrder(ctx context.Context, id string) (domain.Order, error) {
	var resp orderEnvelope
	if err := c.get(ctx, "/admin/orders/"+url.PathEscape(id), nil, &resp); err != nil {
		return domain.Order{}, err
	}
	return resp.Order, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status domain.Stage) error {
	req := struct {
		Status domain.Stage `json:"status"`
	}{Status: status}
	return c.put(ctx, "/admin/orders/"+url.PathEscape(id)+"/status", req, nil)
}

func (c *Client) AdminUsers(ctx context.Context) ([]domain.AdminUser, error) {
	var resp struct {
		Users []domain.AdminUser `json:"users"`
	}
	if err := c.get(ctx, "/admin/users", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

func (c *Client) AdminProducts(ctx context.Context) ([]domain.Product, error) {
	var resp struct {
		Products []domain.Product `json:"products"`
	}
	if err := c.get(ctx, "/admin/products", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

func (c *Client) Pincodes(ctx context.Context, q domain.PincodeQuery) (domain.PincodePage, error) {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.State != "" {
		params.Set("state", q.State)
	}

	var resp domain.PincodePage
	if err := c.get(ctx, "/admin/pincodes", params, &resp); err != nil {
		return domain.PincodePage{}, err
	}
	return resp, nil
}

func (c *Client) CreatePincode(ctx context.Context, p domain.Pincode) error {
	return c.post(ctx, "/admin/pincodes", p, nil)
}

func (c *Client) BulkUpdatePincodes(ctx context.Context, u domain.PincodeBulkUpdate) error {
	return c.put(ctx, "/admin/pincodes/bulk", u, nil)
}

func (c *Client) UpdatePincode(ctx context.Context, p domain.Pincode) error {
	return c.put(ctx, "/admin/pincodes/"+url.PathEscape(p.Pincode), p, nil)
}

func (c *Client) Tickets(ctx context.Context) ([]domain.Ticket, error) {
	var resp struct {
		Tickets []domain.Ticket `json:"tickets"`
	}
	if err := c.get(ctx, "/tickets", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tickets, nil
}

func (c *Client) UpdateTicket(ctx context.Context, id string, u domain.TicketUpdate) error {
	return c.put(ctx, "/tickets/"+url.PathEscape(id), u, nil)
}
