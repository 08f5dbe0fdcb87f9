package http

import (
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

type AddItemRequestDTO struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"qty"`
	Size      *domain.Variant `json:"selectedSize,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"qty"`
}

type CartResponseDTO struct {
	Items  []domain.CartLineItem `json:"items"`
	Totals cart.Totals           `json:"totals"`
}

type FavouriteResponseDTO struct {
	ProductID  string   `json:"productId"`
	Favourite  bool     `json:"favourite"`
	Favourites []string `json:"favourites"`
}

func cartResponse(c *cart.Cart) CartResponseDTO {
	return CartResponseDTO{Items: c.Items(), Totals: c.Totals()}
}

// GET /api/v1/cart
//
// The cart is re-read from storage first; another replica sharing the store
// may have cleared it after an order was placed.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c := sessionFrom(r.Context()).Cart
	c.Reload(r.Context())
	respondJSON(w, http.StatusOK, cartResponse(c))
}

// POST /api/v1/cart/items
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.call(r)
	defer cancel()

	var req AddItemRequestDTO
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "qty must be between 1 and 99")
		return
	}

	product, err := h.products.Product(ctx, req.ProductID)
	if err != nil {
		handleError(w, err)
		return
	}
	sess := sessionFrom(r.Context())
	if err := sess.Cart.AddItem(ctx, product, req.Size, req.Quantity); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, cartResponse(sess.Cart))
}

// PUT /api/v1/cart/items/{productID}
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequestDTO
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	sess := sessionFrom(r.Context())
	if err := sess.Cart.SetQuantity(r.Context(), chi.URLParam(r, "productID"), req.Quantity); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(sess.Cart))
}

// DELETE /api/v1/cart/items/{productID}
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := sess.Cart.RemoveItem(r.Context(), chi.URLParam(r, "productID")); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(sess.Cart))
}

// DELETE /api/v1/cart
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := sess.Cart.Clear(r.Context()); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(sess.Cart))
}

// POST /api/v1/cart/checkout
func (h *Handler) ProceedToCheckout(w http.ResponseWriter, r *http.Request) {
	var req cart.Contact
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	snap, err := sessionFrom(r.Context()).ProceedToCheckout(r.Context(), req)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, snap)
}

// GET /api/v1/favourites
func (h *Handler) ListFavourites(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, sessionFrom(r.Context()).Favourites.List(r.Context()))
}

// POST /api/v1/favourites/{productID}
func (h *Handler) ToggleFavourite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productID")
	fav := sessionFrom(r.Context()).Favourites
	added, err := fav.Toggle(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, FavouriteResponseDTO{
		ProductID:  id,
		Favourite:  added,
		Favourites: fav.List(r.Context()),
	})
}
