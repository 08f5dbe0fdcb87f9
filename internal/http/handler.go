package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/admin"
	"github.com/fjod/go_cart/storefront/internal/app"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Products interface {
	Product(ctx context.Context, id string) (domain.Product, error)
	Products(ctx context.Context) ([]domain.Product, error)
}

type Orders interface {
	MyOrders(ctx context.Context) ([]domain.Order, error)
	Order(ctx context.Context, id string) (domain.Order, error)
}

type Deps struct {
	Sessions     *app.Registry
	Products     Products
	Orders       Orders
	Admin        admin.Backend
	Tickets      admin.TicketCreator
	Gateway      checkout.PaymentGateway
	Timeout      time.Duration
	MaxBodyBytes int64
	Logger       *zap.Logger
}

type Handler struct {
	sessions *app.Registry
	products Products
	orders   Orders
	admin    admin.Backend
	tickets  admin.TicketCreator
	gateway  checkout.PaymentGateway
	timeout  time.Duration
	logger   *zap.Logger
}

func NewHandler(d Deps) *Handler {
	if d.Timeout <= 0 {
		d.Timeout = 15 * time.Second
	}
	return &Handler{
		sessions: d.Sessions,
		products: d.Products,
		orders:   d.Orders,
		admin:    d.Admin,
		tickets:  d.Tickets,
		gateway:  d.Gateway,
		timeout:  d.Timeout,
		logger:   d.Logger,
	}
}

// NewRouter wires the storefront routes under /api/v1.
func NewRouter(d Deps) http.Handler {
	h := NewHandler(d)
	maxBody := d.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestSize(maxBody))
	r.Use(middleware.Timeout(h.timeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware(d.Sessions))

		r.Get("/session", h.GetSession)
		r.Put("/session/token", h.SetToken)
		r.Put("/session/admin", h.SetAdmin)
		r.Delete("/session", h.Logout)
		r.Get("/toasts", h.DrainToasts)

		r.Get("/products", h.ListProducts)
		r.Get("/products/{productID}", h.GetProduct)
		r.Get("/pincodes/check/{pin}", h.CheckPincode)
		r.Post("/tickets", h.RaiseTicket)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/items", h.AddItem)
			r.Put("/items/{productID}", h.UpdateQuantity)
			r.Delete("/items/{productID}", h.RemoveItem)
			r.Delete("/", h.ClearCart)
			r.Post("/checkout", h.ProceedToCheckout)
		})

		r.Route("/favourites", func(r chi.Router) {
			r.Get("/", h.ListFavourites)
			r.Post("/{productID}", h.ToggleFavourite)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", h.LoadCheckout)
			r.Put("/draft", h.UpdateDraft)
			r.Post("/addresses", h.SaveAddress)
			r.Put("/addresses/selected", h.SelectAddress)
			r.Put("/payment-method", h.SetPaymentMethod)
			r.Post("/submit", h.SubmitCheckout)
			r.Post("/payment/success", h.PaymentSucceeded)
			r.Post("/payment/failure", h.PaymentFailed)
			if h.gateway != nil {
				r.Post("/pay", h.Pay)
			}
		})

		r.Get("/cancellation/reasons", h.CancellationReasons)

		r.Group(func(r chi.Router) {
			r.Use(RequireLogin)
			r.Get("/orders", h.ListOrders)
			r.Get("/orders/{orderID}", h.GetOrder)
			r.Get("/orders/{orderID}/tracking", h.GetTracking)
			r.Delete("/orders/{orderID}/tracking", h.CloseTracking)
			r.Post("/orders/{orderID}/cancel", h.RequestCancellation)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/dashboard", h.Dashboard)
			r.Get("/orders", h.AdminOrders)
			r.Get("/orders/{orderID}", h.AdminOrder)
			r.Put("/orders/{orderID}/status", h.UpdateOrderStatus)
			r.Post("/orders/{orderID}/tracking", h.AppendTracking)
			r.Put("/orders/{orderID}/cancellation/refund", h.SetRefundNow)
			r.Post("/orders/{orderID}/cancellation/approve", h.ApproveCancellation)
			r.Post("/orders/{orderID}/cancellation/reject", h.RejectCancellation)
			r.Get("/pincodes", h.ListPincodes)
			r.Post("/pincodes", h.CreatePincode)
			r.Put("/pincodes/bulk", h.BulkUpdatePincodes)
			r.Put("/pincodes/{pin}", h.UpdatePincode)
			r.Get("/tickets", h.ListTickets)
			r.Put("/tickets/{ticketID}", h.UpdateTicket)
		})
	})
	return r
}

// call bounds a handler's backend work by the configured timeout.
func (h *Handler) call(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

func (h *Handler) adminService(sess *app.Session) *admin.Service {
	return admin.NewService(h.admin, sess.Notifier, h.logger)
}
