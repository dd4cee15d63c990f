package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mallkit/storefront/internal/cart"
	"github.com/mallkit/storefront/internal/catalog"
	"github.com/mallkit/storefront/internal/handler"
	"github.com/mallkit/storefront/internal/order"
	"github.com/mallkit/storefront/internal/payment"
)

func NewRouter(
	carts cart.Service,
	orders order.Service,
	payments payment.Service,
	products catalog.Repository,
	view handler.CartViewCache,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	catalogHandler := handler.NewCatalogHandler(products)
	r.Get("/products", catalogHandler.List)
	r.Get("/products/{id}", catalogHandler.GetByID)

	cartHandler := handler.NewCartHandler(carts, view)
	orderHandler := handler.NewOrderHandler(orders)
	paymentHandler := handler.NewPaymentHandler(payments)

	r.Group(func(r chi.Router) {
		r.Use(handler.RequireCustomer)

		r.Get("/cart", cartHandler.GetCart)
		r.Post("/cart/items", cartHandler.AddItem)
		r.Patch("/cart/items/{id}", cartHandler.UpdateQuantity)
		r.Delete("/cart/items/{id}", cartHandler.RemoveItem)

		r.Post("/orders", orderHandler.Create)
		r.Get("/orders", orderHandler.List)
		r.Get("/orders/{id}", orderHandler.GetByID)

		r.Get("/api/payment/success", paymentHandler.Success)
		r.Get("/api/payment/fail", paymentHandler.Fail)
	})

	return r
}
