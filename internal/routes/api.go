// Package routes wires handlers onto the router.
package routes

import (
	"github.com/minhdn/cuestore/internal/router"
)

// RegisterAPIRoutes registers the customer-facing checkout API. The caller is
// expected to pass a router (or group) already carrying the auth middleware.
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	// Cart
	r.Get("/api/v1/cart", deps.CartHandler.GetCart)
	r.Post("/api/v1/cart/items", deps.CartHandler.AddItem)
	r.Put("/api/v1/cart/items/{id}", deps.CartHandler.UpdateItem)
	r.Delete("/api/v1/cart/items/{id}", deps.CartHandler.RemoveItem)
	r.Delete("/api/v1/cart", deps.CartHandler.ClearCart)

	// Addresses
	r.Get("/api/v1/addresses", deps.AddressHandler.List)
	r.Post("/api/v1/addresses", deps.AddressHandler.Create)
	r.Get("/api/v1/addresses/{id}", deps.AddressHandler.Get)
	r.Put("/api/v1/addresses/{id}", deps.AddressHandler.Update)
	r.Delete("/api/v1/addresses/{id}", deps.AddressHandler.Delete)
	r.Post("/api/v1/addresses/{id}/default", deps.AddressHandler.SetDefault)

	// Checkout and orders
	r.Post("/api/v1/orders/preview", deps.OrderHandler.Preview)
	r.Post("/api/v1/orders", deps.OrderHandler.Create)
	r.Get("/api/v1/orders", deps.OrderHandler.List)
	r.Get("/api/v1/orders/{id}", deps.OrderHandler.Get)
	r.Post("/api/v1/orders/{id}/confirm", deps.OrderHandler.Confirm)
	r.Post("/api/v1/orders/{id}/cancel", deps.OrderHandler.Cancel)

	// Shipments
	r.Get("/api/v1/orders/{id}/shipment", deps.ShipmentHandler.GetByOrder)
	r.Get("/api/v1/shipments/{tracking}", deps.ShipmentHandler.Track)
}

// RegisterOpsRoutes registers unauthenticated operational routes.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	r.Get("/healthz", deps.Healthz)
	r.Handle("GET", "/metrics", deps.MetricsHandler)
}
