package routes

import (
	"net/http"

	"github.com/minhdn/cuestore/internal/handler/api"
)

// APIDeps contains the handlers for the customer-facing API routes.
type APIDeps struct {
	CartHandler     *api.CartHandler
	AddressHandler  *api.AddressHandler
	OrderHandler    *api.OrderHandler
	ShipmentHandler *api.ShipmentHandler
}

// OpsDeps contains the handlers for operational routes.
type OpsDeps struct {
	// MetricsHandler serves Prometheus scrapes.
	MetricsHandler http.Handler

	// Healthz reports process liveness and database reachability.
	Healthz http.HandlerFunc
}
