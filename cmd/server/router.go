package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"recordhub/pkg/platform/middleware/requestid"
	"recordhub/pkg/platform/middleware/requesttime"
)

// registrar mounts a group of routes.
type registrar interface {
	Register(r chi.Router)
}

// newRouter builds the HTTP surface: the endpoint groups, health probes and
// the Prometheus scrape endpoint.
func newRouter(gatherer prometheus.Gatherer, groups ...registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(requestid.Middleware)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requesttime.Middleware)

	for _, g := range groups {
		g.Register(r)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}
