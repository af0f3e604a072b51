package server

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler assembles the HTTP surface: the WebSocket transport, the
// read-only session API, and Prometheus metrics.
func Handler(hub *Hub, ctrl Controller, store SessionStore, hooks StatusHooks) http.Handler {
	mux := http.NewServeMux()

	registerWSRoute(mux, hub, ctrl)
	registerAPIRoutes(mux, store, hooks)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

func Serve(addr string, hub *Hub, ctrl Controller, store SessionStore, hooks StatusHooks) error {
	log.Printf("listening on http://%s", addr)
	return http.ListenAndServe(addr, Handler(hub, ctrl, store, hooks))
}
