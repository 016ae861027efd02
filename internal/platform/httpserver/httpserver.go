package httpserver

import (
	"net/http"
	"time"

	"idgraph/internal/platform/config"
)

// New builds an HTTP server with the project's timeouts. The write timeout
// leaves headroom over the per-request deadline so timed out handlers can
// still write their error.
func New(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
