// Package httpserver constructs the process http.Server so timeouts are set
// in one place and main stays small.
package httpserver

import (
	"net/http"
	"time"
)

// New returns an http.Server for the given address and handler with
// conservative timeouts. Handler-level timeouts are enforced separately by
// middleware; these bound slow clients.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
