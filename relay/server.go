// Copyright 2025 DoniLite. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package relay

import (
	"crypto/tls"
	"errors"
	"log"
	"net/http"
)

// Ping returns a "pong" message consider registering this Handler for the health checking logic
func Ping(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("pong"))
}

// Handler builds the relay's HTTP surface: the wire endpoint and the health
// endpoint, wrapped by the rate limiter when one is configured.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/wire", s)
	mux.HandleFunc("/ping", Ping)

	var handler http.Handler = mux
	if s.cfg.ReqPerMinute > 0 {
		handler = ChainMiddleware(mux, RateLimiterMiddleware(RateLimitConfig{
			ReqPerMinute: s.cfg.ReqPerMinute,
			LimitWindow:  s.cfg.LimitWindow,
		}))
	}
	return handler
}

// ListenHTTP serves handler on addr in the background.
func ListenHTTP(addr string, handler http.Handler) *http.Server {
	hs := &http.Server{Addr: addr, Handler: handler}
	go func() {
		log.Printf("HTTP listening on %s", addr)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()
	return hs
}

// ListenHTTPS serves handler on addr with certificates from cm.
func ListenHTTPS(addr string, handler http.Handler, cm *CertManager) *http.Server {
	ts := &http.Server{Addr: addr, Handler: handler}
	ts.TLSConfig = &tls.Config{GetCertificate: cm.GetCertificate, MinVersion: tls.VersionTLS12}
	go func() {
		log.Printf("HTTPS listening on %s", addr)
		ln, err := tls.Listen("tcp", addr, ts.TLSConfig)
		if err != nil {
			log.Fatalf("https listen: %v", err)
		}
		if err := ts.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("https server: %v", err)
		}
	}()
	return ts
}
