package relay

import (
	"net"
	"net/http"
	"sync"
	"time"
)

type RateLimitConfig struct {
	ReqPerMinute int           `json:"request_per_minute,omitempty" yaml:"request_per_minute,omitempty"`
	LimitWindow  time.Duration `json:"limit_window,omitempty" yaml:"limit_window,omitempty"`
}

// RateLimiterMiddleware bounds join floods per remote IP on the relay's
// HTTP surface. Timing traffic is unaffected: it rides the established
// websocket, not new HTTP requests.
func RateLimiterMiddleware(conf RateLimitConfig) func(next http.Handler) http.Handler {
	requestsPerMinute := 5
	window := time.Minute
	if conf.ReqPerMinute > 0 {
		requestsPerMinute = conf.ReqPerMinute
	}
	if conf.LimitWindow > 0 {
		window = conf.LimitWindow
	}

	var mu sync.Mutex
	// map[ip] = []timestamps
	visitors := make(map[string][]time.Time)

	// Periodically drop idle visitors so the table cannot grow unboundedly.
	go func() {
		for {
			time.Sleep(window)
			mu.Lock()
			for ip, timestamps := range visitors {
				var filtered []time.Time
				for _, t := range timestamps {
					if time.Since(t) < window {
						filtered = append(filtered, t)
					}
				}
				if len(filtered) == 0 {
					delete(visitors, ip)
				} else {
					visitors[ip] = filtered
				}
			}
			mu.Unlock()
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r.RemoteAddr)

			mu.Lock()
			now := time.Now()
			var filtered []time.Time
			for _, t := range visitors[ip] {
				if now.Sub(t) < window {
					filtered = append(filtered, t)
				}
			}
			if len(filtered) >= requestsPerMinute {
				mu.Unlock()
				http.Error(w, "Max request exceed", http.StatusTooManyRequests)
				return
			}
			visitors[ip] = append(filtered, now)
			mu.Unlock()

			next.ServeHTTP(w, r)
		})
	}
}

func ChainMiddleware(handler http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
