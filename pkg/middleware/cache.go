package middleware

import (
	"fmt"
	"net/http"
	"time"
)

// PrivateCache lets clients cache GET responses for maxAge. Other methods
// are marked no-store.
func PrivateCache(maxAge time.Duration) func(http.Handler) http.Handler {
	value := fmt.Sprintf("private, max-age=%d", int(maxAge.Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				w.Header().Set("Cache-Control", value)
			} else {
				w.Header().Set("Cache-Control", "no-store")
			}
			next.ServeHTTP(w, r)
		})
	}
}
