package fingerprint

import "net/http"

// Middleware computes the request fingerprint once and stores it in context
// so downstream consumers (cache validation, diagnostics) share the value.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithContext(r.Context(), Generate(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
