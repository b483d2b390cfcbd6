package clientip

import "net/http"

// Middleware resolves the client IP once and stores it in the request context.
func Middleware(res *Resolver) func(http.Handler) http.Handler {
	if res == nil {
		res = NewResolver()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := SetIPToContext(r.Context(), res.IP(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromRequest returns the IP stored by Middleware.
func FromRequest(r *http.Request) string {
	return GetIPFromContext(r.Context())
}
