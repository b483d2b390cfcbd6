// Package clientip resolves the caller's IP address for rate limiting and logging.
//
// Behind a reverse proxy, list the headers the proxy sets; anything else would let clients
// choose their own rate-limit key:
//
//	r.Use(clientip.Middleware(clientip.NewResolver("X-Forwarded-For")))
//
//	ip := clientip.FromRequest(req)
package clientip
