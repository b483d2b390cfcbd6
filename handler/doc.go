// Package handler binds HTTP requests into typed structs and renders typed responses.
//
//	type verifyRequest struct {
//		Code string `form:"code" json:"code"`
//	}
//
//	func verify(ctx handler.Context, req verifyRequest) handler.Response {
//		if err := gate.Submit(ctx, sess, req.Code); err != nil {
//			return handler.Error(err)
//		}
//		return handler.Redirect("/")
//	}
//
//	r.Post("/2fa/verify", handler.Wrap(verify, handler.WithErrorHandler[handler.Context, verifyRequest](errs)))
//
// Errors travel through the ErrorHandler, which answers JSON to API clients and an
// HTML page to browsers. HTTPError carries the status, a stable key and an optional
// Retry-After duration.
package handler
