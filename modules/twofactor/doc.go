// Package twofactor mounts the two-factor settings and login challenge routes.
//
//	r.Mount("/2fa", twofactor.NewService(lifecycle, sessions).Handle())
//
// Routes, relative to the mount point:
//
//	GET  /setup    current state, and the pending QR payload if a setup is in progress
//	POST /setup    start (or restart) setup
//	POST /enable   confirm the pending setup with a code
//	POST /disable  turn two-factor off with a code
//	POST /reset    replace the secret with a code, returns a new pending setup
//	GET  /verify   open the login challenge
//	POST /verify   answer the login challenge
//
// Responses are JSON when the client sends or accepts JSON and HTML otherwise.
// The session layer is abstracted by Sessions. HeaderSessions trusts identity
// headers set by an upstream gateway that performed the first factor.
package twofactor
