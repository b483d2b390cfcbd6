// Package binder decodes request bodies into typed structs for the HTTP handlers.
// JSON bodies are decoded strictly; forms and query strings bind through `form` tags.
package binder
