// Package web bundles the dashboard's HTML templates and browser assets
// into the server binary.
package web

import "embed"

// TemplatesFS holds the page templates parsed by the HTTP server at startup.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and the htmx glue script served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
