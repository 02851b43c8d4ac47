// Package web embeds the dashboard's templates and static assets.
package web

import "embed"

// TemplatesFS holds the page layouts and HTMX partials.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

//go:embed static/*
var StaticFS embed.FS
