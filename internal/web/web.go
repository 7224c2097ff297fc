// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

/*
Package web renders the server-side HTML views for browser clients.

The API surface is negotiated: machine clients get JSON envelopes from the
respond package, browsers get these rendered forms. Views are embedded in
the binary; there is no runtime template directory to deploy.
*/
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/inkpress/inkpress/internal/session"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Page is the data contract every view receives.
type Page struct {
	Title string

	// Errors is the form error list collected by validation.
	Errors []string

	// Flashes are the one-time notices popped from the session.
	Flashes []session.Flash

	// Values echoes submitted form values back into the re-rendered form.
	Values map[string]string

	// User is the signed-in identity, or nil.
	User *session.Identity

	// Data carries view-specific content (article lists, dashboards).
	Data any
}

// Renderer holds the parsed view set.
type Renderer struct {
	views  map[string]*template.Template
	logger *slog.Logger
}

// views that render inside the shared layout.
var viewNames = []string{
	"signup", "verify", "login", "admin_login",
	"forgot_password", "reset_password",
	"articles", "article", "article_form",
	"complaints", "complaint_form",
	"dashboard", "blocked", "error",
}

// NewRenderer parses the embedded view set once at startup.
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	views := make(map[string]*template.Template, len(viewNames))

	for _, name := range viewNames {
		parsed, err := template.ParseFS(templateFS,
			"templates/layout.tmpl",
			fmt.Sprintf("templates/%s.tmpl", name),
		)
		if err != nil {
			return nil, fmt.Errorf("web_template_parse_failed: %s: %w", name, err)
		}
		views[name] = parsed
	}

	return &Renderer{views: views, logger: logger}, nil
}

// Render writes the named view with the given status code.
//
// The view is rendered to a buffer first so a template fault becomes a
// clean 500 instead of a half-written page.
func (r *Renderer) Render(writer http.ResponseWriter, status int, view string, page Page) {
	parsed, found := r.views[view]
	if !found {
		r.logger.Error("unknown view requested", slog.String("view", view))
		http.Error(writer, "An unexpected error occurred.", http.StatusInternalServerError)
		return
	}

	var buffer bytes.Buffer
	if err := parsed.ExecuteTemplate(&buffer, "layout", page); err != nil {
		r.logger.Error("view render failed",
			slog.String("view", view),
			slog.Any("error", err),
		)
		http.Error(writer, "An unexpected error occurred.", http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	writer.WriteHeader(status)
	_, _ = buffer.WriteTo(writer)
}
