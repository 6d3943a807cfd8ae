// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML rendering for the public share view. Every
// page is paired with the base layout, which carries the Open Graph tags
// used by chat apps to preview a shared link.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"letterlove/internal/catalog"
	"letterlove/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	PageShare           = "share"
	PageNotFound        = "not_found"
	PageTemplateMissing = "template_missing"
	PageUnavailable     = "unavailable"
)

// PageData holds everything passed to a page template.
type PageData struct {
	Title string    // <title> tag
	OG    OpenGraph // link-preview metadata
	Theme Theme
	Data  map[string]any // page-specific data
}

// ShareField is one filled-in value shown on a shared card.
type ShareField struct {
	Label     string
	Value     string
	Multiline bool
}

// Renderer handles template parsing and execution for public pages.
type Renderer struct {
	templates map[string]*template.Template
	funcMap   template.FuncMap
}

// New parses all page templates from the embedded filesystem.
func New() (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template),
		funcMap: template.FuncMap{
			// lines splits multi-line text so templates can emit <br> safely.
			"lines": func(s string) []string {
				return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
			},
		},
	}

	pages, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("glob templates: %w", err)
	}

	for _, page := range pages {
		name := path.Base(page)
		if name == "base.html" {
			continue
		}

		tmpl, err := template.New("base.html").Funcs(r.funcMap).ParseFS(
			templateFS, "templates/base.html", page,
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[strings.TrimSuffix(name, ".html")] = tmpl
	}

	return r, nil
}

// Page renders a full page with the given status code. The page is
// rendered into a buffer first so a template error never leaves a
// half-written response.
func (rn *Renderer) Page(w http.ResponseWriter, status int, name string, data *PageData) {
	tmpl, ok := rn.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}
	if data.OG.Color == "" {
		data.OG.Color = DefaultThemeColor
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		slog.Error("render page failed", "page", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// Share renders a card with its template.
func (rn *Renderer) Share(w http.ResponseWriter, card *models.Card, tmpl catalog.Template, shareURL string) {
	theme := ThemeFor(tmpl.Category)
	og := CardPreview(card, tmpl, shareURL)

	rn.Page(w, http.StatusOK, PageShare, &PageData{
		Title: og.Title,
		OG:    og,
		Theme: theme,
		Data: map[string]any{
			"Recipient": valueOr(card, "recipientName", defaultRecipient),
			"Sender":    valueOr(card, "senderName", defaultSender),
			"Fields":    shareFields(card, tmpl),
			"Template":  tmpl,
		},
	})
}

// TemplateMissing renders a card whose template is no longer in the
// catalog. The page is still a 200: the link itself is valid.
func (rn *Renderer) TemplateMissing(w http.ResponseWriter, card *models.Card, shareURL string) {
	rn.Page(w, http.StatusOK, PageTemplateMissing, &PageData{
		Title: "Template not found",
		OG: OpenGraph{
			Title:       defaultTheme.Title + " " + valueOr(card, "recipientName", defaultRecipient),
			Description: "Someone sent you a card on LetterLove.",
			URL:         shareURL,
		},
		Theme: defaultTheme,
		Data:  map[string]any{"TemplateID": card.TemplateID},
	})
}

// NotFound renders the "Card Not Found" state with a 404 status.
func (rn *Renderer) NotFound(w http.ResponseWriter) {
	rn.Page(w, http.StatusNotFound, PageNotFound, &PageData{
		Title: "Card Not Found",
		OG: OpenGraph{
			Title:       "Card Not Found",
			Description: "This card may have expired or the link is incorrect.",
		},
		Theme: Theme{Icon: "💔"},
	})
}

// Unavailable renders a retryable error state with a 503 status.
func (rn *Renderer) Unavailable(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "30")
	rn.Page(w, http.StatusServiceUnavailable, PageUnavailable, &PageData{
		Title: "Temporarily Unavailable",
		OG: OpenGraph{
			Title:       "LetterLove",
			Description: "We could not load this card right now. Please try again in a moment.",
		},
		Theme: defaultTheme,
	})
}

// shareFields lists the filled-in values in form order. The recipient and
// sender are rendered in the heading and signature instead.
func shareFields(card *models.Card, tmpl catalog.Template) []ShareField {
	var fields []ShareField
	for _, f := range tmpl.Fields {
		if f.Name == "recipientName" || f.Name == "senderName" {
			continue
		}
		v := card.Value(f.Name)
		if v == "" {
			continue
		}
		fields = append(fields, ShareField{
			Label:     f.Label,
			Value:     v,
			Multiline: f.Type == catalog.FieldTextarea,
		})
	}
	return fields
}
