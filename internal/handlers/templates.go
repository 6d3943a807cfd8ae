package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"letterlove/internal/catalog"
)

// Templates serves the read-only template catalog.
type Templates struct {
	catalog *catalog.Catalog
}

// NewTemplates creates a new Templates handler group.
func NewTemplates(cat *catalog.Catalog) *Templates {
	return &Templates{catalog: cat}
}

type templateListResponse struct {
	Templates  []catalog.Template     `json:"templates"`
	Categories []catalog.CategoryInfo `json:"categories"`
	Recipients []string               `json:"recipients"`
}

// List returns the templates matching ?category=, ?recipient= and ?q=,
// together with the facets the browse view offers.
func (h *Templates) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	templates := h.catalog.Filter(catalog.Filter{
		Category:  q.Get("category"),
		Recipient: q.Get("recipient"),
		Query:     q.Get("q"),
	})
	writeJSON(w, http.StatusOK, templateListResponse{
		Templates:  templates,
		Categories: h.catalog.Categories(),
		Recipients: h.catalog.Recipients(),
	})
}

// Get returns a single template by id.
func (h *Templates) Get(w http.ResponseWriter, r *http.Request) {
	t, ok := h.catalog.Template(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ByCategory returns the templates of one category in catalog order.
// "all" returns the whole catalog; an unknown category yields an empty list.
func (h *Templates) ByCategory(w http.ResponseWriter, r *http.Request) {
	templates := h.catalog.ByCategory(chi.URLParam(r, "category"))
	writeJSON(w, http.StatusOK, map[string]any{"templates": templates})
}
