// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"letterlove/internal/catalog"
	"letterlove/internal/models"
	"letterlove/internal/render"
	"letterlove/internal/store"
)

// CardLookup resolves a card id for the share view. *Cards satisfies it.
type CardLookup interface {
	Lookup(ctx context.Context, id string) (*models.Card, error)
}

// Share renders the public page behind a share link.
type Share struct {
	catalog  *catalog.Catalog
	cards    CardLookup
	renderer *render.Renderer
	shareURL func(id string) string
}

// NewShare creates a new Share handler.
func NewShare(cat *catalog.Catalog, cards CardLookup, renderer *render.Renderer, shareURL func(id string) string) *Share {
	return &Share{catalog: cat, cards: cards, renderer: renderer, shareURL: shareURL}
}

// View renders a card. A missing card is a 404 page, a card whose template
// left the catalog still renders, and a store outage is a retryable 503.
func (h *Share) View(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	card, err := h.cards.Lookup(r.Context(), id)
	if errors.Is(err, store.ErrCardNotFound) {
		h.renderer.NotFound(w)
		return
	}
	if err != nil {
		slog.Error("share view lookup failed", "id", id, "error", err)
		h.renderer.Unavailable(w)
		return
	}

	tmpl, ok := h.catalog.Template(card.TemplateID)
	if !ok {
		slog.Warn("card references unknown template", "id", id, "template", card.TemplateID)
		h.renderer.TemplateMissing(w, card, h.shareURL(id))
		return
	}
	h.renderer.Share(w, card, tmpl, h.shareURL(id))
}
