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
	"github.com/google/uuid"

	"letterlove/internal/catalog"
	"letterlove/internal/middleware"
	"letterlove/internal/models"
	"letterlove/internal/shortid"
	"letterlove/internal/store"
)

// CardStore persists cards. *store.CardStore satisfies it.
type CardStore interface {
	Create(ctx context.Context, templateID string, data map[string]string, ownerID *uuid.UUID) (*models.Card, error)
	Get(ctx context.Context, id string) (*models.Card, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Card, error)
	Delete(ctx context.Context, id string, ownerID uuid.UUID) (bool, error)
}

// CardCache is the read-through cache in front of the store.
// *cache.CardCache satisfies it.
type CardCache interface {
	Get(ctx context.Context, id string) (*models.Card, bool)
	Set(ctx context.Context, card *models.Card)
	Invalidate(ctx context.Context, id string)
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) (*models.Card, bool) { return nil, false }
func (nopCache) Set(context.Context, *models.Card)                {}
func (nopCache) Invalidate(context.Context, string)               {}

// Cards groups the card API handlers.
type Cards struct {
	catalog  *catalog.Catalog
	store    CardStore
	cache    CardCache
	shareURL func(id string) string
}

// NewCards creates a new Cards handler group. cache may be nil.
func NewCards(cat *catalog.Catalog, cards CardStore, cache CardCache, shareURL func(id string) string) *Cards {
	if cache == nil {
		cache = nopCache{}
	}
	return &Cards{catalog: cat, store: cards, cache: cache, shareURL: shareURL}
}

type createCardRequest struct {
	TemplateID string            `json:"templateId"`
	Data       map[string]string `json:"data"`
}

type createCardResponse struct {
	ID       string       `json:"id"`
	ShareURL string       `json:"shareUrl"`
	Card     *models.Card `json:"card"`
}

// cardView is a card as listed on the dashboard.
type cardView struct {
	models.Card
	ShareURL      string `json:"shareUrl"`
	TemplateName  string `json:"templateName,omitempty"`
	TemplateEmoji string `json:"templateEmoji,omitempty"`
}

// Create validates the values against the template and stores a new card
// owned by the caller.
func (h *Cards) Create(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req createCardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tmpl, ok := h.catalog.Template(req.TemplateID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown template")
		return
	}
	if msg := validateCardData(req.Data); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if err := tmpl.Validate(req.Data); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	owner := sess.UserID
	card, err := h.store.Create(r.Context(), tmpl.ID, req.Data, &owner)
	if errors.Is(err, store.ErrOwnerNotFound) {
		writeError(w, http.StatusUnauthorized, "account no longer exists")
		return
	}
	if err != nil {
		slog.Error("create card failed", "template", tmpl.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create card")
		return
	}
	h.cache.Set(r.Context(), card)

	slog.Info("card created", "id", card.ID, "template", tmpl.ID)
	writeJSON(w, http.StatusCreated, createCardResponse{
		ID:       card.ID,
		ShareURL: h.shareURL(card.ID),
		Card:     card,
	})
}

// Get returns a card to anyone holding its id.
func (h *Cards) Get(w http.ResponseWriter, r *http.Request) {
	card, err := h.Lookup(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, store.ErrCardNotFound):
		writeError(w, http.StatusNotFound, "card not found")
	case err != nil:
		slog.Error("get card failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load card")
	default:
		writeJSON(w, http.StatusOK, card)
	}
}

// List returns the caller's cards, newest first.
func (h *Cards) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	cards, err := h.store.ListByOwner(r.Context(), sess.UserID)
	if err != nil {
		slog.Error("list cards failed", "user_id", sess.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load cards")
		return
	}

	views := make([]cardView, len(cards))
	for i, c := range cards {
		views[i] = cardView{Card: c, ShareURL: h.shareURL(c.ID)}
		if t, ok := h.catalog.Template(c.TemplateID); ok {
			views[i].TemplateName = t.Name
			views[i].TemplateEmoji = t.Emoji
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"cards": views})
}

// Delete removes one of the caller's cards. Someone else's card and a card
// that is already gone both answer 404.
func (h *Cards) Delete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	id := chi.URLParam(r, "id")

	removed, err := h.store.Delete(r.Context(), id, sess.UserID)
	if err != nil {
		slog.Error("delete card failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete card")
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "card not found")
		return
	}

	h.cache.Invalidate(r.Context(), id)
	slog.Info("card deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// Lookup reads a card through the cache. Errors follow store.CardStore.Get:
// store.ErrCardNotFound for a missing card, anything else is transient.
func (h *Cards) Lookup(ctx context.Context, id string) (*models.Card, error) {
	if !shortid.Valid(id) {
		return nil, store.ErrCardNotFound
	}
	if card, ok := h.cache.Get(ctx, id); ok {
		return card, nil
	}
	card, err := h.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	h.cache.Set(ctx, card)
	return card, nil
}
