package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"letterlove/internal/ai"
)

// Enhancer rewrites card text with a language model. *ai.Enhancer satisfies it.
type Enhancer interface {
	Enhance(ctx context.Context, req ai.Request) (ai.Result, error)
	Candidates() []string
}

// Enhance serves the AI enhancement endpoint.
type Enhance struct {
	enhancer Enhancer // nil when no API key is configured
}

// NewEnhance creates the handler. A nil enhancer answers 503.
func NewEnhance(e Enhancer) *Enhance {
	return &Enhance{enhancer: e}
}

type enhanceResponse struct {
	Text       string   `json:"text"`
	Model      string   `json:"model"`
	Candidates []string `json:"candidates"`
}

// Post turns a rough draft into polished text. Provider failures are
// logged and answered with a generic message.
func (h *Enhance) Post(w http.ResponseWriter, r *http.Request) {
	var req ai.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validatePrompt(req.Prompt); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if h.enhancer == nil {
		writeError(w, http.StatusServiceUnavailable, "AI enhancement is not configured")
		return
	}

	res, err := h.enhancer.Enhance(r.Context(), req)
	switch {
	case errors.Is(err, ai.ErrEmptyPrompt):
		writeError(w, http.StatusBadRequest, "Prompt is required")
		return
	case errors.Is(err, ai.ErrPromptRejected):
		slog.Warn("enhance prompt rejected", "error", err)
		writeError(w, http.StatusUnprocessableEntity, "Your text was flagged by content moderation. Please rephrase it.")
		return
	case err != nil:
		slog.Error("AI generation failed", "field", req.FieldType, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate content")
		return
	}

	writeJSON(w, http.StatusOK, enhanceResponse{
		Text:       res.Text,
		Model:      res.Model,
		Candidates: h.enhancer.Candidates(),
	})
}
