// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ai enhances card text through a hosted chat-completion model.
// A Provider talks to the model API, a ModelSelector picks which model
// serves each call, and the Enhancer ties them together with prompt
// construction, optional moderation and output sanitization.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"
)

// DefaultTimeout bounds a single enhancement call when none is configured.
const DefaultTimeout = 30 * time.Second

var (
	// ErrEmptyPrompt is returned when the prompt is missing or blank.
	ErrEmptyPrompt = errors.New("prompt is required")
	// ErrPromptRejected is returned when moderation flags the prompt.
	ErrPromptRejected = errors.New("prompt rejected by moderation")
	// ErrNoModel is returned when no candidate model is configured.
	ErrNoModel = errors.New("no model configured")
)

// Provider defines the interface that chat-completion backends implement.
type Provider interface {
	// Generate sends a prompt to the named model and returns the generated text.
	Generate(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)

	// Name returns the provider identifier.
	Name() string
}

// ModelSelector picks one model out of the candidate list.
type ModelSelector interface {
	Select(candidates []string) string
}

// RandomSelector picks a candidate uniformly at random.
type RandomSelector struct{}

func (RandomSelector) Select(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	return candidates[rand.IntN(len(candidates))]
}

// FixedSelector always returns Model, regardless of the candidates.
type FixedSelector struct {
	Model string
}

func (s FixedSelector) Select([]string) string { return s.Model }

// Request carries the user text and the context it is written in.
type Request struct {
	Prompt              string `json:"prompt"`
	FieldType           string `json:"fieldType"`
	TemplateName        string `json:"templateName"`
	TemplateDescription string `json:"templateDescription"`
	Tone                string `json:"tone"`
}

// Result is the sanitized model output and the model that produced it.
type Result struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

// Enhancer turns rough drafts into polished card text.
type Enhancer struct {
	provider   Provider
	selector   ModelSelector
	candidates []string
	moderator  Moderator // nil disables the pre-check
	timeout    time.Duration
}

// EnhancerOption configures an Enhancer.
type EnhancerOption func(*Enhancer)

// WithSelector replaces the default RandomSelector.
func WithSelector(s ModelSelector) EnhancerOption {
	return func(e *Enhancer) { e.selector = s }
}

// WithModerator enables the moderation pre-check.
func WithModerator(m Moderator) EnhancerOption {
	return func(e *Enhancer) { e.moderator = m }
}

// WithTimeout sets the per-call deadline. Non-positive values keep the default.
func WithTimeout(d time.Duration) EnhancerOption {
	return func(e *Enhancer) {
		e.timeout = EffectiveTimeout(d)
	}
}

// EffectiveTimeout is the per-call bound an Enhancer applies for a
// configured value d: d itself, or DefaultTimeout when d is not positive.
func EffectiveTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return d
}

// NewEnhancer creates an Enhancer that selects among candidates for every call.
func NewEnhancer(p Provider, candidates []string, opts ...EnhancerOption) *Enhancer {
	e := &Enhancer{
		provider:   p,
		selector:   RandomSelector{},
		candidates: append([]string(nil), candidates...),
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Candidates returns a copy of the configured model names.
func (e *Enhancer) Candidates() []string {
	return append([]string(nil), e.candidates...)
}

// Enhance validates the request, optionally moderates it, calls the model
// and returns the sanitized text. Errors other than ErrEmptyPrompt and
// ErrPromptRejected carry provider detail and must not reach the client.
func (e *Enhancer) Enhance(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Result{}, ErrEmptyPrompt
	}

	model := e.selector.Select(e.candidates)
	if model == "" {
		return Result{}, ErrNoModel
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if e.moderator != nil {
		mod, err := e.moderator.CheckSafety(ctx, req.Prompt)
		switch {
		case err != nil:
			slog.Warn("moderation check failed, continuing", "error", err)
		case !mod.Safe:
			return Result{}, fmt.Errorf("%w: %s", ErrPromptRejected, strings.Join(mod.Categories, ", "))
		}
	}

	raw, err := e.provider.Generate(ctx, model, BuildSystemPrompt(req), BuildUserPrompt(req.Prompt))
	if err != nil {
		return Result{}, fmt.Errorf("generate with %s/%s: %w", e.provider.Name(), model, err)
	}

	text := Sanitize(raw)
	if text == "" {
		return Result{}, fmt.Errorf("generate with %s/%s: empty completion", e.provider.Name(), model)
	}
	return Result{Text: text, Model: model}, nil
}
