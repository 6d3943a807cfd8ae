// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ModerationResult contains the outcome of a prompt safety check.
type ModerationResult struct {
	Safe       bool     // true if the prompt passes moderation
	Categories []string // flagged category names (empty when safe)
}

// Moderator checks user prompts for policy violations before they are
// sent to the model.
type Moderator interface {
	CheckSafety(ctx context.Context, text string) (*ModerationResult, error)
}

// OpenAIModerator uses the OpenAI moderation endpoint, which is free for
// all OpenAI API key holders.
type OpenAIModerator struct {
	client openai.Client
}

// NewOpenAIModerator creates a moderator. An empty baseURL targets api.openai.com.
func NewOpenAIModerator(apiKey, baseURL string, httpClient *http.Client) *OpenAIModerator {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &OpenAIModerator{client: openai.NewClient(opts...)}
}

func (m *OpenAIModerator) CheckSafety(ctx context.Context, text string) (*ModerationResult, error) {
	resp, err := m.client.Moderations.New(ctx, openai.ModerationNewParams{
		Model: openai.ModerationModelOmniModerationLatest,
		Input: openai.ModerationNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, fmt.Errorf("moderation: %w", err)
	}
	if len(resp.Results) == 0 || !resp.Results[0].Flagged {
		return &ModerationResult{Safe: true}, nil
	}

	var categories map[string]bool
	if err := json.Unmarshal([]byte(resp.Results[0].Categories.RawJSON()), &categories); err != nil {
		return nil, fmt.Errorf("moderation categories: %w", err)
	}
	return &ModerationResult{Safe: false, Categories: flaggedNames(categories)}, nil
}

// flaggedNames converts "hate/threatening" into "hate (threatening)" and
// returns the flagged names sorted.
func flaggedNames(categories map[string]bool) []string {
	var flagged []string
	for cat, isFlagged := range categories {
		if !isFlagged {
			continue
		}
		display := cat
		if before, after, ok := strings.Cut(cat, "/"); ok {
			display = before + " (" + after + ")"
		}
		flagged = append(flagged, strings.ReplaceAll(display, "_", " "))
	}
	sort.Strings(flagged)
	return flagged
}
