// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Card is a filled-in template, addressable by its short public id.
// Data keeps whatever keys the template defined when the card was made.
type Card struct {
	ID         string            `json:"id"`
	TemplateID string            `json:"template_id"`
	Data       map[string]string `json:"data"`
	UserID     *uuid.UUID        `json:"user_id"`
	CreatedAt  time.Time         `json:"created_at"`
}

// OwnedBy reports whether the card was created by the given user.
func (c *Card) OwnedBy(userID uuid.UUID) bool {
	return c.UserID != nil && *c.UserID == userID
}

// Value returns a field value with surrounding whitespace removed, or ""
// when the card does not carry it.
func (c *Card) Value(field string) string {
	return strings.TrimSpace(c.Data[field])
}
