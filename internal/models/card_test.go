package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestCardValue(t *testing.T) {
	c := &Card{Data: map[string]string{"recipientName": "  Priya ", "memory": ""}}

	tests := []struct {
		field string
		want  string
	}{
		{"recipientName", "Priya"},
		{"memory", ""},
		{"missing", ""},
	}
	for _, tt := range tests {
		if got := c.Value(tt.field); got != tt.want {
			t.Errorf("Value(%q): got %q, want %q", tt.field, got, tt.want)
		}
	}

	if got := (&Card{}).Value("recipientName"); got != "" {
		t.Errorf("nil data: got %q, want empty", got)
	}
}

func TestCardOwnedBy(t *testing.T) {
	owner := uuid.New()
	c := &Card{UserID: &owner}

	if !c.OwnedBy(owner) {
		t.Error("expected card to be owned by its creator")
	}
	if c.OwnedBy(uuid.New()) {
		t.Error("expected card not to be owned by another user")
	}
	if (&Card{}).OwnedBy(owner) {
		t.Error("anonymous card has no owner")
	}
}
