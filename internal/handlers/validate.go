package handlers

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Validation limits for request fields.
const (
	maxEmailLen       = 254
	minPasswordLen    = 8
	maxPasswordLen    = 72 // bcrypt ignores anything longer
	maxDisplayNameLen = 100
	maxFieldValueLen  = 5_000
	maxCardFields     = 20
	maxPromptLen      = 4_000
)

// validateSignup checks sign-up inputs and returns the first error found.
func validateSignup(email, password, displayName string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "Email is required."
	}
	if len(email) > maxEmailLen {
		return "Email is too long."
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return "Email is not valid."
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return "Password must be at least 8 characters."
	}
	if len(password) > maxPasswordLen {
		return "Password is too long (max 72 bytes)."
	}
	return validateDisplayName(displayName)
}

// validateDisplayName checks the length of a display name. Blank is allowed.
func validateDisplayName(displayName string) string {
	if utf8.RuneCountInString(strings.TrimSpace(displayName)) > maxDisplayNameLen {
		return "Display name is too long (max 100 characters)."
	}
	return ""
}

// validateCardData checks the size of submitted card values. Which keys
// are allowed is decided by the template.
func validateCardData(data map[string]string) string {
	if len(data) > maxCardFields {
		return "Too many fields."
	}
	for _, v := range data {
		if utf8.RuneCountInString(v) > maxFieldValueLen {
			return "A field is too long (max 5,000 characters)."
		}
	}
	return ""
}

// validatePrompt checks that an enhancement prompt is present and within
// the length limit.
func validatePrompt(prompt string) string {
	if strings.TrimSpace(prompt) == "" {
		return "Prompt is required"
	}
	if utf8.RuneCountInString(prompt) > maxPromptLen {
		return "Prompt is too long (max 4,000 characters)."
	}
	return ""
}
