package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"letterlove/internal/shortid"
)

// Demo account created by Seed in development.
const (
	DemoEmail    = "demo@letterlove.local"
	demoPassword = "demo"
)

// Seed populates the database with initial development data: a demo
// account and one sample card owned by it. It does nothing when any user
// exists already.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	var userID string
	err = db.QueryRow(`
		INSERT INTO users (email, password_hash, display_name, provider)
		VALUES ($1, $2, $3, 'local')
		RETURNING id
	`, DemoEmail, string(hash), "Demo").Scan(&userID)
	if err != nil {
		return fmt.Errorf("seed insert demo user: %w", err)
	}

	cardID, err := shortid.New()
	if err != nil {
		return fmt.Errorf("seed card id: %w", err)
	}
	data, err := json.Marshal(map[string]string{
		"recipientName": "Alex",
		"senderName":    "Sam",
		"message":       "Every moment with you feels like magic.",
	})
	if err != nil {
		return fmt.Errorf("seed card data: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO cards (id, template_id, data, user_id)
		VALUES ($1, $2, $3, $4)
	`, cardID, "love-letter", string(data), userID)
	if err != nil {
		return fmt.Errorf("seed insert card: %w", err)
	}

	slog.Info("database seeded with demo account",
		"email", DemoEmail,
		"password", demoPassword,
		"card", cardID,
	)

	return nil
}
