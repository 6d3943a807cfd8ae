// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"letterlove/internal/models"
	"letterlove/internal/shortid"
)

var (
	// ErrCardNotFound is returned by Get when no card has the given id.
	ErrCardNotFound = errors.New("card not found")

	// ErrOwnerNotFound is returned by Create when the owning account was
	// deleted while the caller still held a valid bearer token.
	ErrOwnerNotFound = errors.New("card owner not found")
)

// createAttempts bounds how many fresh ids Create draws when an insert
// collides with an existing primary key.
const createAttempts = 3

// PostgreSQL SQLSTATE codes the stores translate.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// CardStore handles persistence of cards.
type CardStore struct {
	db    *sql.DB
	newID func() (string, error)
}

// NewCardStore creates a new CardStore with the given database connection.
func NewCardStore(db *sql.DB) *CardStore {
	return &CardStore{db: db, newID: shortid.New}
}

// Create stores a new card under a freshly generated id and returns it
// with created_at set by the database. ownerID may be nil for anonymous
// cards. Nothing is reserved when the insert fails.
func (s *CardStore) Create(ctx context.Context, templateID string, data map[string]string, ownerID *uuid.UUID) (*models.Card, error) {
	if data == nil {
		data = map[string]string{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal card data: %w", err)
	}

	var card *models.Card
	err = retry.Do(
		func() error {
			id, err := s.newID()
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("generate card id: %w", err))
			}

			c := &models.Card{ID: id, TemplateID: templateID, Data: data, UserID: ownerID}
			err = s.db.QueryRowContext(ctx, `
				INSERT INTO cards (id, template_id, data, user_id)
				VALUES ($1, $2, $3, $4)
				RETURNING created_at
			`, id, templateID, string(payload), ownerID).Scan(&c.CreatedAt)
			if err != nil {
				return err
			}
			card = c
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(createAttempts),
		retry.RetryIf(isUniqueViolation),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(10*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, _ error) {
			slog.Warn("card id collision, retrying", "attempt", n+1)
		}),
	)
	if isForeignKeyViolation(err) {
		return nil, ErrOwnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}
	return card, nil
}

// Get looks up a card by id. It returns ErrCardNotFound when no row
// matches, and a wrapped error for any other failure, so callers can tell
// a missing card from a store outage.
func (s *CardStore) Get(ctx context.Context, id string) (*models.Card, error) {
	if !shortid.Valid(id) {
		return nil, ErrCardNotFound
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, template_id, data, user_id, created_at
		FROM cards WHERE id = $1
	`, id)

	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	return c, nil
}

// ListByOwner returns the user's cards, newest first.
func (s *CardStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Card, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, template_id, data, user_id, created_at
		FROM cards WHERE user_id = $1
		ORDER BY created_at DESC, id ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return cards, nil
}

// Delete removes the card only if it belongs to ownerID. It reports
// whether a row was removed; a missing card, someone else's card and a
// second delete all yield false.
func (s *CardStore) Delete(ctx context.Context, id string, ownerID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM cards WHERE id = $1 AND user_id = $2
	`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete card: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete card rows affected: %w", err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*models.Card, error) {
	var (
		c   models.Card
		raw []byte
	)
	if err := row.Scan(&c.ID, &c.TemplateID, &raw, &c.UserID, &c.CreatedAt); err != nil {
		return nil, err
	}

	c.Data = map[string]string{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &c.Data); err != nil {
			return nil, fmt.Errorf("decode card data: %w", err)
		}
	}
	return &c, nil
}

func isUniqueViolation(err error) bool {
	return hasSQLState(err, uniqueViolation)
}

func isForeignKeyViolation(err error) bool {
	return hasSQLState(err, foreignKeyViolation)
}

func hasSQLState(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
