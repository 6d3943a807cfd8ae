// Package session keeps browser sign-ins in Valkey. A session is a random
// id in an HttpOnly cookie pointing at the signed-in identity; every
// user also has an index of their live session ids so that all of them
// can be revoked when the account goes away.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "ll_session"

	// DefaultTTL is how long a sign-in lasts.
	DefaultTTL = 24 * time.Hour

	keyPrefix       = "session:"
	userIndexPrefix = "user_sessions:"

	idBytes = 32
)

// ErrNoSession is returned by Update when the request carries no live session.
var ErrNoSession = errors.New("no session")

// Data is the identity a session stands for.
type Data struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Provider    string    `json:"provider"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store manages sessions in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

// NewStore creates a session store. secure sets the cookie's Secure flag.
func NewStore(client *redis.Client, secure bool) *Store {
	return &Store{client: client, ttl: DefaultTTL, secure: secure}
}

func sessionKey(id string) string { return keyPrefix + id }

func userIndexKey(userID uuid.UUID) string { return userIndexPrefix + userID.String() }

// Create stores a new session for data, indexes it under the user and sets
// the cookie. The index lives as long as the newest session.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, data *Data) (string, error) {
	id, err := newID()
	if err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	data.CreatedAt = time.Now().UTC()

	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("session encode: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, sessionKey(id), payload, s.ttl)
		p.SAdd(ctx, userIndexKey(data.UserID), id)
		p.Expire(ctx, userIndexKey(data.UserID), s.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("session store: %w", err)
	}

	s.setCookie(w, id, int(s.ttl.Seconds()))
	return id, nil
}

// Get returns the session named by the request cookie, or nil when there
// is none or it expired.
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	id, ok := cookieID(r)
	if !ok {
		return nil, nil
	}
	payload, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}
	return decode(payload)
}

// Update applies a profile change to the caller's session. The session
// keeps its id, creation time and remaining lifetime; an expired session
// is not brought back.
func (s *Store) Update(ctx context.Context, r *http.Request, change func(*Data)) error {
	data, err := s.Get(ctx, r)
	if err != nil {
		return err
	}
	if data == nil {
		return ErrNoSession
	}
	id, _ := cookieID(r)

	change(data)

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	err = s.client.SetArgs(ctx, sessionKey(id), payload, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return ErrNoSession
	}
	if err != nil {
		return fmt.Errorf("session update: %w", err)
	}
	return nil
}

// Destroy ends the caller's session and clears the cookie. A request with
// no session still gets the cookie cleared.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id, ok := cookieID(r)
	if !ok {
		return nil
	}
	s.setCookie(w, "", -1)

	payload, err := s.client.GetDel(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}
	if data, err := decode(payload); err == nil {
		s.client.SRem(ctx, userIndexKey(data.UserID), id)
	}
	return nil
}

// DestroyUser ends every session of a user and reports how many were live.
func (s *Store) DestroyUser(ctx context.Context, userID uuid.UUID) (int, error) {
	ids, err := s.client.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("session index: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	var removed *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if len(ids) > 0 {
			removed = p.Del(ctx, keys...)
		}
		p.Del(ctx, userIndexKey(userID))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("session revoke: %w", err)
	}
	if removed == nil {
		return 0, nil
	}
	return int(removed.Val()), nil
}

func (s *Store) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func cookieID(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func decode(payload []byte) (*Data, error) {
	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session decode: %w", err)
	}
	return &data, nil
}

func newID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
