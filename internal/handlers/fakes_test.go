// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// fakes_test.go provides in-memory stand-ins for the stores and services
// the handlers depend on, plus request helpers shared by the handler tests.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"letterlove/internal/ai"
	"letterlove/internal/auth"
	"letterlove/internal/catalog"
	"letterlove/internal/middleware"
	"letterlove/internal/models"
	"letterlove/internal/session"
	"letterlove/internal/store"
)

// ---------- cards ----------

type fakeCardStore struct {
	mu       sync.Mutex
	cards    map[string]*models.Card
	seq      int
	err      error // returned by every method when set
	getCalls int
}

func newFakeCardStore() *fakeCardStore {
	return &fakeCardStore{cards: map[string]*models.Card{}}
}

func (f *fakeCardStore) Create(_ context.Context, templateID string, data map[string]string, ownerID *uuid.UUID) (*models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.seq++
	c := &models.Card{
		ID:         fmt.Sprintf("card%04d", f.seq),
		TemplateID: templateID,
		Data:       data,
		UserID:     ownerID,
		CreatedAt:  time.Date(2026, 2, 14, 0, 0, f.seq, 0, time.UTC),
	}
	f.cards[c.ID] = c
	return c, nil
}

func (f *fakeCardStore) Get(_ context.Context, id string) (*models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.cards[id]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	return c, nil
}

func (f *fakeCardStore) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []models.Card{}
	for _, c := range f.cards {
		if c.OwnedBy(ownerID) {
			out = append(out, *c)
		}
	}
	slices.SortFunc(out, func(a, b models.Card) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (f *fakeCardStore) Delete(_ context.Context, id string, ownerID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	c, ok := f.cards[id]
	if !ok || !c.OwnedBy(ownerID) {
		return false, nil
	}
	delete(f.cards, id)
	return true, nil
}

// fakeCache mirrors cache.CardCache: Set never overwrites a present key,
// and Invalidate leaves a tombstone.
type fakeCache struct {
	mu          sync.Mutex
	cards       map[string]*models.Card
	tombstones  map[string]bool
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{cards: map[string]*models.Card{}, tombstones: map[string]bool{}}
}

func (f *fakeCache) Get(_ context.Context, id string) (*models.Card, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cards[id]
	return c, ok
}

func (f *fakeCache) Set(_ context.Context, card *models.Card) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cards[card.ID]; ok || f.tombstones[card.ID] {
		return
	}
	f.cards[card.ID] = card
}

func (f *fakeCache) Invalidate(_ context.Context, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cards, id)
	f.tombstones[id] = true
	f.invalidated = append(f.invalidated, id)
}

// ---------- identity ----------

type fakeUserStore struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*models.User
	passwords map[uuid.UUID]string
	err       error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uuid.UUID]*models.User{}, passwords: map[uuid.UUID]string{}}
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.users[id], nil
}

func (f *fakeUserStore) Create(ctx context.Context, email, password, displayName string) (*models.User, error) {
	if u, _ := f.FindByEmail(ctx, email); u != nil {
		return nil, store.ErrEmailTaken
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	hash := "hashed"
	u := &models.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: &hash,
		DisplayName:  displayName,
		Provider:     models.ProviderLocal,
	}
	f.users[u.ID] = u
	f.passwords[u.ID] = password
	return u, nil
}

func (f *fakeUserStore) FindOrCreateOAuth(ctx context.Context, provider, subject, email, displayName string, emailVerified bool) (*models.User, error) {
	f.mu.Lock()
	for _, u := range f.users {
		if u.Provider == provider && u.ProviderSubject != nil && *u.ProviderSubject == subject {
			f.mu.Unlock()
			return u, nil
		}
	}
	f.mu.Unlock()

	if u, _ := f.FindByEmail(ctx, email); u != nil {
		if !emailVerified {
			return nil, store.ErrEmailTaken
		}
		f.mu.Lock()
		u.Provider, u.ProviderSubject = provider, &subject
		f.mu.Unlock()
		return u, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	u := &models.User{
		ID:              uuid.New(),
		Email:           strings.ToLower(email),
		DisplayName:     displayName,
		Provider:        provider,
		ProviderSubject: &subject,
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUserStore) UpdateDisplayName(_ context.Context, id uuid.UUID, displayName string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	u.DisplayName = displayName
	return u, nil
}

func (f *fakeUserStore) ResetTOTP(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id].TOTPSecret = nil
	f.users[id].TOTPEnabled = false
	return nil
}

func (f *fakeUserStore) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.users, id)
	delete(f.passwords, id)
	return nil
}

func (f *fakeUserStore) SetTOTPSecret(_ context.Context, id uuid.UUID, secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id].TOTPSecret = &secret
	return nil
}

func (f *fakeUserStore) EnableTOTP(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id].TOTPEnabled = true
	return nil
}

func (f *fakeUserStore) CheckPassword(user *models.User, password string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	want, ok := f.passwords[user.ID]
	return ok && want == password
}

type fakeSessionStore struct {
	mu          sync.Mutex
	created     []*session.Data
	destroyed   int
	revokedFor  []uuid.UUID
	updateCalls int
}

func (f *fakeSessionStore) Create(_ context.Context, w http.ResponseWriter, data *session.Data) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, data)
	http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: "sess-id", Path: "/"})
	return "sess-id", nil
}

// Update applies change to the most recent session, standing in for the
// one named by the request cookie.
func (f *fakeSessionStore) Update(_ context.Context, r *http.Request, change func(*session.Data)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if _, err := r.Cookie(session.CookieName); err != nil || len(f.created) == 0 {
		return session.ErrNoSession
	}
	change(f.created[len(f.created)-1])
	return nil
}

func (f *fakeSessionStore) DestroyUser(_ context.Context, userID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokedFor = append(f.revokedFor, userID)
	n := 0
	for _, d := range f.created {
		if d.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeSessionStore) Destroy(_ context.Context, w http.ResponseWriter, _ *http.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed++
	http.SetCookie(w, &http.Cookie{Name: session.CookieName, Value: "", Path: "/", MaxAge: -1})
	return nil
}

type fakeOIDC struct {
	identity *auth.Identity
	err      error
	codes    []string
}

func (f *fakeOIDC) AuthURL(state string) string {
	return "https://id.example.com/authorize?state=" + state
}

func (f *fakeOIDC) Exchange(_ context.Context, code string) (*auth.Identity, error) {
	f.codes = append(f.codes, code)
	return f.identity, f.err
}

// ---------- ai ----------

type fakeEnhancer struct {
	result ai.Result
	err    error
	calls  int
	last   ai.Request
}

func (f *fakeEnhancer) Enhance(_ context.Context, req ai.Request) (ai.Result, error) {
	f.calls++
	f.last = req
	if f.err == nil && strings.TrimSpace(req.Prompt) == "" {
		return ai.Result{}, ai.ErrEmptyPrompt
	}
	return f.result, f.err
}

func (f *fakeEnhancer) Candidates() []string { return []string{"gemini-2.5-flash"} }

// ---------- helpers ----------

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default: %v", err)
	}
	return cat
}

func testShareURL(id string) string { return "https://letterlove.test/share/" + id }

// jsonRequest builds a request with a JSON body (or no body when v is nil).
func jsonRequest(t *testing.T, method, target string, v any) *http.Request {
	t.Helper()
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withUser attaches a signed-in identity to the request.
func withUser(req *http.Request, id uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithSession(req.Context(), &session.Data{
		UserID:      id,
		Email:       "asha@example.com",
		DisplayName: "Asha",
		Provider:    models.ProviderLocal,
	}))
}

// withURLParam sets a chi route parameter without a router.
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(req.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// decodeBody decodes a JSON response body into v.
func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type: got %q", ct)
	}
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
}

// errorOf returns the "error" field of a JSON error response.
func errorOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	decodeBody(t, rr, &body)
	return body.Error
}
