package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"letterlove/internal/auth"
	"letterlove/internal/middleware"
	"letterlove/internal/models"
	"letterlove/internal/session"
	"letterlove/internal/store"
)

const (
	oauthStateCookie = "ll_oauth_state"
	oauthStateMaxAge = 600 // seconds
	totpIssuer       = "LetterLove"
)

// UserStore is the account storage used by the identity handlers.
// *store.UserStore satisfies it.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, email, password, displayName string) (*models.User, error)
	FindOrCreateOAuth(ctx context.Context, provider, subject, email, displayName string, emailVerified bool) (*models.User, error)
	UpdateDisplayName(ctx context.Context, userID uuid.UUID, displayName string) (*models.User, error)
	SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error
	EnableTOTP(ctx context.Context, userID uuid.UUID) error
	ResetTOTP(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, userID uuid.UUID) error
	CheckPassword(user *models.User, password string) bool
}

// SessionStore manages cookie sessions. *session.Store satisfies it.
type SessionStore interface {
	Create(ctx context.Context, w http.ResponseWriter, data *session.Data) (string, error)
	Update(ctx context.Context, r *http.Request, change func(*session.Data)) error
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
	DestroyUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// TokenIssuer signs API bearer tokens. *auth.TokenIssuer satisfies it.
type TokenIssuer interface {
	Issue(userID uuid.UUID, email, displayName, provider string) (string, error)
}

// OIDCProvider runs the authorization-code flow. *auth.OIDCProvider satisfies it.
type OIDCProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.Identity, error)
}

// Auth groups all identity-related HTTP handlers.
type Auth struct {
	users    UserStore
	sessions SessionStore
	tokens   TokenIssuer
	oidc     OIDCProvider // nil when OAuth sign-in is disabled
	secure   bool         // Secure flag on the OAuth state cookie
}

// NewAuth creates a new Auth handler group. oidc may be nil.
func NewAuth(users UserStore, sessions SessionStore, tokens TokenIssuer, oidc OIDCProvider, secure bool) *Auth {
	return &Auth{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		oidc:     oidc,
		secure:   secure,
	}
}

// userView is the public shape of a user.
type userView struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
}

type authResponse struct {
	User  userView `json:"user"`
	Token string   `json:"token"`
}

type signUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

type codeRequest struct {
	Code string `json:"code"`
}

type updateMeRequest struct {
	DisplayName string `json:"displayName"`
}

type deleteMeRequest struct {
	Password string `json:"password"`
}

// Me reports the current identity, or {"anonymous": true}.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"anonymous": true})
		return
	}
	writeJSON(w, http.StatusOK, userView{ID: sess.UserID, Email: sess.Email, DisplayName: sess.DisplayName})
}

// UpdateMe changes the caller's display name. The cookie session is
// refreshed in place, and a new bearer token carries the new name.
func (a *Auth) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req updateMeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validateDisplayName(req.DisplayName); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	name := strings.TrimSpace(req.DisplayName)
	user, err := a.users.UpdateDisplayName(r.Context(), sess.UserID, name)
	if err != nil {
		slog.Error("update display name failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if _, bearer := middleware.BearerToken(r); !bearer {
		err := a.sessions.Update(r.Context(), r, func(d *session.Data) { d.DisplayName = user.DisplayName })
		if err != nil && !errors.Is(err, session.ErrNoSession) {
			slog.Warn("session refresh failed", "user_id", user.ID, "error", err)
		}
	}

	token, err := a.tokens.Issue(user.ID, user.Email, user.DisplayName, user.Provider)
	if err != nil {
		slog.Error("token issue failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{
		User:  userView{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName},
		Token: token,
	})
}

// DeleteMe removes the caller's account and signs out every session.
// Password accounts must confirm with their password. Cards already shared
// stay readable.
func (a *Auth) DeleteMe(w http.ResponseWriter, r *http.Request) {
	// OAuth-only accounts have nothing to confirm and may send no body.
	var req deleteMeRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	if user.HasPassword() && !a.users.CheckPassword(user, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}

	if err := a.users.Delete(r.Context(), user.ID); err != nil {
		slog.Error("delete account failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	revoked, err := a.sessions.DestroyUser(r.Context(), user.ID)
	if err != nil {
		slog.Warn("session revoke failed", "user_id", user.ID, "error", err)
	}
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	slog.Info("account deleted", "user_id", user.ID, "sessions_revoked", revoked)
	w.WriteHeader(http.StatusNoContent)
}

// SignUp creates a local account and signs it in.
func (a *Auth) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validateSignup(req.Email, req.Password, req.DisplayName); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	user, err := a.users.Create(r.Context(), req.Email, req.Password, strings.TrimSpace(req.DisplayName))
	if errors.Is(err, store.ErrEmailTaken) {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		slog.Error("sign up failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	slog.Info("user signed up", "user_id", user.ID)
	a.startSession(w, r, http.StatusCreated, user)
}

// SignIn checks credentials, and the TOTP code when the account has a
// second factor, then starts a session.
func (a *Auth) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := a.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		slog.Error("sign in lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	if user == nil || !a.users.CheckPassword(user, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if user.Needs2FA() && !totp.Validate(strings.TrimSpace(req.Code), *user.TOTPSecret) {
		writeError(w, http.StatusUnauthorized, "invalid two-factor code")
		return
	}

	a.startSession(w, r, http.StatusOK, user)
}

// SignOut destroys the cookie session. Bearer tokens stay valid until they
// expire.
func (a *Auth) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// OAuthStart redirects to the identity provider with a fresh state value.
func (a *Auth) OAuthStart(w http.ResponseWriter, r *http.Request) {
	if a.oidc == nil {
		writeError(w, http.StatusNotFound, "OAuth sign-in is not enabled")
		return
	}

	state, err := auth.NewState()
	if err != nil {
		slog.Error("oauth state generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth/oauth",
		MaxAge:   oauthStateMaxAge,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, a.oidc.AuthURL(state), http.StatusFound)
}

// OAuthCallback completes the flow, links or creates the account, and
// lands the user on the dashboard.
func (a *Auth) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	if a.oidc == nil {
		writeError(w, http.StatusNotFound, "OAuth sign-in is not enabled")
		return
	}

	cookie, err := r.Cookie(oauthStateCookie)
	state := r.URL.Query().Get("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		writeError(w, http.StatusBadRequest, "invalid oauth state")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/api/auth/oauth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		slog.Warn("oauth provider returned an error", "error", errParam)
		http.Redirect(w, r, "/signin?error=oauth", http.StatusFound)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	identity, err := a.oidc.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("oauth exchange failed", "error", err)
		writeError(w, http.StatusUnauthorized, "sign-in failed")
		return
	}
	if identity.Email == "" {
		writeError(w, http.StatusBadRequest, "identity provider did not share an email address")
		return
	}

	user, err := a.users.FindOrCreateOAuth(r.Context(), auth.ProviderOIDC,
		identity.Subject, identity.Email, identity.Name, identity.EmailVerified)
	if errors.Is(err, store.ErrEmailTaken) {
		slog.Warn("oauth sign-in refused, unverified email matches an existing account", "subject", identity.Subject)
		http.Redirect(w, r, "/signin?error=email_unverified", http.StatusFound)
		return
	}
	if err != nil {
		slog.Error("oauth account lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	// The provider cannot vouch for the second factor.
	if user.Needs2FA() {
		slog.Warn("oauth sign-in refused, account requires two-factor", "user_id", user.ID)
		http.Redirect(w, r, "/signin?error=2fa_required", http.StatusFound)
		return
	}

	if _, err := a.sessions.Create(r.Context(), w, sessionFor(user)); err != nil {
		slog.Error("session create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	slog.Info("user signed in", "user_id", user.ID, "provider", auth.ProviderOIDC)
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// TwoFASetup generates a TOTP secret and returns it with a QR code.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	if user.TOTPEnabled {
		writeError(w, http.StatusConflict, "two-factor authentication is already enabled")
		return
	}
	// OAuth sign-in skips the second factor, so an account without a
	// password would lock itself out.
	if !user.HasPassword() {
		writeError(w, http.StatusConflict, "two-factor authentication needs a password sign-in")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	if err := a.users.SetTOTPSecret(r.Context(), user.ID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	// QR code as base64-encoded PNG.
	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"secret": key.Secret(),
		"url":    key.URL(),
		"qr":     base64.StdEncoding.EncodeToString(qrPNG),
	})
}

// TwoFAEnable confirms the pending secret with a code and turns the
// second factor on.
func (a *Auth) TwoFAEnable(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	if user.TOTPSecret == nil {
		writeError(w, http.StatusBadRequest, "run two-factor setup first")
		return
	}
	if !totp.Validate(strings.TrimSpace(req.Code), *user.TOTPSecret) {
		writeError(w, http.StatusUnauthorized, "invalid two-factor code")
		return
	}

	if !user.TOTPEnabled {
		if err := a.users.EnableTOTP(r.Context(), user.ID); err != nil {
			slog.Error("enable totp failed", "error", err)
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
			return
		}
	}
	slog.Info("two-factor enabled", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": true})
}

// TwoFADisable turns the second factor off after checking a current code.
func (a *Auth) TwoFADisable(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	if !user.Needs2FA() {
		writeError(w, http.StatusBadRequest, "two-factor authentication is not enabled")
		return
	}
	if !totp.Validate(strings.TrimSpace(req.Code), *user.TOTPSecret) {
		writeError(w, http.StatusUnauthorized, "invalid two-factor code")
		return
	}

	if err := a.users.ResetTOTP(r.Context(), user.ID); err != nil {
		slog.Error("reset totp failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	slog.Info("two-factor disabled", "user_id", user.ID)
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": false})
}

// currentUser loads the signed-in user's account. It writes the error
// response itself and reports false when the handler should stop.
func (a *Auth) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}

	user, err := a.users.FindByID(r.Context(), sess.UserID)
	if err != nil {
		slog.Error("user lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return nil, false
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return user, true
}

// startSession sets the session cookie and answers with the user and a
// bearer token for API clients.
func (a *Auth) startSession(w http.ResponseWriter, r *http.Request, status int, user *models.User) {
	if _, err := a.sessions.Create(r.Context(), w, sessionFor(user)); err != nil {
		slog.Error("session create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	token, err := a.tokens.Issue(user.ID, user.Email, user.DisplayName, user.Provider)
	if err != nil {
		slog.Error("token issue failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	writeJSON(w, status, authResponse{
		User:  userView{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName},
		Token: token,
	})
}

func sessionFor(user *models.User) *session.Data {
	return &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Provider:    user.Provider,
	}
}
