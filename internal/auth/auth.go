// Package auth guards the admin API with a signed session cookie backed by
// the users table.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// SessionCookieName is the cookie carrying the admin session.
const SessionCookieName = "estimator_session"

// DefaultSessionTTL bounds how long a login stays valid.
const DefaultSessionTTL = 12 * time.Hour

type contextKey struct{}

// Service validates admin credentials and issues session cookies.
type Service struct {
	db            *sql.DB
	sessionSecret []byte
	ttl           time.Duration
	now           func() time.Time
}

// New builds a Service over a migrated database.
func New(db *sql.DB, sessionSecret string) *Service {
	return &Service{
		db:            db,
		sessionSecret: []byte(sessionSecret),
		ttl:           DefaultSessionTTL,
		now:           time.Now,
	}
}

// WithClock replaces the clock used for session expiry.
func (a *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		a.now = now
	}
	return a
}

// RandomSecret returns a fresh 32-byte session secret, hex encoded. Sessions
// signed with it end when the process exits.
func RandomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashPassword returns the bcrypt hash stored in users.password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ValidateCredentials reports whether email and password match a stored user.
func (a *Service) ValidateCredentials(ctx context.Context, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return false, nil
	}

	var passwordHash string
	err := a.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE email = ?`, email).Scan(&passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query user credentials: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return false, nil
	}
	return true, nil
}

// EnsureAdmin inserts the admin user when it does not exist yet. It reports
// whether a row was created.
func (a *Service) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return false, nil
	}

	var exists bool
	if err := a.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return false, nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	if _, err := a.db.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, hash); err != nil {
		return false, fmt.Errorf("insert admin user: %w", err)
	}
	return true, nil
}

func (a *Service) sign(payload string) []byte {
	mac := hmac.New(sha256.New, a.sessionSecret)
	_, _ = mac.Write([]byte(payload))
	return mac.Sum(nil)
}

func (a *Service) createSessionValue(email string) string {
	expires := a.now().Add(a.ttl).Unix()
	raw := normalizeEmail(email) + "|" + strconv.FormatInt(expires, 10)
	payload := base64.RawURLEncoding.EncodeToString([]byte(raw))
	return payload + "." + hex.EncodeToString(a.sign(payload))
}

func (a *Service) verifySessionValue(value string) (string, bool) {
	if len(a.sessionSecret) == 0 {
		return "", false
	}
	payload, signature, ok := strings.Cut(value, ".")
	if !ok || payload == "" {
		return "", false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(provided, a.sign(payload)) {
		return "", false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", false
	}
	email, rawExpiry, ok := strings.Cut(string(decoded), "|")
	if !ok || email == "" {
		return "", false
	}
	expires, err := strconv.ParseInt(rawExpiry, 10, 64)
	if err != nil || a.now().Unix() >= expires {
		return "", false
	}
	return email, true
}

// SetSessionCookie logs email in on the response.
func (a *Service) SetSessionCookie(w http.ResponseWriter, email string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    a.createSessionValue(email),
		Path:     "/",
		MaxAge:   int(a.ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie logs the caller out.
func (a *Service) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Authenticated returns the session's email when the request carries a valid
// session cookie.
func (a *Service) Authenticated(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", false
	}
	return a.verifySessionValue(cookie.Value)
}

// Middleware rejects requests without a valid session with 401.
func (a *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, ok := a.Authenticated(r)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, email)))
	})
}

// UserFromContext returns the admin email set by Middleware.
func UserFromContext(ctx context.Context) string {
	email, _ := ctx.Value(contextKey{}).(string)
	return email
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
