package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"postnest/internal/repositories"
)

const SessionCookie = "postnest_session"

var ErrInvalidSession = errors.New("invalid or revoked session")

// Identity is the authenticated caller behind a request.
type Identity struct {
	UserID    int64
	SessionID string
}

// Manager issues, resolves and revokes sessions. Tokens are signed so a
// client cannot forge one, and each token points at a sessions row so logout
// revokes it server-side.
type Manager struct {
	sessions     repositories.SessionRepository
	signer       *TokenSigner
	secureCookie bool
}

func NewManager(sessions repositories.SessionRepository, signer *TokenSigner, secureCookie bool) *Manager {
	return &Manager{sessions: sessions, signer: signer, secureCookie: secureCookie}
}

func (m *Manager) Start(ctx context.Context, userID int64) (string, *Identity, error) {
	session, err := m.sessions.Create(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	token, err := m.signer.Sign(session.ID, userID)
	if err != nil {
		_ = m.sessions.Delete(ctx, session.ID)
		return "", nil, err
	}
	return token, &Identity{UserID: userID, SessionID: session.ID}, nil
}

func (m *Manager) Resolve(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	claims, err := m.signer.Parse(token)
	if err != nil {
		return nil, ErrInvalidSession
	}
	session, err := m.sessions.Get(ctx, claims.SessionID)
	if err != nil || session.UserID != claims.UserID {
		return nil, ErrInvalidSession
	}
	return &Identity{UserID: session.UserID, SessionID: session.ID}, nil
}

func (m *Manager) End(ctx context.Context, sessionID string) error {
	return m.sessions.Delete(ctx, sessionID)
}

func (m *Manager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secureCookie,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

// TokenFromRequest reads the session token from the cookie, falling back to an
// Authorization bearer header for API clients.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) > 7 && strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
