package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jinwoo-notes/jinwoo/internal/db"
)

// Session errors
var (
	ErrSessionNotFound = errors.New("session not found")
)

// Session configuration
const (
	DefaultSessionDuration = 30 * 24 * time.Hour
	SessionIDLength        = 32 // 256 bits
	SessionCookieName      = "session_id"
)

// SessionService handles session management.
type SessionService struct {
	store    *db.Store
	clock    Clock
	duration time.Duration
	secure   bool
}

// NewSessionService creates a new session service. A zero duration means
// DefaultSessionDuration. secure controls the cookie Secure flag.
func NewSessionService(store *db.Store, duration time.Duration, secure bool) *SessionService {
	if duration <= 0 {
		duration = DefaultSessionDuration
	}
	return &SessionService{
		store:    store,
		clock:    realClock{},
		duration: duration,
		secure:   secure,
	}
}

// SetClock replaces the clock used by the service. Intended for testing.
func (s *SessionService) SetClock(c Clock) {
	s.clock = c
}

// Create creates a new session for a user and returns its id, which should
// be stored in a cookie.
func (s *SessionService) Create(ctx context.Context, userID string) (string, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return "", fmt.Errorf("generate session ID: %w", err)
	}

	now := s.clock.Now()
	err = s.store.Queries().UpsertSession(ctx, db.Session{
		SessionID: sessionID,
		UserID:    userID,
		ExpiresAt: now.Add(s.duration).UnixMilli(),
		CreatedAt: now.UnixMilli(),
	})
	if err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return sessionID, nil
}

// Validate checks if a session is valid and returns the user ID.
func (s *SessionService) Validate(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", ErrSessionNotFound
	}
	session, err := s.store.Queries().GetValidSession(ctx, sessionID, s.clock.Now().UnixMilli())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("get session: %w", err)
	}
	return session.UserID, nil
}

// Delete removes a session (logout).
func (s *SessionService) Delete(ctx context.Context, sessionID string) error {
	if err := s.store.Queries().DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteByUserID removes all sessions for a user.
func (s *SessionService) DeleteByUserID(ctx context.Context, userID string) error {
	if err := s.store.Queries().DeleteSessionsByUserID(ctx, userID); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

// Cleanup removes all expired sessions and reports how many were removed.
func (s *SessionService) Cleanup(ctx context.Context) (int64, error) {
	n, err := s.store.Queries().DeleteExpiredSessions(ctx, s.clock.Now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("cleanup expired sessions: %w", err)
	}
	return n, nil
}

// SetCookie sets the session cookie on the response.
func (s *SessionService) SetCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.duration.Seconds()),
	})
}

// ClearCookie removes the session cookie.
func (s *SessionService) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// GetFromRequest retrieves the session ID from the request cookie.
func GetFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrSessionNotFound
		}
		return "", err
	}
	return cookie.Value, nil
}

func generateSessionID() (string, error) {
	bytes := make([]byte, SessionIDLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}
