package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jinwoo-notes/jinwoo/internal/obs"
)

type contextKey string

const userIDKey contextKey = "userID"

// Middleware provides authentication middleware for HTTP handlers.
type Middleware struct {
	sessionService *SessionService
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(sessionService *SessionService) *Middleware {
	return &Middleware{sessionService: sessionService}
}

// RequireAuth rejects requests without a valid session with a JSON 401.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.authenticate(r)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// OptionalAuth adds the user to the context when a valid session is present
// and continues either way.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID, ok := m.authenticate(r); ok {
			r = r.WithContext(WithUserID(r.Context(), userID))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) authenticate(r *http.Request) (string, bool) {
	sessionID, err := GetFromRequest(r)
	if err != nil {
		return "", false
	}
	userID, err := m.sessionService.Validate(r.Context(), sessionID)
	if err != nil {
		return "", false
	}
	return userID, true
}

// WithUserID marks ctx as authenticated for userID and tags its logs.
func WithUserID(ctx context.Context, userID string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return obs.WithUserID(ctx, userID)
}

// GetUserID retrieves the user ID from the request context.
// Returns empty string if no user is authenticated.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// IsAuthenticated checks if the context has an authenticated user.
func IsAuthenticated(ctx context.Context) bool {
	return GetUserID(ctx) != ""
}
