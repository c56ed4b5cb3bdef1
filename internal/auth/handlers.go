package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jinwoo-notes/jinwoo/internal/errs"
	"github.com/jinwoo-notes/jinwoo/internal/obs"
)

// Handler provides HTTP handlers for authentication routes.
type Handler struct {
	userService    *UserService
	sessionService *SessionService
	middleware     *Middleware
}

// NewHandler creates a new auth handler.
func NewHandler(userService *UserService, sessionService *SessionService) *Handler {
	return &Handler{
		userService:    userService,
		sessionService: sessionService,
		middleware:     NewMiddleware(sessionService),
	}
}

// RegisterRoutes registers all auth routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/register", h.HandleRegister)
	mux.HandleFunc("POST /auth/login", h.HandleLogin)
	mux.HandleFunc("POST /auth/logout", h.HandleLogout)
	mux.Handle("GET /auth/whoami", h.middleware.OptionalAuth(http.HandlerFunc(h.HandleWhoami)))
	mux.Handle("GET /api/users/lookup", h.middleware.RequireAuth(http.HandlerFunc(h.HandleLookup)))
}

// CredentialsRequest is the request body for registration and login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates an account and signs it in.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.New(errs.InvalidArgument, "invalid request body"))
		return
	}

	user, err := h.userService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	if !h.startSession(w, r, user.ID) {
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// HandleLogin verifies credentials and starts a session.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.New(errs.InvalidArgument, "invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, errs.New(errs.InvalidArgument, "email and password are required"))
		return
	}

	user, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	if !h.startSession(w, r, user.ID) {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, userID string) bool {
	sessionID, err := h.sessionService.Create(r.Context(), userID)
	if err != nil {
		obs.From(r.Context()).Error("session_create_failed", "pkg", "auth", "error", err)
		writeError(w, err)
		return false
	}
	h.sessionService.SetCookie(w, sessionID)
	return true
}

// HandleLogout deletes the current session, if any, and clears the cookie.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sessionID, err := GetFromRequest(r); err == nil {
		_ = h.sessionService.Delete(r.Context(), sessionID)
	}
	h.sessionService.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleWhoami returns the current user, or null when signed out.
func (h *Handler) HandleWhoami(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetCurrentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// LookupResponse is the public view of another user.
type LookupResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// HandleLookup finds a user by email address.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	if _, err := h.userService.RequireCurrentUser(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	user, err := h.userService.GetUserByEmail(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, err)
		return
	}
	if user == nil {
		writeError(w, errs.New(errs.NotFound, "user not found"))
		return
	}
	writeJSON(w, http.StatusOK, LookupResponse{ID: user.ID, Email: user.Email})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	var coded *errs.Error
	if !errors.As(err, &coded) {
		obs.Pkg("auth").Error("request_failed", "error", err)
	}
	writeJSON(w, errs.HTTPStatus(errs.CodeOf(err)), errorResponse{Error: errs.MessageOf(err)})
}
