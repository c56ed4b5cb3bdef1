package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jinwoo-notes/jinwoo/internal/db"
	"github.com/jinwoo-notes/jinwoo/internal/email"
	"github.com/jinwoo-notes/jinwoo/internal/errs"
	"github.com/jinwoo-notes/jinwoo/internal/notes"
	"github.com/jinwoo-notes/jinwoo/internal/obs"
)

// Errors
var (
	ErrUnauthenticated    = errs.New(errs.Unauthenticated, "user not found")
	ErrInvalidCredentials = errs.New(errs.Unauthenticated, "invalid credentials")
	ErrAccountExists      = errs.New(errs.FailedPrecondition, "account already exists")
	ErrWeakPassword       = errs.Newf(errs.InvalidArgument, "password must be at least %d characters", MinPasswordLength)
	ErrInvalidEmail       = errs.New(errs.InvalidArgument, "a valid email address is required")
)

// User represents a user account.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	InitialFolderID string    `json:"initialFolderId"`
	CreatedAt       time.Time `json:"createdAt"`
}

// UserService handles registration, login and user lookups.
type UserService struct {
	store        *db.Store
	hasher       PasswordHasher
	emailService email.EmailService
	baseURL      string
	clock        Clock
}

// NewUserService creates a new user service.
func NewUserService(store *db.Store, hasher PasswordHasher, emailSvc email.EmailService, baseURL string) *UserService {
	if hasher == nil {
		hasher = Argon2Hasher{}
	}
	return &UserService{
		store:        store,
		hasher:       hasher,
		emailService: emailSvc,
		baseURL:      baseURL,
		clock:        realClock{},
	}
}

// SetClock replaces the clock used by the service. Intended for testing.
func (s *UserService) SetClock(c Clock) {
	s.clock = c
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

var validate = validator.New()

func validateEmail(addr string) error {
	if err := validate.Var(addr, "required,email,max=254"); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// Register creates an account together with its All Notes folder and
// welcome note, all in one transaction. The welcome email is sent after
// commit; a send failure is logged only.
func (s *UserService) Register(ctx context.Context, emailAddr, password string) (*User, error) {
	emailAddr = NormalizeEmail(emailAddr)
	if err := validateEmail(emailAddr); err != nil {
		return nil, err
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.Now()
	userID := uuid.New().String()
	var initial db.Folder
	err = s.store.WithTx(ctx, func(q *db.Queries) error {
		if _, err := q.CreateUser(ctx, db.CreateUserParams{
			ID:           userID,
			Email:        emailAddr,
			PasswordHash: passwordHash,
			CreatedAt:    now.UnixMilli(),
		}); err != nil {
			if db.IsUniqueViolation(err) {
				return ErrAccountExists
			}
			return fmt.Errorf("create user: %w", err)
		}
		var err error
		initial, _, err = notes.Bootstrap(ctx, q, userID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger := obs.From(obs.WithUserID(ctx, userID)).With("pkg", "auth")
	logger.Info("user_registered")
	if s.emailService != nil {
		if err := s.emailService.Send(emailAddr, email.TemplateWelcome, email.WelcomeData{
			Email:  emailAddr,
			AppURL: s.baseURL,
		}); err != nil {
			logger.Warn("welcome_email_failed", "error", err)
		}
	}

	return &User{
		ID:              userID,
		Email:           emailAddr,
		InitialFolderID: initial.ID,
		CreatedAt:       time.UnixMilli(now.UnixMilli()).UTC(),
	}, nil
}

// Login verifies email/password credentials.
// Returns ErrInvalidCredentials if the user doesn't exist or the password is wrong.
func (s *UserService) Login(ctx context.Context, emailAddr, password string) (*User, error) {
	row, err := s.store.Queries().GetUserByEmail(ctx, NormalizeEmail(emailAddr))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if row.PasswordHash == "" || !s.hasher.VerifyPassword(password, row.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return userFromRow(row), nil
}

// GetUserByID returns nil without error when the user does not exist.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*User, error) {
	if id == "" {
		return nil, nil
	}
	row, err := s.store.Queries().GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return userFromRow(row), nil
}

// GetUserByEmail looks a user up by normalized address. Returns nil without
// error when nobody has registered it.
func (s *UserService) GetUserByEmail(ctx context.Context, emailAddr string) (*User, error) {
	emailAddr = NormalizeEmail(emailAddr)
	if emailAddr == "" {
		return nil, nil
	}
	row, err := s.store.Queries().GetUserByEmail(ctx, emailAddr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return userFromRow(row), nil
}

// GetCurrentUser returns the user authenticated on ctx, or nil when the
// request carries no valid session or the user row is gone.
func (s *UserService) GetCurrentUser(ctx context.Context) (*User, error) {
	return s.GetUserByID(ctx, GetUserID(ctx))
}

// RequireCurrentUser is GetCurrentUser for handlers that cannot proceed
// anonymously. It fails with an Unauthenticated "user not found" error.
func (s *UserService) RequireCurrentUser(ctx context.Context) (*User, error) {
	user, err := s.GetCurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

func userFromRow(row db.User) *User {
	return &User{
		ID:              row.ID,
		Email:           row.Email,
		InitialFolderID: row.InitialFolderID.String,
		CreatedAt:       time.UnixMilli(row.CreatedAt).UTC(),
	}
}
