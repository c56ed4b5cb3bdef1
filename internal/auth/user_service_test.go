package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinwoo-notes/jinwoo/internal/email"
	"github.com/jinwoo-notes/jinwoo/internal/errs"
	"github.com/jinwoo-notes/jinwoo/internal/notes"
	"github.com/jinwoo-notes/jinwoo/internal/testdb"
)

func TestRegister_BootstrapsAllNotes(t *testing.T) {
	t.Parallel()
	store := testdb.New(t)
	mail := email.NewMockEmailService()
	svc := NewUserService(store, FakeInsecureHasher{}, mail, "https://notes.example.com")
	svc.SetClock(NewFakeClock(time.UnixMilli(1_700_000_000_000)))

	user, err := svc.Register(t.Context(), "  Ada@Example.COM ", "password123")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEmpty(t, user.InitialFolderID)
	assert.Equal(t, int64(1_700_000_000_000), user.CreatedAt.UnixMilli())

	folders, err := notes.NewService(store, user.ID).ListFolders(t.Context())
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, user.InitialFolderID, folders[0].ID)
	assert.Equal(t, notes.InitialFolderName, folders[0].Name)
	assert.Equal(t, 1, folders[0].NoteCount)

	require.Equal(t, 1, mail.Count())
	sent := mail.LastEmail()
	assert.Equal(t, "ada@example.com", sent.To)
	assert.Equal(t, email.TemplateWelcome, sent.Template)
	assert.Equal(t, "https://notes.example.com", sent.Data.(email.WelcomeData).AppURL)
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()
	svc := NewUserService(testdb.New(t), FakeInsecureHasher{}, nil, "")

	_, err := svc.Register(t.Context(), "not-an-email", "password123")
	assert.ErrorIs(t, err, ErrInvalidEmail)
	assert.Equal(t, errs.InvalidArgument, errs.CodeOf(err))

	_, err = svc.Register(t.Context(), "a@example.com", "short")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestRegister_DuplicateEmailRollsBack(t *testing.T) {
	t.Parallel()
	store := testdb.New(t)
	svc := NewUserService(store, FakeInsecureHasher{}, nil, "")

	_, err := svc.Register(t.Context(), "dup@example.com", "password123")
	require.NoError(t, err)
	_, err = svc.Register(t.Context(), "DUP@example.com", "password456")
	assert.ErrorIs(t, err, ErrAccountExists)
	assert.Equal(t, errs.FailedPrecondition, errs.CodeOf(err))

	users, err := store.Queries().ListUsers(t.Context())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestRegister_EmailFailureDoesNotFailRegistration(t *testing.T) {
	t.Parallel()
	mail := email.NewMockEmailService()
	mail.FailWith = errors.New("provider down")
	svc := NewUserService(testdb.New(t), FakeInsecureHasher{}, mail, "")

	user, err := svc.Register(t.Context(), "ok@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, 1, mail.Count())
}

func TestLogin(t *testing.T) {
	t.Parallel()
	svc := NewUserService(testdb.New(t), FakeInsecureHasher{}, nil, "")
	registered, err := svc.Register(t.Context(), "login@example.com", "password123")
	require.NoError(t, err)

	user, err := svc.Login(t.Context(), "LOGIN@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Equal(t, registered.InitialFolderID, user.InitialFolderID)

	_, err = svc.Login(t.Context(), "login@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(t.Context(), "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRequireCurrentUser(t *testing.T) {
	t.Parallel()
	svc := NewUserService(testdb.New(t), FakeInsecureHasher{}, nil, "")
	registered, err := svc.Register(t.Context(), "me@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.RequireCurrentUser(t.Context())
	assert.Equal(t, errs.Unauthenticated, errs.CodeOf(err))
	assert.Equal(t, "user not found", errs.MessageOf(err))

	_, err = svc.RequireCurrentUser(WithUserID(t.Context(), "deleted-user"))
	assert.Equal(t, errs.Unauthenticated, errs.CodeOf(err))

	user, err := svc.RequireCurrentUser(WithUserID(t.Context(), registered.ID))
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", user.Email)

	current, err := svc.GetCurrentUser(t.Context())
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestGetUserByEmail(t *testing.T) {
	t.Parallel()
	svc := NewUserService(testdb.New(t), FakeInsecureHasher{}, nil, "")
	registered, err := svc.Register(t.Context(), "find@example.com", "password123")
	require.NoError(t, err)

	user, err := svc.GetUserByEmail(t.Context(), " Find@Example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, registered.ID, user.ID)

	missing, err := svc.GetUserByEmail(t.Context(), "missing@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
