// Package notes maintains a user's folder tree and the notes stored in it.
//
// Every folder caches the number of notes stored directly in it. The user's
// initial folder ("All Notes") instead counts every note the user owns, and
// listing it returns all of them. All mutations run in one transaction so a
// note and its counters always change together.
package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jinwoo-notes/jinwoo/internal/db"
	"github.com/jinwoo-notes/jinwoo/internal/errs"
	"github.com/jinwoo-notes/jinwoo/internal/obs"
)

// Service handles folder and note operations for one acting user.
type Service struct {
	store  *db.Store
	userID string
	now    func() time.Time
}

// NewService creates a service scoped to userID. Every query filters by it,
// so records owned by other users behave as if they did not exist.
func NewService(store *db.Store, userID string) *Service {
	return &Service{
		store:  store,
		userID: userID,
		now:    time.Now,
	}
}

// SetNow replaces the time source. Intended for testing.
func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

// UserID returns the acting user.
func (s *Service) UserID() string {
	return s.userID
}

func (s *Service) nowMillis() int64 {
	return s.now().UnixMilli()
}

// requireUser loads the acting user. Every public operation calls it first,
// so a service bound to a missing user fails the same way everywhere.
func (s *Service) requireUser(ctx context.Context, q *db.Queries) (db.User, error) {
	if s.userID == "" {
		return db.User{}, errs.New(errs.Unauthenticated, "user not found")
	}
	user, err := q.GetUserByID(ctx, s.userID)
	if errors.Is(err, sql.ErrNoRows) {
		return db.User{}, errs.New(errs.Unauthenticated, "user not found")
	}
	if err != nil {
		return db.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// initialFolderID loads the acting user and returns their initial folder id.
func (s *Service) initialFolderID(ctx context.Context, q *db.Queries) (string, error) {
	user, err := s.requireUser(ctx, q)
	if err != nil {
		return "", err
	}
	if !user.InitialFolderID.Valid || user.InitialFolderID.String == "" {
		return "", errs.New(errs.FailedPrecondition, "user has no initial folder")
	}
	return user.InitialFolderID.String, nil
}

func (s *Service) getFolder(ctx context.Context, q *db.Queries, id string) (db.Folder, error) {
	if id == "" {
		return db.Folder{}, errs.New(errs.InvalidArgument, "folder id is required")
	}
	f, err := q.GetFolder(ctx, s.userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return db.Folder{}, errs.New(errs.NotFound, "folder not found")
	}
	if err != nil {
		return db.Folder{}, fmt.Errorf("load folder: %w", err)
	}
	return f, nil
}

func (s *Service) getNote(ctx context.Context, q *db.Queries, id string) (db.Note, error) {
	if id == "" {
		return db.Note{}, errs.New(errs.InvalidArgument, "note id is required")
	}
	n, err := q.GetNote(ctx, s.userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return db.Note{}, errs.New(errs.NotFound, "note not found")
	}
	if err != nil {
		return db.Note{}, fmt.Errorf("load note: %w", err)
	}
	return n, nil
}

// adjustCounts applies delta to folderID and, when folderID is not the
// initial folder, to the initial folder as well.
func (s *Service) adjustCounts(ctx context.Context, q *db.Queries, folderID, initialID string, delta int64) error {
	if err := q.AdjustFolderNoteCount(ctx, s.userID, folderID, delta); err != nil {
		return countError(fmt.Sprintf("adjust note count of folder %s", folderID), err)
	}
	if folderID == initialID {
		return nil
	}
	if err := q.AdjustFolderNoteCount(ctx, s.userID, initialID, delta); err != nil {
		return countError("adjust note count of initial folder", err)
	}
	return nil
}

// countError reports a cached count that would go negative as drift the
// caller can repair, rather than as an internal failure.
func countError(op string, err error) error {
	if db.IsCheckViolation(err) {
		return errs.Wrap(errs.FailedPrecondition,
			"note counts are out of sync; run `jinwoo fsck --repair`", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Service) logger(ctx context.Context) *slog.Logger {
	return obs.From(ctx).With("pkg", "notes")
}
