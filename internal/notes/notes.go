package notes

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jinwoo-notes/jinwoo/internal/db"
	"github.com/jinwoo-notes/jinwoo/internal/errs"
)

// CreateNote stores a note in folderID and bumps the folder counters.
// The initial folder is bumped once even when it is the target.
func (s *Service) CreateNote(ctx context.Context, folderID, title, content string) (*Note, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateContent(content); err != nil {
		return nil, err
	}

	var created db.Note
	err := s.store.WithTx(ctx, func(q *db.Queries) error {
		initialID, err := s.initialFolderID(ctx, q)
		if err != nil {
			return err
		}
		folder, err := s.getFolder(ctx, q, folderID)
		if err != nil {
			return err
		}

		created, err = q.CreateNote(ctx, db.CreateNoteParams{
			ID:        uuid.New().String(),
			UserID:    s.userID,
			FolderID:  folder.ID,
			Title:     title,
			Content:   content,
			Preview:   Preview(content),
			CreatedAt: s.nowMillis(),
		})
		if err != nil {
			return fmt.Errorf("insert note: %w", err)
		}
		return s.adjustCounts(ctx, q, folder.ID, initialID, 1)
	})
	if err != nil {
		return nil, err
	}

	s.logger(ctx).Debug("note_created", "note_id", created.ID, "folder_id", created.FolderID)
	note := noteFromRow(created)
	return &note, nil
}

// ListNotesByFolder returns the notes of folderID, newest first. For the
// initial folder it returns every note the user owns.
func (s *Service) ListNotesByFolder(ctx context.Context, folderID string) ([]Note, error) {
	q := s.store.Queries()
	if _, err := s.requireUser(ctx, q); err != nil {
		return nil, err
	}
	folder, err := s.getFolder(ctx, q, folderID)
	if err != nil {
		return nil, err
	}

	var rows []db.Note
	if folder.IsInitial {
		rows, err = q.ListNotesByUser(ctx, s.userID)
	} else {
		rows, err = q.ListNotesByFolder(ctx, s.userID, folder.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notesFromRows(rows), nil
}

// GetNoteByID returns nil without error when id is empty, unknown, or owned
// by someone else.
func (s *Service) GetNoteByID(ctx context.Context, id string) (*Note, error) {
	q := s.store.Queries()
	if _, err := s.requireUser(ctx, q); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}
	row, err := s.getNote(ctx, q, id)
	if errs.Is(err, errs.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	note := noteFromRow(row)
	return &note, nil
}

// UpdateNote patches title and/or content. The preview follows the content.
func (s *Service) UpdateNote(ctx context.Context, id string, params UpdateNoteParams) (*Note, error) {
	if params.Title != nil {
		if err := validateTitle(*params.Title); err != nil {
			return nil, err
		}
	}
	if params.Content != nil {
		if err := validateContent(*params.Content); err != nil {
			return nil, err
		}
	}

	var updated db.Note
	err := s.store.WithTx(ctx, func(q *db.Queries) error {
		if _, err := s.requireUser(ctx, q); err != nil {
			return err
		}
		current, err := s.getNote(ctx, q, id)
		if err != nil {
			return err
		}
		updated = current
		if params.Title != nil {
			updated.Title = *params.Title
		}
		if params.Content != nil {
			updated.Content = *params.Content
			updated.Preview = Preview(updated.Content)
		}
		updated.UpdatedAt = s.nowMillis()

		return q.UpdateNote(ctx, db.UpdateNoteParams{
			ID:        updated.ID,
			UserID:    s.userID,
			Title:     updated.Title,
			Content:   updated.Content,
			Preview:   updated.Preview,
			UpdatedAt: updated.UpdatedAt,
		})
	})
	if err != nil {
		return nil, err
	}
	note := noteFromRow(updated)
	return &note, nil
}

// DeleteNote removes a note and decrements the counters of the folder it is
// stored in. folderID names the folder the caller is viewing: either the
// note's own folder or the initial folder. Empty means the note's own folder.
func (s *Service) DeleteNote(ctx context.Context, noteID, folderID string) error {
	err := s.store.WithTx(ctx, func(q *db.Queries) error {
		initialID, err := s.initialFolderID(ctx, q)
		if err != nil {
			return err
		}
		note, err := s.getNote(ctx, q, noteID)
		if err != nil {
			return err
		}
		if folderID != "" && folderID != note.FolderID && folderID != initialID {
			return errs.New(errs.NotFound, "note not found in folder")
		}

		n, err := q.DeleteNote(ctx, s.userID, note.ID)
		if err != nil {
			return fmt.Errorf("delete note: %w", err)
		}
		if n == 0 {
			return errs.New(errs.NotFound, "note not found")
		}
		return s.adjustCounts(ctx, q, note.FolderID, initialID, -1)
	})
	if err != nil {
		return err
	}
	s.logger(ctx).Debug("note_deleted", "note_id", noteID)
	return nil
}
