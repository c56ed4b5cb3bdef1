package notes

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jinwoo-notes/jinwoo/internal/db"
)

const (
	InitialFolderName  = "All Notes"
	WelcomeNoteTitle   = "Welcome to Jinwoo!"
	WelcomeNoteContent = "Jinwoo is a fun lil note taking app."
)

// Bootstrap gives a freshly inserted user their initial folder and welcome
// note, and points the user at the folder. It must run inside the same
// transaction that created the user.
func Bootstrap(ctx context.Context, q *db.Queries, userID string, now time.Time) (db.Folder, db.Note, error) {
	ms := now.UnixMilli()

	folder, err := q.CreateFolder(ctx, db.CreateFolderParams{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      InitialFolderName,
		IsInitial: true,
		CreatedAt: ms,
	})
	if err != nil {
		return db.Folder{}, db.Note{}, fmt.Errorf("create initial folder: %w", err)
	}

	note, err := q.CreateNote(ctx, db.CreateNoteParams{
		ID:        uuid.New().String(),
		UserID:    userID,
		FolderID:  folder.ID,
		Title:     WelcomeNoteTitle,
		Content:   WelcomeNoteContent,
		Preview:   Preview(WelcomeNoteContent),
		CreatedAt: ms,
	})
	if err != nil {
		return db.Folder{}, db.Note{}, fmt.Errorf("create welcome note: %w", err)
	}
	if err := q.AdjustFolderNoteCount(ctx, userID, folder.ID, 1); err != nil {
		return db.Folder{}, db.Note{}, fmt.Errorf("count welcome note: %w", err)
	}
	folder.NoteCount = 1

	if err := q.SetUserInitialFolder(ctx, db.SetUserInitialFolderParams{
		ID:              userID,
		InitialFolderID: folder.ID,
		UpdatedAt:       ms,
	}); err != nil {
		return db.Folder{}, db.Note{}, fmt.Errorf("set initial folder: %w", err)
	}
	return folder, note, nil
}
