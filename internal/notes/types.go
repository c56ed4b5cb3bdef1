package notes

import (
	"time"

	"github.com/jinwoo-notes/jinwoo/internal/db"
)

// Folder is a node of a user's folder tree.
type Folder struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ParentID  *string   `json:"parentId"`
	Name      string    `json:"name"`
	Depth     int       `json:"depth"`
	IsInitial bool      `json:"isInitial"`
	NoteCount int       `json:"noteCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Note is a leaf stored in exactly one folder.
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	FolderID  string    `json:"folderId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Preview   string    `json:"preview"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateFolderParams contains the parameters for creating a folder.
// Depth is advisory: the stored depth is always derived from the parent.
type CreateFolderParams struct {
	Name     string
	ParentID *string
	Depth    *int
}

// UpdateFolderParams contains the parameters for updating a folder.
type UpdateFolderParams struct {
	Name *string
}

// UpdateNoteParams contains the parameters for updating a note.
type UpdateNoteParams struct {
	Title   *string
	Content *string
}

// DeleteFolderResult lists everything removed by a cascade delete.
type DeleteFolderResult struct {
	FolderIDs []string `json:"deletedFolders"`
	NoteIDs   []string `json:"deletedNotes"`
}

// CountMismatch describes a folder whose stored noteCount disagrees with its notes.
type CountMismatch struct {
	FolderID   string `json:"folderId"`
	FolderName string `json:"folderName"`
	IsInitial  bool   `json:"isInitial"`
	Stored     int64  `json:"stored"`
	Actual     int64  `json:"actual"`
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func folderFromRow(f db.Folder) Folder {
	out := Folder{
		ID:        f.ID,
		UserID:    f.UserID,
		Name:      f.Name,
		Depth:     int(f.Depth),
		IsInitial: f.IsInitial,
		NoteCount: int(f.NoteCount),
		CreatedAt: fromMillis(f.CreatedAt),
		UpdatedAt: fromMillis(f.UpdatedAt),
	}
	if f.ParentID.Valid {
		parent := f.ParentID.String
		out.ParentID = &parent
	}
	return out
}

func noteFromRow(n db.Note) Note {
	return Note{
		ID:        n.ID,
		UserID:    n.UserID,
		FolderID:  n.FolderID,
		Title:     n.Title,
		Content:   n.Content,
		Preview:   n.Preview,
		CreatedAt: fromMillis(n.CreatedAt),
		UpdatedAt: fromMillis(n.UpdatedAt),
	}
}

func notesFromRows(rows []db.Note) []Note {
	out := make([]Note, 0, len(rows))
	for _, n := range rows {
		out = append(out, noteFromRow(n))
	}
	return out
}
