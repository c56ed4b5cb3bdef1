package db

import (
	"context"
	"database/sql"
)

const noteColumns = `id, user_id, folder_id, title, content, preview, created_at, updated_at`

func scanNote(row interface{ Scan(...any) error }) (Note, error) {
	var n Note
	err := row.Scan(&n.ID, &n.UserID, &n.FolderID, &n.Title, &n.Content, &n.Preview, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

func collectNotes(rows *sql.Rows) ([]Note, error) {
	defer rows.Close()
	var items []Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

// CreateNoteParams are the columns written by CreateNote.
type CreateNoteParams struct {
	ID        string
	UserID    string
	FolderID  string
	Title     string
	Content   string
	Preview   string
	CreatedAt int64
}

func (q *Queries) CreateNote(ctx context.Context, arg CreateNoteParams) (Note, error) {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO notes (id, user_id, folder_id, title, content, preview, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.UserID, arg.FolderID, arg.Title, arg.Content, arg.Preview, arg.CreatedAt, arg.CreatedAt,
	)
	if err != nil {
		return Note{}, err
	}
	return Note{
		ID:        arg.ID,
		UserID:    arg.UserID,
		FolderID:  arg.FolderID,
		Title:     arg.Title,
		Content:   arg.Content,
		Preview:   arg.Preview,
		CreatedAt: arg.CreatedAt,
		UpdatedAt: arg.CreatedAt,
	}, nil
}

// GetNote returns sql.ErrNoRows when the note is missing or owned by another user.
func (q *Queries) GetNote(ctx context.Context, userID, id string) (Note, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ? AND user_id = ?`, id, userID)
	return scanNote(row)
}

// ListNotesByFolder returns the notes stored directly in folderID, newest first.
func (q *Queries) ListNotesByFolder(ctx context.Context, userID, folderID string) ([]Note, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE user_id = ? AND folder_id = ?
		ORDER BY updated_at DESC, id`, userID, folderID)
	if err != nil {
		return nil, err
	}
	return collectNotes(rows)
}

// ListNotesByUser returns every note of the user, newest first.
func (q *Queries) ListNotesByUser(ctx context.Context, userID string) ([]Note, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE user_id = ?
		ORDER BY updated_at DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	return collectNotes(rows)
}

// ListNoteIDsByFolder returns only the ids of notes stored directly in folderID.
func (q *Queries) ListNoteIDsByFolder(ctx context.Context, userID, folderID string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id FROM notes WHERE user_id = ? AND folder_id = ? ORDER BY id`, userID, folderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateNoteParams carries the full new row state; callers merge partial updates.
type UpdateNoteParams struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	Preview   string
	UpdatedAt int64
}

func (q *Queries) UpdateNote(ctx context.Context, arg UpdateNoteParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE notes SET title = ?, content = ?, preview = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		arg.Title, arg.Content, arg.Preview, arg.UpdatedAt, arg.ID, arg.UserID)
	return err
}

// DeleteNote returns the number of rows removed (0 or 1).
func (q *Queries) DeleteNote(ctx context.Context, userID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteNotes removes the given notes of one user and returns the number deleted.
func (q *Queries) DeleteNotes(ctx context.Context, userID string, ids []string) (int64, error) {
	return deleteByIDs(ctx, q.db, "notes", userID, ids)
}

// CountNotesByUser returns the number of notes the user owns.
func (q *Queries) CountNotesByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

// CountNotesPerFolder returns direct note counts for every folder that holds notes.
func (q *Queries) CountNotesPerFolder(ctx context.Context, userID string) ([]FolderNoteCount, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT folder_id, COUNT(*) FROM notes
		WHERE user_id = ?
		GROUP BY folder_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []FolderNoteCount
	for rows.Next() {
		var c FolderNoteCount
		if err := rows.Scan(&c.FolderID, &c.Count); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
