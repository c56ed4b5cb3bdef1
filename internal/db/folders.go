package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const folderColumns = `id, user_id, parent_id, name, depth, is_initial, note_count, created_at, updated_at`

func scanFolder(row interface{ Scan(...any) error }) (Folder, error) {
	var f Folder
	err := row.Scan(&f.ID, &f.UserID, &f.ParentID, &f.Name, &f.Depth, &f.IsInitial, &f.NoteCount, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

func collectFolders(rows *sql.Rows) ([]Folder, error) {
	defer rows.Close()
	var items []Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

// CreateFolderParams are the columns written by CreateFolder.
type CreateFolderParams struct {
	ID        string
	UserID    string
	ParentID  sql.NullString
	Name      string
	Depth     int64
	IsInitial bool
	NoteCount int64
	CreatedAt int64
}

func (q *Queries) CreateFolder(ctx context.Context, arg CreateFolderParams) (Folder, error) {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO folders (id, user_id, parent_id, name, depth, is_initial, note_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.UserID, arg.ParentID, arg.Name, arg.Depth, arg.IsInitial, arg.NoteCount, arg.CreatedAt, arg.CreatedAt,
	)
	if err != nil {
		return Folder{}, err
	}
	return Folder{
		ID:        arg.ID,
		UserID:    arg.UserID,
		ParentID:  arg.ParentID,
		Name:      arg.Name,
		Depth:     arg.Depth,
		IsInitial: arg.IsInitial,
		NoteCount: arg.NoteCount,
		CreatedAt: arg.CreatedAt,
		UpdatedAt: arg.CreatedAt,
	}, nil
}

// GetFolder returns sql.ErrNoRows when the folder is missing or owned by another user.
func (q *Queries) GetFolder(ctx context.Context, userID, id string) (Folder, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+folderColumns+` FROM folders WHERE id = ? AND user_id = ?`, id, userID)
	return scanFolder(row)
}

// GetInitialFolder returns the user's All Notes folder.
func (q *Queries) GetInitialFolder(ctx context.Context, userID string) (Folder, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+folderColumns+` FROM folders WHERE user_id = ? AND is_initial = 1`, userID)
	return scanFolder(row)
}

// ListFoldersByUser returns the initial folder first, then by depth and name.
func (q *Queries) ListFoldersByUser(ctx context.Context, userID string) ([]Folder, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+folderColumns+` FROM folders
		WHERE user_id = ?
		ORDER BY is_initial DESC, depth, name COLLATE NOCASE, id`, userID)
	if err != nil {
		return nil, err
	}
	return collectFolders(rows)
}

// ListChildFolders returns the direct children of parentID.
func (q *Queries) ListChildFolders(ctx context.Context, userID, parentID string) ([]Folder, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+folderColumns+` FROM folders
		WHERE user_id = ? AND parent_id = ?
		ORDER BY name COLLATE NOCASE, id`, userID, parentID)
	if err != nil {
		return nil, err
	}
	return collectFolders(rows)
}

func (q *Queries) RenameFolder(ctx context.Context, userID, id, name string, updatedAt int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE folders SET name = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		name, updatedAt, id, userID)
	return err
}

// SetFolderParentParams moves a folder and records its new depth.
type SetFolderParentParams struct {
	ID        string
	UserID    string
	ParentID  sql.NullString
	Depth     int64
	UpdatedAt int64
}

func (q *Queries) SetFolderParent(ctx context.Context, arg SetFolderParentParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE folders SET parent_id = ?, depth = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		arg.ParentID, arg.Depth, arg.UpdatedAt, arg.ID, arg.UserID)
	return err
}

func (q *Queries) SetFolderDepth(ctx context.Context, userID, id string, depth int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE folders SET depth = ? WHERE id = ? AND user_id = ?`, depth, id, userID)
	return err
}

// AdjustFolderNoteCount adds delta to note_count in place, so concurrent
// writers never lose an update. The CHECK constraint rejects negative results.
func (q *Queries) AdjustFolderNoteCount(ctx context.Context, userID, id string, delta int64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE folders SET note_count = note_count + ? WHERE id = ? AND user_id = ?`,
		delta, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (q *Queries) SetFolderNoteCount(ctx context.Context, userID, id string, count int64) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE folders SET note_count = ? WHERE id = ? AND user_id = ?`, count, id, userID)
	return err
}

// DeleteFolders removes the given folders of one user and returns the number deleted.
func (q *Queries) DeleteFolders(ctx context.Context, userID string, ids []string) (int64, error) {
	return deleteByIDs(ctx, q.db, "folders", userID, ids)
}

// deleteByIDs issues DELETE ... WHERE id IN (...) in chunks below SQLite's
// bound-parameter limit.
func deleteByIDs(ctx context.Context, db DBTX, table, userID string, ids []string) (int64, error) {
	const chunk = 500
	var total int64
	for start := 0; start < len(ids); start += chunk {
		end := min(start+chunk, len(ids))
		part := ids[start:end]
		args := make([]any, 0, len(part)+1)
		args = append(args, userID)
		for _, id := range part {
			args = append(args, id)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(part)), ",")
		query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = ? AND id IN (%s)`, table, placeholders)
		res, err := db.ExecContext(ctx, query, args...)
		if err != nil {
			return total, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
