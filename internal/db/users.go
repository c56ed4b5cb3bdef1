package db

import (
	"context"
	"database/sql"
)

const userColumns = `id, email, password_hash, initial_folder_id, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.InitialFolderID, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUserParams are the columns written by CreateUser.
type CreateUserParams struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    int64
}

// CreateUser inserts a user without an initial folder.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, initial_folder_id, created_at, updated_at)
		VALUES (?, ?, ?, NULL, ?, ?)`,
		arg.ID, arg.Email, arg.PasswordHash, arg.CreatedAt, arg.CreatedAt,
	)
	if err != nil {
		return User{}, err
	}
	return User{
		ID:           arg.ID,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		CreatedAt:    arg.CreatedAt,
		UpdatedAt:    arg.CreatedAt,
	}, nil
}

// GetUserByID returns sql.ErrNoRows when the user does not exist.
func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail looks a user up through idx_users_email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// SetUserInitialFolderParams points a user at their All Notes folder.
type SetUserInitialFolderParams struct {
	ID              string
	InitialFolderID string
	UpdatedAt       int64
}

func (q *Queries) SetUserInitialFolder(ctx context.Context, arg SetUserInitialFolderParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET initial_folder_id = ?, updated_at = ? WHERE id = ?`,
		sql.NullString{String: arg.InitialFolderID, Valid: arg.InitialFolderID != ""}, arg.UpdatedAt, arg.ID,
	)
	return err
}

// ListUsers returns every user ordered by creation time.
func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}
