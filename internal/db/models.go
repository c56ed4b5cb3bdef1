package db

import "database/sql"

// User is a row of the users table.
type User struct {
	ID              string
	Email           string
	PasswordHash    string
	InitialFolderID sql.NullString
	CreatedAt       int64
	UpdatedAt       int64
}

// Folder is a row of the folders table.
type Folder struct {
	ID        string
	UserID    string
	ParentID  sql.NullString
	Name      string
	Depth     int64
	IsInitial bool
	NoteCount int64
	CreatedAt int64
	UpdatedAt int64
}

// Note is a row of the notes table.
type Note struct {
	ID        string
	UserID    string
	FolderID  string
	Title     string
	Content   string
	Preview   string
	CreatedAt int64
	UpdatedAt int64
}

// Session is a row of the sessions table.
type Session struct {
	SessionID string
	UserID    string
	ExpiresAt int64
	CreatedAt int64
}

// FolderNoteCount pairs a folder with the number of notes stored directly in it.
type FolderNoteCount struct {
	FolderID string
	Count    int64
}
