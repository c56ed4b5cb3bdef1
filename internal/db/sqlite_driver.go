package db

import (
	"database/sql"
	"errors"

	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"
)

const (
	// SQLiteDriverName is the project-specific SQLCipher driver registration.
	SQLiteDriverName = "sqlite3_jinwoo"
)

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			// Foreign keys are per connection in SQLite; DSN flags are not
			// honored for in-memory URIs, so enforce them here as well.
			_, err := conn.Exec("PRAGMA foreign_keys = ON", nil)
			return err
		},
	})
}

// IsUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// IsCheckViolation reports whether err is a CHECK constraint failure, such as
// a note_count going negative.
func IsCheckViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintCheck
}
