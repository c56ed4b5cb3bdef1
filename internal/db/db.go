package db

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
)

const (
	// DefaultDataDirectory is the default root directory for the database file
	DefaultDataDirectory = "./data"

	// DatabaseName is the filename of the notebook database
	DatabaseName = "jinwoo.db"

	// MaxOpenConns is the maximum number of open connections.
	// SQLite is single-writer, so high connection counts are counterproductive.
	MaxOpenConns = 10

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns = 2
)

// DBTX is the subset of *sql.DB and *sql.Tx used by Queries.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds the hand-written statements for every table.
type Queries struct {
	db DBTX
}

// New returns Queries bound to a connection or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Options selects where and how the store is opened.
type Options struct {
	// DataDir holds jinwoo.db. Ignored when DSN is set.
	DataDir string
	// Key is the 32-byte SQLCipher key. Nil opens an unencrypted database.
	Key []byte
	// DSN overrides the computed data source name (used by in-memory tests).
	DSN string
	// SkipMigrations leaves the schema untouched (used by the migrate command).
	SkipMigrations bool
}

// Store owns the database handle for the whole notebook.
type Store struct {
	db      *sql.DB
	queries *Queries
}

// NewStoreFromSQL wraps an existing sql.DB.
func NewStoreFromSQL(sqlDB *sql.DB) *Store {
	return &Store{
		db:      sqlDB,
		queries: New(sqlDB),
	}
}

// Open opens the notebook database and applies pending migrations.
func Open(ctx context.Context, opts Options) (*Store, error) {
	dsn := opts.DSN
	if dsn == "" {
		dir := opts.DataDir
		if dir == "" {
			dir = DefaultDataDirectory
		}
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		dsn = BuildDSN(filepath.Join(dir, DatabaseName), opts.Key)
	}

	sqlDB, err := sql.Open(SQLiteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(MaxOpenConns)
	sqlDB.SetMaxIdleConns(MaxIdleConns)

	// A wrong key only surfaces on the first read.
	var sqliteVersion string
	if err := sqlDB.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&sqliteVersion); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to verify database connection: %w", err)
	}

	if !opts.SkipMigrations {
		if err := Migrate(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, err
		}
	}

	return NewStoreFromSQL(sqlDB), nil
}

// BuildDSN returns the SQLCipher DSN for path, encrypted when key is non-nil.
func BuildDSN(path string, key []byte) string {
	dsn := path
	if len(key) > 0 {
		// Format: file.db?_pragma_key=x'HEX_KEY'&_pragma_cipher_page_size=4096
		dsn = fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", path, hex.EncodeToString(key))
	}
	return appendSQLiteParams(dsn, sqliteCommonParams())
}

// DB returns the underlying sql.DB for direct access when needed
func (s *Store) DB() *sql.DB {
	return s.db
}

// Queries returns statements bound to the connection pool (no transaction).
func (s *Store) Queries() *Queries {
	return s.queries
}

// WithTx runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back on error or panic.
func (s *Store) WithTx(ctx context.Context, fn func(q *Queries) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(New(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var memCounter atomic.Int64

// InMemoryDSN returns a DSN for a private shared-cache in-memory database.
func InMemoryDSN(name string, key []byte) string {
	if name == "" {
		name = "jinwoo"
	}
	name = fmt.Sprintf("%s-%d", strings.ReplaceAll(name, "/", "_"), memCounter.Add(1))
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	if len(key) > 0 {
		dsn += fmt.Sprintf("&_pragma_key=x'%s'&_pragma_cipher_page_size=4096", hex.EncodeToString(key))
	}
	return dsn
}

func sqliteCommonParams() string {
	// Production-safe defaults: WAL + NORMAL provides good throughput while preserving safety.
	return "_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"
}

func appendSQLiteParams(dsn, params string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}
	return dsn + "?" + params
}
