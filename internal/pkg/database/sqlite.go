package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDB is the embedded storage backend. It keeps a single connection so
// writers are serialized by the driver, and every transaction takes the
// write lock up front (_txlock=immediate).
type SQLiteDB struct {
	*sql.DB
}

// NewSQLiteDB opens (or creates) the database file at path.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	return openSQLite(fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate", path))
}

// NewSQLiteMemoryDB opens a private in-memory database. name isolates
// databases opened by parallel tests.
func NewSQLiteMemoryDB(name string) (*SQLiteDB, error) {
	return openSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on&_busy_timeout=5000&_txlock=immediate", name))
}

func openSQLite(dsn string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}
	return &SQLiteDB{DB: db}, nil
}

// SQLQuerier is satisfied by both *sql.DB and *sql.Tx.
type SQLQuerier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
