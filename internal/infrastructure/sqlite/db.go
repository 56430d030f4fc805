// Package sqlite persists router hierarchy snapshots in a local SQLite
// database using the pure-Go ncruces driver.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/zjrosen/waypoint/internal/state"
)

// DB owns the connection to the snapshot database.
type DB struct {
	conn *sql.DB
}

// NewDB opens (creating if needed) the database at path and applies pending
// migrations. The parent directory is created with 0700 permissions. When an
// existing database has pending migrations it is first copied to path+".bak".
func NewDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	_, statErr := os.Stat(path)
	existed := statErr == nil

	dsn := "file:" + path +
		"?_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(wal)" +
		"&_pragma=foreign_keys(on)"
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	backup := ""
	if existed {
		backup = path + ".bak"
	}
	if err := migrateUp(conn, path, backup); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &DB{conn: conn}, nil
}

// Close closes the connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Connection returns the underlying *sql.DB.
func (db *DB) Connection() *sql.DB {
	return db.conn
}

// SnapshotRepository returns the state.Repository backed by this database.
func (db *DB) SnapshotRepository() state.Repository {
	return newSnapshotRepository(db.conn)
}
