package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrateUp applies every migration newer than the recorded schema version.
// Migration files are read through golang-migrate's iofs source; each one
// runs in its own transaction together with its version row. If backup is
// set and anything is pending, the database file is copied there first.
func migrateUp(conn *sql.DB, path, backup string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	defer func() { _ = src.Close() }()

	if _, err := conn.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	var current uint
	if err := conn.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	var pending []uint
	version, err := src.First()
	for err == nil {
		if version > current {
			pending = append(pending, version)
		}
		version, err = src.Next(version)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("listing migrations: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	if backup != "" {
		if err := backupFile(conn, path, backup); err != nil {
			return err
		}
	}

	for _, v := range pending {
		if err := applyMigration(conn, src, v); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(conn *sql.DB, src source.Driver, version uint) error {
	r, identifier, err := src.ReadUp(version)
	if err != nil {
		return fmt.Errorf("reading migration %d: %w", version, err)
	}
	body, err := io.ReadAll(r)
	_ = r.Close()
	if err != nil {
		return fmt.Errorf("reading migration %d: %w", version, err)
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("starting migration %d: %w", version, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range strings.Split(string(body), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("applying migration %d (%s): %w", version, identifier, err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
		version, time.Now().Unix()); err != nil {
		return fmt.Errorf("recording migration %d: %w", version, err)
	}
	return tx.Commit()
}

// backupFile checkpoints the WAL so the main file is complete, then copies it.
func backupFile(conn *sql.DB, path, backup string) error {
	if _, err := conn.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("checkpointing before backup: %w", err)
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: configured database path
	if err != nil {
		return fmt.Errorf("reading database for backup: %w", err)
	}
	if err := os.WriteFile(backup, data, 0600); err != nil {
		return fmt.Errorf("writing backup: %w", err)
	}
	return nil
}
