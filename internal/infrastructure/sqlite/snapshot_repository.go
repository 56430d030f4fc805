package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/waypoint/internal/state"
)

// snapshotRepository implements state.Repository using SQLite.
type snapshotRepository struct {
	db *sql.DB
}

func newSnapshotRepository(db *sql.DB) *snapshotRepository {
	return &snapshotRepository{db: db}
}

// Ensure snapshotRepository implements state.Repository.
var _ state.Repository = (*snapshotRepository)(nil)

// Save inserts the snapshot and its stacks in one transaction and sets s.ID.
func (r *snapshotRepository) Save(ctx context.Context, s *state.Snapshot) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (guid, created_at) VALUES (?, ?)`,
		s.GUID, s.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	for _, st := range s.Stacks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO router_stacks (snapshot_id, path, router, stack, depth) VALUES (?, ?, ?, ?, ?)`,
			id, st.Path, st.Router, string(st.Data), st.Depth,
		); err != nil {
			return fmt.Errorf("failed to insert stack %s: %w", st.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	s.ID = id
	return nil
}

// Latest returns the most recent snapshot.
func (r *snapshotRepository) Latest(ctx context.Context) (*state.Snapshot, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, guid, created_at FROM snapshots ORDER BY created_at DESC, id DESC LIMIT 1`)
	return r.load(ctx, row)
}

// FindByGUID returns the snapshot with the given guid.
func (r *snapshotRepository) FindByGUID(ctx context.Context, guid string) (*state.Snapshot, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, guid, created_at FROM snapshots WHERE guid = ?`, guid)
	return r.load(ctx, row)
}

// List returns snapshots newest first.
func (r *snapshotRepository) List(ctx context.Context, limit int) ([]*state.Snapshot, error) {
	query := `SELECT id, guid, created_at FROM snapshots ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	var out []*state.Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	_ = rows.Close()

	for _, s := range out {
		if s.Stacks, err = r.stacks(ctx, s.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Prune deletes every snapshot older than the newest keep. Stacks go with
// them through the foreign key cascade.
func (r *snapshotRepository) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY created_at DESC, id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

func (r *snapshotRepository) load(ctx context.Context, row *sql.Row) (*state.Snapshot, error) {
	s, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, state.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find snapshot: %w", err)
	}
	if s.Stacks, err = r.stacks(ctx, s.ID); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *snapshotRepository) stacks(ctx context.Context, snapshotID int64) ([]state.Stack, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT path, router, stack, depth FROM router_stacks WHERE snapshot_id = ? ORDER BY path`,
		snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to load stacks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []state.Stack
	for rows.Next() {
		var st state.Stack
		var data string
		if err := rows.Scan(&st.Path, &st.Router, &data, &st.Depth); err != nil {
			return nil, fmt.Errorf("failed to scan stack: %w", err)
		}
		st.Data = []byte(data)
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stacks: %w", err)
	}
	return out, nil
}

// scanSnapshot scans the id, guid and created_at columns.
func scanSnapshot(scanner interface{ Scan(...any) error }) (*state.Snapshot, error) {
	var (
		s         state.Snapshot
		createdAt int64
	)
	if err := scanner.Scan(&s.ID, &s.GUID, &createdAt); err != nil {
		return nil, err
	}
	s.CreatedAt = time.UnixMilli(createdAt)
	return &s, nil
}
