// Package history keeps a SQLite record of every collage scrobblegrid has
// generated.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists collage runs using SQLite
type Store struct {
	db *sql.DB
}

// Run is one generated collage.
type Run struct {
	ID        int64
	Username  string
	Output    string
	Width     int
	Height    int
	Fetched   int
	Failed    int
	CreatedAt time.Time
	Albums    []Album
}

// Album is one chart entry of a run, in rank order.
type Album struct {
	Rank       int
	Artist     string
	Name       string
	PlayCount  uint
	TrackCount uint
	HasImage   bool
}

// NewStore opens (or creates) the history database at dbPath. Use
// ":memory:" for a throwaway store.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps in-memory databases consistent.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL,
			output TEXT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			fetched INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS run_albums (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			artist TEXT NOT NULL,
			name TEXT NOT NULL,
			playcount INTEGER NOT NULL,
			tracks INTEGER NOT NULL,
			has_image BOOLEAN NOT NULL DEFAULT 0,
			PRIMARY KEY (run_id, position)
		);

		CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores a run and its albums in one transaction and returns the run
// ID. A zero CreatedAt is set to the current time.
func (s *Store) Record(ctx context.Context, run Run) (int64, error) {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs (username, output, width, height, fetched, failed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		run.Username,
		run.Output,
		run.Width,
		run.Height,
		run.Fetched,
		run.Failed,
		run.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_albums (run_id, position, artist, name, playcount, tracks, has_image)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range run.Albums {
		if _, err := stmt.ExecContext(ctx, id, a.Rank, a.Artist, a.Name, int64(a.PlayCount), int64(a.TrackCount), a.HasImage); err != nil {
			return 0, fmt.Errorf("failed to insert album %d: %w", a.Rank, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return id, nil
}

// Recent returns the most recent runs, newest first, with their albums.
// A limit of zero or less returns every run.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, username, output, width, height, fetched, failed, created_at
		FROM runs
		ORDER BY created_at DESC, id DESC
	`

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var createdUnix int64

		err := rows.Scan(
			&r.ID,
			&r.Username,
			&r.Output,
			&r.Width,
			&r.Height,
			&r.Fetched,
			&r.Failed,
			&createdUnix,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.CreatedAt = time.Unix(createdUnix, 0)

		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	// Close before issuing more queries on the single connection.
	rows.Close()

	for i := range runs {
		albums, err := s.albums(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Albums = albums
	}

	return runs, nil
}

func (s *Store) albums(ctx context.Context, runID int64) ([]Album, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, artist, name, playcount, tracks, has_image
		FROM run_albums
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query albums of run %d: %w", runID, err)
	}
	defer rows.Close()

	var albums []Album
	for rows.Next() {
		var a Album
		var playCount, tracks int64
		if err := rows.Scan(&a.Rank, &a.Artist, &a.Name, &playCount, &tracks, &a.HasImage); err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}
		a.PlayCount = uint(playCount)
		a.TrackCount = uint(tracks)
		albums = append(albums, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating albums: %w", err)
	}

	return albums, nil
}

// Count returns the number of recorded runs
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}

// Prune removes runs older than maxAge, along with their albums.
func (s *Store) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()

	result, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}
