package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"playhead/internal/clip"
	"playhead/internal/director"
	"playhead/internal/trigger"
)

// Store manages project persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Summary describes one stored project without its payload.
type Summary struct {
	Name      string
	Clips     int
	Triggers  int
	Playlist  int
	Timeline  bool
	UpdatedAt time.Time
}

// OpenStore initializes or connects to the project database and verifies the
// schema version.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Save persists a document under its name, replacing any previous version.
// The whole write runs in one transaction.
func (s *Store) Save(ctx context.Context, doc *Document) error {
	if doc == nil {
		return errors.New("document is nil")
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	var timelineJSON any
	if doc.Timeline != nil {
		encoded, err := json.Marshal(doc.Timeline)
		if err != nil {
			return fmt.Errorf("encode timeline: %w", err)
		}
		timelineJSON = string(encoded)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO projects (name, timeline_json, created_at, updated_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(name) DO UPDATE SET timeline_json = excluded.timeline_json, updated_at = excluded.updated_at`,
		doc.Name, timelineJSON, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}

	// Resolve the id with a query: LastInsertId is unreliable on the upsert
	// update path.
	var projectID int64
	row := tx.QueryRowContext(ctx, `SELECT id FROM projects WHERE name = ?`, doc.Name)
	if err := row.Scan(&projectID); err != nil {
		return fmt.Errorf("resolve project id: %w", err)
	}

	for _, table := range []string{"clips", "triggers", "playlist_entries"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE project_id = ?`, projectID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, desc := range doc.Clips {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO clips (project_id, custom_id, display_name, original_name, start_frame, end_frame, fps, position)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			projectID, desc.CustomID, desc.DisplayName, desc.OriginalName,
			desc.StartFrame, desc.EndFrame, desc.FPS, i,
		); err != nil {
			return fmt.Errorf("insert clip %s: %w", desc.CustomID, err)
		}
	}
	for _, tr := range doc.Triggers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO triggers (project_id, id, clip_id, frame) VALUES (?, ?, ?, ?)`,
			projectID, tr.ID, tr.ClipID, tr.Frame,
		); err != nil {
			return fmt.Errorf("insert trigger %s: %w", tr.ID, err)
		}
	}
	for i, clipID := range doc.Playlist {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO playlist_entries (project_id, position, clip_id) VALUES (?, ?, ?)`,
			projectID, i, clipID,
		); err != nil {
			return fmt.Errorf("insert playlist entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Load fetches a document by project name. A missing project returns nil
// without error.
func (s *Store) Load(ctx context.Context, name string) (*Document, error) {
	var (
		projectID    int64
		timelineJSON sql.NullString
	)
	row := s.db.QueryRowContext(ctx, `SELECT id, timeline_json FROM projects WHERE name = ?`, name)
	if err := row.Scan(&projectID, &timelineJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load project: %w", err)
	}

	doc := &Document{Name: name}
	if timelineJSON.Valid && timelineJSON.String != "" {
		var desc director.Descriptor
		if err := json.Unmarshal([]byte(timelineJSON.String), &desc); err != nil {
			return nil, fmt.Errorf("decode timeline: %w", err)
		}
		doc.Timeline = &desc
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT custom_id, display_name, original_name, start_frame, end_frame, fps
         FROM clips WHERE project_id = ? ORDER BY position`, projectID)
	if err != nil {
		return nil, fmt.Errorf("load clips: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var desc clip.Descriptor
		if err := rows.Scan(&desc.CustomID, &desc.DisplayName, &desc.OriginalName,
			&desc.StartFrame, &desc.EndFrame, &desc.FPS); err != nil {
			return nil, fmt.Errorf("scan clip: %w", err)
		}
		desc.Duration = clip.FromDescriptor(desc).DurationSeconds()
		doc.Clips = append(doc.Clips, desc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	trigRows, err := s.db.QueryContext(ctx,
		`SELECT id, clip_id, frame FROM triggers WHERE project_id = ? ORDER BY clip_id, frame`, projectID)
	if err != nil {
		return nil, fmt.Errorf("load triggers: %w", err)
	}
	defer trigRows.Close()
	for trigRows.Next() {
		var tr trigger.Trigger
		if err := trigRows.Scan(&tr.ID, &tr.ClipID, &tr.Frame); err != nil {
			return nil, fmt.Errorf("scan trigger: %w", err)
		}
		doc.Triggers = append(doc.Triggers, tr)
	}
	if err := trigRows.Err(); err != nil {
		return nil, err
	}

	listRows, err := s.db.QueryContext(ctx,
		`SELECT clip_id FROM playlist_entries WHERE project_id = ? ORDER BY position`, projectID)
	if err != nil {
		return nil, fmt.Errorf("load playlist: %w", err)
	}
	defer listRows.Close()
	for listRows.Next() {
		var clipID string
		if err := listRows.Scan(&clipID); err != nil {
			return nil, fmt.Errorf("scan playlist entry: %w", err)
		}
		doc.Playlist = append(doc.Playlist, clipID)
	}
	if err := listRows.Err(); err != nil {
		return nil, err
	}

	return doc, nil
}

// List summarizes the stored projects ordered by most recent update.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.name,
                p.timeline_json IS NOT NULL,
                p.updated_at,
                (SELECT COUNT(1) FROM clips c WHERE c.project_id = p.id),
                (SELECT COUNT(1) FROM triggers t WHERE t.project_id = p.id),
                (SELECT COUNT(1) FROM playlist_entries e WHERE e.project_id = p.id)
         FROM projects p ORDER BY p.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			summary    Summary
			hasTl      int
			updatedRaw string
		)
		if err := rows.Scan(&summary.Name, &hasTl, &updatedRaw,
			&summary.Clips, &summary.Triggers, &summary.Playlist); err != nil {
			return nil, fmt.Errorf("scan project summary: %w", err)
		}
		summary.Timeline = hasTl != 0
		if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
			summary.UpdatedAt = updated
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

// Delete removes a stored project and its child rows.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}
