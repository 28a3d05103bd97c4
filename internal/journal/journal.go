// Package journal persists sessions and turns to a local SQLite database.
package journal

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite"

	"github.com/rbright/eyra/internal/conversation"
	"github.com/rbright/eyra/internal/logging"
)

// openDB is swapped in tests.
var openDB = sql.Open

const (
	kindTurn    = "turn"
	kindHandoff = "handoff"
)

// Store owns the journal database handle.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// SessionSummary is one row of the sessions listing.
type SessionSummary struct {
	ID        string
	StartedAt time.Time
	EndedAt   *time.Time
	Turns     int
	Handoffs  int
}

// Entry is one recorded turn or hand-off.
type Entry struct {
	Seq         int
	Kind        string
	Role        string
	Mode        string
	Text        string
	ImageDigest string
	CreatedAt   time.Time
}

// DefaultPath returns the journal location under the state directory.
func DefaultPath() (string, error) {
	dir, err := logging.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "journal.db"), nil
}

// Open creates the parent directory, opens SQLite in WAL mode, and migrates.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("journal: create data dir: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("journal: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at   TEXT
		);

		CREATE TABLE IF NOT EXISTS turns (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id   TEXT    NOT NULL,
			seq          INTEGER NOT NULL,
			kind         TEXT    NOT NULL,
			role         TEXT    NOT NULL,
			mode         TEXT    NOT NULL,
			text         TEXT    NOT NULL,
			image_digest TEXT,
			created_at   TEXT    NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id),
			UNIQUE (session_id, seq)
		);

		CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, seq);
	`)
	return err
}

// StartSession inserts a new session row and returns a handle for it.
func (s *Store) StartSession(ctx context.Context) (*Session, error) {
	started := s.now().UTC()
	id := ulid.MustNew(ulid.Timestamp(started), ulid.DefaultEntropy()).String()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at) VALUES (?, ?)`,
		id, formatTime(started),
	); err != nil {
		return nil, fmt.Errorf("journal: start session: %w", err)
	}
	return &Session{store: s, ID: id}, nil
}

// RecentSessions lists the newest sessions first with turn and hand-off counts.
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.started_at, s.ended_at,
		       COALESCE(SUM(CASE WHEN t.kind = 'turn' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN t.kind = 'handoff' THEN 1 ELSE 0 END), 0)
		FROM sessions s
		LEFT JOIN turns t ON t.session_id = s.id
		GROUP BY s.id
		ORDER BY s.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SessionSummary
	for rows.Next() {
		var (
			summary SessionSummary
			started string
			ended   sql.NullString
		)
		if err := rows.Scan(&summary.ID, &started, &ended, &summary.Turns, &summary.Handoffs); err != nil {
			return nil, err
		}
		summary.StartedAt = parseTime(started)
		if ended.Valid {
			t := parseTime(ended.String)
			summary.EndedAt = &t
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}

// Entries returns every row recorded for sessionID in order.
func (s *Store) Entries(ctx context.Context, sessionID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, role, mode, text, COALESCE(image_digest, ''), created_at
		FROM turns WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("journal: entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var (
			entry   Entry
			created string
		)
		if err := rows.Scan(&entry.Seq, &entry.Kind, &entry.Role, &entry.Mode, &entry.Text, &entry.ImageDigest, &created); err != nil {
			return nil, err
		}
		entry.CreatedAt = parseTime(created)
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *Store) insert(ctx context.Context, sessionID string, entry Entry) error {
	var digest any
	if entry.ImageDigest != "" {
		digest = entry.ImageDigest
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO turns (session_id, seq, kind, role, mode, text, image_digest, created_at)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM turns WHERE session_id = ?), ?, ?, ?, ?, ?, ?)`,
		sessionID, sessionID, entry.Kind, entry.Role, entry.Mode, entry.Text, digest, formatTime(s.now().UTC()),
	)
	return err
}

// Session appends rows for one application run.
type Session struct {
	store *Store
	ID    string
}

// RecordTurn stores turn text and, for images, only the blake3 digest of the payload.
func (s *Session) RecordTurn(ctx context.Context, mode string, turn conversation.Turn) error {
	entry := Entry{Kind: kindTurn, Role: string(turn.Role), Mode: mode, Text: turn.Text}
	if turn.HasImage() {
		entry.ImageDigest = ImageDigest(turn.Image.Data)
	}
	if err := s.store.insert(ctx, s.ID, entry); err != nil {
		return fmt.Errorf("journal: record turn: %w", err)
	}
	return nil
}

// RecordHandoff stores a marker row for a mode switch.
func (s *Session) RecordHandoff(ctx context.Context, from string, to string) error {
	entry := Entry{Kind: kindHandoff, Role: kindHandoff, Mode: to, Text: from + " -> " + to}
	if err := s.store.insert(ctx, s.ID, entry); err != nil {
		return fmt.Errorf("journal: record handoff: %w", err)
	}
	return nil
}

// End stamps the session end time.
func (s *Session) End(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ? WHERE id = ?`,
		formatTime(s.store.now().UTC()), s.ID,
	); err != nil {
		return fmt.Errorf("journal: end session: %w", err)
	}
	return nil
}

// ImageDigest returns the hex blake3 digest of data.
func ImageDigest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
