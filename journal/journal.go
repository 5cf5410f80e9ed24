// Package journal persists undo/redo stacks and change history in SQLite so
// that a document's history survives between runs.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"flowedit/change"
)

// ErrStale is returned by Restore when the document no longer matches the
// fingerprint the stacks were saved against.
var ErrStale = errors.New("journal is stale for this document")

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	document    TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	saved_at    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS stack_entries (
	document    TEXT NOT NULL,
	side        TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	context     TEXT NOT NULL,
	description TEXT NOT NULL,
	script      BLOB NOT NULL,
	PRIMARY KEY (document, side, seq)
);
CREATE TABLE IF NOT EXISTS history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	document    TEXT NOT NULL,
	at          INTEGER NOT NULL,
	origin      TEXT NOT NULL,
	description TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS history_by_document ON history(document, id);
`

const (
	sideUndo = "undo"
	sideRedo = "redo"
)

// Journal wraps the SQLite database connection.
type Journal struct {
	conn   *sql.DB
	enc    *zstd.Encoder
	dec    *zstd.Decoder
	logger *slog.Logger
}

// Open opens or creates the journal at the given path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}
	conn, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping journal: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		conn.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &Journal{conn: conn, enc: enc, dec: dec, logger: slog.Default()}, nil
}

// busyTimeout is how long a connection waits on a locked database, in
// milliseconds.
const busyTimeout = 5000

// dsn carries the pragmas in the connection string so that every pooled
// connection gets them.
func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout))
	q.Add("_pragma", "journal_mode(WAL)")
	return (&url.URL{Scheme: "file", Opaque: path, RawQuery: q.Encode()}).String()
}

// SetLogger replaces the journal's logger.
func (j *Journal) SetLogger(l *slog.Logger) {
	j.logger = l
}

// Close closes the database connection.
func (j *Journal) Close() error {
	j.dec.Close()
	j.enc.Close()
	return j.conn.Close()
}

// Save replaces the persisted stacks of document with the contents of s.
// fingerprint identifies the document state the stacks apply to.
func (j *Journal) Save(ctx context.Context, document, fingerprint string, s *change.UndoStack) error {
	undo, redo := s.Entries()
	tx, err := j.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stack_entries WHERE document = ?`, document); err != nil {
		return fmt.Errorf("clearing stacks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (document, fingerprint, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(document) DO UPDATE SET fingerprint = excluded.fingerprint, saved_at = excluded.saved_at
	`, document, fingerprint, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("recording document: %w", err)
	}
	for _, side := range []struct {
		name    string
		entries []change.Entry
	}{{sideUndo, undo}, {sideRedo, redo}} {
		for i, e := range side.entries {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO stack_entries (document, side, seq, context, description, script)
				VALUES (?, ?, ?, ?, ?, ?)
			`, document, side.name, i, e.Context, e.Description, j.enc.EncodeAll([]byte(e.Script), nil))
			if err != nil {
				return fmt.Errorf("inserting %s entry: %w", side.name, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	j.logger.Debug("journal saved", "document", document, "undo", len(undo), "redo", len(redo))
	return nil
}

// Restore loads the persisted stacks of document into s. Nothing is loaded
// and ErrStale is returned when fingerprint differs from the saved one. A
// document never saved leaves s untouched.
func (j *Journal) Restore(ctx context.Context, document, fingerprint string, s *change.UndoStack) error {
	var saved string
	err := j.conn.QueryRowContext(ctx, `SELECT fingerprint FROM documents WHERE document = ?`, document).Scan(&saved)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}
	if saved != fingerprint {
		return fmt.Errorf("%s: %w", document, ErrStale)
	}

	undo, err := j.entries(ctx, document, sideUndo)
	if err != nil {
		return err
	}
	redo, err := j.entries(ctx, document, sideRedo)
	if err != nil {
		return err
	}
	s.Restore(undo, redo)
	j.logger.Debug("journal restored", "document", document, "undo", len(undo), "redo", len(redo))
	return nil
}

func (j *Journal) entries(ctx context.Context, document, side string) ([]change.Entry, error) {
	rows, err := j.conn.QueryContext(ctx, `
		SELECT context, description, script FROM stack_entries
		WHERE document = ? AND side = ? ORDER BY seq
	`, document, side)
	if err != nil {
		return nil, fmt.Errorf("querying %s entries: %w", side, err)
	}
	defer rows.Close()

	var out []change.Entry
	for rows.Next() {
		var (
			e    change.Entry
			blob []byte
		)
		if err := rows.Scan(&e.Context, &e.Description, &blob); err != nil {
			return nil, fmt.Errorf("scanning %s entry: %w", side, err)
		}
		script, err := j.dec.DecodeAll(blob, nil)
		if err != nil {
			return nil, fmt.Errorf("decompressing %s entry: %w", side, err)
		}
		e.Script = string(script)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Forget drops everything recorded for document.
func (j *Journal) Forget(ctx context.Context, document string) error {
	for _, table := range []string{"stack_entries", "documents", "history"} {
		if _, err := j.conn.ExecContext(ctx, `DELETE FROM `+table+` WHERE document = ?`, document); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}
