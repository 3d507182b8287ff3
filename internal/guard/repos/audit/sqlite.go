package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/amanahapps/guardian/internal/guard/domain"
)

// Filter selects which entries a listing returns.
type Filter uint8

const (
	FilterAll Filter = iota
	FilterBlocked
	FilterAllowed
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_entries (
	id           TEXT PRIMARY KEY,
	url          TEXT NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	ts           INTEGER NOT NULL,
	was_blocked  INTEGER NOT NULL,
	block_reason TEXT NOT NULL DEFAULT '',
	blocked_by   TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_audit_ts ON audit_entries(ts DESC);
CREATE INDEX IF NOT EXISTS idx_audit_blocked ON audit_entries(was_blocked, ts DESC);
`

// SQLiteStore is the durable, append-only audit trail behind the parent
// dashboard. Entries are never mutated after append, with one exception:
// the browser backfills the page title once the page has loaded.
type SQLiteStore struct{ db *sql.DB }

// OpenSQLite opens (or creates) the audit database at the given path,
// applies recommended PRAGMAs, creates the schema, and returns the store.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Single-writer engine; keep the pool at one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Append writes one entry. The entry must validate; reason and blockedBy
// are stored verbatim so a read-back reproduces the original verdict.
func (s *SQLiteStore) Append(ctx context.Context, e domain.AuditEntry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuditWriteFailed, err)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_entries (id, url, title, ts, was_blocked, block_reason, blocked_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.URL, e.Title, e.Timestamp.Unix(), boolToInt(e.WasBlocked),
		reasonText(e), e.BlockedBy)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuditWriteFailed, err)
	}
	return nil
}

// List returns entries newest-first, filtered and capped at limit.
func (s *SQLiteStore) List(ctx context.Context, f Filter, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT id, url, title, ts, was_blocked, block_reason, blocked_by
	      FROM audit_entries`
	switch f {
	case FilterBlocked:
		q += ` WHERE was_blocked = 1`
	case FilterAllowed:
		q += ` WHERE was_blocked = 0`
	}
	q += ` ORDER BY ts DESC, id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GroupByDay summarizes activity per UTC calendar day, newest first.
func (s *SQLiteStore) GroupByDay(ctx context.Context) ([]domain.DayActivity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT strftime('%Y-%m-%d', ts, 'unixepoch') AS day,
		        COUNT(*), SUM(was_blocked)
		 FROM audit_entries
		 GROUP BY day
		 ORDER BY day DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DayActivity
	for rows.Next() {
		var d domain.DayActivity
		if err := rows.Scan(&d.Day, &d.Total, &d.Blocked); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateTitle backfills the title of the most recent entry for url.
// Missing entries are not an error; the browser may report titles for
// navigations that were dropped under queue pressure.
func (s *SQLiteStore) UpdateTitle(ctx context.Context, url, title string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE audit_entries SET title = ?
		 WHERE id = (SELECT id FROM audit_entries WHERE url = ? ORDER BY ts DESC, id DESC LIMIT 1)`,
		title, url)
	return err
}

// ClearAll deletes the whole trail. Parent-initiated only.
func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM audit_entries`)
	return err
}

func scanEntry(rows *sql.Rows) (domain.AuditEntry, error) {
	var (
		e       domain.AuditEntry
		ts      int64
		blocked int
		reason  string
	)
	if err := rows.Scan(&e.ID, &e.URL, &e.Title, &ts, &blocked, &reason, &e.BlockedBy); err != nil {
		return domain.AuditEntry{}, err
	}
	e.Timestamp = unixUTC(ts)
	e.WasBlocked = blocked != 0
	r, err := domain.ParseBlockReason(reason)
	if err != nil {
		return domain.AuditEntry{}, err
	}
	e.BlockReason = r
	return e, nil
}

func reasonText(e domain.AuditEntry) string {
	if !e.WasBlocked {
		return ""
	}
	return e.BlockReason.String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
