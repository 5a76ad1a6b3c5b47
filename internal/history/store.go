package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"reelforge/internal/config"
)

// Store manages operation history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Record is one persisted operation result.
type Record struct {
	ID          string          `json:"id"`
	Operation   string          `json:"operation"`
	Success     bool            `json:"success"`
	Outcome     string          `json:"outcome"`
	Message     string          `json:"message"`
	ErrorKind   string          `json:"error_kind,omitempty"`
	ErrorDetail string          `json:"error_detail,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	WorkDir     string          `json:"work_dir"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  time.Time       `json:"finished_at"`
}

// Filter narrows List results.
type Filter struct {
	Operation string
	Limit     int
}

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = errors.New("history record not found")

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	defaultListLimit        = 50
	timeLayout              = time.RFC3339Nano
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open connects to the history database configured in cfg.
func Open(cfg *config.Config) (*Store, error) {
	return OpenPath(cfg.History.Path)
}

// OpenPath initializes or connects to the database at path.
func OpenPath(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history: database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
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

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append stores rec. Re-appending an id replaces the earlier row.
func (s *Store) Append(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return errors.New("history: record id is required")
	}
	payload := string(rec.Payload)
	if payload == "" {
		payload = "{}"
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO operations
			(id, operation, success, outcome, message, error_kind, error_detail, payload, work_dir, started_at, finished_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.Operation, boolToInt(rec.Success), rec.Outcome, rec.Message,
			rec.ErrorKind, rec.ErrorDetail, payload, rec.WorkDir,
			rec.StartedAt.UTC().Format(timeLayout), rec.FinishedAt.UTC().Format(timeLayout),
		)
		return err
	})
}

// Get returns the record with id.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// List returns the most recent records first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Record, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := selectColumns
	args := []any{}
	if op := strings.TrimSpace(filter.Operation); op != "" {
		query += " WHERE operation = ?"
		args = append(args, op)
	}
	query += " ORDER BY started_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Prune deletes records that finished before cutoff and reports how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM operations WHERE finished_at < ?", cutoff.UTC().Format(timeLayout))
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}

const selectColumns = `SELECT id, operation, success, outcome, message, error_kind, error_detail,
	payload, work_dir, started_at, finished_at FROM operations`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec              Record
		success          int
		payload          string
		started, finished string
	)
	if err := row.Scan(&rec.ID, &rec.Operation, &success, &rec.Outcome, &rec.Message, &rec.ErrorKind,
		&rec.ErrorDetail, &payload, &rec.WorkDir, &started, &finished); err != nil {
		return Record{}, err
	}
	rec.Success = success != 0
	if payload != "" && payload != "{}" {
		rec.Payload = json.RawMessage(payload)
	}
	var err error
	if rec.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return Record{}, fmt.Errorf("parse started_at: %w", err)
	}
	if rec.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return Record{}, fmt.Errorf("parse finished_at: %w", err)
	}
	return rec, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
