package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"

	"taskr/internal/logging"
	"taskr/internal/todo"
)

// SQLiteStore keeps the list in a sqlite database. Every Save replaces the
// stored rows in one transaction.
type SQLiteStore struct {
	db     *sql.DB
	logger *log.Logger
}

func OpenSQLite(dbPath string, logger *log.Logger) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dbPath, err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY,
	position INTEGER NOT NULL,
	description TEXT NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	completed_at TEXT DEFAULT NULL
);
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}
	return s.ensureTaskColumns()
}

func (s *SQLiteStore) ensureTaskColumns() error {
	required := map[string]string{
		"details":  "ALTER TABLE tasks ADD COLUMN details TEXT NOT NULL DEFAULT '';",
		"due":      "ALTER TABLE tasks ADD COLUMN due TEXT DEFAULT NULL;",
		"priority": "ALTER TABLE tasks ADD COLUMN priority INTEGER NOT NULL DEFAULT 0;",
	}
	existing := map[string]struct{}{}
	rows, err := s.db.Query(`PRAGMA table_info(tasks);`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for col, alter := range required {
		if _, ok := existing[col]; ok {
			continue
		}
		if _, err := s.db.Exec(alter); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Load() (*todo.List, error) {
	rows, err := s.db.Query(`SELECT id, description, details, completed, created_at, completed_at, due, priority FROM tasks ORDER BY position;`)
	if err != nil {
		return nil, fmt.Errorf("load todos: %w", err)
	}
	defer rows.Close()

	l := todo.New()
	maxID := 0
	for rows.Next() {
		var t todo.Task
		var completed int
		var createdStr string
		var completedStr, dueStr sql.NullString
		if err := rows.Scan(&t.ID, &t.Description, &t.Details, &completed, &createdStr, &completedStr, &dueStr, &t.Priority); err != nil {
			return nil, fmt.Errorf("load todos: %w", err)
		}
		t.Completed = completed == 1
		if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdStr); err != nil {
			return nil, &ValidationError{Path: fmt.Sprintf("tasks.%d.created_at", t.ID), Message: err.Error()}
		}
		if t.CompletedAt, err = parseNullTime(completedStr); err != nil {
			return nil, &ValidationError{Path: fmt.Sprintf("tasks.%d.completed_at", t.ID), Message: err.Error()}
		}
		if t.DueDate, err = parseNullTime(dueStr); err != nil {
			return nil, &ValidationError{Path: fmt.Sprintf("tasks.%d.due", t.ID), Message: err.Error()}
		}
		maxID = max(maxID, t.ID)
		l.Todos = append(l.Todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load todos: %w", err)
	}

	var next sql.NullInt64
	err = s.db.QueryRow(`SELECT value FROM meta WHERE key = 'next_id';`).Scan(&next)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		l.NextID = maxID + 1
	case err != nil:
		return nil, fmt.Errorf("load next id: %w", err)
	default:
		l.NextID = int(next.Int64)
	}
	if err := l.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	s.logger.Debug("loaded todos", "backend", BackendSQLite, "count", len(l.Todos))
	return l, nil
}

func (s *SQLiteStore) Save(l *todo.List) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save todos: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tasks;`); err != nil {
		return fmt.Errorf("save todos: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO tasks (id, position, description, details, completed, created_at, completed_at, due, priority) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("save todos: %w", err)
	}
	defer stmt.Close()
	for i, t := range l.Todos {
		completed := 0
		if t.Completed {
			completed = 1
		}
		_, err := stmt.Exec(t.ID, i, t.Description, t.Details, completed,
			t.CreatedAt.UTC().Format(time.RFC3339Nano), formatNullTime(t.CompletedAt), formatNullTime(t.DueDate), t.Priority)
		if err != nil {
			return fmt.Errorf("save todo #%d: %w", t.ID, err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta (key, value) VALUES ('next_id', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value;`, l.NextID); err != nil {
		return fmt.Errorf("save next id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save todos: %w", err)
	}
	s.logger.Debug("saved todos", "backend", BackendSQLite, "count", len(l.Todos))
	return nil
}

func parseNullTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
