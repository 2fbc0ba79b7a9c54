package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"taskr/internal/logging"
	"taskr/internal/todo"
)

// JSONStore keeps the list as a single JSON document on disk.
type JSONStore struct {
	path   string
	logger *log.Logger
}

func NewJSONStore(path string, logger *log.Logger) (*JSONStore, error) {
	if path == "" {
		return nil, errors.New("data path is empty")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &JSONStore{path: path, logger: logger}, nil
}

func (s *JSONStore) Path() string {
	return s.path
}

func (s *JSONStore) Load() (*todo.List, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Info("no todo file found, starting with an empty list", "path", s.path)
		return todo.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read todos: %w", err)
	}
	l, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.path, err)
	}
	s.logger.Debug("loaded todos", "path", s.path, "count", len(l.Todos))
	return l, nil
}

// Save writes to a sibling temp file and renames it over the target so a
// failed write never leaves a truncated document behind.
func (s *JSONStore) Save(l *todo.List) error {
	data, err := Encode(l)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".todos-*.json")
	if err != nil {
		return fmt.Errorf("save todos: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("save todos: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save todos: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save todos: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("save todos: %w", err)
	}
	s.logger.Debug("saved todos", "path", s.path, "count", len(l.Todos))
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}
