// Package storage loads and saves the task list.
package storage

import (
	"fmt"

	"github.com/charmbracelet/log"

	"taskr/internal/todo"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Gateway persists a whole task list. Load returns an empty list when nothing
// has been saved yet; Save overwrites whatever was stored before.
type Gateway interface {
	Load() (*todo.List, error)
	Save(l *todo.List) error
	Close() error
}

// Open returns the gateway for backend rooted at path.
func Open(backend, path string, logger *log.Logger) (Gateway, error) {
	switch backend {
	case BackendJSON, "":
		return NewJSONStore(path, logger)
	case BackendSQLite:
		return OpenSQLite(path, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
