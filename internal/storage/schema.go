package storage

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"taskr/internal/todo"
)

//go:embed todos.schema.json
var schemaJSON []byte

const schemaURL = "todos.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// ValidationError describes why a stored document was rejected.
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("invalid todo document at %s: %s", e.Path, e.Message)
	}
	return "invalid todo document: " + e.Message
}

func todoSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// Decode parses and validates a todo document.
func Decode(data []byte) (*todo.List, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	schema, err := todoSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, schemaValidationError(err)
	}

	var l todo.List
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	if l.Todos == nil {
		l.Todos = []todo.Task{}
	}
	if err := l.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	return &l, nil
}

// Encode renders l as an indented todo document.
func Encode(l *todo.List) ([]byte, error) {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode todos: %w", err)
	}
	return append(data, '\n'), nil
}

func schemaValidationError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &ValidationError{Message: err.Error()}
	}
	leaf := firstLeaf(ve)
	return &ValidationError{
		Path:    pointerToPath(leaf.InstanceLocation),
		Message: leaf.Message,
	}
}

func firstLeaf(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve
}

func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(strings.TrimPrefix(ptr, "#"), "/")
	if ptr == "" {
		return ""
	}
	return strings.ReplaceAll(ptr, "/", ".")
}
