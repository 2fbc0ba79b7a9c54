package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskr/internal/todo"
)

func TestJSONStore_MissingFileYieldsEmptyList(t *testing.T) {
	s, err := NewJSONStore(filepath.Join(t.TempDir(), "todos.json"), nil)
	require.NoError(t, err)

	l, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, l.Todos)
	assert.Equal(t, 1, l.NextID)
}

func TestJSONStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "todos.json")
	s, err := NewJSONStore(path, nil)
	require.NoError(t, err)

	l := todo.New()
	a, _ := l.Add("Buy milk", 4)
	b, _ := l.Add("Write report", 0)
	_, _ = l.Add("Removed", 0)
	l.Remove(3)
	due := time.Date(2026, 10, 16, 23, 59, 59, 0, time.UTC)
	require.NoError(t, l.SetDue(b, &due))
	require.NoError(t, l.SetDetails(b, "quarterly numbers"))
	l.Complete(a)

	require.NoError(t, s.Save(l))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 4, got.NextID)
	require.Len(t, got.Todos, 2)
	assert.True(t, got.Todos[0].Completed)
	assert.NotNil(t, got.Todos[0].CompletedAt)
	assert.Equal(t, 4, got.Todos[0].Priority)
	assert.Equal(t, "quarterly numbers", got.Todos[1].Details)
	require.NotNil(t, got.Todos[1].DueDate)
	assert.True(t, due.Equal(*got.Todos[1].DueDate))

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), ".todos-*"))
	assert.Empty(t, matches)
}

func TestJSONStore_AcceptsNullOptionalFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")
	doc := `{
  "todos": [
    {"id": 1, "description": "Old task", "completed": false,
     "created_at": "2025-01-01T10:00:00Z", "completed_at": null,
     "due_date": null, "priority": null, "details": null},
    {"id": 4, "description": "Done", "completed": true,
     "created_at": "2025-01-01T10:00:00Z", "completed_at": "2025-01-02T10:00:00Z"}
  ],
  "next_id": 7
}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := NewJSONStore(path, nil)
	require.NoError(t, err)
	l, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 7, l.NextID)
	require.Len(t, l.Todos, 2)
	assert.Equal(t, 0, l.Todos[0].Priority)
	assert.Nil(t, l.Todos[0].DueDate)
	assert.True(t, l.Todos[1].Completed)
}

func TestJSONStore_RejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"todos": [`), 0o644))

	s, err := NewJSONStore(path, nil)
	require.NoError(t, err)
	_, err = s.Load()
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestDecode_SchemaViolationReportsPath(t *testing.T) {
	doc := `{"todos": [{"id": 1, "description": "", "completed": false, "created_at": "2025-01-01T10:00:00Z"}], "next_id": 2}`
	_, err := Decode([]byte(doc))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Path, "todos")
	assert.Contains(t, verr.Path, "description")
}

func TestDecode_RejectsInconsistentLists(t *testing.T) {
	cases := map[string]string{
		"missing next_id":  `{"todos": []}`,
		"priority range":   `{"todos": [{"id": 1, "description": "a", "completed": false, "created_at": "2025-01-01T10:00:00Z", "priority": 9}], "next_id": 2}`,
		"id not below":     `{"todos": [{"id": 3, "description": "a", "completed": false, "created_at": "2025-01-01T10:00:00Z"}], "next_id": 2}`,
		"completed no ts":  `{"todos": [{"id": 1, "description": "a", "completed": true, "created_at": "2025-01-01T10:00:00Z"}], "next_id": 2}`,
		"bad created time": `{"todos": [{"id": 1, "description": "a", "completed": false, "created_at": "yesterday"}], "next_id": 2}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(doc))
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestEncode_DecodeAgree(t *testing.T) {
	l := todo.New()
	_, _ = l.Add("one", 1)
	data, err := Encode(l)
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), data[len(data)-1])

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, l.NextID, got.NextID)
	assert.Equal(t, l.Todos[0].Description, got.Todos[0].Description)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open("yaml", filepath.Join(t.TempDir(), "x"), nil)
	assert.Error(t, err)
}
