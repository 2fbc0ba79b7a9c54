package todo

import (
	"fmt"
	"strings"
	"time"
)

// List is the ordered task collection of one session. Slice order is display
// order; NextID is always greater than every id ever handed out.
type List struct {
	Todos  []Task `json:"todos"`
	NextID int    `json:"next_id"`
}

func New() *List {
	return &List{Todos: []Task{}, NextID: 1}
}

// Add appends a new pending task and returns its id.
func (l *List) Add(description string, priority int) (int, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return 0, ErrEmptyDescription
	}
	if !validPriority(priority) {
		return 0, ErrInvalidPriority
	}
	id := l.NextID
	l.Todos = append(l.Todos, Task{
		ID:          id,
		Description: description,
		CreatedAt:   time.Now().UTC(),
		Priority:    priority,
	})
	l.NextID++
	return id, nil
}

// Find returns the task with id, or nil.
func (l *List) Find(id int) *Task {
	for i := range l.Todos {
		if l.Todos[i].ID == id {
			return &l.Todos[i]
		}
	}
	return nil
}

// Remove deletes the task with id and reports whether one was removed.
func (l *List) Remove(id int) bool {
	for i := range l.Todos {
		if l.Todos[i].ID == id {
			l.Todos = append(l.Todos[:i], l.Todos[i+1:]...)
			return true
		}
	}
	return false
}

func (l *List) Complete(id int) bool {
	t := l.Find(id)
	if t == nil {
		return false
	}
	if !t.Completed {
		t.complete(time.Now().UTC())
	}
	return true
}

func (l *List) Uncomplete(id int) bool {
	t := l.Find(id)
	if t == nil {
		return false
	}
	t.uncomplete()
	return true
}

// Toggle flips completion and returns the new state.
func (l *List) Toggle(id int) (completed bool, ok bool) {
	t := l.Find(id)
	if t == nil {
		return false, false
	}
	if t.Completed {
		t.uncomplete()
	} else {
		t.complete(time.Now().UTC())
	}
	return t.Completed, true
}

// RetainPending drops every completed task and returns how many went.
func (l *List) RetainPending() int {
	kept := l.Todos[:0]
	for _, t := range l.Todos {
		if !t.Completed {
			kept = append(kept, t)
		}
	}
	removed := len(l.Todos) - len(kept)
	l.Todos = kept
	return removed
}

func (l *List) Rename(id int, description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return ErrEmptyDescription
	}
	t := l.Find(id)
	if t == nil {
		return ErrNotFound
	}
	t.Description = description
	return nil
}

// SetDetails replaces the details text; blank input clears it.
func (l *List) SetDetails(id int, details string) error {
	t := l.Find(id)
	if t == nil {
		return ErrNotFound
	}
	t.Details = strings.TrimSpace(details)
	return nil
}

// SetDue sets or, with nil, clears the due date.
func (l *List) SetDue(id int, due *time.Time) error {
	t := l.Find(id)
	if t == nil {
		return ErrNotFound
	}
	if due == nil {
		t.DueDate = nil
		return nil
	}
	d := *due
	t.DueDate = &d
	return nil
}

// SetPriority sets a priority in 1..5; 0 clears it.
func (l *List) SetPriority(id, priority int) error {
	if !validPriority(priority) {
		return ErrInvalidPriority
	}
	t := l.Find(id)
	if t == nil {
		return ErrNotFound
	}
	t.Priority = priority
	return nil
}

// Counts returns total, completed and pending task counts.
func (l *List) Counts() (total, completed, pending int) {
	for _, t := range l.Todos {
		if t.Completed {
			completed++
		}
	}
	total = len(l.Todos)
	return total, completed, total - completed
}

// Merge appends other's tasks under fresh ids and returns how many were added.
func (l *List) Merge(other *List) int {
	for _, t := range other.Todos {
		t.ID = l.NextID
		l.Todos = append(l.Todos, t)
		l.NextID++
	}
	return len(other.Todos)
}

// Validate checks the consistency rules a loaded list must satisfy.
func (l *List) Validate() error {
	if l.NextID < 1 {
		return fmt.Errorf("next_id %d must be positive", l.NextID)
	}
	seen := make(map[int]struct{}, len(l.Todos))
	for i, t := range l.Todos {
		if t.ID < 1 {
			return fmt.Errorf("todos[%d]: id %d must be positive", i, t.ID)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("todos[%d]: duplicate id %d", i, t.ID)
		}
		seen[t.ID] = struct{}{}
		if t.ID >= l.NextID {
			return fmt.Errorf("todos[%d]: id %d is not below next_id %d", i, t.ID, l.NextID)
		}
		if strings.TrimSpace(t.Description) == "" {
			return fmt.Errorf("todos[%d]: %w", i, ErrEmptyDescription)
		}
		if !validPriority(t.Priority) {
			return fmt.Errorf("todos[%d]: %w", i, ErrInvalidPriority)
		}
		if t.Completed != (t.CompletedAt != nil) {
			return fmt.Errorf("todos[%d]: completed and completed_at disagree", i)
		}
	}
	return nil
}
