// Package todo holds the task model, the in-memory task list and the filters
// applied to it.
package todo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmptyDescription = errors.New("todo description cannot be empty")
	ErrInvalidPriority  = errors.New("priority must be between 1 and 5")
	ErrNotFound         = errors.New("todo not found")
)

const (
	MinPriority = 1
	MaxPriority = 5
)

// Task is a single todo record. Priority 0 means no priority.
type Task struct {
	ID          int        `json:"id"`
	Description string     `json:"description"`
	Details     string     `json:"details,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    int        `json:"priority,omitempty"`
}

func (t *Task) complete(at time.Time) {
	t.Completed = true
	t.CompletedAt = &at
}

func (t *Task) uncomplete() {
	t.Completed = false
	t.CompletedAt = nil
}

// IsOverdue reports whether a pending task is past its due date.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.Completed || t.DueDate == nil {
		return false
	}
	return t.DueDate.Before(now)
}

// IsDueSoon reports whether a pending task falls due within window of now.
func (t *Task) IsDueSoon(now time.Time, window time.Duration) bool {
	if t.Completed || t.DueDate == nil || t.IsOverdue(now) {
		return false
	}
	return t.DueDate.Sub(now) <= window
}

// IsDueToday reports whether a pending task is due on now's calendar day.
func (t *Task) IsDueToday(now time.Time) bool {
	if t.Completed || t.DueDate == nil {
		return false
	}
	return sameDay(t.DueDate.In(now.Location()), now)
}

// DueLabel renders the due date relative to now: Today, Tomorrow or "Jan 02".
func (t *Task) DueLabel(now time.Time) string {
	if t.DueDate == nil {
		return ""
	}
	due := t.DueDate.In(now.Location())
	switch {
	case sameDay(due, now):
		return "Today"
	case sameDay(due, now.AddDate(0, 0, 1)):
		return "Tomorrow"
	default:
		return due.Format("Jan 02")
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// EndOfDay returns the last second of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

// PriorityName maps a priority level to its display name.
func PriorityName(p int) string {
	switch p {
	case 1:
		return "Low"
	case 2:
		return "Normal"
	case 3:
		return "Medium"
	case 4:
		return "High"
	case 5:
		return "Critical"
	case 0:
		return "No priority"
	default:
		return fmt.Sprintf("Priority %d", p)
	}
}

func validPriority(p int) bool {
	return p == 0 || (p >= MinPriority && p <= MaxPriority)
}

// ParsePrioritySuffix splits a trailing ":N" priority shorthand off input.
// When no valid suffix (N in 1..5) is present the input is returned unchanged
// with priority 0.
func ParsePrioritySuffix(input string) (string, int) {
	pos := strings.LastIndex(input, ":")
	if pos < 0 {
		return input, 0
	}
	p, err := strconv.Atoi(strings.TrimSpace(input[pos+1:]))
	if err != nil || p < MinPriority || p > MaxPriority {
		return input, 0
	}
	return strings.TrimSpace(input[:pos]), p
}
