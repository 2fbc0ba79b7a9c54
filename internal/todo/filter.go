package todo

import (
	"fmt"
	"strings"
	"time"
)

// Filter is a named read-only predicate over the list.
type Filter int

// Declaration order is the cycling order.
const (
	All Filter = iota
	Pending
	Completed
	HighPriority
	MediumPriority
	LowPriority
	NoPriority
	Overdue
	DueToday
	DueSoon
	HasDueDate

	filterCount
)

var filterNames = [filterCount]string{
	All:            "All Tasks",
	Pending:        "Pending",
	Completed:      "Completed",
	HighPriority:   "High Priority (4-5)",
	MediumPriority: "Medium Priority (2-3)",
	LowPriority:    "Low Priority (1)",
	NoPriority:     "No Priority",
	Overdue:        "Overdue",
	DueToday:       "Due Today",
	DueSoon:        "Due Soon",
	HasDueDate:     "Has Due Date",
}

var filterKeys = [filterCount]string{
	All:            "all",
	Pending:        "pending",
	Completed:      "completed",
	HighPriority:   "high",
	MediumPriority: "medium",
	LowPriority:    "low",
	NoPriority:     "none",
	Overdue:        "overdue",
	DueToday:       "today",
	DueSoon:        "soon",
	HasDueDate:     "due",
}

// Filters lists every filter in cycling order.
func Filters() []Filter {
	out := make([]Filter, 0, filterCount)
	for f := All; f < filterCount; f++ {
		out = append(out, f)
	}
	return out
}

// Next returns the filter after f, wrapping back to All.
func (f Filter) Next() Filter {
	return (f + 1) % filterCount
}

func (f Filter) String() string {
	if f < 0 || f >= filterCount {
		return fmt.Sprintf("Filter(%d)", int(f))
	}
	return filterNames[f]
}

// Key is the short name used on the command line.
func (f Filter) Key() string {
	if f < 0 || f >= filterCount {
		return ""
	}
	return filterKeys[f]
}

func ParseFilter(s string) (Filter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f := All; f < filterCount; f++ {
		if filterKeys[f] == s {
			return f, nil
		}
	}
	return All, fmt.Errorf("unknown filter %q", s)
}

// Match evaluates f against t. now and soon are only consulted by the
// due-date filters.
func (f Filter) Match(t *Task, now time.Time, soon time.Duration) bool {
	switch f {
	case All:
		return true
	case Pending:
		return !t.Completed
	case Completed:
		return t.Completed
	case HighPriority:
		return t.Priority >= 4
	case MediumPriority:
		return t.Priority == 2 || t.Priority == 3
	case LowPriority:
		return t.Priority == 1
	case NoPriority:
		return t.Priority == 0
	case Overdue:
		return t.IsOverdue(now)
	case DueToday:
		return t.IsDueToday(now)
	case DueSoon:
		return t.IsDueSoon(now, soon)
	case HasDueDate:
		return t.DueDate != nil
	default:
		return false
	}
}

// Entry is one row of a filtered view: the task and its index in the list.
type Entry struct {
	Index int
	Task  *Task
}

// Visible returns the tasks matching f in list order.
func Visible(l *List, f Filter, now time.Time, soon time.Duration) []Entry {
	out := make([]Entry, 0, len(l.Todos))
	for i := range l.Todos {
		if f.Match(&l.Todos[i], now, soon) {
			out = append(out, Entry{Index: i, Task: &l.Todos[i]})
		}
	}
	return out
}
