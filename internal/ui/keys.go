package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"taskr/internal/config"
	"taskr/internal/todo"
)

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	Top         key.Binding
	Bottom      key.Binding
	Add         key.Binding
	Toggle      key.Binding
	Delete      key.Binding
	Edit        key.Binding
	EditDetails key.Binding
	EditDue     key.Binding
	Priority    key.Binding
	CycleFilter key.Binding
	JumpFilter  key.Binding
	Details     key.Binding
	Help        key.Binding
	ClearDone   key.Binding
	Yank        key.Binding
	Quit        key.Binding
	Confirm     key.Binding
	Cancel      key.Binding
}

// jumpFilters maps the digit keys 1..9 and 0 to filters. NoPriority is only
// reachable by cycling.
var jumpFilters = map[string]todo.Filter{
	"1": todo.All,
	"2": todo.Pending,
	"3": todo.Completed,
	"4": todo.HighPriority,
	"5": todo.MediumPriority,
	"6": todo.LowPriority,
	"7": todo.Overdue,
	"8": todo.DueToday,
	"9": todo.DueSoon,
	"0": todo.HasDueDate,
}

func newKeyMap(k config.Keymap) keyMap {
	return keyMap{
		Up:          bind(k.Up, "move up"),
		Down:        bind(k.Down, "move down"),
		Top:         bind(k.Top, "go to top"),
		Bottom:      bind(k.Bottom, "go to bottom"),
		Add:         bind(k.Add, "new todo (:N sets priority)"),
		Toggle:      bind(k.Toggle, "complete/uncomplete"),
		Delete:      bind(k.Delete, "delete"),
		Edit:        bind(k.Edit, "edit title"),
		EditDetails: bind(k.EditDetails, "edit details"),
		EditDue:     bind(k.EditDue, "set due date"),
		Priority:    bind(k.Priority, "set priority"),
		CycleFilter: bind(k.CycleFilter, "cycle filter"),
		JumpFilter: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9", "0"),
			key.WithHelp("1-0", "jump to filter"),
		),
		Details:   bind(k.Details, "show/hide details"),
		Help:      bind(k.Help, "toggle help"),
		ClearDone: bind(k.ClearDone, "clear completed"),
		Yank:      bind(k.Yank, "copy description"),
		Quit:      bind(k.Quit, "save and quit"),
		Confirm:   bind(k.Confirm, "confirm"),
		Cancel:    bind(k.Cancel, "cancel"),
	}
}

func bind(keys []string, desc string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keyLabel(keys), desc))
}

func keyLabel(keys []string) string {
	labels := make([]string, 0, len(keys))
	for _, k := range keys {
		switch k {
		case " ":
			k = "space"
		case "up":
			k = "↑"
		case "down":
			k = "↓"
		}
		labels = append(labels, k)
	}
	return strings.Join(labels, "/")
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Toggle, k.Delete, k.CycleFilter, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	sections := k.sections()
	out := make([][]key.Binding, 0, len(sections))
	for _, s := range sections {
		out = append(out, s.bindings)
	}
	return out
}

type helpSection struct {
	title    string
	bindings []key.Binding
}

func (k keyMap) sections() []helpSection {
	return []helpSection{
		{"Navigation", []key.Binding{k.Down, k.Up, k.Top, k.Bottom}},
		{"Actions", []key.Binding{k.Add, k.Toggle, k.Delete, k.ClearDone, k.Yank}},
		{"Editing", []key.Binding{k.Edit, k.EditDetails, k.EditDue, k.Priority}},
		{"View", []key.Binding{k.CycleFilter, k.JumpFilter, k.Details, k.Help, k.Quit}},
	}
}
