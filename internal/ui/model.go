// Package ui is the interactive full-screen todo editor.
package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"taskr/internal/config"
	"taskr/internal/logging"
	"taskr/internal/storage"
	"taskr/internal/todo"
)

var ErrInvalidDueDate = errors.New("due date must be today, tomorrow or YYYY-MM-DD")

type mode int

const (
	modeBrowse mode = iota
	modeCompose
	modeEditTitle
	modeEditDetails
	modeEditDue
	modePriority
)

func (m mode) String() string {
	switch m {
	case modeCompose:
		return "INSERT"
	case modeEditTitle:
		return "EDIT"
	case modeEditDetails:
		return "DETAILS"
	case modeEditDue:
		return "DUE DATE"
	case modePriority:
		return "PRIORITY"
	default:
		return "NORMAL"
	}
}

// editsText reports whether the mode owns the line-edit buffer.
func (m mode) editsText() bool {
	switch m {
	case modeCompose, modeEditTitle, modeEditDetails, modeEditDue:
		return true
	}
	return false
}

type refreshMsg time.Time

type Model struct {
	list   *todo.List
	gw     storage.Gateway
	cfg    config.Config
	keys   keyMap
	theme  Theme
	logger *log.Logger

	now      func() time.Time
	copyText func(string) error
	soon     time.Duration
	interval time.Duration
	input    textinput.Model
	spin     spinner.Model
	bar      progress.Model
	help     help.Model
	mode     mode
	target   int
	filter   todo.Filter
	sel      selection
	status   string
	details  bool
	showHelp bool
	width    int
	height   int
	err      error
}

func NewModel(list *todo.List, gw storage.Gateway, cfg config.Config, logger *log.Logger) (Model, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	theme, err := ThemeByName(cfg.Theme)
	if err != nil {
		return Model{}, err
	}

	ti := textinput.New()
	ti.Prompt = ""
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Accent)

	bar := progress.New(progress.WithGradient(string(theme.Primary), string(theme.Accent)), progress.WithoutPercentage())
	bar.Width = 16

	h := help.New()
	h.ShortSeparator = " • "
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(theme.Accent)
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(theme.TextSecondary)
	h.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(theme.BgHighlight)

	m := Model{
		list:     list,
		gw:       gw,
		cfg:      cfg,
		keys:     newKeyMap(cfg.Keys),
		theme:    theme,
		logger:   logger,
		now:      time.Now,
		copyText: clipboard.WriteAll,
		soon:     cfg.DueSoonWindow(),
		interval: cfg.Refresh(),
		input:    ti,
		spin:     sp,
		bar:      bar,
		help:     h,
		filter:   todo.All,
		status:   "Welcome! Press '?' or 'h' for help.",
	}
	m.sel.sync(len(m.visible()))
	return m, nil
}

// Run loads the list, drives the program until quit and returns the first
// persistence error, if any. The terminal is restored before Run returns.
func Run(gw storage.Gateway, cfg config.Config, logger *log.Logger) error {
	list, err := gw.Load()
	if err != nil {
		return err
	}
	m, err := NewModel(list, gw, cfg, logger)
	if err != nil {
		return err
	}
	m.logger.Info("session started", "todos", len(list.Todos), "theme", m.theme.Name)

	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.err != nil {
		return fm.err
	}
	m.logger.Info("session ended")
	return nil
}

func (m Model) Init() tea.Cmd {
	return m.refresh()
}

func (m Model) refresh() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m.quit()
		}
		if m.showHelp {
			return m.updateHelp(msg)
		}
		switch {
		case m.mode == modeBrowse:
			return m.updateBrowse(msg)
		case m.mode == modePriority:
			return m.updatePriority(msg)
		default:
			return m.updateText(msg)
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(10, msg.Width-8)
		m.bar.Width = max(8, min(24, msg.Width/6))
		return m, nil
	case refreshMsg:
		// Due-date filters shift with the clock.
		m.sel.sync(len(m.visible()))
		return m, m.refresh()
	case spinner.TickMsg:
		if !m.mode.editsText() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	if m.mode.editsText() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) visible() []todo.Entry {
	return todo.Visible(m.list, m.filter, m.now(), m.soon)
}

// selected translates the view selection into the store task it points at.
// Every action on "the selected todo" goes through here.
func (m Model) selected() *todo.Task {
	i, ok := m.sel.index()
	if !ok {
		return nil
	}
	view := m.visible()
	if i >= len(view) {
		return nil
	}
	return view[i].Task
}

// selectID moves the selection onto id if it is visible, otherwise just
// reconciles it with the view.
func (m *Model) selectID(id int) {
	view := m.visible()
	for i, e := range view {
		if e.Task.ID == id {
			m.sel.set(i, len(view))
			return
		}
	}
	m.sel.sync(len(view))
}

// commit saves the list. A failed save ends the program; Run reports it.
func (m *Model) commit(status string) tea.Cmd {
	if err := m.gw.Save(m.list); err != nil {
		m.err = fmt.Errorf("save todos: %w", err)
		m.logger.Error("save failed", "err", err)
		return tea.Quit
	}
	m.status = status
	m.logger.Debug("committed", "status", status, "todos", len(m.list.Todos))
	return nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if err := m.gw.Save(m.list); err != nil {
		m.err = fmt.Errorf("save todos: %w", err)
		m.logger.Error("final save failed", "err", err)
	}
	return m, tea.Quit
}

func (m Model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Help), key.Matches(msg, m.keys.Cancel):
		m.showHelp = false
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.visible())
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Down):
		m.sel.move(1, n)
	case key.Matches(msg, m.keys.Up):
		m.sel.move(-1, n)
	case key.Matches(msg, m.keys.Top):
		m.sel.top(n)
	case key.Matches(msg, m.keys.Bottom):
		m.sel.bottom(n)
	case key.Matches(msg, m.keys.Add):
		return m.enter(modeCompose, 0, "")
	case key.Matches(msg, m.keys.Toggle):
		return m.toggle()
	case key.Matches(msg, m.keys.Delete):
		return m.delete()
	case key.Matches(msg, m.keys.Edit):
		if t := m.selected(); t != nil {
			return m.enter(modeEditTitle, t.ID, t.Description)
		}
		m.status = "No todo selected"
	case key.Matches(msg, m.keys.EditDetails):
		if t := m.selected(); t != nil {
			return m.enter(modeEditDetails, t.ID, t.Details)
		}
		m.status = "No todo selected"
	case key.Matches(msg, m.keys.EditDue):
		if t := m.selected(); t != nil {
			return m.enter(modeEditDue, t.ID, formatDue(t.DueDate, m.now()))
		}
		m.status = "No todo selected"
	case key.Matches(msg, m.keys.Priority):
		if t := m.selected(); t != nil {
			return m.enter(modePriority, t.ID, "")
		}
		m.status = "No todo selected"
	case key.Matches(msg, m.keys.CycleFilter):
		m.setFilter(m.filter.Next())
	case key.Matches(msg, m.keys.JumpFilter):
		m.setFilter(jumpFilters[msg.String()])
	case key.Matches(msg, m.keys.Details):
		m.details = !m.details
		if m.details {
			m.status = "Showing details"
		} else {
			m.status = "Hiding details"
		}
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.ClearDone):
		return m.clearDone()
	case key.Matches(msg, m.keys.Yank):
		m.yank()
	}
	return m, nil
}

func (m *Model) setFilter(f todo.Filter) {
	m.filter = f
	m.sel = selection{}
	m.sel.sync(len(m.visible()))
	m.status = "Filter: " + filterLabel(f, m.soon)
}

func (m Model) toggle() (tea.Model, tea.Cmd) {
	t := m.selected()
	if t == nil {
		return m, nil
	}
	id := t.ID
	done, ok := m.list.Toggle(id)
	if !ok {
		return m, nil
	}
	status := fmt.Sprintf("Marked #%d as pending", id)
	if done {
		status = fmt.Sprintf("Completed #%d", id)
	}
	cmd := m.commit(status)
	m.sel.sync(len(m.visible()))
	return m, cmd
}

func (m Model) delete() (tea.Model, tea.Cmd) {
	t := m.selected()
	if t == nil {
		return m, nil
	}
	id := t.ID
	if !m.list.Remove(id) {
		return m, nil
	}
	cmd := m.commit(fmt.Sprintf("Deleted #%d", id))
	m.sel.sync(len(m.visible()))
	return m, cmd
}

func (m Model) clearDone() (tea.Model, tea.Cmd) {
	n := m.list.RetainPending()
	if n == 0 {
		m.status = "No completed todos to clear"
		return m, nil
	}
	cmd := m.commit(fmt.Sprintf("Cleared %d completed todo(s)", n))
	m.sel.sync(len(m.visible()))
	return m, cmd
}

func (m *Model) yank() {
	t := m.selected()
	if t == nil {
		m.status = "No todo selected"
		return
	}
	if err := m.copyText(t.Description); err != nil {
		m.logger.Warn("clipboard write failed", "err", err)
		m.status = "Copy failed: " + err.Error()
		return
	}
	m.status = fmt.Sprintf("Copied #%d to clipboard", t.ID)
}

// enter switches to md, editing target (0 when composing) with the buffer
// pre-filled with value.
func (m Model) enter(md mode, target int, value string) (tea.Model, tea.Cmd) {
	m.mode = md
	m.target = target
	m.input.Reset()
	if !md.editsText() {
		m.input.Blur()
		m.status = "Press 1-5 to set priority, 0 to clear"
		return m, nil
	}
	m.input.SetValue(value)
	m.input.CursorEnd()
	cmd := m.input.Focus()
	_, label := md.inputLabel()
	m.status = label
	return m, tea.Batch(cmd, m.spin.Tick)
}

// leave returns to browsing and drops the buffer.
func (m Model) leave() Model {
	m.mode = modeBrowse
	m.target = 0
	m.input.Reset()
	m.input.Blur()
	return m
}

// lineEditKey reports whether msg is handled by the line-edit buffer.
func lineEditKey(msg tea.KeyMsg) bool {
	if msg.Alt {
		return false
	}
	switch msg.Type {
	case tea.KeyRunes, tea.KeySpace, tea.KeyBackspace, tea.KeyDelete,
		tea.KeyLeft, tea.KeyRight, tea.KeyHome, tea.KeyEnd:
		return true
	}
	return false
}

func (m Model) updateText(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m = m.leave()
		m.status = "Cancelled"
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		return m.submit()
	}
	if !lineEditKey(msg) {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	value := m.input.Value()
	switch m.mode {
	case modeCompose:
		return m.submitCompose(value)
	case modeEditTitle:
		err := m.list.Rename(m.target, value)
		switch {
		case errors.Is(err, todo.ErrNotFound):
			return m.leave(), nil
		case err != nil:
			m.status = err.Error()
			return m, nil
		}
		cmd := m.commit(fmt.Sprintf("Updated #%d", m.target))
		return m.leave(), cmd
	case modeEditDetails:
		if err := m.list.SetDetails(m.target, value); err != nil {
			return m.leave(), nil
		}
		status := fmt.Sprintf("Updated details of #%d", m.target)
		if strings.TrimSpace(value) == "" {
			status = fmt.Sprintf("Cleared details of #%d", m.target)
		}
		cmd := m.commit(status)
		return m.leave(), cmd
	case modeEditDue:
		due, err := parseDue(value, m.now())
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		if err := m.list.SetDue(m.target, due); err != nil {
			return m.leave(), nil
		}
		status := fmt.Sprintf("Cleared due date of #%d", m.target)
		if due != nil {
			status = fmt.Sprintf("#%d due %s", m.target, due.Format("2006-01-02"))
		}
		cmd := m.commit(status)
		m = m.leave()
		m.sel.sync(len(m.visible()))
		return m, cmd
	}
	return m, nil
}

func (m Model) submitCompose(value string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(value) == "" {
		m.status = "Type a description, or Esc to cancel"
		return m, nil
	}
	desc, prio := todo.ParsePrioritySuffix(value)
	id, err := m.list.Add(desc, prio)
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	status := fmt.Sprintf("Added #%d", id)
	if prio > 0 {
		status = fmt.Sprintf("Added #%d with %s priority", id, todo.PriorityName(prio))
	}
	cmd := m.commit(status)
	m = m.leave()
	m.selectID(id)
	return m, cmd
}

func (m Model) updatePriority(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Cancel) {
		m = m.leave()
		m.status = "Cancelled"
		return m, nil
	}
	s := msg.String()
	if len(s) != 1 || s[0] < '0' || s[0] > '5' {
		m.status = "Priority must be 1-5, or 0 to clear"
		return m, nil
	}
	p := int(s[0] - '0')
	if err := m.list.SetPriority(m.target, p); err != nil {
		return m.leave(), nil
	}
	status := fmt.Sprintf("Cleared priority of #%d", m.target)
	if p > 0 {
		status = fmt.Sprintf("Set #%d to %s priority", m.target, todo.PriorityName(p))
	}
	cmd := m.commit(status)
	m = m.leave()
	m.sel.sync(len(m.visible()))
	return m, cmd
}

// parseDue accepts "", "today", "tomorrow" or YYYY-MM-DD. Dates resolve to
// the end of their day in now's location; nil clears the due date.
func parseDue(input string, now time.Time) (*time.Time, error) {
	var due time.Time
	switch s := strings.ToLower(strings.TrimSpace(input)); s {
	case "":
		return nil, nil
	case "today":
		due = todo.EndOfDay(now)
	case "tomorrow":
		due = todo.EndOfDay(now.AddDate(0, 0, 1))
	default:
		d, err := time.ParseInLocation("2006-01-02", s, now.Location())
		if err != nil {
			return nil, ErrInvalidDueDate
		}
		due = todo.EndOfDay(d)
	}
	return &due, nil
}

func formatDue(due *time.Time, now time.Time) string {
	if due == nil {
		return ""
	}
	return due.In(now.Location()).Format("2006-01-02")
}

func (m Model) viewState() viewState {
	now := m.now()
	rows := todo.Visible(m.list, m.filter, now, m.soon)
	total, done, pending := m.list.Counts()
	selected := -1
	if i, ok := m.sel.index(); ok {
		selected = i
	}
	ratio := 0.0
	if total > 0 {
		ratio = float64(done) / float64(total)
	}
	return viewState{
		Now:         now,
		Soon:        m.soon,
		Filter:      m.filter,
		Rows:        rows,
		Selected:    selected,
		Mode:        m.mode,
		Buffer:      m.input.Value(),
		Cursor:      m.input.Position(),
		Total:       total,
		Done:        done,
		Pending:     pending,
		Status:      m.status,
		ShowDetails: m.details,
		ShowHelp:    m.showHelp,
		Spinner:     m.spin.View(),
		Progress:    m.bar.ViewAs(ratio),
		ShortHelp:   m.help.ShortHelpView(m.keys.ShortHelp()),
		Sections:    m.keys.sections(),
		Width:       m.width,
	}
}

func (m Model) View() string {
	return plan(m.viewState(), m.theme).Render(m.width, m.height)
}
