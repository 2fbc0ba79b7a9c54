package ui

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskr/internal/config"
	"taskr/internal/todo"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

// memGateway keeps a deep copy of the last saved list.
type memGateway struct {
	saved    *todo.List
	saves    int
	failSave error
}

func (g *memGateway) Load() (*todo.List, error) {
	if g.saved == nil {
		return todo.New(), nil
	}
	return g.saved, nil
}

func (g *memGateway) Save(l *todo.List) error {
	if g.failSave != nil {
		return g.failSave
	}
	data, err := json.Marshal(l)
	if err != nil {
		return err
	}
	var c todo.List
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	g.saved = &c
	g.saves++
	return nil
}

func (g *memGateway) Close() error { return nil }

type harness struct {
	t      *testing.T
	m      Model
	gw     *memGateway
	copied string
}

func newHarness(t *testing.T, l *todo.List) *harness {
	t.Helper()
	if l == nil {
		l = todo.New()
	}
	h := &harness{t: t, gw: &memGateway{}}
	m, err := NewModel(l, h.gw, config.Default(), nil)
	require.NoError(t, err)
	m.now = func() time.Time { return testNow }
	m.copyText = func(s string) error {
		h.copied = s
		return nil
	}
	h.m = m
	return h
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

// press sends each key and returns the command of the last one.
func (h *harness) press(keys ...string) tea.Cmd {
	h.t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = h.m.Update(keyMsg(k))
		h.m = next.(Model)
	}
	return cmd
}

func (h *harness) typeText(s string) {
	h.t.Helper()
	for _, r := range s {
		h.press(string(r))
	}
}

func (h *harness) add(desc string) {
	h.t.Helper()
	h.press("i")
	h.typeText(desc)
	h.press("enter")
	require.Equal(h.t, modeBrowse, h.m.mode)
}

func isQuit(t *testing.T, cmd tea.Cmd) bool {
	t.Helper()
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestCompose_PrioritySuffix(t *testing.T) {
	h := newHarness(t, nil)

	h.press("i")
	assert.Equal(t, modeCompose, h.m.mode)
	h.typeText("Buy milk:4")
	h.press("enter")

	require.Len(t, h.m.list.Todos, 1)
	task := h.m.list.Todos[0]
	assert.Equal(t, "Buy milk", task.Description)
	assert.Equal(t, 4, task.Priority)
	assert.Equal(t, modeBrowse, h.m.mode)
	assert.Empty(t, h.m.input.Value())

	require.NotNil(t, h.gw.saved)
	assert.Equal(t, "Buy milk", h.gw.saved.Todos[0].Description)
	assert.Equal(t, task.ID, h.m.selected().ID)
}

func TestCompose_SelectsNewTask(t *testing.T) {
	h := newHarness(t, nil)
	h.add("first")
	h.add("second")
	h.add("third")

	i, ok := h.m.sel.index()
	require.True(t, ok)
	assert.Equal(t, 2, i)
	assert.Equal(t, "third", h.m.selected().Description)
}

func TestCompose_EmptyBufferStaysInMode(t *testing.T) {
	h := newHarness(t, nil)
	h.press("i", " ", " ", "enter")

	assert.Equal(t, modeCompose, h.m.mode)
	assert.Empty(t, h.m.list.Todos)
	assert.Zero(t, h.gw.saves)
}

func TestCompose_EscapeDiscards(t *testing.T) {
	h := newHarness(t, nil)
	h.press("i")
	h.typeText("never mind")
	h.press("esc")

	assert.Equal(t, modeBrowse, h.m.mode)
	assert.Empty(t, h.m.list.Todos)
	assert.Empty(t, h.m.input.Value())
	assert.Zero(t, h.gw.saves)
}

func TestCompose_BrowseKeysAreText(t *testing.T) {
	h := newHarness(t, nil)
	h.press("i")
	h.typeText("quit dj")
	assert.Equal(t, "quit dj", h.m.input.Value())

	h.press("left", "left", "backspace")
	assert.Equal(t, "quitdj", h.m.input.Value())

	cmd := h.press("enter")
	assert.False(t, isQuit(t, cmd))
	assert.Equal(t, "quitdj", h.m.list.Todos[0].Description)
}

func TestCompose_IgnoresAltKeys(t *testing.T) {
	h := newHarness(t, nil)
	h.press("i")
	next, _ := h.m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x"), Alt: true})
	h.m = next.(Model)
	assert.Empty(t, h.m.input.Value())
}

func TestCompose_LongDescriptionKeptWhole(t *testing.T) {
	h := newHarness(t, nil)
	long := strings.Repeat("x", 300)
	h.add(long)

	require.Len(t, h.m.list.Todos, 1)
	assert.Equal(t, long, h.m.list.Todos[0].Description)

	h.press("e")
	assert.Equal(t, long, h.m.input.Value())
	h.typeText("yz")
	h.press("enter")
	assert.Equal(t, long+"yz", h.m.list.Todos[0].Description)
}

func TestEditTitle_EscapeKeepsOldText(t *testing.T) {
	h := newHarness(t, nil)
	h.add("Old text")
	saves := h.gw.saves

	h.press("e")
	assert.Equal(t, modeEditTitle, h.m.mode)
	assert.Equal(t, "Old text", h.m.input.Value())
	h.typeText(" changed")
	h.press("esc")

	assert.Equal(t, modeBrowse, h.m.mode)
	assert.Equal(t, "Old text", h.m.list.Todos[0].Description)
	assert.Equal(t, saves, h.gw.saves)
}

func TestEditTitle_Commit(t *testing.T) {
	h := newHarness(t, nil)
	h.add("Old text")

	h.press("e", "backspace", "backspace", "backspace", "backspace")
	h.typeText("memo:5")
	h.press("enter")

	assert.Equal(t, "Old memo:5", h.m.list.Todos[0].Description, "no priority parsing on edit")
	assert.Equal(t, 0, h.m.list.Todos[0].Priority)
	assert.Equal(t, "Old memo:5", h.gw.saved.Todos[0].Description)
}

func TestEditTitle_EmptyRejected(t *testing.T) {
	h := newHarness(t, nil)
	h.add("abc")
	saves := h.gw.saves

	h.press("e", "backspace", "backspace", "backspace", "enter")

	assert.Equal(t, modeEditTitle, h.m.mode)
	assert.Equal(t, todo.ErrEmptyDescription.Error(), h.m.status)
	assert.Equal(t, "abc", h.m.list.Todos[0].Description)
	assert.Equal(t, saves, h.gw.saves)
}

func TestEditTitle_TargetRemovedIsNoOp(t *testing.T) {
	h := newHarness(t, nil)
	h.add("gone")
	h.press("e")
	h.m.list.Remove(h.m.target)

	h.press("enter")
	assert.Equal(t, modeBrowse, h.m.mode)
	assert.Empty(t, h.m.list.Todos)
}

func TestEditDetails_SetAndClear(t *testing.T) {
	h := newHarness(t, nil)
	h.add("task")

	h.press("D")
	assert.Equal(t, modeEditDetails, h.m.mode)
	assert.Empty(t, h.m.input.Value())
	h.typeText("call first")
	h.press("enter")
	assert.Equal(t, "call first", h.m.list.Todos[0].Details)

	h.press("D")
	assert.Equal(t, "call first", h.m.input.Value())
	for range "call first" {
		h.press("backspace")
	}
	h.press("enter")
	assert.Empty(t, h.m.list.Todos[0].Details)
	assert.Empty(t, h.gw.saved.Todos[0].Details)
}

func TestEditDue_TodayLandsInDueToday(t *testing.T) {
	h := newHarness(t, nil)
	h.add("pay rent")

	h.press("u")
	assert.Equal(t, modeEditDue, h.m.mode)
	h.typeText("Today")
	h.press("enter")

	task := &h.m.list.Todos[0]
	require.NotNil(t, task.DueDate)
	assert.False(t, task.IsOverdue(testNow))
	assert.Equal(t, []int{task.ID}, idsOf(todo.Visible(h.m.list, todo.DueToday, testNow, 24*time.Hour)))
	require.NotNil(t, h.gw.saved.Todos[0].DueDate)
}

func TestEditDue_TomorrowDateAndClear(t *testing.T) {
	h := newHarness(t, nil)
	h.add("task")

	h.press("u")
	h.typeText("tomorrow")
	h.press("enter")
	assert.Equal(t, "Tomorrow", h.m.list.Todos[0].DueLabel(testNow))

	h.press("u")
	assert.Equal(t, "2026-10-16", h.m.input.Value())
	for range "2026-10-16" {
		h.press("backspace")
	}
	h.typeText("2026-12-24")
	h.press("enter")
	assert.Equal(t, "Dec 24", h.m.list.Todos[0].DueLabel(testNow))

	h.press("u")
	for range "2026-12-24" {
		h.press("backspace")
	}
	h.press("enter")
	assert.Nil(t, h.m.list.Todos[0].DueDate)
}

func TestEditDue_InvalidStaysInMode(t *testing.T) {
	h := newHarness(t, nil)
	h.add("task")
	saves := h.gw.saves

	h.press("u")
	h.typeText("someday")
	h.press("enter")

	assert.Equal(t, modeEditDue, h.m.mode)
	assert.Equal(t, ErrInvalidDueDate.Error(), h.m.status)
	assert.Nil(t, h.m.list.Todos[0].DueDate)
	assert.Equal(t, saves, h.gw.saves)

	h.press("esc")
	assert.Equal(t, modeBrowse, h.m.mode)
}

func TestSetPriority(t *testing.T) {
	h := newHarness(t, nil)
	h.add("task")

	h.press("p")
	assert.Equal(t, modePriority, h.m.mode)
	h.press("9")
	assert.Equal(t, modePriority, h.m.mode)
	assert.Equal(t, 0, h.m.list.Todos[0].Priority)
	h.press("x")
	assert.Equal(t, modePriority, h.m.mode)

	h.press("3")
	assert.Equal(t, modeBrowse, h.m.mode)
	assert.Equal(t, 3, h.m.list.Todos[0].Priority)
	assert.Equal(t, 3, h.gw.saved.Todos[0].Priority)

	h.press("p", "0")
	assert.Equal(t, 0, h.m.list.Todos[0].Priority)

	h.press("p", "esc")
	assert.Equal(t, modeBrowse, h.m.mode)
}

func TestEditKeysWithoutSelection(t *testing.T) {
	h := newHarness(t, nil)
	for _, k := range []string{"e", "D", "u", "p"} {
		h.press(k)
		assert.Equal(t, modeBrowse, h.m.mode, k)
		assert.Equal(t, "No todo selected", h.m.status, k)
	}
	h.press("d", "enter")
	assert.Zero(t, h.gw.saves)
}

func TestToggleKeepsCompletionInSync(t *testing.T) {
	h := newHarness(t, nil)
	h.add("A")

	h.press("enter")
	task := h.m.list.Todos[0]
	assert.True(t, task.Completed)
	assert.NotNil(t, task.CompletedAt)
	assert.True(t, h.gw.saved.Todos[0].Completed)

	h.press(" ")
	task = h.m.list.Todos[0]
	assert.False(t, task.Completed)
	assert.Nil(t, task.CompletedAt)
}

func TestScenario_PendingAndCompletedFilters(t *testing.T) {
	h := newHarness(t, nil)
	h.add("A")
	h.add("B:2")

	h.press("g", "enter")
	assert.True(t, h.m.list.Todos[0].Completed)

	h.press("2")
	assert.Equal(t, todo.Pending, h.m.filter)
	assert.Equal(t, []string{"B"}, descsOf(h.m.visible()))
	assert.Equal(t, "B", h.m.selected().Description)

	h.press("3")
	assert.Equal(t, []string{"A"}, descsOf(h.m.visible()))

	h.press("1")
	assert.Len(t, h.m.visible(), 2)
}

func TestCycleFilterResetsSelection(t *testing.T) {
	h := newHarness(t, nil)
	h.add("A")
	h.add("B")

	h.press("f")
	assert.Equal(t, todo.Pending, h.m.filter)
	i, ok := h.m.sel.index()
	assert.True(t, ok)
	assert.Equal(t, 0, i)

	h.press("f")
	assert.Equal(t, todo.Completed, h.m.filter)
	_, ok = h.m.sel.index()
	assert.False(t, ok)
	h.press("e")
	assert.Equal(t, modeBrowse, h.m.mode)
}

func TestSelectedTranslatesThroughFilter(t *testing.T) {
	h := newHarness(t, nil)
	h.add("A")
	h.add("B:5")
	h.add("C")
	h.add("D:4")

	h.press("4", "j")
	require.Equal(t, "D", h.m.selected().Description)
	h.press("d")

	assert.Equal(t, []string{"A", "B", "C"}, descsOf(todo.Visible(h.m.list, todo.All, testNow, time.Hour)))
	assert.Equal(t, "B", h.m.selected().Description)
}

func TestDeleteSelectionRules(t *testing.T) {
	h := newHarness(t, nil)
	h.add("A")
	h.add("B")
	h.add("C")

	h.press("g", "d")
	assert.Equal(t, "B", h.m.selected().Description, "same index, next item")

	h.press("G", "d")
	assert.Equal(t, "B", h.m.selected().Description, "last removed, new last selected")

	h.press("d")
	_, ok := h.m.sel.index()
	assert.False(t, ok)
	assert.Empty(t, h.gw.saved.Todos)
}

func TestClearCompleted(t *testing.T) {
	h := newHarness(t, nil)
	h.add("A")
	h.add("B")
	h.add("C:2")
	cID := h.m.list.Todos[2].ID

	h.press("g", "enter", "j", "enter")
	h.press("C")

	require.Len(t, h.m.list.Todos, 1)
	assert.Equal(t, cID, h.m.list.Todos[0].ID)
	assert.Equal(t, "C", h.m.list.Todos[0].Description)
	require.Len(t, h.gw.saved.Todos, 1)

	saves := h.gw.saves
	h.press("C")
	assert.Equal(t, saves, h.gw.saves)
}

func TestHelpOverlaySwallowsKeys(t *testing.T) {
	h := newHarness(t, nil)
	h.add("A")

	h.press("?")
	assert.True(t, h.m.showHelp)
	h.press("d", "i", "j")
	assert.Len(t, h.m.list.Todos, 1)
	assert.Equal(t, modeBrowse, h.m.mode)

	h.press("esc")
	assert.False(t, h.m.showHelp)
	h.press("h", "h")
	assert.False(t, h.m.showHelp)
}

func TestYankCopiesDescription(t *testing.T) {
	h := newHarness(t, nil)
	h.add("copy me")
	h.press("y")
	assert.Equal(t, "copy me", h.copied)

	h.m.copyText = func(string) error { return errors.New("no clipboard") }
	h.press("y")
	assert.Contains(t, h.m.status, "no clipboard")
}

func TestDetailsToggle(t *testing.T) {
	h := newHarness(t, nil)
	h.press("v")
	assert.True(t, h.m.details)
	h.press("v")
	assert.False(t, h.m.details)
}

func TestQuitSaves(t *testing.T) {
	h := newHarness(t, nil)
	h.add("A")
	saves := h.gw.saves

	cmd := h.press("q")
	assert.True(t, isQuit(t, cmd))
	assert.Equal(t, saves+1, h.gw.saves)
	assert.NoError(t, h.m.err)
}

func TestCtrlCQuitsFromAnyMode(t *testing.T) {
	h := newHarness(t, nil)
	h.press("i")
	h.typeText("draft")

	cmd := h.press("ctrl+c")
	assert.True(t, isQuit(t, cmd))
	assert.Equal(t, 1, h.gw.saves)
}

func TestFailedSaveAbortsLoop(t *testing.T) {
	h := newHarness(t, nil)
	h.gw.failSave = errors.New("disk full")

	h.press("i")
	h.typeText("A")
	cmd := h.press("enter")

	assert.True(t, isQuit(t, cmd))
	require.Error(t, h.m.err)
	assert.Contains(t, h.m.err.Error(), "disk full")
}

func TestRefreshKeepsSelectionInView(t *testing.T) {
	h := newHarness(t, nil)
	h.add("A")
	h.press("u")
	h.typeText("today")
	h.press("enter", "9")
	require.Equal(t, "A", h.m.selected().Description)

	h.m.now = func() time.Time { return testNow.Add(13 * time.Hour) }
	next, cmd := h.m.Update(refreshMsg(testNow.Add(13 * time.Hour)))
	h.m = next.(Model)
	assert.NotNil(t, cmd)
	_, ok := h.m.sel.index()
	assert.False(t, ok, "overdue tasks leave the due-soon view")
}

func TestParseDue(t *testing.T) {
	due, err := parseDue("", testNow)
	assert.NoError(t, err)
	assert.Nil(t, due)

	due, err = parseDue(" TODAY ", testNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 15, 23, 59, 59, 0, time.UTC), *due)

	due, err = parseDue("2027-02-01", testNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2027, 2, 1, 23, 59, 59, 0, time.UTC), *due)

	_, err = parseDue("2027-13-01", testNow)
	assert.ErrorIs(t, err, ErrInvalidDueDate)
}

func TestViewRendersWithoutSize(t *testing.T) {
	h := newHarness(t, nil)
	h.add("visible task")
	out := h.m.View()
	assert.Contains(t, out, "visible task")
	assert.Contains(t, out, "Taskr")
}

func idsOf(entries []todo.Entry) []int {
	out := make([]int, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Task.ID)
	}
	return out
}

func descsOf(entries []todo.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Task.Description)
	}
	return out
}
