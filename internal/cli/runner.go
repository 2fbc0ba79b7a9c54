// Package cli implements the scripted commands that operate on the stored
// list without the full-screen interface.
package cli

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"taskr/internal/logging"
	"taskr/internal/storage"
	"taskr/internal/todo"
)

const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatText     = "text"
)

var ExportFormats = []string{FormatJSON, FormatMarkdown, FormatCSV, FormatText}

const rule = "──────────────────────────────────────────────────"

// Runner executes one command against a gateway. Every mutating command
// loads, changes and saves the whole list.
type Runner struct {
	Store   storage.Gateway
	Out     io.Writer
	Logger  *log.Logger
	Confirm func(prompt string) (bool, error)
	Now     func() time.Time
	Soon    time.Duration
}

func NewRunner(store storage.Gateway, out io.Writer, logger *log.Logger, soon time.Duration) *Runner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Runner{
		Store:   store,
		Out:     out,
		Logger:  logger,
		Confirm: confirmPrompt,
		Now:     time.Now,
		Soon:    soon,
	}
}

func confirmPrompt(prompt string) (bool, error) {
	ok := false
	err := huh.NewConfirm().
		Title(prompt).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.Out, format, args...)
}

func (r *Runner) load() (*todo.List, error) {
	l, err := r.Store.Load()
	if err != nil {
		return nil, fmt.Errorf("load todos: %w", err)
	}
	return l, nil
}

func (r *Runner) save(l *todo.List) error {
	if err := r.Store.Save(l); err != nil {
		return fmt.Errorf("save todos: %w", err)
	}
	return nil
}

func (r *Runner) Add(description string, priority int) error {
	l, err := r.load()
	if err != nil {
		return err
	}
	id, err := l.Add(description, priority)
	if err != nil {
		return err
	}
	if err := r.save(l); err != nil {
		return err
	}
	suffix := ""
	if priority > 0 {
		suffix = " with " + todo.PriorityName(priority) + " priority"
	}
	r.printf("Added todo #%d: %q%s\n", id, strings.TrimSpace(description), suffix)
	r.Logger.Info("added todo", "id", id)
	return nil
}

func (r *Runner) List(filter todo.Filter, detailed bool) error {
	l, err := r.load()
	if err != nil {
		return err
	}
	now := r.Now()
	view := todo.Visible(l, filter, now, r.Soon)
	if len(view) == 0 {
		r.printf("No todos found.\n")
		return nil
	}

	r.printf("\nTodo List (%s)\n%s\n", filter, rule)
	for _, e := range view {
		t := e.Task
		status := "[ ]"
		if t.Completed {
			status = "[x]"
		}
		extra := ""
		if t.Priority > 0 {
			extra += fmt.Sprintf(" (%s)", todo.PriorityName(t.Priority))
		}
		if label := t.DueLabel(now); label != "" {
			extra += " due " + label
			if t.IsOverdue(now) {
				extra += " (overdue)"
			}
		}
		r.printf("%s #%d %s%s\n", status, t.ID, t.Description, extra)
		if !detailed {
			continue
		}
		if t.Details != "" {
			r.printf("    %s\n", t.Details)
		}
		r.printf("    Created: %s (%s)\n", t.CreatedAt.Local().Format("2006-01-02 15:04"), humanize.RelTime(t.CreatedAt, now, "ago", "from now"))
		if t.CompletedAt != nil {
			r.printf("    Completed: %s (%s)\n", t.CompletedAt.Local().Format("2006-01-02 15:04"), humanize.RelTime(*t.CompletedAt, now, "ago", "from now"))
		}
	}
	total, done, pending := l.Counts()
	r.printf("%s\nTotal: %d | Completed: %d | Pending: %d\n", rule, total, done, pending)
	return nil
}

func (r *Runner) Complete(id int) error {
	l, err := r.load()
	if err != nil {
		return err
	}
	t := l.Find(id)
	if t == nil {
		return fmt.Errorf("todo #%d: %w", id, todo.ErrNotFound)
	}
	if t.Completed {
		r.printf("Todo #%d is already completed\n", id)
		return nil
	}
	l.Complete(id)
	if err := r.save(l); err != nil {
		return err
	}
	r.printf("Completed todo #%d: %q\n", id, t.Description)
	r.Logger.Info("completed todo", "id", id)
	return nil
}

func (r *Runner) Delete(id int, force bool) error {
	l, err := r.load()
	if err != nil {
		return err
	}
	t := l.Find(id)
	if t == nil {
		return fmt.Errorf("todo #%d: %w", id, todo.ErrNotFound)
	}
	desc := t.Description
	if !force {
		ok, err := r.Confirm(fmt.Sprintf("Delete todo #%d: %q?", id, desc))
		if err != nil {
			return err
		}
		if !ok {
			r.printf("Deletion cancelled.\n")
			return nil
		}
	}
	l.Remove(id)
	if err := r.save(l); err != nil {
		return err
	}
	r.printf("Deleted todo #%d: %q\n", id, desc)
	r.Logger.Info("deleted todo", "id", id)
	return nil
}

func (r *Runner) Clear(force bool) error {
	l, err := r.load()
	if err != nil {
		return err
	}
	_, done, _ := l.Counts()
	if done == 0 {
		r.printf("No completed todos to clear.\n")
		return nil
	}
	if !force {
		ok, err := r.Confirm(fmt.Sprintf("Clear %d completed todo(s)?", done))
		if err != nil {
			return err
		}
		if !ok {
			r.printf("Clear operation cancelled.\n")
			return nil
		}
	}
	n := l.RetainPending()
	if err := r.save(l); err != nil {
		return err
	}
	r.printf("Cleared %d completed todo(s)\n", n)
	r.Logger.Info("cleared completed todos", "count", n)
	return nil
}

func (r *Runner) Stats() error {
	l, err := r.load()
	if err != nil {
		return err
	}
	if len(l.Todos) == 0 {
		r.printf("No todos to analyze.\n")
		return nil
	}
	now := r.Now()
	total, done, pending := l.Counts()
	rate := float64(done) / float64(total) * 100

	var byPriority [todo.MaxPriority + 1]int
	overdue := 0
	var oldest *todo.Task
	for i := range l.Todos {
		t := &l.Todos[i]
		byPriority[t.Priority]++
		if t.IsOverdue(now) {
			overdue++
		}
		if !t.Completed && (oldest == nil || t.CreatedAt.Before(oldest.CreatedAt)) {
			oldest = t
		}
	}

	r.printf("\nTodo Statistics\n%s\n", rule)
	r.printf("Total todos:      %d\n", total)
	r.printf("Completed:        %d (%.1f%%)\n", done, rate)
	r.printf("Pending:          %d\n", pending)
	r.printf("Overdue:          %d\n", overdue)
	r.printf("\nPriority Breakdown:\n")
	if byPriority[0] > 0 {
		r.printf("  %-16s%d\n", "No priority:", byPriority[0])
	}
	for p := todo.MinPriority; p <= todo.MaxPriority; p++ {
		if byPriority[p] > 0 {
			r.printf("  %-16s%d\n", todo.PriorityName(p)+":", byPriority[p])
		}
	}
	if oldest != nil {
		r.printf("\nOldest pending todo:\n  #%d %s (created %s)\n",
			oldest.ID, oldest.Description, humanize.RelTime(oldest.CreatedAt, now, "ago", "from now"))
	}
	r.printf("%s\n", rule)
	return nil
}

// Export renders the list in format and writes it to path, or to Out when
// path is empty.
func (r *Runner) Export(format, path string) error {
	l, err := r.load()
	if err != nil {
		return err
	}
	var data []byte
	switch format {
	case FormatJSON, "":
		data, err = storage.Encode(l)
	case FormatMarkdown:
		data = []byte(markdown(l))
	case FormatCSV:
		data, err = csvExport(l)
	case FormatText:
		data = []byte(text(l))
	default:
		return fmt.Errorf("unknown export format %q (want one of %s)", format, strings.Join(ExportFormats, ", "))
	}
	if err != nil {
		return err
	}
	if path == "" {
		_, err := r.Out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	r.printf("Exported %d todo(s) to %s\n", len(l.Todos), path)
	return nil
}

func markdown(l *todo.List) string {
	var b strings.Builder
	b.WriteString("# Todo List\n\n")
	if len(l.Todos) == 0 {
		b.WriteString("No todos.\n")
		return b.String()
	}
	b.WriteString("## Pending\n\n")
	for _, t := range l.Todos {
		if t.Completed {
			continue
		}
		fmt.Fprintf(&b, "- [ ] [#%d] %s", t.ID, t.Description)
		if t.Priority > 0 {
			fmt.Fprintf(&b, " _%s_", todo.PriorityName(t.Priority))
		}
		if t.DueDate != nil {
			fmt.Fprintf(&b, " (due %s)", t.DueDate.Format("2006-01-02"))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n## Completed\n\n")
	for _, t := range l.Todos {
		if t.Completed {
			fmt.Fprintf(&b, "- [x] [#%d] %s\n", t.ID, t.Description)
		}
	}
	return b.String()
}

func csvExport(l *todo.List) ([]byte, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	rows := [][]string{{"ID", "Description", "Priority", "Completed", "Created", "Completed At", "Due"}}
	for _, t := range l.Todos {
		prio := ""
		if t.Priority > 0 {
			prio = strconv.Itoa(t.Priority)
		}
		rows = append(rows, []string{
			strconv.Itoa(t.ID),
			t.Description,
			prio,
			strconv.FormatBool(t.Completed),
			t.CreatedAt.Format("2006-01-02 15:04:05"),
			formatOptional(t.CompletedAt, "2006-01-02 15:04:05"),
			formatOptional(t.DueDate, "2006-01-02"),
		})
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return []byte(b.String()), nil
}

func formatOptional(t *time.Time, layout string) string {
	if t == nil {
		return ""
	}
	return t.Format(layout)
}

func text(l *todo.List) string {
	var b strings.Builder
	for _, t := range l.Todos {
		status := "[TODO]"
		if t.Completed {
			status = "[DONE]"
		}
		fmt.Fprintf(&b, "%s #%d: %s\n", status, t.ID, t.Description)
	}
	return b.String()
}

// Import reads a todo document from path. With merge the imported tasks
// are appended under fresh ids, otherwise they replace the stored list.
func (r *Runner) Import(path string, merge bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	imported, err := storage.Decode(data)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	if !merge {
		if err := r.save(imported); err != nil {
			return err
		}
		r.printf("Imported %d todo(s) (replaced existing)\n", len(imported.Todos))
		r.Logger.Warn("replaced existing todos with imported data", "path", path)
		return nil
	}
	l, err := r.load()
	if err != nil {
		return err
	}
	n := l.Merge(imported)
	if err := r.save(l); err != nil {
		return err
	}
	r.printf("Imported and merged %d todo(s)\n", n)
	r.Logger.Info("merged imported todos", "count", n, "path", path)
	return nil
}
