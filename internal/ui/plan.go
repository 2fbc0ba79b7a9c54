package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"taskr/internal/todo"
)

// viewState is everything the planner reads. It holds no references back
// into the model so planning cannot mutate anything.
type viewState struct {
	Now    time.Time
	Soon   time.Duration
	Filter todo.Filter
	Rows   []todo.Entry
	// Selected is the highlighted row, -1 when the view is empty.
	Selected int

	Mode   mode
	Buffer string
	Cursor int

	Total   int
	Done    int
	Pending int
	Status  string

	ShowDetails bool
	ShowHelp    bool

	Spinner   string
	Progress  string
	ShortHelp string
	Sections  []helpSection

	Width int
}

func plan(v viewState, th Theme) Layout {
	l := Layout{
		Title:  planTitle(v, th),
		List:   planList(v, th),
		Input:  planInput(v, th),
		Status: planStatus(v, th),
	}
	if v.ShowHelp {
		help := planHelp(v, th)
		l.Help = &help
	}
	return l
}

func filterLabel(f todo.Filter, soon time.Duration) string {
	if f == todo.DueSoon {
		return fmt.Sprintf("%s (%s)", f, shortDuration(soon))
	}
	return f.String()
}

func shortDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d >= time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	default:
		return d.String()
	}
}

func planTitle(v viewState, th Theme) Region {
	line := Line{
		Span{Text: iconSparkle, Style: th.fg(th.Accent)},
		plain(" "),
		Span{Text: "Taskr", Style: th.title()},
		plain(" "),
		Span{Text: "│", Style: th.fg(th.BgHighlight)},
		plain(" Filter: "),
		Span{Text: filterLabel(v.Filter, v.Soon), Style: th.fg(th.PrimaryLight)},
	}
	return Region{
		Lines:      []Line{line},
		Focus:      -1,
		Border:     lipgloss.RoundedBorder(),
		BorderFG:   th.Primary,
		Background: th.BgSecondary,
		Centered:   true,
	}
}

func planList(v viewState, th Theme) Region {
	r := Region{
		Title: Line{
			Span{Text: iconLightning, Style: th.fg(th.Warning)},
			plain(" Tasks"),
		},
		Focus:      -1,
		Border:     lipgloss.RoundedBorder(),
		BorderFG:   th.border(v.Mode == modeBrowse),
		Background: th.BgPrimary,
	}
	if len(v.Rows) == 0 {
		msg := "No todos match this filter."
		if v.Filter == todo.All {
			msg = "No todos yet. Start composing one to get going."
		}
		r.Lines = []Line{{Span{Text: msg, Style: th.muted()}}}
		return r
	}

	inner := v.Width - 4
	for i, e := range v.Rows {
		selected := i == v.Selected
		if selected {
			r.Focus = len(r.Lines)
		}
		row := planRow(e.Task, v, th, inner)
		if selected {
			row = highlight(row, th)
		}
		r.Lines = append(r.Lines, row)
		if v.ShowDetails && e.Task.Details != "" {
			r.Lines = append(r.Lines, Line{
				plain("      "),
				Span{Text: clip(e.Task.Details, inner-6), Style: th.fg(th.TextSecondary).Italic(true)},
			})
		}
	}
	return r
}

func planRow(t *todo.Task, v viewState, th Theme, width int) Line {
	box, boxStyle := iconCheckboxEmpty, th.fg(th.TextMuted)
	descStyle := th.fg(th.TextPrimary)
	if t.Completed {
		box, boxStyle = iconCheckboxChecked, th.fg(th.Success)
		descStyle = th.completed()
	}

	head := Line{
		plain("  "),
		Span{Text: box, Style: boxStyle},
		plain(" "),
		Span{Text: fmt.Sprintf("#%d", t.ID), Style: th.muted()},
		plain(" "),
	}
	var tail Line
	if t.Priority > 0 {
		tail = append(tail,
			plain(" "),
			Span{Text: iconSquare, Style: th.fg(th.PriorityColor(t.Priority)).Bold(true)},
			Span{Text: fmt.Sprintf("[%d]", t.Priority), Style: th.muted()},
		)
	}
	if label := t.DueLabel(v.Now); label != "" {
		c := th.TextMuted
		switch {
		case t.IsOverdue(v.Now):
			c = th.Error
		case t.IsDueSoon(v.Now, v.Soon):
			c = th.Warning
		}
		tail = append(tail,
			plain(" "),
			Span{Text: iconClock, Style: th.fg(c)},
			plain(" "),
			Span{Text: label, Style: th.fg(c)},
		)
	}

	room := width - lipgloss.Width(head.Plain()) - lipgloss.Width(tail.Plain())
	row := append(head, Span{Text: clip(t.Description, room), Style: descStyle})
	return append(row, tail...)
}

// highlight marks the selected row with the arrow and the highlight
// background.
func highlight(row Line, th Theme) Line {
	out := make(Line, 0, len(row))
	for i, s := range row {
		if i == 0 {
			s = Span{Text: iconArrowRight + " ", Style: th.fg(th.Accent)}
		}
		s.Style = s.Style.Background(th.BgHighlight).Bold(true)
		out = append(out, s)
	}
	return out
}

// clip truncates s to width cells. A non-positive width leaves s alone;
// the renderer then wraps instead.
func clip(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return truncate.StringWithTail(s, uint(width), "…")
}

func (m mode) inputLabel() (icon, label string) {
	switch m {
	case modeCompose:
		return iconRocket, "Adding Todo (use :1-5 for priority | Esc to cancel)"
	case modeEditTitle:
		return iconDiamond, "Editing Todo Title (Esc to cancel)"
	case modeEditDetails:
		return iconBullet, "Editing Todo Details (empty clears | Esc to cancel)"
	case modeEditDue:
		return iconClock, "Set Due Date: today, tomorrow, YYYY-MM-DD or empty to clear (Esc to cancel)"
	case modePriority:
		return iconStar, "Set Priority: 1-5, or 0 to clear (Esc to cancel)"
	default:
		return iconBullet, "Commands"
	}
}

func planInput(v viewState, th Theme) Region {
	icon, label := v.Mode.inputLabel()
	active := v.Mode != modeBrowse
	r := Region{
		Title: Line{
			Span{Text: icon, Style: th.fg(th.Primary)},
			plain(" "),
			Span{Text: label, Style: th.fg(th.TextSecondary)},
		},
		Focus:      -1,
		Border:     lipgloss.RoundedBorder(),
		BorderFG:   th.border(active),
		Background: th.BgSecondary,
	}
	switch {
	case v.Mode.editsText():
		r.Lines = []Line{bufferLine(v.Buffer, v.Cursor, th)}
	case v.Mode == modePriority:
		r.Lines = []Line{{Span{Text: "press a digit", Style: th.muted()}}}
	default:
		r.Lines = []Line{{Span{Text: v.ShortHelp, Style: th.fg(th.TextSecondary)}}}
	}
	return r
}

// bufferLine draws the buffer with the cell under the cursor reversed.
func bufferLine(buf string, cursor int, th Theme) Line {
	runes := []rune(buf)
	cursor = max(0, min(cursor, len(runes)))
	style := th.fg(th.Accent)
	under := " "
	after := ""
	if cursor < len(runes) {
		under = string(runes[cursor])
		after = string(runes[cursor+1:])
	}
	return Line{
		Span{Text: string(runes[:cursor]), Style: style},
		Span{Text: under, Style: style.Reverse(true)},
		Span{Text: after, Style: style},
	}
}

func (m mode) statusIcon() string {
	switch m {
	case modeCompose:
		return iconRocket
	case modeEditTitle:
		return iconDiamond
	case modeEditDetails:
		return iconBullet
	case modeEditDue:
		return iconClock
	case modePriority:
		return iconStar
	default:
		return iconCircle
	}
}

func planStatus(v viewState, th Theme) Region {
	sep := Span{Text: separator, Style: th.fg(th.BgHighlight)}
	icon := v.Mode.statusIcon()
	if v.Mode.editsText() && v.Spinner != "" {
		icon = v.Spinner
	}
	line := Line{
		plain(" "),
		Span{Text: icon, Style: th.fg(th.Accent)},
		plain(" "),
		Span{Text: v.Mode.String(), Style: th.title()},
		sep,
		Span{Text: iconCheckboxEmpty, Style: th.fg(th.TextMuted)},
		Span{Text: fmt.Sprintf(" %d Total", v.Total), Style: th.fg(th.TextSecondary)},
		sep,
		Span{Text: iconCheckboxChecked, Style: th.fg(th.Success)},
		Span{Text: fmt.Sprintf(" %d Done", v.Done), Style: th.fg(th.Success)},
		sep,
		Span{Text: iconCircle, Style: th.fg(th.Warning)},
		Span{Text: fmt.Sprintf(" %d Pending", v.Pending), Style: th.fg(th.Warning)},
	}
	if v.Progress != "" {
		line = append(line, sep, plain(v.Progress))
	}
	if v.Status != "" {
		line = append(line, sep,
			Span{Text: iconSparkle, Style: th.fg(th.Info)},
			plain(" "),
			Span{Text: v.Status, Style: th.fg(th.Info)},
		)
	}
	return Region{
		Lines:      []Line{line},
		Focus:      -1,
		Background: th.BgSecondary,
		NoBorder:   true,
	}
}

func planHelp(v viewState, th Theme) Region {
	lines := []Line{
		{
			Span{Text: iconSparkle, Style: th.fg(th.Accent)},
			plain(" "),
			Span{Text: "Keyboard Shortcuts", Style: th.title()},
			plain(" "),
			Span{Text: iconSparkle, Style: th.fg(th.Accent)},
		},
	}
	keyWidth := 0
	for _, s := range v.Sections {
		for _, b := range s.bindings {
			keyWidth = max(keyWidth, lipgloss.Width(b.Help().Key))
		}
	}
	for _, s := range v.Sections {
		lines = append(lines, Line{}, Line{
			Span{Text: iconArrowRight, Style: th.fg(th.Primary)},
			plain(" "),
			Span{Text: s.title, Style: th.fg(th.PrimaryLight).Bold(true)},
		})
		for _, b := range s.bindings {
			h := b.Help()
			pad := strings.Repeat(" ", keyWidth-lipgloss.Width(h.Key)+2)
			lines = append(lines, Line{
				plain("    "),
				Span{Text: h.Key, Style: th.fg(th.Accent)},
				plain(pad + h.Desc),
			})
		}
	}
	lines = append(lines, Line{}, Line{Span{Text: "Press help or Esc to close", Style: th.muted()}})
	return Region{
		Lines:      lines,
		Focus:      -1,
		Border:     lipgloss.DoubleBorder(),
		BorderFG:   th.Primary,
		Background: th.BgSecondary,
	}
}
