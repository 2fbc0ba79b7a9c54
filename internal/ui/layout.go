package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Span is a run of text drawn with one style.
type Span struct {
	Text  string
	Style lipgloss.Style
}

func plain(text string) Span {
	return Span{Text: text, Style: lipgloss.NewStyle()}
}

type Line []Span

func (l Line) Plain() string {
	var b strings.Builder
	for _, s := range l {
		b.WriteString(s.Text)
	}
	return b.String()
}

func (l Line) render() string {
	var b strings.Builder
	for _, s := range l {
		b.WriteString(s.Style.Render(s.Text))
	}
	return b.String()
}

// Region is a bordered block of lines. Focus is the line index that must
// stay visible when the region is taller than the space it gets; -1 for none.
type Region struct {
	Title      Line
	Lines      []Line
	Focus      int
	Border     lipgloss.Border
	BorderFG   lipgloss.Color
	Background lipgloss.Color
	Centered   bool
	NoBorder   bool
}

func (r Region) Plain() string {
	out := make([]string, 0, len(r.Lines)+1)
	if len(r.Title) > 0 {
		out = append(out, r.Title.Plain())
	}
	for _, l := range r.Lines {
		out = append(out, l.Plain())
	}
	return strings.Join(out, "\n")
}

// Layout is the planned screen: four stacked regions and an optional help
// popup drawn in place of them.
type Layout struct {
	Title  Region
	List   Region
	Input  Region
	Status Region
	Help   *Region
}

// Plain returns the text of every region, top to bottom, without styling.
func (l Layout) Plain() string {
	parts := []string{l.Title.Plain(), l.List.Plain(), l.Input.Plain(), l.Status.Plain()}
	if l.Help != nil {
		parts = append(parts, l.Help.Plain())
	}
	return strings.Join(parts, "\n")
}

// Fixed heights, borders included.
const (
	titleHeight  = 3
	inputHeight  = 4
	statusHeight = 1
	listChrome   = 3
	minListRows  = 1
)

func (l Layout) Render(width, height int) string {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	if l.Help != nil {
		box := l.Help.render(min(width, max(40, width*65/100)), -1)
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
	}

	listRows := max(minListRows, height-titleHeight-inputHeight-statusHeight-listChrome)
	return lipgloss.JoinVertical(lipgloss.Left,
		l.Title.render(width, -1),
		l.List.render(width, listRows),
		l.Input.render(width, -1),
		l.Status.render(width, -1),
	)
}

// render draws r at width; rows limits the visible lines when positive.
// The title, if any, takes the first line inside the border.
func (r Region) render(width, rows int) string {
	lines := r.Lines
	if rows > 0 && len(lines) > rows {
		offset := 0
		if r.Focus >= rows {
			offset = r.Focus - rows + 1
		}
		lines = lines[offset:min(len(lines), offset+rows)]
	}
	body := make([]string, 0, len(lines)+1)
	head := 0
	if len(r.Title) > 0 {
		body = append(body, r.Title.render())
		head = 1
	}
	for _, ln := range lines {
		body = append(body, ln.render())
	}
	for rows > 0 && len(body) < rows+head {
		body = append(body, "")
	}

	style := lipgloss.NewStyle().Background(r.Background)
	if r.Centered {
		style = style.Align(lipgloss.Center)
	}
	if r.NoBorder {
		return style.Width(width).Render(strings.Join(body, "\n"))
	}
	style = style.Border(r.Border).BorderForeground(r.BorderFG).Width(max(1, width-2))
	return style.Render(strings.Join(body, "\n"))
}
