package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the palette the planner draws with.
type Theme struct {
	Name string

	Primary      lipgloss.Color
	PrimaryLight lipgloss.Color
	Accent       lipgloss.Color

	BgPrimary   lipgloss.Color
	BgSecondary lipgloss.Color
	BgHighlight lipgloss.Color

	TextPrimary   lipgloss.Color
	TextSecondary lipgloss.Color
	TextMuted     lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// Priority colors indexed by level 1..5.
	Priority [5]lipgloss.Color
}

const (
	iconCheckboxEmpty   = "□"
	iconCheckboxChecked = "▣"
	iconStar            = "★"
	iconArrowRight      = "❯"
	iconBullet          = "•"
	iconSparkle         = "◆"
	iconRocket          = "▶"
	iconLightning       = "⚡"
	iconDiamond         = "◇"
	iconCircle          = "●"
	iconSquare          = "■"
	iconClock           = "⏰"
	separator           = " │ "
)

func ModernDark() Theme {
	return Theme{
		Name:          "modern_dark",
		Primary:       "#9333EA",
		PrimaryLight:  "#C4B5FD",
		Accent:        "#22D3EE",
		BgPrimary:     "#111827",
		BgSecondary:   "#1F2937",
		BgHighlight:   "#374151",
		TextPrimary:   "#F3F4F6",
		TextSecondary: "#D1D5DB",
		TextMuted:     "#6B7280",
		Success:       "#22C55E",
		Warning:       "#FBBF24",
		Error:         "#EF4444",
		Info:          "#3B82F6",
		Priority:      [5]lipgloss.Color{"#3B82F6", "#22C55E", "#FACC15", "#FB923C", "#EF4444"},
	}
}

func SoftPastel() Theme {
	return Theme{
		Name:          "soft_pastel",
		Primary:       "#EC4899",
		PrimaryLight:  "#FBCFE8",
		Accent:        "#93C5FD",
		BgPrimary:     "#F9FAFB",
		BgSecondary:   "#F3F4F6",
		BgHighlight:   "#E5E7EB",
		TextPrimary:   "#111827",
		TextSecondary: "#374151",
		TextMuted:     "#6B7280",
		Success:       "#86EFAC",
		Warning:       "#FDE047",
		Error:         "#FCA5A5",
		Info:          "#A5B4FC",
		Priority:      [5]lipgloss.Color{"#BFDBFE", "#A7F3D0", "#FDE68A", "#FED7AA", "#FECACA"},
	}
}

func Cyberpunk() Theme {
	return Theme{
		Name:          "cyberpunk",
		Primary:       "#FF00FF",
		PrimaryLight:  "#FFB6FF",
		Accent:        "#00FFFF",
		BgPrimary:     "#0D0221",
		BgSecondary:   "#190733",
		BgHighlight:   "#310A65",
		TextPrimary:   "#FFFFFF",
		TextSecondary: "#00FFFF",
		TextMuted:     "#9333EA",
		Success:       "#39FF14",
		Warning:       "#FFFF00",
		Error:         "#FF0000",
		Info:          "#0095FF",
		Priority:      [5]lipgloss.Color{"#00FFFF", "#00FF7F", "#FFFF00", "#FF7F00", "#FF007F"},
	}
}

func ThemeByName(name string) (Theme, error) {
	switch name {
	case "", "modern_dark":
		return ModernDark(), nil
	case "soft_pastel":
		return SoftPastel(), nil
	case "cyberpunk":
		return Cyberpunk(), nil
	default:
		return Theme{}, fmt.Errorf("unknown theme %q", name)
	}
}

func (t Theme) PriorityColor(p int) lipgloss.Color {
	if p < 1 || p > len(t.Priority) {
		return t.TextMuted
	}
	return t.Priority[p-1]
}

func (t Theme) fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func (t Theme) title() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.PrimaryLight).Bold(true)
}

func (t Theme) muted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.TextMuted).Faint(true)
}

func (t Theme) completed() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.TextMuted).Strikethrough(true).Faint(true)
}

func (t Theme) border(focused bool) lipgloss.Color {
	if focused {
		return t.Accent
	}
	return t.BgHighlight
}
