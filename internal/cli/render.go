package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/stashtrack/internal/model"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorBlue      = lipgloss.Color("#4385BE")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	massStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	rateStyle = lipgloss.NewStyle().
			Foreground(ColorBlue)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	badStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
}

// Separator is a row value that renders as a horizontal rule.
var Separator = []string{"---"}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// RenderTable renders a bordered table with headers and rows. The first
// column is left-aligned; the rest hold figures and are right-aligned.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	numCols := len(t.Headers)
	if numCols == 0 {
		numCols = len(t.Rows[0])
	}
	widths := columnWidths(t, numCols)

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	b.WriteString(rule(widths, "╭", "┬", "╮"))
	if len(t.Headers) > 0 {
		b.WriteString(line(widths, t.Headers, func(int) lipgloss.Style { return headerStyle }, false))
		b.WriteString(rule(widths, "├", "┼", "┤"))
	}
	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == Separator[0] {
			b.WriteString(rule(widths, "├", "┼", "┤"))
			continue
		}
		b.WriteString(line(widths, row, func(int) lipgloss.Style { return valueStyle }, true))
	}
	b.WriteString(rule(widths, "╰", "┴", "╯"))

	return b.String()
}

func columnWidths(t Table, numCols int) []int {
	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
		return widths
	}
	for i, h := range t.Headers {
		widths[i] = max(widths[i], lipgloss.Width(h))
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < numCols {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	return widths
}

func rule(widths []int, left, mid, right string) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("─", w+2)
	}
	return dimStyle.Render(left+strings.Join(parts, mid)+right) + "\n"
}

func line(widths []int, cells []string, style func(int) lipgloss.Style, alignRight bool) string {
	var b strings.Builder
	b.WriteString(dimStyle.Render("│"))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		pad := strings.Repeat(" ", max(0, w-lipgloss.Width(cell)))
		padded := " " + cell + pad + " "
		if alignRight && i > 0 {
			padded = " " + pad + cell + " "
		}
		b.WriteString(style(i).Render(padded))
		b.WriteString(dimStyle.Render("│"))
	}
	b.WriteString("\n")
	return b.String()
}

// RenderRemainingBar renders how much of a substance is left as a bar.
// Over-consumption renders an empty bar.
func RenderRemainingBar(remaining, total float64, width int) string {
	if total <= 0 {
		return ""
	}

	pct := remaining / total
	pct = min(1, max(0, pct))
	filled := int(pct * float64(width))

	style := massStyle
	switch {
	case pct < 0.1:
		style = badStyle
	case pct < 0.25:
		style = warnStyle
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %s", style.Render(bar), FormatPercent(pct))
}

// RenderSparkline generates a unicode block sparkline from a series of values.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	peak := values[0]
	for _, v := range values[1:] {
		peak = max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		idx = min(len(blocks)-1, max(0, idx))
		b.WriteRune(blocks[idx])
	}

	return b.String()
}

// RenderDistribution renders one labelled bar per mass slice, scaled to the
// largest slice.
func RenderDistribution(slices []model.MassSlice, maxWidth int) string {
	labelWidth, peak := 0, 0.0
	for _, s := range slices {
		labelWidth = max(labelWidth, lipgloss.Width(s.Name))
		peak = max(peak, s.Value)
	}

	var b strings.Builder
	for _, s := range slices {
		barLen := 0
		if peak > 0 {
			barLen = int(s.Value / peak * float64(maxWidth))
		}
		style := massStyle
		if s.Name == model.RemainingSlice {
			style = mutedStyle
		}
		fmt.Fprintf(&b, "  %-*s %s %s\n", labelWidth, s.Name,
			style.Render(strings.Repeat("█", barLen)), FormatMass(s.Value))
	}
	return b.String()
}

// RenderChange colors a percentage change: increases in usage warn,
// decreases are good.
func RenderChange(pct float64) string {
	switch {
	case pct > 0:
		return warnStyle.Render(FormatChange(pct))
	case pct < 0:
		return massStyle.Render(FormatChange(pct))
	default:
		return mutedStyle.Render(FormatChange(pct))
	}
}

// RenderRate styles a per-day rate.
func RenderRate(perDay float64) string {
	return rateStyle.Render(FormatRate(perDay))
}

// Muted renders secondary text.
func Muted(s string) string {
	return mutedStyle.Render(s)
}
