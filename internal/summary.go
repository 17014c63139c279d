package accountstats

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Panel is a bordered, titled block of terminal output.
//
//	panel := NewPanel("cpu used").SetContent(SummaryTable(payload))
//	fmt.Println(panel.Render())
type Panel struct {
	title       string
	content     string
	width       int
	borderStyle lipgloss.Style
	titleStyle  lipgloss.Style
}

// NewPanel creates a panel with default styling
func NewPanel(title string) Panel {
	return Panel{
		title: title,
		borderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")),
		titleStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true),
	}
}

// SetContent sets the panel content
func (p Panel) SetContent(content string) Panel {
	p.content = content
	return p
}

// SetWidth fixes the panel width, zero means fit the content
func (p Panel) SetWidth(width int) Panel {
	p.width = width
	return p
}

// Render draws the title above the content inside the border
func (p Panel) Render() string {
	var b strings.Builder
	if p.title != "" {
		b.WriteString(p.titleStyle.Render(p.title) + "\n")
	}
	b.WriteString(p.content)

	style := p.borderStyle
	if p.width > 0 {
		style = style.Width(p.width)
	}
	return style.Render(b.String())
}

// Stack renders panels one below the other
func Stack(panels ...Panel) string {
	if len(panels) == 0 {
		return ""
	}
	views := make([]string, len(panels))
	for i, panel := range panels {
		views[i] = panel.Render()
	}
	return lipgloss.JoinVertical(lipgloss.Left, views...)
}

// SummaryTable tabulates each line of the payload with its point count,
// last and peak value. An empty payload renders as a short notice.
func SummaryTable(p *ChartPayload) string {
	if p == nil || len(p.Lines) == 0 {
		return "no data"
	}

	rows := make([][]string, 0, len(p.Lines))
	for _, line := range p.Lines {
		last, hasLast := line.Last()
		peak, hasPeak := line.Peak()
		rows = append(rows, []string{
			line.Name,
			strconv.Itoa(len(line.Points)),
			formatValue(last, hasLast, p.Unit),
			formatValue(peak, hasPeak, p.Unit),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("SERIES", "POINTS", "LAST", "PEAK").
		Rows(rows...).
		String()
}

func formatValue(v float64, ok bool, unit string) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.2f%s", v, unit)
}
