package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/licensedoc/internal/logbook"
)

// Summary describes a finished generation for the terminal.
type Summary struct {
	Document string
	Variant  string
	Path     string
	RunID    string
	Bytes    int
	Checksum string
	Steps    int
}

var (
	summaryBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	summaryKey = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Width(10)
	summaryVal = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
)

// RenderSummary renders a bordered key/value block.
func RenderSummary(s Summary) string {
	rows := [][2]string{
		{"document", s.Document},
		{"variant", s.Variant},
		{"path", s.Path},
		{"run", s.RunID},
		{"size", fmt.Sprintf("%d bytes", s.Bytes)},
	}
	if s.Checksum != "" {
		rows = append(rows, [2]string{"sha256", s.Checksum})
	}
	if s.Steps > 0 {
		rows = append(rows, [2]string{"steps", fmt.Sprintf("%d", s.Steps)})
	}
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, titleStyle.Render("Document generated"))
	for _, row := range rows {
		if strings.TrimSpace(row[1]) == "" {
			continue
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, summaryKey.Render(row[0]), summaryVal.Render(row[1])))
	}
	return summaryBox.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// RenderProblems lists template problems, or a success line when there are none.
func RenderProblems(title string, problems []string) string {
	if len(problems) == 0 {
		return doneStyle.Render("✓ ") + titleStyle.Render(title)
	}
	lines := []string{failStyle.Render("✗ ") + titleStyle.Render(title)}
	for _, p := range problems {
		lines = append(lines, "  "+failStyle.Render("•")+" "+stepStyle.Render(p))
	}
	return strings.Join(lines, "\n")
}

var levelStyles = map[logbook.Level]lipgloss.Style{
	logbook.LevelInfo:  stepStyle,
	logbook.LevelWarn:  spinnerStyle,
	logbook.LevelError: failStyle,
}

// RenderLog renders log entries with their level colored.
func RenderLog(entries []logbook.Entry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		level := levelStyles[e.Level].Render(fmt.Sprintf("%-5s", e.Level))
		lines = append(lines, fmt.Sprintf("%s %s %s", summaryKey.Render(e.Time.Local().Format("01-02 15:04:05")), level, e.Message))
	}
	return strings.Join(lines, "\n")
}
