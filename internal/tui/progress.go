// internal/tui/progress.go
//
// Progress is a small bubbletea program shown while a document is generated.
// The generator reports each finished pipeline step; the view keeps a
// spinner running until the job returns.

package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrInterrupted is returned when the user quits before the job finishes.
var ErrInterrupted = errors.New("tui: interrupted")

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
)

// StepMsg reports a finished pipeline step.
type StepMsg struct {
	Name string
}

// DoneMsg reports the end of the job.
type DoneMsg struct {
	Err error
}

// Progress is the bubbletea model of the progress view.
type Progress struct {
	title   string
	spinner spinner.Model
	steps   []string
	done    bool
	err     error
}

// NewProgress builds the model with a title such as the document id.
func NewProgress(title string) Progress {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	return Progress{title: title, spinner: s}
}

func (m Progress) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StepMsg:
		m.steps = append(m.steps, msg.Name)
		return m, nil
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			m.done = true
			m.err = ErrInterrupted
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Progress) View() string {
	var b strings.Builder
	switch {
	case !m.done:
		fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), titleStyle.Render(m.title))
	case m.err != nil:
		fmt.Fprintf(&b, "%s %s\n", failStyle.Render("✗"), titleStyle.Render(m.title))
	default:
		fmt.Fprintf(&b, "%s %s\n", doneStyle.Render("✓"), titleStyle.Render(m.title))
	}
	for _, step := range m.steps {
		fmt.Fprintf(&b, "  %s %s\n", doneStyle.Render("•"), stepStyle.Render(step))
	}
	if m.err != nil {
		fmt.Fprintf(&b, "  %s\n", failStyle.Render(m.err.Error()))
	}
	return b.String()
}

// Steps returns the steps reported so far.
func (m Progress) Steps() []string {
	return append([]string(nil), m.steps...)
}

// Err returns the job error once the model is done.
func (m Progress) Err() error {
	return m.err
}

// Job runs the work shown by the view. It calls step after each finished
// pipeline step.
type Job func(step func(name string)) error

// Run shows the progress view on out until job returns.
func Run(ctx context.Context, title string, out io.Writer, job Job) ([]string, error) {
	program := tea.NewProgram(NewProgress(title),
		tea.WithContext(ctx),
		tea.WithOutput(out),
		tea.WithInput(nil),
	)
	go func() {
		err := job(func(name string) { program.Send(StepMsg{Name: name}) })
		program.Send(DoneMsg{Err: err})
	}()
	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("tui: progress: %w", err)
	}
	m, ok := final.(Progress)
	if !ok {
		return nil, fmt.Errorf("tui: unexpected model %T", final)
	}
	return m.Steps(), m.Err()
}
