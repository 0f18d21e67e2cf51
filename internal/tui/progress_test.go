package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/licensedoc/internal/logbook"
)

func update(t *testing.T, m Progress, msg tea.Msg) (Progress, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	p, ok := next.(Progress)
	if !ok {
		t.Fatalf("unexpected model %T", next)
	}
	return p, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestProgressRecordsStepsAndQuits(t *testing.T) {
	m := NewProgress("lattice-1.0-report")
	if m.Init() == nil {
		t.Fatalf("expected spinner tick on init")
	}
	m, _ = update(t, m, StepMsg{Name: "replace tokens"})
	m, _ = update(t, m, StepMsg{Name: "attendees"})
	if view := m.View(); !strings.Contains(view, "replace tokens") || !strings.Contains(view, "lattice-1.0-report") {
		t.Fatalf("view = %q", view)
	}

	m, cmd := update(t, m, DoneMsg{})
	if !isQuit(cmd) {
		t.Fatalf("expected quit after done")
	}
	if m.Err() != nil || len(m.Steps()) != 2 {
		t.Fatalf("steps = %v, err = %v", m.Steps(), m.Err())
	}
	if !strings.Contains(m.View(), "✓") {
		t.Fatalf("done view = %q", m.View())
	}
}

func TestProgressShowsFailure(t *testing.T) {
	m := NewProgress("doc")
	m, _ = update(t, m, DoneMsg{Err: errors.New("corrupt template")})
	if !strings.Contains(m.View(), "corrupt template") {
		t.Fatalf("view = %q", m.View())
	}
}

func TestProgressInterrupt(t *testing.T) {
	m := NewProgress("doc")
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if !isQuit(cmd) || !errors.Is(m.Err(), ErrInterrupted) {
		t.Fatalf("interrupt not handled: %v", m.Err())
	}
}

func TestRenderSummarySkipsEmptyRows(t *testing.T) {
	out := RenderSummary(Summary{Document: "lattice-1.0-report", Variant: "report", Bytes: 42})
	if !strings.Contains(out, "lattice-1.0-report") || !strings.Contains(out, "42 bytes") {
		t.Fatalf("summary = %q", out)
	}
	if strings.Contains(out, "sha256") {
		t.Fatalf("empty checksum rendered")
	}
}

func TestRenderProblems(t *testing.T) {
	if out := RenderProblems("report template", nil); !strings.Contains(out, "✓") {
		t.Fatalf("ok output = %q", out)
	}
	out := RenderProblems("report template", []string{"missing token $bunit"})
	if !strings.Contains(out, "$bunit") {
		t.Fatalf("problems output = %q", out)
	}
}

func TestRenderLog(t *testing.T) {
	out := RenderLog([]logbook.Entry{
		{Time: time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC), Level: logbook.LevelWarn, Message: "user lookup failed"},
	})
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "user lookup failed") {
		t.Fatalf("log output = %q", out)
	}
	if RenderLog(nil) != "" {
		t.Fatalf("empty log rendered")
	}
}
