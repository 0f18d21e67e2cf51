// Package logbook appends generation activity to a plain text log file.
package logbook

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// ParseLevel maps a level name, case-insensitively, to a Level.
func ParseLevel(name string) (Level, error) {
	level := Level(strings.ToUpper(strings.TrimSpace(name)))
	if level.rank() < 0 {
		return "", fmt.Errorf("logbook: unknown level %q", name)
	}
	return level, nil
}

func (lv Level) rank() int {
	switch lv {
	case LevelInfo:
		return 0
	case LevelWarn:
		return 1
	case LevelError:
		return 2
	}
	return -1
}

// Entry is one parsed log line.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
}

// String renders the entry in the on-disk line format.
func (e Entry) String() string {
	return fmt.Sprintf("%s %-5s %s", e.Time.UTC().Format(time.RFC3339), e.Level, strings.TrimSpace(e.Message))
}

// ParseEntry reads a line written by Append.
func ParseEntry(line string) (Entry, bool) {
	stamp, rest, ok := strings.Cut(line, " ")
	if !ok {
		return Entry{}, false
	}
	when, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return Entry{}, false
	}
	rest = strings.TrimLeft(rest, " ")
	name, message, _ := strings.Cut(rest, " ")
	level := Level(name)
	if level.rank() < 0 {
		return Entry{}, false
	}
	return Entry{Time: when, Level: level, Message: strings.TrimLeft(message, " ")}, true
}

// Logbook persists generation progress to a simple text file.
type Logbook struct {
	path   string
	mirror io.Writer
	clock  func() time.Time
	mu     sync.Mutex
}

// Option customises a Logbook.
type Option func(*Logbook)

// WithMirror copies every entry to w, for example os.Stderr when serving.
func WithMirror(w io.Writer) Option {
	return func(l *Logbook) {
		l.mirror = w
	}
}

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(l *Logbook) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// New creates a logbook that writes to the provided path.
func New(path string, opts ...Option) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	l := &Logbook{path: path, clock: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append writes a single entry to the logbook. Write failures are dropped:
// the log never fails a generation.
func (l *Logbook) Append(level Level, message string) {
	if l == nil {
		return
	}
	line := Entry{Time: l.clock(), Level: level, Message: message}.String() + "\n"
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mirror != nil {
		_, _ = io.WriteString(l.mirror, line)
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	_, _ = file.WriteString(line)
	_ = file.Close()
}

// Tail returns up to maxLines of the most recent lines along with the total
// number of lines in the file.
func (l *Logbook) Tail(maxLines int) ([]string, int) {
	if l == nil || maxLines <= 0 {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		return nil, 0
	}
	defer file.Close()

	ring := make([]string, maxLines)
	total := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		ring[total%maxLines] = scanner.Text()
		total++
	}
	if total == 0 {
		return nil, 0
	}
	if total <= maxLines {
		return ring[:total], total
	}
	head := total % maxLines
	return append(ring[head:], ring[:head]...), total
}

// Entries parses the last maxLines lines and keeps those at or above floor.
// Lines that do not parse are skipped.
func (l *Logbook) Entries(maxLines int, floor Level) []Entry {
	lines, _ := l.Tail(maxLines)
	var out []Entry
	for _, line := range lines {
		entry, ok := ParseEntry(line)
		if ok && entry.Level.rank() >= floor.rank() {
			out = append(out, entry)
		}
	}
	return out
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}

// Scoped prefixes every entry with a tag such as a run id.
type Scoped struct {
	book *Logbook
	tag  string
}

// Scope returns a logger that tags its entries with "[tag]".
func (l *Logbook) Scope(tag string) Scoped {
	return Scoped{book: l, tag: tag}
}

func (s Scoped) Info(format string, args ...any) {
	s.book.Append(LevelInfo, s.prefix(format, args))
}

func (s Scoped) Warn(format string, args ...any) {
	s.book.Append(LevelWarn, s.prefix(format, args))
}

func (s Scoped) Error(format string, args ...any) {
	s.book.Append(LevelError, s.prefix(format, args))
}

func (s Scoped) prefix(format string, args []any) string {
	return "[" + s.tag + "] " + fmt.Sprintf(format, args...)
}
