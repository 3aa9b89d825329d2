package ui

import (
	"html/template"
	"slices"
	"sync"
	"time"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Line is one rendered entry of the log region.
type Line struct {
	Time  time.Time     `json:"time"`
	Level Level         `json:"level"`
	HTML  template.HTML `json:"html"`
}

// Style returns the inline style the page applies to the line.
func (l Line) Style() template.CSS {
	if l.Level == LevelError {
		return "color: red; font-weight: bold"
	}
	return ""
}

// Status is the latest status line of one transfer.
type Status struct {
	Key  string        `json:"key"`
	HTML template.HTML `json:"html"`
}

// HTMLLog is the log region of the web page. It is safe for concurrent use.
type HTMLLog struct {
	mu       sync.RWMutex
	lines    []Line
	statuses map[string]template.HTML
	order    []string
	max      int
	now      func() time.Time
}

// NewHTMLLog keeps at most max lines, dropping the oldest first. max <= 0
// keeps everything.
func NewHTMLLog(max int) *HTMLLog {
	return &HTMLLog{
		statuses: make(map[string]template.HTML),
		max:      max,
		now:      time.Now,
	}
}

func (l *HTMLLog) Log(msg string) {
	l.append(LevelInfo, template.HTML(Escape(msg)))
}

func (l *HTMLLog) LogHTML(html template.HTML) {
	l.append(LevelInfo, html)
}

func (l *HTMLLog) Warning(err error) {
	l.append(LevelWarning, template.HTML(Escape(err.Error())))
}

func (l *HTMLLog) Error(err error) {
	l.append(LevelError, template.HTML(Escape(err.Error())))
}

func (l *HTMLLog) UpdateStatus(key string, line template.HTML) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.statuses[key]; !ok {
		l.order = append(l.order, key)
	}
	l.statuses[key] = line
}

func (l *HTMLLog) append(level Level, html template.HTML) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lines = append(l.lines, Line{Time: l.now(), Level: level, HTML: html})
	if l.max > 0 && len(l.lines) > l.max {
		l.lines = slices.Delete(l.lines, 0, len(l.lines)-l.max)
	}
}

// Lines returns a copy of the log.
func (l *HTMLLog) Lines() []Line {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.lines)
}

// Statuses returns the status lines in the order their transfers first
// reported.
func (l *HTMLLog) Statuses() []Status {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Status, 0, len(l.order))
	for _, key := range l.order {
		out = append(out, Status{Key: key, HTML: l.statuses[key]})
	}
	return out
}

// Status returns the status line for key.
func (l *HTMLLog) Status(key string) (template.HTML, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	line, ok := l.statuses[key]
	return line, ok
}

// Empty reports whether nothing has been logged yet; the page hides the log
// heading until then.
func (l *HTMLLog) Empty() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.lines) == 0
}
