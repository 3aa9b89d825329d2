// Package ui holds the user-facing output surfaces: the HTML log region the
// web page renders, the terminal console used by the CLI, and the helpers that
// format sizes, rates and remaining time for both.
package ui

import (
	"html/template"
	"strings"
)

// Sink receives human-readable status output. Plain text passed to Log is
// escaped by the implementation; LogHTML is rendered as given and must only
// carry markup built from escaped parts.
type Sink interface {
	Log(msg string)
	LogHTML(html template.HTML)
	Warning(err error)
	Error(err error)
	// UpdateStatus replaces the status line of one transfer.
	UpdateStatus(key string, line template.HTML)
}

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"'", "&#39;",
	"<", "&lt;",
	">", "&gt;",
)

// Escape escapes every occurrence of the five HTML-significant characters.
func Escape(s string) string {
	return htmlReplacer.Replace(s)
}

// Multi fans every call out to all sinks.
type Multi []Sink

func (m Multi) Log(msg string) {
	for _, s := range m {
		s.Log(msg)
	}
}

func (m Multi) LogHTML(html template.HTML) {
	for _, s := range m {
		s.LogHTML(html)
	}
}

func (m Multi) Warning(err error) {
	for _, s := range m {
		s.Warning(err)
	}
}

func (m Multi) Error(err error) {
	for _, s := range m {
		s.Error(err)
	}
}

func (m Multi) UpdateStatus(key string, line template.HTML) {
	for _, s := range m {
		s.UpdateStatus(key, line)
	}
}
