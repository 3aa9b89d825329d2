package ui

import (
	"fmt"
	"html"
	"html/template"
	"io"
	"regexp"
	"sync"

	"go.uber.org/zap"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// PlainText strips markup from an HTML fragment for terminal output.
func PlainText(fragment template.HTML) string {
	return html.UnescapeString(tagPattern.ReplaceAllString(string(fragment), ""))
}

// Console writes log lines through zap. When status is non-nil (an
// interactive terminal) status lines are redrawn in place on it; otherwise
// they are logged at debug level.
type Console struct {
	logger *zap.Logger

	mu     sync.Mutex
	status io.Writer
}

func NewConsole(logger *zap.Logger, status io.Writer) *Console {
	return &Console{logger: logger, status: status}
}

func (c *Console) Log(msg string) {
	c.logger.Info(msg)
}

func (c *Console) LogHTML(fragment template.HTML) {
	c.logger.Info(PlainText(fragment))
}

func (c *Console) Warning(err error) {
	c.logger.Warn("transfer warning", zap.Error(err))
}

func (c *Console) Error(err error) {
	c.logger.Error("transfer error", zap.Error(err))
}

func (c *Console) UpdateStatus(key string, line template.HTML) {
	text := PlainText(line)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == nil {
		c.logger.Debug("status", zap.String("transfer", key), zap.String("status", text))
		return
	}
	fmt.Fprintf(c.status, "\r\033[K%s", text)
}
