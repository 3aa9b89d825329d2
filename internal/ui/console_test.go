package ui

import (
	"bytes"
	"errors"
	"html/template"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPlainText(t *testing.T) {
	assert.Equal(t, `Peers: 3 Progress: 50.0% "x" & y`,
		PlainText(template.HTML(`<b>Peers:</b> 3 <b>Progress:</b> 50.0% &quot;x&quot; &amp; y`)))
}

func TestConsole_Logging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	console := NewConsole(zap.New(core), nil)

	console.Log("Seeding 2 files")
	console.LogHTML(`&nbsp;&nbsp;- <strong>a.txt</strong> (1.0 KB)`)
	console.Warning(errors.New("slow tracker"))
	console.Error(errors.New("no peers"))
	console.UpdateStatus("abc", "<b>Peers:</b> 0")

	entries := logs.AllUntimed()
	require.Len(t, entries, 5)
	assert.Equal(t, "Seeding 2 files", entries[0].Message)
	assert.Equal(t, "  - a.txt (1.0 KB)", entries[1].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[4].Level)
	assert.Equal(t, "Peers: 0", entries[4].ContextMap()["status"])
}

func TestConsole_InteractiveStatus(t *testing.T) {
	var buf bytes.Buffer
	console := NewConsole(zap.NewNop(), &buf)

	console.UpdateStatus("abc", "<b>Peers:</b> 1")
	console.UpdateStatus("abc", "<b>Peers:</b> 2")

	assert.Equal(t, "\r\033[KPeers: 1\r\033[KPeers: 2", buf.String())
}
