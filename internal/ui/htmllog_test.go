package ui

import (
	"errors"
	"fmt"
	"html/template"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscape(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;Tom &amp; &quot;Jerry&quot;&#39;s&lt;/b&gt; &lt;i&gt;", Escape(`<b>Tom & "Jerry"'s</b> <i>`))
	assert.Equal(t, "plain", Escape("plain"))
}

func TestHTMLLog_Levels(t *testing.T) {
	log := NewHTMLLog(0)
	assert.True(t, log.Empty())

	log.Log("Seeding <2> files")
	log.LogHTML(template.HTML(`<a href="/#abc">[Share link]</a>`))
	log.Warning(errors.New("tracker <slow>"))
	log.Error(errors.New("boom & bust"))

	lines := log.Lines()
	require.Len(t, lines, 4)
	assert.False(t, log.Empty())

	assert.Equal(t, LevelInfo, lines[0].Level)
	assert.Equal(t, template.HTML("Seeding &lt;2&gt; files"), lines[0].HTML)

	assert.Equal(t, template.HTML(`<a href="/#abc">[Share link]</a>`), lines[1].HTML)

	assert.Equal(t, LevelWarning, lines[2].Level)
	assert.Equal(t, template.HTML("tracker &lt;slow&gt;"), lines[2].HTML)
	assert.Empty(t, lines[2].Style(), "warnings are plain")

	assert.Equal(t, LevelError, lines[3].Level)
	assert.Equal(t, template.HTML("boom &amp; bust"), lines[3].HTML)
	assert.Equal(t, template.CSS("color: red; font-weight: bold"), lines[3].Style())
}

func TestHTMLLog_MaxLines(t *testing.T) {
	log := NewHTMLLog(3)
	for i := range 5 {
		log.Log(fmt.Sprintf("line %d", i))
	}

	lines := log.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, template.HTML("line 2"), lines[0].HTML)
	assert.Equal(t, template.HTML("line 4"), lines[2].HTML)
}

func TestHTMLLog_Statuses(t *testing.T) {
	log := NewHTMLLog(0)
	log.UpdateStatus("b", "<b>Peers:</b> 1")
	log.UpdateStatus("a", "<b>Peers:</b> 2")
	log.UpdateStatus("b", "<b>Peers:</b> 3")

	assert.Equal(t, []Status{
		{Key: "b", HTML: "<b>Peers:</b> 3"},
		{Key: "a", HTML: "<b>Peers:</b> 2"},
	}, log.Statuses())

	line, ok := log.Status("a")
	assert.True(t, ok)
	assert.Equal(t, template.HTML("<b>Peers:</b> 2"), line)

	_, ok = log.Status("missing")
	assert.False(t, ok)
}

func TestHTMLLog_ConcurrentWrites(t *testing.T) {
	log := NewHTMLLog(0)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Log(fmt.Sprintf("line %d", i))
			log.UpdateStatus(fmt.Sprintf("t%d", i%4), "status")
		}()
	}
	wg.Wait()

	assert.Len(t, log.Lines(), 20)
	assert.Len(t, log.Statuses(), 4)
}

func TestMulti(t *testing.T) {
	first, second := NewHTMLLog(0), NewHTMLLog(0)
	sink := Multi{first, second}

	sink.Log("hello")
	sink.Error(errors.New("bad"))
	sink.UpdateStatus("k", "s")

	for _, log := range []*HTMLLog{first, second} {
		assert.Len(t, log.Lines(), 2)
		assert.Len(t, log.Statuses(), 1)
	}
}
