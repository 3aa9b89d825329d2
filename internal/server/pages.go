package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/instant-io/instant/internal/ui"
	"github.com/spf13/afero"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"go.abhg.dev/goldmark/frontmatter"
)

const DefaultTitle = "Instant.io"

//go:embed templates/*.html
var templateFS embed.FS

type pages struct {
	tmpl        *template.Template
	title       string
	description template.HTML
}

type indexData struct {
	Title       string
	Description template.HTML
	Refresh     int
	Lines       []ui.Line
	Statuses    []ui.Status
}

type errorData struct {
	Title      string
	Status     int
	StatusText string
	Message    string
}

// loadPages parses the page templates. descriptionPath, when set, names a
// markdown file on fs rendered above the forms; its front matter may carry a
// title.
func loadPages(fs afero.Fs, descriptionPath string) (*pages, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	p := &pages{tmpl: tmpl, title: DefaultTitle}
	if descriptionPath == "" {
		return p, nil
	}

	src, err := afero.ReadFile(fs, descriptionPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read description: %w", err)
	}

	title, html, err := renderMarkdown(src)
	if err != nil {
		return nil, fmt.Errorf("cannot render description %s: %w", descriptionPath, err)
	}
	if title != "" {
		p.title = title
	}
	p.description = html

	return p, nil
}

type descriptionMeta struct {
	Title string `yaml:"title"`
}

func renderMarkdown(src []byte) (string, template.HTML, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			&frontmatter.Extender{},
		),
	)

	var buf bytes.Buffer
	ctx := parser.NewContext()
	if err := md.Convert(src, &buf, parser.WithContext(ctx)); err != nil {
		return "", "", err
	}

	var meta descriptionMeta
	if fm := frontmatter.Get(ctx); fm != nil {
		if err := fm.Decode(&meta); err != nil {
			return "", "", fmt.Errorf("cannot decode front matter: %w", err)
		}
	}

	// Raw HTML in the markdown is omitted by goldmark's default renderer.
	return meta.Title, template.HTML(buf.String()), nil
}

func (p *pages) index(w http.ResponseWriter, log *ui.HTMLLog, refresh int) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return p.tmpl.ExecuteTemplate(w, "index.html", indexData{
		Title:       p.title,
		Description: p.description,
		Refresh:     refresh,
		Lines:       log.Lines(),
		Statuses:    log.Statuses(),
	})
}

func (p *pages) error(w http.ResponseWriter, status int, message string) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return p.tmpl.ExecuteTemplate(w, "error.html", errorData{
		Title:      p.title,
		Status:     status,
		StatusText: http.StatusText(status),
		Message:    message,
	})
}
