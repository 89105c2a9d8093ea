// Package prompt resolves and renders the text templates sent to the
// generation service.
package prompt

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/template"

	"github.com/alexanderramin/pistemind/internal/domain"
)

//go:embed templates/*.tmpl
var embedded embed.FS

// Template names.
const (
	Scenario = "scenario"
	Choices  = "choices"
	Feedback = "feedback"
	Editor   = "editor"
)

var (
	ErrTemplateMissing = errors.New("template not found")
	ErrTemplateNotFile = errors.New("template is not a regular file")
	ErrTemplateEmpty   = errors.New("template source is empty")
	ErrRenderedEmpty   = errors.New("template rendered empty output")
)

// TemplateError ties a resolution or rendering failure to a template.
type TemplateError struct {
	Name string
	Err  error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("prompt template %q: %v", e.Name, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// Loader reads templates from an optional override directory first and
// falls back to the built-in set.
type Loader struct {
	layers []fs.FS
}

// NewLoader returns a loader over the built-in templates, overridden by
// files in dir when dir is non-empty.
func NewLoader(dir string) *Loader {
	builtin, _ := fs.Sub(embedded, "templates")
	if dir == "" {
		return &Loader{layers: []fs.FS{builtin}}
	}
	return &Loader{layers: []fs.FS{os.DirFS(dir), builtin}}
}

// NewLoaderFS builds a loader over explicit layers, searched in order.
func NewLoaderFS(layers ...fs.FS) *Loader {
	return &Loader{layers: layers}
}

func fileName(name string) string {
	if strings.HasSuffix(name, ".tmpl") {
		return name
	}
	return name + ".tmpl"
}

// Source returns the raw template text for name.
func (l *Loader) Source(name string) (string, error) {
	file := fileName(name)
	for _, layer := range l.layers {
		info, err := fs.Stat(layer, file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", &TemplateError{Name: name, Err: err}
		}
		if !info.Mode().IsRegular() {
			return "", &TemplateError{Name: name, Err: ErrTemplateNotFile}
		}
		data, err := fs.ReadFile(layer, file)
		if err != nil {
			return "", &TemplateError{Name: name, Err: err}
		}
		if strings.TrimSpace(string(data)) == "" {
			return "", &TemplateError{Name: name, Err: ErrTemplateEmpty}
		}
		return string(data), nil
	}
	return "", &TemplateError{Name: name, Err: ErrTemplateMissing}
}

var funcs = template.FuncMap{
	"letter": func(i int) string { return domain.Choice(i).Letter() },
}

// Render resolves name and executes it with vars. Unknown keys fail.
func (l *Loader) Render(name string, vars map[string]any) (string, error) {
	src, err := l.Source(name)
	if err != nil {
		return "", err
	}
	tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(src)
	if err != nil {
		return "", &TemplateError{Name: name, Err: fmt.Errorf("parsing: %w", err)}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", &TemplateError{Name: name, Err: fmt.Errorf("executing: %w", err)}
	}
	out := buf.String()
	if strings.TrimSpace(out) == "" {
		return "", &TemplateError{Name: name, Err: ErrRenderedEmpty}
	}
	return out, nil
}
