// Package view renders the HTML pages and fragments of the contact UI.
package view

import (
	"bytes"
	"embed"
	"html/template"
	"io"
)

//go:embed all:templates
var templateFS embed.FS

// Template names.
const (
	ContactList   = "contacts/list.html"
	ContactRows   = "contacts/_rows.html"
	ContactDetail = "contacts/detail.html"
	ContactCreate = "contacts/create.html"
	ContactEdit   = "contacts/edit.html"
)

// Data is the set of named values a template is rendered with.
type Data map[string]any

// Renderer renders a named template.
type Renderer interface {
	Render(w io.Writer, name string, data Data) error
}

// TemplateError is returned when a template is missing or fails to execute.
type TemplateError struct {
	Name string
	Err  error
}

func (e *TemplateError) Error() string {
	return "template " + e.Name + ": " + e.Err.Error()
}

func (e *TemplateError) Unwrap() error { return e.Err }

// TemplateRenderer renders the embedded templates. The set is parsed once
// and is safe for concurrent use.
type TemplateRenderer struct {
	set *template.Template
}

var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
}

// NewTemplateRenderer parses every embedded template.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	set, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html", "templates/contacts/*.html")
	if err != nil {
		return nil, &TemplateError{Name: "*", Err: err}
	}
	return &TemplateRenderer{set: set}, nil
}

// Render executes the template into a buffer first so a failure never
// leaves a half-written response.
func (r *TemplateRenderer) Render(w io.Writer, name string, data Data) error {
	var buf bytes.Buffer
	if err := r.set.ExecuteTemplate(&buf, name, data); err != nil {
		return &TemplateError{Name: name, Err: err}
	}
	if _, err := buf.WriteTo(w); err != nil {
		return &TemplateError{Name: name, Err: err}
	}
	return nil
}
