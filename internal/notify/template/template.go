// Copyright (c) 2025 Jordan Hartwell

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER
// DEALINGS IN THE SOFTWARE.

// Package template renders notification emails. Built-in templates cover
// the confirmation and update notifications; a template directory can
// override them per deployment.
package template

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/spf13/afero"
)

// Built-in bodies, overridable via a template directory containing
// <name>.html files.
var defaults = map[string]string{
	"confirmation": `<p>Hi {{.name}},</p>
<p>Your RSVP for {{.event_name}} is in. Your party of {{.party_size}} is marked as <strong>{{.status}}</strong>.</p>
{{if .confirmation}}<p>Your confirmation code is <code>{{.confirmation}}</code>.</p>{{end}}
<p>See you there!</p>`,
	"update": `<p>Hi {{.name}},</p>
<p>Your RSVP for {{.event_name}} has changed to <strong>{{.status}}</strong>{{if .party_size}} for a party of {{.party_size}}{{end}}.</p>
{{if .confirmation}}<p>Your confirmation code is still <code>{{.confirmation}}</code>.</p>{{end}}`,
}

// subjects are the subject lines per template.
var subjects = map[string]string{
	"confirmation": "RSVP received for %s",
	"update":       "Your RSVP for %s has changed",
}

// Renderer renders notification templates.
type Renderer struct {
	templates map[string]*template.Template
	eventName string
}

// NewRenderer loads templates, preferring <dir>/<name>.html on the given
// filesystem over the built-ins. An empty dir uses the built-ins only.
func NewRenderer(
	appFs afero.Fs,
	dir string,
	eventName string,
) (*Renderer, error) {
	templates := make(map[string]*template.Template, len(defaults))

	for name, body := range defaults {
		if dir != "" {
			path := filepath.Join(dir, name+".html")
			if ok, _ := afero.Exists(appFs, path); ok {
				data, err := afero.ReadFile(appFs, path)
				if err != nil {
					return nil, fmt.Errorf("read template %q: %w", path, err)
				}
				body = string(data)
			}
		}

		tmpl, err := template.New(name).Parse(body)
		if err != nil {
			return nil, fmt.Errorf("parse template %q: %w", name, err)
		}

		templates[name] = tmpl
	}

	return &Renderer{
		templates: templates,
		eventName: eventName,
	}, nil
}

// Render produces the HTML body for a template and context.
func (r *Renderer) Render(
	name string,
	ctx map[string]string,
) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown template %q", name)
	}

	data := map[string]string{"event_name": r.eventName}
	for k, v := range ctx {
		data[k] = v
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %q: %w", name, err)
	}

	return buf.String(), nil
}

// Subject produces the subject line for a template.
func (r *Renderer) Subject(
	name string,
) string {
	format, ok := subjects[name]
	if !ok {
		return r.eventName
	}

	return fmt.Sprintf(format, r.eventName)
}
