// Package templates resolves page templates by name and renders them against
// a page context.
//
// Every file below the template root is read once, when the engine is
// constructed, and parsed into a single html/template set keyed by its
// slash-separated relative path. Templates can therefore include each other
// ({{template "partials/head.html" .}}). A file that does not parse stays
// out of the set and its error is kept by name: only renders that resolve to
// it fail. Nothing is modified after NewEngine returns, so one engine can
// serve concurrent renders.
package templates

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Options configures an Engine.
type Options struct {
	// StrictVariables makes access to an undefined context key a render
	// error instead of an empty value.
	StrictVariables bool
	// Funcs are merged over the built-in helpers.
	Funcs template.FuncMap
}

// Engine is a read-only, pre-parsed template set.
type Engine struct {
	root   string
	set    *template.Template
	names  []string
	broken map[string]error
}

// NewEngine loads every template file under root. It fails only when root
// itself cannot be used; per-file read or parse errors are deferred to the
// renders that reference the file.
func NewEngine(root string, opts Options) (*Engine, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("template root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("template root %s is not a directory", root)
	}

	missing := "missingkey=default"
	if opts.StrictVariables {
		missing = "missingkey=error"
	}
	newTemplate := func(name string) *template.Template {
		t := template.New(name).Funcs(builtinFuncs()).Option(missing)
		if len(opts.Funcs) > 0 {
			t = t.Funcs(opts.Funcs)
		}
		return t
	}
	set := newTemplate("")

	var names []string
	broken := map[string]error{}
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if strings.HasPrefix(d.Name(), ".") && p != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		// #nosec G304 -- p comes from walking the configured template root.
		data, err := os.ReadFile(p)
		if err != nil {
			broken[name] = fmt.Errorf("read: %w", err)
			return nil
		}
		// A trial parse keeps a broken file from poisoning the shared set.
		if _, err := newTemplate(name).Parse(string(data)); err != nil {
			broken[name] = err
			return nil
		}
		if _, err := set.New(name).Parse(string(data)); err != nil {
			broken[name] = err
			return nil
		}
		names = append(names, name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk template root: %w", err)
	}
	sort.Strings(names)

	return &Engine{root: root, set: set, names: names, broken: broken}, nil
}

// Names lists the usable template names in lexical order.
func (e *Engine) Names() []string {
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}

// Broken lists the templates that failed to load, in lexical order.
func (e *Engine) Broken() []string {
	out := make([]string, 0, len(e.broken))
	for name := range e.broken {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LoadError returns the read or parse error recorded for name, if any.
func (e *Engine) LoadError(name string) error {
	if clean, ok := cleanName(name); ok {
		return e.broken[clean]
	}
	return nil
}

// Lookup resolves a template reference to its canonical name. It returns a
// *NotFoundError for unknown names and a *RenderError for templates that
// failed to load.
func (e *Engine) Lookup(name string) (string, error) {
	t, err := e.lookup(name)
	if err != nil {
		return "", err
	}
	return t.Name(), nil
}

func (e *Engine) lookup(name string) (*template.Template, error) {
	clean, ok := cleanName(name)
	if !ok {
		return nil, &NotFoundError{Name: name, Root: e.root}
	}
	if err, bad := e.broken[clean]; bad {
		return nil, &RenderError{Name: clean, Err: err}
	}
	t := e.set.Lookup(clean)
	if t == nil {
		return nil, &NotFoundError{Name: name, Root: e.root}
	}
	return t, nil
}

// Render resolves name and executes it against data.
func (e *Engine) Render(name string, data map[string]any) (out string, err error) {
	t, err := e.lookup(name)
	if err != nil {
		return "", err
	}

	defer func() {
		if r := recover(); r != nil {
			out = ""
			err = &RenderError{Name: name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", &RenderError{Name: name, Err: err}
	}
	return buf.String(), nil
}

// cleanName normalises a template reference to a slash path relative to the
// root, rejecting references that escape it.
func cleanName(name string) (string, bool) {
	name = strings.TrimSpace(filepath.ToSlash(name))
	if name == "" {
		return "", false
	}
	clean := path.Clean(strings.TrimPrefix(name, "/"))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", false
	}
	return clean, true
}
