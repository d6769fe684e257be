package templates

import (
	"fmt"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// NotFoundError reports a template reference that does not resolve under
// the template root.
type NotFoundError struct {
	Name string
	Root string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template %q not found in %s", e.Name, e.Root)
}

func (e *NotFoundError) Kind() serrors.Kind { return serrors.KindTemplateNotFound }

// RenderError reports a failure while executing a resolved template.
type RenderError struct {
	Name string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render template %q: %v", e.Name, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func (e *RenderError) Kind() serrors.Kind { return serrors.KindTemplateRender }
