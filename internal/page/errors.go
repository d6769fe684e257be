package page

import (
	"fmt"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// Stage names a step of the page pipeline.
type Stage string

const (
	StageMetadata       Stage = "metadata"
	StageTemplateSelect Stage = "template_select"
	StageMarkdown       Stage = "markdown"
	StageTemplate       Stage = "template"
)

// ErrNoTemplate is returned when a document names no template and no
// default template is configured.
var ErrNoTemplate = serrors.Sentinel(serrors.KindTemplateNotFound, "no template named and no default template configured")

// RenderError wraps any failure of the page pipeline with the stage that
// failed. Its kind is the kind of the cause when it has one.
type RenderError struct {
	Path  string
	Stage Stage
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %s: %v", e.Path, e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func (e *RenderError) Kind() serrors.Kind {
	if k := serrors.KindOf(e.Err); k != "" {
		return k
	}
	return serrors.KindPageRender
}
