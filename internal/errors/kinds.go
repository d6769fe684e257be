package errors

import stderrors "errors"

// Kind names one entry of the build error taxonomy. Kinds are stable strings;
// they appear in logs and in build reports.
type Kind string

const (
	KindConfig           Kind = "ConfigError"
	KindMissingMetadata  Kind = "MissingMetadataError"
	KindMetadataDecode   Kind = "MetadataDecodeError"
	KindTemplateNotFound Kind = "TemplateNotFoundError"
	KindTemplateRender   Kind = "TemplateRenderError"
	KindDocumentIO       Kind = "DocumentIOError"
	KindPageRender       Kind = "PageRenderError"
	KindCanceled         Kind = "Canceled"
)

// Kinded is implemented by errors that belong to the taxonomy.
type Kinded interface {
	error
	Kind() Kind
}

// KindOf returns the kind of the first error in the chain implementing
// Kinded, or "" when none does.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var k Kinded
	if stderrors.As(err, &k) {
		return k.Kind()
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

type kindError struct {
	kind Kind
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Kind() Kind    { return e.kind }

// Sentinel returns a comparable sentinel error carrying a kind, suitable for
// package-level `var ErrX = errors.Sentinel(...)` declarations.
func Sentinel(kind Kind, msg string) error {
	return &kindError{kind: kind, msg: msg}
}
