package site

import (
	"fmt"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// ErrCanceled marks documents left unprocessed because the build context
// was canceled.
var ErrCanceled = serrors.Sentinel(serrors.KindCanceled, "build canceled")

// DocumentIOError reports a read, directory or write failure for one
// document.
type DocumentIOError struct {
	Path string
	Op   string
	Err  error
}

func (e *DocumentIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DocumentIOError) Unwrap() error { return e.Err }

func (e *DocumentIOError) Kind() serrors.Kind { return serrors.KindDocumentIO }
