package frontmatter

import (
	"errors"
	"fmt"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// ErrMissingMetadata is returned under the strict policy when a document has
// no metadata block, or lacks a required key.
var ErrMissingMetadata = serrors.Sentinel(serrors.KindMissingMetadata, "metadata block missing")

// ErrMissingClosingDelimiter indicates the document started with a
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("metadata start delimiter found but closing delimiter is missing")

// MissingKeyError reports a required metadata key absent under the strict
// policy. It matches ErrMissingMetadata with errors.Is.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("metadata missing required key %q", e.Key)
}

func (e *MissingKeyError) Kind() serrors.Kind { return serrors.KindMissingMetadata }

func (e *MissingKeyError) Is(target error) bool { return target == ErrMissingMetadata }

// DecodeError reports a metadata block whose payload could not be decoded.
// Raw holds the offending payload and Err the decoder diagnostic.
type DecodeError struct {
	Format Format
	Raw    string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("decode metadata: %v", e.Err)
	}
	return fmt.Sprintf("decode %s metadata: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Kind() serrors.Kind { return serrors.KindMetadataDecode }
