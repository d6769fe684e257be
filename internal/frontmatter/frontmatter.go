// Package frontmatter locates and decodes the metadata block at the head of a
// document.
//
// A block is recognised only when the document starts with a `---` line; a
// delimiter anywhere else is ordinary markdown (a thematic break).
package frontmatter

import (
	"bytes"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Split separates the `---` delimited metadata block from the markdown body.
//
// If the document does not start with a delimiter, had is false and body is
// the full input. A block that is opened but never closed yields a
// *DecodeError carrying the unterminated payload.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, err error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	frontmatterStart := len(open)
	closeLine := []byte("---" + nl)
	if bytes.HasPrefix(content[frontmatterStart:], closeLine) {
		bodyStart := frontmatterStart + len(closeLine)
		return []byte{}, content[bodyStart:], true, nil
	}
	if string(content[frontmatterStart:]) == "---" {
		return []byte{}, []byte{}, true, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[frontmatterStart:], closeSeq)
	if idx < 0 {
		// A closing delimiter on the final line has no trailing newline.
		if bytes.HasSuffix(content, []byte(nl+"---")) {
			end := len(content) - len(nl+"---")
			if end >= frontmatterStart {
				return content[frontmatterStart : end+len(nl)], []byte{}, true, nil
			}
		}
		return nil, nil, false, &DecodeError{
			Raw: string(content[frontmatterStart:]),
			Err: ErrMissingClosingDelimiter,
		}
	}

	frontmatterEnd := frontmatterStart + idx + len(nl)
	bodyStart := frontmatterStart + idx + len(closeSeq)
	return content[frontmatterStart:frontmatterEnd], content[bodyStart:], true, nil
}

// detectNewline reports the line ending of the first line.
func detectNewline(content []byte) string {
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			return "\r\n"
		}
		if content[i] == '\n' {
			return "\n"
		}
	}
	return "\n"
}
