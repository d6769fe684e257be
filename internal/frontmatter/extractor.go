package frontmatter

import (
	"fmt"
	"strings"
)

// Policy decides what happens when a document has no metadata block.
type Policy string

const (
	// PolicyLenient proceeds with an empty mapping.
	PolicyLenient Policy = "lenient"
	// PolicyStrict fails with ErrMissingMetadata and enforces required keys.
	PolicyStrict Policy = "strict"
)

// ParsePolicy normalises a configured policy name.
func ParsePolicy(raw string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "lenient", "optional":
		return PolicyLenient, nil
	case "strict", "required":
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("unsupported metadata policy %q (want lenient or strict)", raw)
	}
}

// Extracted is the outcome of a successful extraction.
type Extracted struct {
	Fields  map[string]any
	Raw     []byte
	Body    []byte
	Present bool
}

// Extractor pulls the metadata block off the head of a document.
type Extractor struct {
	Policy Policy
	Format Format
	// Required keys are enforced only under PolicyStrict.
	Required []string
}

// Extract splits and decodes content according to the extractor policy.
func (e Extractor) Extract(content []byte) (*Extracted, error) {
	raw, body, had, err := Split(content)
	if err != nil {
		if de, ok := err.(*DecodeError); ok && de.Format == "" {
			de.Format = e.format()
		}
		return nil, err
	}

	if !had {
		if e.Policy == PolicyStrict {
			return nil, ErrMissingMetadata
		}
		return &Extracted{Fields: map[string]any{}, Body: body}, nil
	}

	fields, err := Decode(raw, e.format())
	if err != nil {
		return nil, err
	}

	if e.Policy == PolicyStrict {
		for _, key := range e.Required {
			if _, ok := fields[key]; !ok {
				return nil, &MissingKeyError{Key: key}
			}
		}
	}

	return &Extracted{Fields: fields, Raw: raw, Body: body, Present: true}, nil
}

func (e Extractor) format() Format {
	if e.Format == "" {
		return FormatJSON
	}
	return e.Format
}
