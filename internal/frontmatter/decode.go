package frontmatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the payload syntax of metadata blocks. One build uses
// exactly one format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat normalises a configured format name.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported metadata format %q (want json or yaml)", raw)
	}
}

// ErrNotAnObject indicates the payload decoded to something other than a
// key/value mapping.
var ErrNotAnObject = errors.New("metadata must be a key/value object")

// Decode parses a raw payload (without delimiters) into a map. An empty or
// whitespace-only payload decodes to an empty map.
func Decode(raw []byte, format Format) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	var (
		fields map[string]any
		err    error
	)
	switch format {
	case FormatYAML:
		fields, err = ParseYAML(raw)
	case FormatJSON, "":
		fields, err = ParseJSON(raw)
	default:
		err = fmt.Errorf("unsupported metadata format %q", format)
	}
	if err != nil {
		return nil, &DecodeError{Format: format, Raw: string(raw), Err: err}
	}
	return fields, nil
}

// ParseJSON parses a JSON object payload into a map. Integral numbers decode
// to int64 so they print exactly; other numbers decode to float64.
func ParseJSON(raw []byte) (map[string]any, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after metadata object")
	}
	fields, ok := normalize(v).(map[string]any)
	if !ok {
		return nil, ErrNotAnObject
	}
	return fields, nil
}

// jsonNumber converts a decoded json.Number to int64 when it is integral and
// in range, to float64 otherwise. Numbers too large for either are kept as
// their literal text.
func jsonNumber(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// ParseYAML parses raw YAML frontmatter (without --- delimiters) into a map
// with string keys at every nesting level.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	if len(frontmatter) == 0 {
		return map[string]any{}, nil
	}

	var v any
	if err := yaml.Unmarshal(frontmatter, &v); err != nil {
		return nil, err
	}
	if v == nil {
		return map[string]any{}, nil
	}
	fields, ok := normalize(v).(map[string]any)
	if !ok {
		return nil, ErrNotAnObject
	}
	return fields, nil
}

func normalize(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		for k, item := range vv {
			vv[k] = normalize(item)
		}
		return vv
	case map[any]any:
		out := make(map[string]any, len(vv))
		for k, item := range vv {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range vv {
			vv[i] = normalize(item)
		}
		return vv
	case json.Number:
		return jsonNumber(vv)
	default:
		return v
	}
}
