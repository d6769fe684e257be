package templates

import (
	"fmt"
	"html/template"
	"reflect"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func builtinFuncs() template.FuncMap {
	return template.FuncMap{
		"default": defaultValue,
		"upper":   strings.ToUpper,
		"lower":   strings.ToLower,
		"title":   Title,
		"join":    join,
		"date":    formatDate,
	}
}

// Title title-cases s using Unicode-aware word rules.
func Title(s string) string {
	return cases.Title(language.Und).String(s)
}

// defaultValue returns def when v is missing or the zero value of its type.
func defaultValue(def, v any) any {
	if v == nil {
		return def
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		if rv.Len() == 0 {
			return def
		}
	case reflect.Bool:
		if !rv.Bool() {
			return def
		}
	}
	return v
}

func join(sep string, v any) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(vv, sep)
	case []any:
		parts := make([]string, 0, len(vv))
		for _, item := range vv {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, sep)
	default:
		return fmt.Sprint(v)
	}
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// formatDate formats a time value or a date string with a Go layout. Values
// that cannot be interpreted are returned unchanged.
func formatDate(layout string, v any) string {
	switch vv := v.(type) {
	case time.Time:
		return vv.Format(layout)
	case string:
		for _, l := range dateLayouts {
			if t, err := time.Parse(l, vv); err == nil {
				return t.Format(layout)
			}
		}
		return vv
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
