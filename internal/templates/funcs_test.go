package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinFuncs(t *testing.T) {
	root := writeTemplates(t, map[string]string{
		"f.html": `{{default "Untitled" .title}}|{{upper "a"}}|{{lower "B"}}|{{title "getting started"}}|{{join ", " .tags}}|{{date "Jan 2, 2006" .date}}`,
	})
	e, err := NewEngine(root, Options{})
	require.NoError(t, err)

	out, err := e.Render("f.html", map[string]any{
		"tags": []any{"go", "docs"},
		"date": "2024-03-05",
	})
	require.NoError(t, err)
	assert.Equal(t, "Untitled|A|b|Getting Started|go, docs|Mar 5, 2024", out)
}

func TestDefaultValue(t *testing.T) {
	assert.Equal(t, "d", defaultValue("d", nil))
	assert.Equal(t, "d", defaultValue("d", ""))
	assert.Equal(t, "d", defaultValue("d", false))
	assert.Equal(t, "d", defaultValue("d", []any{}))
	assert.Equal(t, "v", defaultValue("d", "v"))
	assert.Equal(t, 0.0, defaultValue("d", 0.0))
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "2024", formatDate("2006", ts))
	assert.Equal(t, "2024-01-02", formatDate("2006-01-02", "2024-01-02T03:04:05Z"))
	assert.Equal(t, "not a date", formatDate("2006", "not a date"))
	assert.Equal(t, "", formatDate("2006", nil))
}
