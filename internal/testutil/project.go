// Package testutil provides a throwaway project tree for tests that drive
// whole builds.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

// Project is a temporary project root with file helpers. Paths given to its
// methods are slash-separated and relative to Root.
type Project struct {
	t    *testing.T
	Root string
}

// NewProject creates an empty project in a temporary directory.
func NewProject(t *testing.T) *Project {
	t.Helper()
	return &Project{t: t, Root: t.TempDir()}
}

// Path returns the absolute path of rel.
func (p *Project) Path(rel string) string {
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// Write creates rel with content, making parent directories as needed.
func (p *Project) Write(rel, content string) *Project {
	p.t.Helper()
	path := p.Path(rel)
	require.NoError(p.t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(p.t, os.WriteFile(path, []byte(content), 0o600))
	return p
}

// Read returns the content of rel.
func (p *Project) Read(rel string) string {
	p.t.Helper()
	b, err := os.ReadFile(p.Path(rel))
	require.NoError(p.t, err)
	return string(b)
}

// HTML parses rel as an HTML document.
func (p *Project) HTML(rel string) *goquery.Document {
	p.t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.Read(rel)))
	require.NoError(p.t, err)
	return doc
}

// AssertFileExists validates that rel exists and is a regular file.
func (p *Project) AssertFileExists(rel string) *Project {
	p.t.Helper()
	require.FileExists(p.t, p.Path(rel))
	return p
}

// AssertFileNotExists validates that rel does not exist.
func (p *Project) AssertFileNotExists(rel string) *Project {
	p.t.Helper()
	require.NoFileExists(p.t, p.Path(rel))
	return p
}

// AssertDirExists validates that rel is a directory.
func (p *Project) AssertDirExists(rel string) *Project {
	p.t.Helper()
	require.DirExists(p.t, p.Path(rel))
	return p
}

// AssertFileContains validates that rel contains substr.
func (p *Project) AssertFileContains(rel, substr string) *Project {
	p.t.Helper()
	require.Contains(p.t, p.Read(rel), substr, "file %s", rel)
	return p
}
