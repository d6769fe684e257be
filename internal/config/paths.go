package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	serrors "git.home.luguber.info/inful/sitegen/internal/errors"
)

// Paths holds absolute project directories.
type Paths struct {
	Root      string
	Content   string
	Templates string
	// Static is empty when no static directory is in use.
	Static string
	Output string
}

// Resolve makes the configured directories absolute against root and checks
// that the input directories exist.
func (c *Config) Resolve(root string) (Paths, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Paths{}, serrors.ValidationFailed("root", err.Error())
	}

	p := Paths{
		Root:      absRoot,
		Content:   resolve(absRoot, c.Paths.Content),
		Templates: resolve(absRoot, c.Paths.Templates),
		Output:    resolve(absRoot, c.Paths.Output),
	}

	if err := requireDir("paths.content", p.Content); err != nil {
		return Paths{}, err
	}
	if err := requireDir("paths.templates", p.Templates); err != nil {
		return Paths{}, err
	}

	if c.Paths.Static != "" {
		p.Static = resolve(absRoot, c.Paths.Static)
		if err := requireDir("paths.static", p.Static); err != nil {
			return Paths{}, err
		}
	} else if candidate := resolve(absRoot, DefaultStaticDir); isDir(candidate) {
		p.Static = candidate
	}

	if p.Output == p.Content || p.Output == p.Templates || (p.Static != "" && p.Output == p.Static) {
		return Paths{}, serrors.ValidationFailed("paths.output", "must differ from the input directories")
	}
	return p, nil
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}

func requireDir(field, p string) error {
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return serrors.ValidationFailed(field, fmt.Sprintf("directory %s does not exist", p))
	}
	if err != nil {
		return serrors.ValidationFailed(field, err.Error())
	}
	if !info.IsDir() {
		return serrors.ValidationFailed(field, fmt.Sprintf("%s is not a directory", p))
	}
	return nil
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
