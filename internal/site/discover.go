package site

import (
	"io/fs"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/sitegen/internal/page"
)

// Discover returns the slash-separated paths, relative to root, of every
// markdown document below root, sorted lexically so builds are reproducible
// regardless of filesystem enumeration order.
func Discover(root string) ([]string, error) {
	var docs []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !page.IsMarkdown(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		docs = append(docs, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(docs)
	return docs, nil
}
