// Package gitinfo reads the revision of the repository holding the content
// tree, so pages can show which commit they were built from.
package gitinfo

import (
	"errors"
	"fmt"

	git "github.com/go-git/go-git/v5"
)

// ErrNotRepository is returned when no repository encloses the path.
var ErrNotRepository = errors.New("not inside a git repository")

// Revision identifies the checked-out commit.
type Revision struct {
	Commit string `json:"commit" yaml:"commit"`
	Short  string `json:"short" yaml:"short"`
	Branch string `json:"branch,omitempty" yaml:"branch,omitempty"`
}

// AsMap returns the revision as a template context value.
func (r Revision) AsMap() map[string]any {
	return map[string]any{
		"commit": r.Commit,
		"short":  r.Short,
		"branch": r.Branch,
	}
}

// Head returns the HEAD revision of the repository enclosing path. Parent
// directories are searched for the .git directory.
func Head(path string) (Revision, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Revision{}, ErrNotRepository
		}
		return Revision{}, fmt.Errorf("open repository: %w", err)
	}

	ref, err := repo.Head()
	if err != nil {
		return Revision{}, fmt.Errorf("resolve HEAD: %w", err)
	}

	commit := ref.Hash().String()
	rev := Revision{Commit: commit, Short: commit}
	if len(commit) > 8 {
		rev.Short = commit[:8]
	}
	if ref.Name().IsBranch() {
		rev.Branch = ref.Name().Short()
	}
	return rev, nil
}
