package site

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/observability"
)

// CopyStatic mirrors the src tree into outputRoot/<base(src)>.
//
// The copy is staged in a hidden sibling directory and promoted with a
// rename, so the destination either holds the complete new tree or is left
// as it was. Files present only in a previous copy are dropped.
func CopyStatic(ctx context.Context, src, outputRoot string) (dest string, files int, err error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", 0, err
	}
	if !info.IsDir() {
		return "", 0, fmt.Errorf("static root %s is not a directory", src)
	}

	name := filepath.Base(filepath.Clean(src))
	dest = filepath.Join(outputRoot, name)

	stage, err := os.MkdirTemp(outputRoot, "."+name+".staging-")
	if err != nil {
		return "", 0, fmt.Errorf("create staging directory: %w", err)
	}
	defer func() {
		if err != nil {
			if rmErr := os.RemoveAll(stage); rmErr != nil {
				observability.WarnContext(ctx, "Failed to remove static staging directory", logfields.Path(stage), logfields.Error(rmErr))
			}
		}
	}()

	if err = os.Chmod(stage, info.Mode().Perm()); err != nil {
		return "", 0, err
	}
	if files, err = copyDir(src, stage); err != nil {
		return "", 0, err
	}
	if err = promote(ctx, stage, dest); err != nil {
		return "", 0, err
	}
	return dest, files, nil
}

// promote moves stage into place, keeping the previous tree until the
// rename has succeeded.
func promote(ctx context.Context, stage, dest string) error {
	prev := stage + ".prev"
	hadPrev := false
	if _, err := os.Lstat(dest); err == nil {
		if err := os.Rename(dest, prev); err != nil {
			return fmt.Errorf("move previous static tree aside: %w", err)
		}
		hadPrev = true
	}
	if err := os.Rename(stage, dest); err != nil {
		if hadPrev {
			if rbErr := os.Rename(prev, dest); rbErr != nil {
				observability.ErrorContext(ctx, "Failed to restore previous static tree", logfields.Path(dest), logfields.Error(rbErr))
			}
		}
		return fmt.Errorf("promote static tree: %w", err)
	}
	if hadPrev {
		if err := os.RemoveAll(prev); err != nil {
			observability.WarnContext(ctx, "Failed to remove previous static tree", logfields.Path(prev), logfields.Error(err))
		}
	}
	return nil
}

// copyDir recursively copies a directory tree and returns the number of
// files copied.
func copyDir(src, dst string) (int, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			info, err := entry.Info()
			if err != nil {
				return count, err
			}
			if err := os.MkdirAll(dstPath, info.Mode().Perm()|0o700); err != nil {
				return count, err
			}
			n, err := copyDir(srcPath, dstPath)
			count += n
			if err != nil {
				return count, err
			}
			continue
		}

		if err := copyFile(srcPath, dstPath); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

// copyFile copies a single file from src to dst, preserving permissions.
func copyFile(src, dst string) error {
	// #nosec G304 -- src is below the configured static root.
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}
	if !srcInfo.Mode().IsRegular() {
		return fmt.Errorf("static entry %s is not a regular file", src)
	}

	// #nosec G304 -- dst is inside the staging directory.
	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return err
	}
	return dstFile.Close()
}
