// Package fsutil holds the small filesystem helpers the build pipeline is
// built on: root-relative prefix computation, parent-creating writes, and
// asset tree copying.
package fsutil

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/bookbinder/internal/foundation/errors"
)

// PathToRoot returns the "../" prefix that leads from the directory of p
// back to the tree root. p is slash-separated and relative to the root;
// a root-level page yields "".
func PathToRoot(p string) string {
	dir := path.Dir(filepath.ToSlash(p))
	if dir == "." || dir == "/" {
		return ""
	}
	var b strings.Builder
	for _, c := range strings.Split(dir, "/") {
		if c == "" || c == "." || c == ".." {
			continue
		}
		b.WriteString("../")
	}
	return b.String()
}

// WriteFile writes content to name under dir, creating parent directories
// as needed.
func WriteFile(dir, name string, content []byte) error {
	full := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			WithContext("path", filepath.Dir(full)).
			Build()
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write file").
			WithContext("path", full).
			Build()
	}
	return nil
}

// CopyFilesExceptExt recursively copies the tree at from into to, skipping
// files with the given extension (no leading dot), hidden entries, and any
// directory whose absolute path matches one of avoidDirs. Used to carry
// static assets into the output while leaving page sources behind. Returns
// the number of files copied.
func CopyFilesExceptExt(from, to, skipExt string, avoidDirs ...string) (int, error) {
	avoid := make(map[string]bool, len(avoidDirs))
	for _, d := range avoidDirs {
		if abs, err := filepath.Abs(d); err == nil {
			avoid[abs] = true
		}
	}

	copied := 0
	walkErr := filepath.WalkDir(from, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		base := filepath.Base(p)
		if d.IsDir() {
			if p != from && strings.HasPrefix(base, ".") {
				return filepath.SkipDir
			}
			if abs, aerr := filepath.Abs(p); aerr == nil && avoid[abs] {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(base, ".") {
			return nil
		}
		if skipExt != "" && strings.EqualFold(strings.TrimPrefix(filepath.Ext(base), "."), skipExt) {
			return nil
		}

		rel, rerr := filepath.Rel(from, p)
		if rerr != nil {
			return rerr
		}
		if cerr := copyFile(p, filepath.Join(to, rel)); cerr != nil {
			return cerr
		}
		copied++
		return nil
	})
	if walkErr != nil {
		return copied, errors.WrapError(walkErr, errors.CategoryFileSystem, "failed to copy assets").
			WithContext("from", from).
			WithContext("to", to).
			Build()
	}
	return copied, nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
