package book

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/bookbinder/internal/foundation/errors"
)

// Report describes the outcome of one build.
type Report struct {
	// BuildID correlates log lines and metrics for this build.
	BuildID string

	// Pages is the count of markdown pages rendered successfully.
	Pages int

	// Assets is the count of static files copied into the output.
	Assets int

	// Failed is the count of pages that did not render.
	Failed int

	// Duration is the total build execution time.
	Duration time.Duration

	// TreeHash fingerprints the output tree; the preview server uses it
	// as the live-reload change signal.
	TreeHash string
}

// TreeHash computes a SHA-256 over the output tree: every file's relative
// path and content, in lexical walk order. Two trees with identical
// contents hash identically regardless of build timing.
func TreeHash(dir string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, rerr := filepath.Rel(dir, p)
		if rerr != nil {
			return rerr
		}
		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write([]byte{0})
		f, ferr := os.Open(p)
		if ferr != nil {
			return ferr
		}
		if _, cerr := io.Copy(h, f); cerr != nil {
			_ = f.Close()
			return cerr
		}
		if cerr := f.Close(); cerr != nil {
			return cerr
		}
		h.Write([]byte{0})
		return nil
	})
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryBuild, "failed to hash output tree").
			WithContext("path", dir).
			Build()
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
