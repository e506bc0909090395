package book

import (
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"git.home.luguber.info/inful/bookbinder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbinder/internal/fsutil"
	"git.home.luguber.info/inful/bookbinder/internal/render"
)

var headingPattern = regexp.MustCompile(`^#{1,6}\s+(.+)$`)

// collectPages walks src and returns the slash-separated relative paths of
// all markdown pages, sorted. Hidden entries and avoidDirs are skipped with
// the same rules the asset copy applies.
func collectPages(src string, avoidDirs ...string) ([]string, error) {
	avoid := make(map[string]bool, len(avoidDirs))
	for _, d := range avoidDirs {
		if abs, err := filepath.Abs(d); err == nil {
			avoid[abs] = true
		}
	}

	var pages []string
	err := filepath.WalkDir(src, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		base := filepath.Base(p)
		if d.IsDir() {
			if p != src && strings.HasPrefix(base, ".") {
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
		if !strings.EqualFold(filepath.Ext(base), ".md") {
			return nil
		}
		rel, rerr := filepath.Rel(src, p)
		if rerr != nil {
			return rerr
		}
		pages = append(pages, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(pages)
	return pages, nil
}

// renderPage runs one page through the pipeline: read, expand includes,
// render markdown with the page's link context, wrap in the shell, write.
func (e *Engine) renderPage(src, out, rel string) error {
	fullPath := filepath.Join(src, filepath.FromSlash(rel))
	raw, err := os.ReadFile(fullPath)
	if err != nil {
		return errors.WrapError(err, errors.CategoryBuild, "failed to read page source").
			WithContext("path", fullPath).
			Build()
	}

	expanded := e.expander.Expand(string(raw), filepath.Dir(fullPath))

	body, err := e.renderer.RenderWithContext([]byte(expanded), e.linkContext(src, rel))
	if err != nil {
		return errors.WrapError(err, errors.CategoryRender, "markdown conversion failed").
			WithContext("page", rel).
			Build()
	}

	doc, err := e.renderShell(rel, pageTitle(expanded, rel), body)
	if err != nil {
		return err
	}

	return fsutil.WriteFile(out, strings.TrimSuffix(rel, ".md")+".html", doc)
}

// linkContext builds the per-page resolver metadata. The page path itself
// stays empty: rendered pages keep their source-relative location, so
// sibling links need no directory prefix. The fallback subpath is adjusted
// to the page's depth so probes hit the mirror location in the fallback
// tree and the rewritten prefix leads to the sibling build's output.
func (e *Engine) linkContext(src, rel string) render.LinkContext {
	ctx := render.LinkContext{
		SourceDir: filepath.Dir(filepath.Join(src, filepath.FromSlash(rel))),
	}
	if fb := e.cfg.Book.Fallback; fb != "" {
		f := path.Join(fsutil.PathToRoot(rel), fb)
		if dir := path.Dir(rel); dir != "." {
			f = path.Join(f, dir)
		}
		ctx.Fallback = f
	}
	return ctx
}

// fallbackDir resolves the configured fallback subpath against src.
func fallbackDir(src, fallback string) string {
	return filepath.Join(src, filepath.FromSlash(fallback))
}

// pageTitle extracts the first ATX heading as the page title, collapsed to
// single spaces. Pages without a heading fall back to the file name.
func pageTitle(markdown, rel string) string {
	for _, line := range strings.Split(markdown, "\n") {
		if m := headingPattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			return render.CollapseWhitespace(strings.TrimSpace(m[1]))
		}
	}
	return strings.TrimSuffix(path.Base(rel), path.Ext(rel))
}
