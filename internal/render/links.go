package render

import (
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// LinkContext carries the per-render page metadata link resolution works
// against. The zero value leaves only the .md -> .html rewrite active.
type LinkContext struct {
	// Path is the page's path relative to the book root, slash-separated
	// and .md-suffixed. Fragment-only links anchor to it, and relative
	// destinations are prefixed with its parent directory unless a
	// fallback redirect already applied.
	Path string
	// SourceDir is the filesystem directory relative destinations are
	// probed against. Empty disables probing.
	SourceDir string
	// Fallback is a path relative to SourceDir naming the directory that
	// holds default-locale copies of pages missing from SourceDir.
	Fallback string
}

// IsZero reports whether no page metadata is set.
func (c LinkContext) IsZero() bool {
	return c.Path == "" && c.SourceDir == "" && c.Fallback == ""
}

// ExistsFunc is the filesystem existence oracle used for fallback
// resolution. Probe errors count as absent.
type ExistsFunc func(path string) bool

func osExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

var (
	// schemePattern matches destinations qualified with a URI scheme
	// (https:, mailto:, …); those are never rewritten.
	schemePattern = regexp.MustCompile(`^[a-z][a-z0-9+.-]*:`)

	// mdExtPattern matches a trailing .md extension, optionally followed
	// by a fragment. Anchored so a destination that merely contains ".md"
	// somewhere is left alone.
	mdExtPattern = regexp.MustCompile(`^(.*)\.md(#.*)?$`)

	// htmlLinkPattern captures href/src attribute values on <a> and <img>
	// tags inside raw HTML fragments. Deliberately narrow: other
	// URL-carrying elements are out of scope.
	htmlLinkPattern = regexp.MustCompile(`(<(?:a|img) [^>]*?(?:src|href)=")([^"]+?)"`)
)

// IsSchemeQualified reports whether dest is an absolute/external URI rather
// than a page-relative path.
func IsSchemeQualified(dest string) bool {
	return schemePattern.MatchString(dest)
}

// fixLink resolves a single link destination.
//
// Fragment-only destinations anchor to the current page (when known).
// Scheme-qualified destinations pass through. Everything else is treated as
// a page-relative path: if it is missing from SourceDir but present under
// the fallback directory the result is prefixed with the fallback path and
// marked redirected; un-redirected destinations get the page's parent
// directory as prefix; finally a trailing .md extension becomes .html,
// keeping any fragment.
func fixLink(dest string, ctx LinkContext, exists ExistsFunc) string {
	if strings.HasPrefix(dest, "#") {
		if ctx.Path == "" {
			return dest
		}
		base := ctx.Path
		if strings.HasSuffix(base, ".md") {
			base = strings.TrimSuffix(base, ".md") + ".html"
		}
		return base + dest
	}
	if schemePattern.MatchString(dest) {
		return dest
	}

	var fixed strings.Builder
	redirected := false
	if ctx.SourceDir != "" && ctx.Fallback != "" {
		primary := filepath.Join(ctx.SourceDir, filepath.FromSlash(dest))
		if !exists(primary) {
			fallback := filepath.Join(ctx.SourceDir, filepath.FromSlash(ctx.Fallback), filepath.FromSlash(dest))
			if exists(fallback) {
				fixed.WriteString(ctx.Fallback)
				fixed.WriteByte('/')
				redirected = true
			}
		}
	}
	if !redirected && ctx.Path != "" {
		if dir := path.Dir(ctx.Path); dir != "." && dir != "/" {
			fixed.WriteString(dir)
			fixed.WriteByte('/')
		}
	}
	if m := mdExtPattern.FindStringSubmatch(dest); m != nil {
		fixed.WriteString(m[1])
		fixed.WriteString(".html")
		fixed.WriteString(m[2])
	} else {
		fixed.WriteString(dest)
	}
	return fixed.String()
}

// fixHTMLLinks applies fixLink to the href/src attributes of <a> and <img>
// tags found in a raw HTML fragment. Unmatched or malformed markup passes
// through unchanged.
func fixHTMLLinks(fragment string, ctx LinkContext, exists ExistsFunc) string {
	return htmlLinkPattern.ReplaceAllStringFunc(fragment, func(m string) string {
		caps := htmlLinkPattern.FindStringSubmatch(m)
		return caps[1] + fixLink(caps[2], ctx, exists) + `"`
	})
}

// destinationFixer rewrites Link and Image destinations on the parsed AST,
// before serialization.
type destinationFixer struct {
	ctx    LinkContext
	exists ExistsFunc
}

func (f *destinationFixer) Transform(doc *gmast.Document, _ text.Reader, _ parser.Context) {
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Link:
			node.Destination = []byte(fixLink(string(node.Destination), f.ctx, f.exists))
		case *gmast.Image:
			node.Destination = []byte(fixLink(string(node.Destination), f.ctx, f.exists))
		}
		return gmast.WalkContinue, nil
	})
}
