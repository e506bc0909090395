// Package includes expands {{#include ...}} directives in page sources
// before rendering. A directive names a file relative to the including
// page, optionally narrowed to a line range or a named anchor region:
//
//	{{#include snippet.rs}}         whole file
//	{{#include snippet.rs:5}}       line 5
//	{{#include snippet.rs:2:7}}     lines 2 through 7
//	{{#include snippet.rs::7}}      lines 1 through 7
//	{{#include snippet.rs:2:}}      line 2 through end
//	{{#include snippet.rs:setup}}   region between ANCHOR: setup / ANCHOR_END: setup
//
// Expansion is a single pass: directives inside included content are not
// expanded again. A directive whose file cannot be read is left verbatim
// so the problem stays visible in the output.
package includes

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/bookbinder/internal/logfields"
)

var (
	// includeDirective matches an include directive, or a
	// backslash-escaped directive which renders literally.
	includeDirective = regexp.MustCompile(`\\\{\{#include\s[^}]*\}\}|\{\{\s*#include\s+([^}]+?)\s*\}\}`)

	anchorStart = regexp.MustCompile(`ANCHOR:\s*([\w_-]+)`)
	anchorEnd   = regexp.MustCompile(`ANCHOR_END:\s*([\w_-]+)`)
)

// Expander rewrites include directives against a page's directory.
type Expander struct {
	logger *slog.Logger
}

// NewExpander returns an Expander logging through the given logger, or
// slog.Default when nil.
func NewExpander(logger *slog.Logger) *Expander {
	if logger == nil {
		logger = slog.Default()
	}
	return &Expander{logger: logger}
}

// Expand replaces every include directive in content. dir is the directory
// of the including page; relative include paths resolve against it.
func (e *Expander) Expand(content, dir string) string {
	if !strings.Contains(content, "{{") {
		return content
	}
	return includeDirective.ReplaceAllStringFunc(content, func(m string) string {
		if strings.HasPrefix(m, `\`) {
			return m[1:]
		}
		caps := includeDirective.FindStringSubmatch(m)
		replaced, ok := e.expandOne(caps[1], dir)
		if !ok {
			return m
		}
		return replaced
	})
}

// expandOne resolves a single directive argument ("path[:selector]").
func (e *Expander) expandOne(arg, dir string) (string, bool) {
	parts := strings.Split(arg, ":")
	if len(parts) > 3 {
		e.logger.Warn("malformed include directive", logfields.Path(arg))
		return "", false
	}

	file := filepath.Join(dir, filepath.FromSlash(parts[0]))
	data, err := os.ReadFile(file)
	if err != nil {
		e.logger.Warn("include file not readable",
			logfields.Path(file), logfields.Error(err))
		return "", false
	}
	content := string(data)

	switch len(parts) {
	case 1:
		return TakeLines(content, 1, 0), true
	case 2:
		if parts[1] == "" {
			return TakeLines(content, 1, 0), true
		}
		if n, err := strconv.Atoi(parts[1]); err == nil {
			return TakeLines(content, n, n), true
		}
		return TakeAnchoredLines(content, parts[1]), true
	default:
		from, to := 1, 0
		if parts[1] != "" {
			n, err := strconv.Atoi(parts[1])
			if err != nil {
				e.logger.Warn("malformed include range", logfields.Path(arg))
				return "", false
			}
			from = n
		}
		if parts[2] != "" {
			n, err := strconv.Atoi(parts[2])
			if err != nil {
				e.logger.Warn("malformed include range", logfields.Path(arg))
				return "", false
			}
			to = n
		}
		return TakeLines(content, from, to), true
	}
}

// splitLines splits on newlines the way line selectors count them: a
// trailing newline does not produce an empty final line, and CR before LF
// is dropped.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// TakeLines returns lines from through to of s, 1-based and inclusive.
// A to of zero (or past the end) means through the last line.
func TakeLines(s string, from, to int) string {
	lines := splitLines(s)
	if from < 1 {
		from = 1
	}
	if from > len(lines) {
		return ""
	}
	if to <= 0 || to > len(lines) {
		to = len(lines)
	}
	if to < from {
		return ""
	}
	return strings.Join(lines[from-1:to], "\n")
}

// TakeAnchoredLines returns the lines of s between ANCHOR: anchor and
// ANCHOR_END: anchor markers. Marker lines themselves are dropped, as are
// nested marker lines for other anchors. Missing markers yield "".
func TakeAnchoredLines(s, anchor string) string {
	var retained []string
	found := false
	for _, l := range splitLines(s) {
		if found {
			if m := anchorEnd.FindStringSubmatch(l); m != nil {
				if m[1] == anchor {
					break
				}
				continue
			}
			if !anchorStart.MatchString(l) {
				retained = append(retained, l)
			}
		} else if m := anchorStart.FindStringSubmatch(l); m != nil {
			if m[1] == anchor {
				found = true
			}
		}
	}
	return strings.Join(retained, "\n")
}
