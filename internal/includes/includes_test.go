package includes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const fiveLines = "Lorem\nipsum\ndolor\nsit\namet"

func TestTakeLines(t *testing.T) {
	require.Equal(t, "ipsum\ndolor", TakeLines(fiveLines, 2, 3))
	require.Equal(t, "sit\namet", TakeLines(fiveLines, 4, 0))
	require.Equal(t, "Lorem\nipsum\ndolor", TakeLines(fiveLines, 1, 3))
	require.Equal(t, fiveLines, TakeLines(fiveLines, 1, 0))
	require.Equal(t, fiveLines, TakeLines(fiveLines, 1, 100))
	require.Equal(t, "", TakeLines(fiveLines, 5, 3))
	require.Equal(t, "", TakeLines(fiveLines, 6, 0))
	require.Equal(t, "", TakeLines("", 1, 0))
}

func TestTakeLines_TrailingNewline(t *testing.T) {
	require.Equal(t, "a\nb", TakeLines("a\nb\n", 1, 0))
	require.Equal(t, "b", TakeLines("a\r\nb\r\n", 2, 2))
}

func TestTakeAnchoredLines(t *testing.T) {
	require.Equal(t, "", TakeAnchoredLines(fiveLines, "test"))

	s := "Lorem\nipsum\ndolor\nANCHOR_END: test\nsit\namet"
	require.Equal(t, "", TakeAnchoredLines(s, "test"))

	s = "Lorem\nipsum\nANCHOR: test\ndolor\nsit\namet"
	require.Equal(t, "dolor\nsit\namet", TakeAnchoredLines(s, "test"))

	s = "Lorem\nipsum\nANCHOR: test\ndolor\nsit\namet\nANCHOR_END: test\nlorem\nipsum"
	require.Equal(t, "dolor\nsit\namet", TakeAnchoredLines(s, "test"))
}

func TestTakeAnchoredLines_NestedMarkersDropped(t *testing.T) {
	s := "Lorem\nANCHOR: test\nipsum\nANCHOR: other\ndolor\nsit\namet\nANCHOR_END: test\nlorem"
	require.Equal(t, "ipsum\ndolor\nsit\namet", TakeAnchoredLines(s, "test"))

	s = "Lorem\nANCHOR: test2\nipsum\nANCHOR: test\ndolor\nsit\namet\nANCHOR_END: test\nlorem\nANCHOR_END: test2\nipsum"
	require.Equal(t, "dolor\nsit\namet", TakeAnchoredLines(s, "test"))
}

func writeSnippet(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestExpand_WholeFile(t *testing.T) {
	dir := t.TempDir()
	writeSnippet(t, dir, "snippet.txt", "first\nsecond\n")

	out := NewExpander(nil).Expand("before\n{{#include snippet.txt}}\nafter\n", dir)
	require.Equal(t, "before\nfirst\nsecond\nafter\n", out)
}

func TestExpand_LineSelectors(t *testing.T) {
	dir := t.TempDir()
	writeSnippet(t, dir, "s.txt", "one\ntwo\nthree\nfour\n")

	e := NewExpander(nil)
	require.Equal(t, "two", e.Expand("{{#include s.txt:2}}", dir))
	require.Equal(t, "two\nthree", e.Expand("{{#include s.txt:2:3}}", dir))
	require.Equal(t, "one\ntwo", e.Expand("{{#include s.txt::2}}", dir))
	require.Equal(t, "three\nfour", e.Expand("{{#include s.txt:3:}}", dir))
}

func TestExpand_Anchor(t *testing.T) {
	dir := t.TempDir()
	writeSnippet(t, dir, "code.rs", "fn ignored() {}\n// ANCHOR: setup\nlet x = 1;\n// ANCHOR_END: setup\nfn also_ignored() {}\n")

	out := NewExpander(nil).Expand("{{#include code.rs:setup}}", dir)
	require.Equal(t, "let x = 1;", out)
}

func TestExpand_MissingFileLeftVerbatim(t *testing.T) {
	dir := t.TempDir()
	in := "{{#include nope.txt}}"
	require.Equal(t, in, NewExpander(nil).Expand(in, dir))
}

func TestExpand_EscapedDirectiveRendersLiteral(t *testing.T) {
	dir := t.TempDir()
	out := NewExpander(nil).Expand(`\{{#include anything.txt}}`, dir)
	require.Equal(t, "{{#include anything.txt}}", out)
}

func TestExpand_NotRecursive(t *testing.T) {
	dir := t.TempDir()
	writeSnippet(t, dir, "outer.txt", "{{#include inner.txt}}\n")
	writeSnippet(t, dir, "inner.txt", "innermost\n")

	out := NewExpander(nil).Expand("{{#include outer.txt}}", dir)
	require.Equal(t, "{{#include inner.txt}}", out)
}

func TestExpand_Subdirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "snips"), 0o755))
	writeSnippet(t, dir, filepath.Join("snips", "a.txt"), "content\n")

	out := NewExpander(nil).Expand("{{#include snips/a.txt}}", dir)
	require.Equal(t, "content", out)
}
