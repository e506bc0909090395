package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func render(t *testing.T, opts Options, src string) string {
	t.Helper()
	out, err := New(opts).Render([]byte(src))
	require.NoError(t, err)
	return out
}

func TestRender_ExternalLinkUntouched(t *testing.T) {
	out := render(t, Options{}, "[example](https://www.rust-lang.org/)")
	require.Equal(t, "<p><a href=\"https://www.rust-lang.org/\">example</a></p>\n", out)
}

func TestRender_MarkdownExtensionRewritten(t *testing.T) {
	out := render(t, Options{}, "[example](example.md)")
	require.Equal(t, "<p><a href=\"example.html\">example</a></p>\n", out)

	out = render(t, Options{}, "[example](example.md#anchor)")
	require.Equal(t, "<p><a href=\"example.html#anchor\">example</a></p>\n", out)
}

func TestRender_HTMLExtensionUntouched(t *testing.T) {
	out := render(t, Options{}, "[example](foo.html#phantomdata)")
	require.Equal(t, "<p><a href=\"foo.html#phantomdata\">example</a></p>\n", out)
}

func TestRender_StraightQuotesByDefault(t *testing.T) {
	out := render(t, Options{}, "'one'")
	require.Equal(t, "<p>'one'</p>\n", out)
}

func TestRender_CurlyQuotesSkipCode(t *testing.T) {
	input := "\n'one'\n```\n'two'\n```\n`'three'` 'four'"
	expected := "<p>‘one’</p>\n<pre><code>'two'\n</code></pre>\n<p><code>'three'</code> ‘four’</p>\n"

	out := render(t, Options{CurlyQuotes: true}, input)
	require.Equal(t, expected, out)
}

func TestRender_ProseAroundCodeBlockStable(t *testing.T) {
	input := "some text with spaces\n```rust\nfn main() {\n// code inside is unchanged\n}\n```\nmore text with spaces\n"
	expected := "<p>some text with spaces</p>\n" +
		"<pre><code class=\"language-rust\">fn main() {\n// code inside is unchanged\n}\n</code></pre>\n" +
		"<p>more text with spaces</p>\n"

	require.Equal(t, expected, render(t, Options{}, input))
	require.Equal(t, expected, render(t, Options{CurlyQuotes: true}, input))
}

func TestRender_CodeBlockInfoKeptVerbatim(t *testing.T) {
	out := render(t, Options{}, "```rust,no_run,should_panic,property_3\n```")
	require.Equal(t, "<pre><code class=\"language-rust,no_run,should_panic,property_3\"></code></pre>\n", out)
}

func TestRender_CodeBlockInfoWhitespaceStripped(t *testing.T) {
	out := render(t, Options{}, "```rust,    no_run,,,should_panic , ,property_3\n```")
	require.Equal(t, "<pre><code class=\"language-rust,no_run,,,should_panic,,property_3\"></code></pre>\n", out)
}

func TestRender_CodeBlockWithoutInfo(t *testing.T) {
	out := render(t, Options{}, "```\nx\n```")
	require.Equal(t, "<pre><code>x\n</code></pre>\n", out)
}

func TestRender_HeadingIDs(t *testing.T) {
	out := render(t, Options{HeadingIDs: true}, "# Title\n\n## Title\n")
	require.Equal(t, "<h1 id=\"title\">Title</h1>\n<h2 id=\"title-1\">Title</h2>\n", out)
}

func TestRender_HeadingIDsNormalized(t *testing.T) {
	out := render(t, Options{HeadingIDs: true}, "## `--passes`: add more rustdoc passes\n")
	require.Equal(t, "<h2 id=\"--passes-add-more-rustdoc-passes\"><code>--passes</code>: add more rustdoc passes</h2>\n", out)
}

func TestRender_NoHeadingIDsByDefault(t *testing.T) {
	out := render(t, Options{}, "# Title\n")
	require.Equal(t, "<h1>Title</h1>\n", out)
}

func TestRender_InlineHTMLLinkRewritten(t *testing.T) {
	out := render(t, Options{}, `Click <a href="page.md">here</a>.`)
	require.Equal(t, "<p>Click <a href=\"page.html\">here</a>.</p>\n", out)
}

func TestRender_HTMLBlockLinkRewritten(t *testing.T) {
	out := render(t, Options{}, "<div>\n<a href=\"x.md\">x</a>\n</div>\n")
	require.Equal(t, "<div>\n<a href=\"x.html\">x</a>\n</div>\n", out)
}

func TestRender_SanitizeDropsRawHTML(t *testing.T) {
	out := render(t, Options{SanitizeHTML: true}, `Click <a href="x.html">y</a>`)
	require.Equal(t, "<p>Click <!-- raw HTML omitted -->y<!-- raw HTML omitted --></p>\n", out)
}

func TestRender_HighlightEmitsChromaClasses(t *testing.T) {
	out := render(t, Options{Highlight: true}, "```go\nfmt.Println(\"hi\")\n```\n")
	require.Contains(t, out, "chroma")
	require.NotContains(t, out, "language-go")
}

func TestRender_ImageDestinationResolved(t *testing.T) {
	r := New(Options{Exists: existsIn("book/en/diagram.png")})
	ctx := LinkContext{SourceDir: "book/ja", Fallback: "../en"}
	out, err := r.RenderWithContext([]byte("![d](diagram.png)"), ctx)
	require.NoError(t, err)
	require.Equal(t, "<p><img src=\"../en/diagram.png\" alt=\"d\"></p>\n", out)
}

func TestRender_PagePathPrefixesRelativeLinks(t *testing.T) {
	r := New(Options{})

	out, err := r.RenderWithContext([]byte("[x](ch/page.md)"), LinkContext{Path: "print.md"})
	require.NoError(t, err)
	require.Equal(t, "<p><a href=\"ch/page.html\">x</a></p>\n", out)

	out, err = r.RenderWithContext([]byte("[x](ch/page.md)"), LinkContext{Path: "guide/print.md"})
	require.NoError(t, err)
	require.Equal(t, "<p><a href=\"guide/ch/page.html\">x</a></p>\n", out)

	out, err = r.RenderWithContext([]byte("[x](#a)"), LinkContext{Path: "print.md"})
	require.NoError(t, err)
	require.Equal(t, "<p><a href=\"print.html#a\">x</a></p>\n", out)
}

func TestRender_FallbackRedirectOnDisk(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "book", "ja")
	en := filepath.Join(root, "book", "en")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.MkdirAll(en, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(en, "chapter_1.md"), []byte("# Chapter 1\n"), 0o644))

	ctx := LinkContext{SourceDir: src, Fallback: "../en"}
	expected := "<p><a href=\"../en/chapter_1.html\">Link</a></p>\n"

	for _, opts := range []Options{{}, {CurlyQuotes: true}} {
		out, err := New(opts).RenderWithContext([]byte("[Link](chapter_1.md)\n"), ctx)
		require.NoError(t, err)
		require.Equal(t, expected, out)
	}
}

func TestRender_ExtensionsEnabled(t *testing.T) {
	out := render(t, Options{}, "| a |\n| - |\n| b |\n")
	require.Contains(t, out, "<table>")

	out = render(t, Options{}, "~~gone~~")
	require.Contains(t, out, "<del>gone</del>")
}
