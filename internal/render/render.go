package render

import (
	"bytes"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Options control optional renderer behavior. The zero value renders
// CommonMark plus tables, footnotes, strikethrough and task lists, passes
// raw HTML through, and applies no typographic or anchor processing.
type Options struct {
	// CurlyQuotes rewrites straight quotes in prose to typographic ones.
	CurlyQuotes bool

	// HeadingIDs gives every heading an anchor id derived from its text,
	// de-duplicated within one render.
	HeadingIDs bool

	// Highlight replaces the language-class passthrough on fenced code
	// blocks with server-side chroma highlighting (class-based markup).
	Highlight bool

	// HighlightStyle selects the chroma style when Highlight is set.
	// Empty means "github".
	HighlightStyle string

	// SanitizeHTML drops raw HTML fragments instead of passing them
	// through.
	SanitizeHTML bool

	// Exists overrides the filesystem existence probe used during link
	// resolution. Nil means os.Stat.
	Exists ExistsFunc
}

// Renderer converts markdown to HTML with book-aware link handling. Safe
// for concurrent use; each render owns its parser and state.
type Renderer struct {
	opts   Options
	exists ExistsFunc
}

// New returns a Renderer with the given options.
func New(opts Options) *Renderer {
	exists := opts.Exists
	if exists == nil {
		exists = osExists
	}
	return &Renderer{opts: opts, exists: exists}
}

// Render converts markdown with no page context: fragment-only links keep
// their bare form, nothing is probed, and relative destinations only get
// the .md -> .html rewrite.
func (r *Renderer) Render(src []byte) (string, error) {
	return r.RenderWithContext(src, LinkContext{})
}

// RenderWithContext converts markdown, resolving link destinations against
// the page metadata in ctx.
func (r *Renderer) RenderWithContext(src []byte, ctx LinkContext) (string, error) {
	md := r.newGoldmark(ctx)
	pctx := parser.NewContext(parser.WithIDs(newHeadingIDs()))
	var buf bytes.Buffer
	if err := md.Convert(src, &buf, parser.WithContext(pctx)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// newGoldmark assembles a parser/serializer pair for one render. Goldmark
// construction is cheap; building per render keeps the link context out of
// shared state.
func (r *Renderer) newGoldmark(ctx LinkContext) goldmark.Markdown {
	exts := []goldmark.Extender{
		extension.Table,
		extension.Footnote,
		extension.Strikethrough,
		extension.TaskList,
	}
	parserOpts := []parser.Option{
		parser.WithASTTransformers(
			util.Prioritized(&destinationFixer{ctx: ctx, exists: r.exists}, 500),
		),
	}
	if r.opts.HeadingIDs {
		parserOpts = append(parserOpts, parser.WithAutoHeadingID())
	}

	nodeRenderers := []util.PrioritizedValue{
		util.Prioritized(newHTMLRewriter(ctx, r.exists), 200),
	}
	if r.opts.CurlyQuotes {
		nodeRenderers = append(nodeRenderers, util.Prioritized(newSmartQuoteRenderer(), 200))
	}
	if r.opts.Highlight {
		style := r.opts.HighlightStyle
		if style == "" {
			style = "github"
		}
		exts = append(exts, highlighting.NewHighlighting(
			highlighting.WithStyle(style),
			highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
		))
	} else {
		nodeRenderers = append(nodeRenderers, util.Prioritized(newCodeBlockRenderer(), 200))
	}

	rendererOpts := []renderer.Option{renderer.WithNodeRenderers(nodeRenderers...)}
	if !r.opts.SanitizeHTML {
		rendererOpts = append(rendererOpts, html.WithUnsafe())
	}

	return goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parserOpts...),
		goldmark.WithRendererOptions(rendererOpts...),
	)
}
