package render

import (
	"strings"
	"unicode"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// codeBlockRenderer emits fenced code blocks with the whole info string,
// stripped of whitespace, as the language class. The stock renderer keeps
// only the first word, which drops attribute lists like "rust,no_run".
type codeBlockRenderer struct {
	html.Config
}

func newCodeBlockRenderer() renderer.NodeRenderer {
	return &codeBlockRenderer{Config: html.NewConfig()}
}

func (r *codeBlockRenderer) SetOption(name renderer.OptionName, value any) {
	r.Config.SetOption(name, value)
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(gmast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *codeBlockRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	n := node.(*gmast.FencedCodeBlock)
	if entering {
		_, _ = w.WriteString("<pre><code")
		if n.Info != nil {
			if info := stripWhitespace(n.Info.Segment.Value(source)); len(info) > 0 {
				_, _ = w.WriteString(` class="language-`)
				r.Writer.Write(w, info)
				_ = w.WriteByte('"')
			}
		}
		_ = w.WriteByte('>')
		l := n.Lines().Len()
		for i := 0; i < l; i++ {
			line := n.Lines().At(i)
			r.Writer.RawWrite(w, line.Value(source))
		}
	} else {
		_, _ = w.WriteString("</code></pre>\n")
	}
	return gmast.WalkContinue, nil
}

func stripWhitespace(b []byte) []byte {
	return []byte(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, string(b)))
}
