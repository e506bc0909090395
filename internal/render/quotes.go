package render

import (
	"strings"
	"unicode"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// convertQuotes rewrites straight ASCII quotes to typographic ones. A quote
// opens when the preceding character in the run is whitespace (the run
// start counts as whitespace) and closes otherwise. Backslash-escaped
// quotes are left straight so the serializer's escape handling still sees
// them. Everything else passes through byte-exact.
func convertQuotes(s string) string {
	if !strings.ContainsAny(s, `'"`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	prev := ' '
	for _, r := range s {
		switch {
		case r == '\'' && prev != '\\':
			if unicode.IsSpace(prev) {
				sb.WriteRune('‘')
			} else {
				sb.WriteRune('’')
			}
		case r == '"' && prev != '\\':
			if unicode.IsSpace(prev) {
				sb.WriteRune('“')
			} else {
				sb.WriteRune('”')
			}
		default:
			sb.WriteRune(r)
		}
		prev = r
	}
	return sb.String()
}

// smartQuoteRenderer replaces the stock text renderer so prose runs get
// curly quotes. Code spans and code blocks emit their content straight from
// the source segments and never reach a text node here, which is exactly
// the suspension behavior wanted inside code.
type smartQuoteRenderer struct {
	html.Config
}

func newSmartQuoteRenderer() renderer.NodeRenderer {
	return &smartQuoteRenderer{Config: html.NewConfig()}
}

func (r *smartQuoteRenderer) SetOption(name renderer.OptionName, value any) {
	r.Config.SetOption(name, value)
}

func (r *smartQuoteRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(gmast.KindText, r.renderText)
}

func (r *smartQuoteRenderer) renderText(w util.BufWriter, source []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	n := node.(*gmast.Text)
	segment := n.Segment
	if n.IsRaw() {
		r.Writer.RawWrite(w, segment.Value(source))
		return gmast.WalkContinue, nil
	}
	r.Writer.Write(w, []byte(convertQuotes(string(segment.Value(source)))))
	switch {
	case n.HardLineBreak() || (n.SoftLineBreak() && r.HardWraps):
		if r.XHTML {
			_, _ = w.WriteString("<br />\n")
		} else {
			_, _ = w.WriteString("<br>\n")
		}
	case n.SoftLineBreak():
		_ = w.WriteByte('\n')
	}
	return gmast.WalkContinue, nil
}
