package render

import (
	"bytes"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// htmlRewriter reproduces the stock raw-HTML passthrough while routing
// href/src attributes on <a> and <img> tags through link resolution. With
// unsafe rendering off it emits the usual omission comments instead.
type htmlRewriter struct {
	html.Config
	ctx    LinkContext
	exists ExistsFunc
}

func newHTMLRewriter(ctx LinkContext, exists ExistsFunc) renderer.NodeRenderer {
	return &htmlRewriter{Config: html.NewConfig(), ctx: ctx, exists: exists}
}

func (r *htmlRewriter) SetOption(name renderer.OptionName, value any) {
	r.Config.SetOption(name, value)
}

func (r *htmlRewriter) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(gmast.KindRawHTML, r.renderRawHTML)
	reg.Register(gmast.KindHTMLBlock, r.renderHTMLBlock)
}

func (r *htmlRewriter) renderRawHTML(w util.BufWriter, source []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkSkipChildren, nil
	}
	if !r.Unsafe {
		_, _ = w.WriteString("<!-- raw HTML omitted -->")
		return gmast.WalkSkipChildren, nil
	}
	n := node.(*gmast.RawHTML)
	var fragment bytes.Buffer
	l := n.Segments.Len()
	for i := 0; i < l; i++ {
		segment := n.Segments.At(i)
		fragment.Write(segment.Value(source))
	}
	_, _ = w.WriteString(fixHTMLLinks(fragment.String(), r.ctx, r.exists))
	return gmast.WalkSkipChildren, nil
}

func (r *htmlRewriter) renderHTMLBlock(w util.BufWriter, source []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	n := node.(*gmast.HTMLBlock)
	if entering {
		if !r.Unsafe {
			_, _ = w.WriteString("<!-- raw HTML omitted -->\n")
			return gmast.WalkContinue, nil
		}
		l := n.Lines().Len()
		for i := 0; i < l; i++ {
			line := n.Lines().At(i)
			r.Writer.SecureWrite(w, []byte(fixHTMLLinks(string(line.Value(source)), r.ctx, r.exists)))
		}
	} else if n.HasClosure() {
		if r.Unsafe {
			closure := n.ClosureLine
			r.Writer.SecureWrite(w, []byte(fixHTMLLinks(string(closure.Value(source)), r.ctx, r.exists)))
		} else {
			_, _ = w.WriteString("<!-- raw HTML omitted -->\n")
		}
	}
	return gmast.WalkContinue, nil
}
