package book

import (
	"bytes"
	"html/template"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"

	"git.home.luguber.info/inful/bookbinder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbinder/internal/fsutil"
)

// shellTemplate is the minimal HTML5 document every rendered page is
// wrapped in. Navigation and theming stay out of scope; the shell carries
// just the metadata the output needs to stand alone.
const shellTemplate = `<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{- if .Description}}
<meta name="description" content="{{.Description}}">
{{- end}}
{{- if .ChromaCSS}}
<link rel="stylesheet" href="{{.PathToRoot}}css/chroma.css">
{{- end}}
</head>
<body>
{{.Content}}
{{- if .LiveReload}}
<script src="/livereload.js"></script>
{{- end}}
</body>
</html>
`

var shellTpl = template.Must(template.New("page").Parse(shellTemplate))

type shellData struct {
	Lang        string
	Title       string
	Description string
	PathToRoot  string
	Content     template.HTML
	ChromaCSS   bool
	LiveReload  bool
}

// renderShell wraps a rendered page body in the document shell.
func (e *Engine) renderShell(rel, title, body string) ([]byte, error) {
	data := shellData{
		Lang:        e.cfg.Book.LanguageTag().String(),
		Title:       e.fullTitle(title),
		Description: e.cfg.Book.Description,
		PathToRoot:  fsutil.PathToRoot(rel),
		Content:     template.HTML(body),
		ChromaCSS:   e.cfg.Render.Highlight,
		LiveReload:  e.liveReload,
	}

	var buf bytes.Buffer
	if err := shellTpl.Execute(&buf, data); err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, "failed to render page shell").
			WithContext("page", rel).
			Build()
	}
	return buf.Bytes(), nil
}

// fullTitle combines the page heading with the book title the way browser
// tabs expect: "Page - Book".
func (e *Engine) fullTitle(pageTitle string) string {
	bookTitle := e.cfg.Book.Title
	if pageTitle == "" || pageTitle == bookTitle {
		return bookTitle
	}
	if bookTitle == "" {
		return pageTitle
	}
	return pageTitle + " - " + bookTitle
}

// writeHighlightCSS emits the class-based chroma stylesheet the highlighted
// code blocks reference.
func (e *Engine) writeHighlightCSS(out string) error {
	style := styles.Get(e.cfg.Render.HighlightStyle)
	var buf bytes.Buffer
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&buf, style); err != nil {
		return errors.WrapError(err, errors.CategoryBuild, "failed to generate highlight stylesheet").
			WithContext("style", e.cfg.Render.HighlightStyle).
			Build()
	}
	return fsutil.WriteFile(out, "css/chroma.css", buf.Bytes())
}
