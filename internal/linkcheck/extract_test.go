package linkcheck

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePage(t *testing.T) {
	const doc = `<!DOCTYPE html>
<html>
<body id="top">
<h1 id="title">Title</h1>
<a name="legacy"></a>
<p><a href="other.html">other</a> <a href="#title">up</a></p>
<div><img src="img/logo.png" alt="logo"></div>
<a href="">blank</a>
</body>
</html>`

	info, err := parsePage(strings.NewReader(doc))
	require.NoError(t, err)

	require.Equal(t, []pageLink{
		{tag: "a", dest: "other.html"},
		{tag: "a", dest: "#title"},
		{tag: "img", dest: "img/logo.png"},
	}, info.links)

	require.True(t, info.ids["top"])
	require.True(t, info.ids["title"])
	require.True(t, info.ids["legacy"])
	require.False(t, info.ids["missing"])
}

func TestClassify(t *testing.T) {
	tests := []struct {
		dest string
		want linkKind
	}{
		{"", linkSkip},
		{"#top", linkLocal},
		{"page.html", linkLocal},
		{"../en/page.html", linkLocal},
		{"/index.html", linkLocal},
		{"img/logo.png", linkLocal},
		{"https://example.com/docs", linkExternal},
		{"http://example.com", linkExternal},
		{"mailto:team@example.com", linkSkip},
		{"tel:+4712345678", linkSkip},
		{"data:image/png;base64,AAAA", linkSkip},
		{"//cdn.example.com/lib.js", linkSkip},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, classify(tt.dest), "dest %q", tt.dest)
	}
}
