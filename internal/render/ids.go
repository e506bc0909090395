package render

import (
	"fmt"
	"strings"
	"unicode"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
)

// NormalizeID converts arbitrary text to a valid HTML element id. Unicode
// letters and digits, underscores and hyphens survive; ASCII letters are
// lowercased (non-ASCII letters keep their case); whitespace becomes a
// hyphen; everything else is dropped. Idempotent.
func NormalizeID(content string) string {
	var sb strings.Builder
	sb.Grow(len(content))
	for _, r := range content {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-':
			if r >= 'A' && r <= 'Z' {
				r += 'a' - 'A'
			}
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

// inlineRemnants strips the inline markup that heading text may still carry
// by the time ids are generated: literal emphasis/code tags and the entity
// escapes the serializer uses for <, >, &, ' and ".
var inlineRemnants = strings.NewReplacer(
	"<em>", "", "</em>", "",
	"<code>", "", "</code>", "",
	"<strong>", "", "</strong>", "",
	"&lt;", "", "&gt;", "", "&amp;", "", "&#39;", "", "&quot;", "",
)

// IDFromContent derives an anchor id from heading text. Inline markup
// remnants are stripped, surrounding whitespace and leading '#' markers are
// trimmed, then the result is normalized with NormalizeID.
func IDFromContent(content string) string {
	content = inlineRemnants.Replace(content)
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimLeft(trimmed, "#")
	trimmed = strings.TrimSpace(trimmed)
	return NormalizeID(trimmed)
}

// headingIDs implements parser.IDs over IDFromContent, suffixing repeated
// ids with -1, -2, … within a single render.
type headingIDs struct {
	used map[string]bool
}

func newHeadingIDs() parser.IDs {
	return &headingIDs{used: map[string]bool{}}
}

func (s *headingIDs) Generate(value []byte, _ gmast.NodeKind) []byte {
	id := IDFromContent(string(value))
	if id == "" {
		id = "heading"
	}
	if !s.used[id] {
		s.used[id] = true
		return []byte(id)
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d", id, i)
		if !s.used[candidate] {
			s.used[candidate] = true
			return []byte(candidate)
		}
	}
}

func (s *headingIDs) Put(value []byte) {
	s.used[string(value)] = true
}
