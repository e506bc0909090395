package render

import "regexp"

var whitespaceRun = regexp.MustCompile(`\s\s+`)

// CollapseWhitespace replaces every run of two or more whitespace characters
// with a single space. Single whitespace characters are left untouched.
func CollapseWhitespace(s string) string {
	return whitespaceRun.ReplaceAllString(s, " ")
}
