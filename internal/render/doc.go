// Package render converts markdown book pages to HTML.
//
// Goldmark does the parsing and serialization; this package layers the
// book-specific behavior on top: relative link destinations are resolved
// against the page's location (with an optional default-locale fallback
// directory for partially translated books), straight quotes can be
// rewritten to typographic ones outside of code, fenced code blocks carry
// their full info string as a language class, and headings can receive
// stable anchor ids.
//
// A Renderer is cheap to construct and safe for concurrent use; every
// render owns its own parser and state. Link resolution probes the
// filesystem for existence only and never reads file contents.
package render
