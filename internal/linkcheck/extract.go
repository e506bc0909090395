package linkcheck

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/bookbinder/internal/render"
)

// pageLink is one link occurrence inside a page.
type pageLink struct {
	tag  string
	dest string
}

// pageInfo holds everything link verification needs from one page:
// the outgoing links and the set of anchorable element ids.
type pageInfo struct {
	links []pageLink
	ids   map[string]bool
}

// parsePage extracts links and ids from one HTML document.
func parsePage(r io.Reader) (*pageInfo, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	info := &pageInfo{ids: make(map[string]bool)}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if id := getAttr(n, "id"); id != "" {
				info.ids[id] = true
			}
			switch n.Data {
			case "a":
				// Legacy anchors use name instead of id.
				if name := getAttr(n, "name"); name != "" {
					info.ids[name] = true
				}
				if href := getAttr(n, "href"); href != "" {
					info.links = append(info.links, pageLink{tag: "a", dest: href})
				}
			case "img":
				if src := getAttr(n, "src"); src != "" {
					info.links = append(info.links, pageLink{tag: "img", dest: src})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return info, nil
}

// getAttr returns the value of the named attribute, or "".
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// linkKind partitions destinations into the three verification paths.
type linkKind int

const (
	linkSkip linkKind = iota
	linkLocal
	linkExternal
)

// classify decides how a destination is verified. Non-HTTP schemes
// (mailto:, tel:, data:) and protocol-relative URLs cannot be probed
// and are skipped.
func classify(dest string) linkKind {
	switch {
	case dest == "":
		return linkSkip
	case strings.HasPrefix(dest, "#"):
		return linkLocal
	case render.IsSchemeQualified(dest):
		if strings.HasPrefix(dest, "http:") || strings.HasPrefix(dest, "https:") {
			return linkExternal
		}
		return linkSkip
	case strings.HasPrefix(dest, "//"):
		return linkSkip
	default:
		return linkLocal
	}
}

// checkLocal verifies a file or fragment target. Paths resolve relative
// to the page's directory; a leading slash anchors at the output root.
// Targets escaping the root (sibling language builds) are checked on
// disk only, since their pages were never parsed for ids.
func (c *Checker) checkLocal(pages map[string]*pageInfo, pageRel, dest string) (bool, string) {
	u, err := url.Parse(dest)
	if err != nil {
		return false, "unparseable destination"
	}

	if u.Path == "" {
		// Fragment within the same page. A bare "#" means page top.
		if u.Fragment == "" || pages[pageRel].ids[u.Fragment] {
			return true, ""
		}
		return false, fmt.Sprintf("missing fragment #%s", u.Fragment)
	}

	var target string
	if strings.HasPrefix(u.Path, "/") {
		target = filepath.Join(c.root, filepath.FromSlash(u.Path))
	} else {
		target = filepath.Join(c.root, filepath.Dir(filepath.FromSlash(pageRel)), filepath.FromSlash(u.Path))
	}

	fi, err := os.Stat(target)
	if err != nil {
		return false, "target does not exist"
	}
	if fi.IsDir() {
		target = filepath.Join(target, "index.html")
		if _, err := os.Stat(target); err != nil {
			return false, "directory without index.html"
		}
	}

	if u.Fragment != "" {
		if rel, rerr := filepath.Rel(c.root, target); rerr == nil {
			relSlash := filepath.ToSlash(rel)
			if info, ok := pages[relSlash]; ok && !info.ids[u.Fragment] {
				return false, fmt.Sprintf("missing fragment #%s in %s", u.Fragment, relSlash)
			}
		}
	}

	return true, ""
}
