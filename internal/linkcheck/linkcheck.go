// Package linkcheck verifies a rendered output tree: every `a[href]` and
// `img[src]` in every HTML page must point at something that exists —
// a file on disk for local targets, an element id for fragments, and a
// reachable URL for external targets when external probing is enabled.
package linkcheck

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"git.home.luguber.info/inful/bookbinder/internal/config"
	"git.home.luguber.info/inful/bookbinder/internal/foundation/errors"
	"git.home.luguber.info/inful/bookbinder/internal/logfields"
	"git.home.luguber.info/inful/bookbinder/internal/metrics"
)

// BrokenLink describes one failed target.
type BrokenLink struct {
	// Page is the output-relative path of the page carrying the link.
	Page string

	// Target is the destination exactly as written in the HTML.
	Target string

	// Reason says what failed.
	Reason string
}

// Report aggregates one verification run.
type Report struct {
	// Pages is the number of HTML files scanned.
	Pages int

	// Links is the number of link occurrences examined.
	Links int

	// External is the number of external URLs probed.
	External int

	// Broken lists every failed target, sorted by page then target.
	Broken []BrokenLink
}

// Ok reports whether the tree passed.
func (r *Report) Ok() bool { return len(r.Broken) == 0 }

// Checker verifies the output tree for one configuration.
type Checker struct {
	root     string
	external bool
	client   *http.Client
	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewChecker creates a Checker over cfg's output directory.
func NewChecker(cfg *config.Config) *Checker {
	return &Checker{
		root:     cfg.Output.Directory,
		external: cfg.LinkCheck.External,
		client:   &http.Client{Timeout: cfg.LinkCheck.TimeoutDuration()},
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
}

// WithLogger injects a logger.
func (c *Checker) WithLogger(logger *slog.Logger) *Checker {
	c.logger = logger
	return c
}

// WithRecorder injects a metrics recorder.
func (c *Checker) WithRecorder(recorder metrics.Recorder) *Checker {
	c.recorder = recorder
	return c
}

// WithHTTPClient overrides the probe client (tests point it at httptest).
func (c *Checker) WithHTTPClient(client *http.Client) *Checker {
	c.client = client
	return c
}

// Check scans every HTML page under the output root and verifies its
// links. A non-empty broken list yields a classified link error; the
// report is returned either way.
func (c *Checker) Check(ctx context.Context) (*Report, error) {
	pages, err := c.scanPages()
	if err != nil {
		return nil, err
	}

	report := &Report{Pages: len(pages)}
	prober := newProber(c.client, c.recorder)

	var (
		mu     sync.Mutex
		broken []BrokenLink
		extWG  sync.WaitGroup
	)

	rels := make([]string, 0, len(pages))
	for rel := range pages {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	for _, rel := range rels {
		if ctx.Err() != nil {
			break
		}
		for _, link := range pages[rel].links {
			report.Links++
			switch classify(link.dest) {
			case linkSkip:
				continue

			case linkExternal:
				if !c.external {
					continue
				}
				report.External++
				extWG.Add(1)
				go func(page, dest string) {
					defer extWG.Done()
					reason := prober.probe(ctx, dest)
					ok := reason == ""
					c.recorder.IncLinkResult(ok)
					if !ok {
						mu.Lock()
						broken = append(broken, BrokenLink{Page: page, Target: dest, Reason: reason})
						mu.Unlock()
					}
				}(rel, link.dest)

			case linkLocal:
				ok, reason := c.checkLocal(pages, rel, link.dest)
				c.recorder.IncLinkResult(ok)
				if !ok {
					broken = append(broken, BrokenLink{Page: rel, Target: link.dest, Reason: reason})
				}
			}
		}
	}

	extWG.Wait()

	if ctx.Err() != nil {
		return nil, errors.WrapError(ctx.Err(), errors.CategoryRuntime, "link check canceled").Build()
	}

	sort.Slice(broken, func(i, j int) bool {
		if broken[i].Page != broken[j].Page {
			return broken[i].Page < broken[j].Page
		}
		return broken[i].Target < broken[j].Target
	})
	report.Broken = broken

	for _, b := range broken {
		c.logger.Warn("broken link",
			logfields.Page(b.Page),
			logfields.Dest(b.Target),
			slog.String("reason", b.Reason))
	}
	c.logger.Info("link check complete",
		logfields.Pages(report.Pages),
		slog.Int("links", report.Links),
		slog.Int("broken", len(broken)))

	if len(broken) > 0 {
		return report, errors.LinkError(fmt.Sprintf("%d broken links across %d pages", len(broken), report.Pages)).
			WithContext("broken", fmt.Sprintf("%d", len(broken))).
			Build()
	}
	return report, nil
}

// scanPages parses every HTML file under the root into its link and id
// sets, keyed by slash-separated relative path.
func (c *Checker) scanPages() (map[string]*pageInfo, error) {
	pages := make(map[string]*pageInfo)
	err := filepath.WalkDir(c.root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".html") {
			return nil
		}
		rel, rerr := filepath.Rel(c.root, p)
		if rerr != nil {
			return rerr
		}
		f, ferr := os.Open(p)
		if ferr != nil {
			return ferr
		}
		info, perr := parsePage(f)
		_ = f.Close()
		if perr != nil {
			return fmt.Errorf("parse %s: %w", rel, perr)
		}
		pages[filepath.ToSlash(rel)] = info
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryLink, "failed to scan output tree").
			WithContext("path", c.root).
			Build()
	}
	return pages, nil
}
