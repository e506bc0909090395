package linkcheck

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/bookbinder/internal/metrics"
	"git.home.luguber.info/inful/bookbinder/internal/version"
)

// maxConcurrentProbes bounds in-flight external requests.
const maxConcurrentProbes = 8

// prober issues HEAD probes against external URLs. Each distinct URL is
// requested once per run; concurrent probes of the same URL wait for
// the first result.
type prober struct {
	client   *http.Client
	recorder metrics.Recorder
	sem      chan struct{}

	mu      sync.Mutex
	results map[string]*probeResult
}

type probeResult struct {
	done   chan struct{}
	reason string
}

func newProber(client *http.Client, recorder metrics.Recorder) *prober {
	return &prober{
		client:   client,
		recorder: recorder,
		sem:      make(chan struct{}, maxConcurrentProbes),
		results:  make(map[string]*probeResult),
	}
}

// probe checks one URL and returns a failure reason, or "" when the
// target is reachable.
func (p *prober) probe(ctx context.Context, rawURL string) string {
	p.mu.Lock()
	if r, ok := p.results[rawURL]; ok {
		p.mu.Unlock()
		select {
		case <-r.done:
			return r.reason
		case <-ctx.Done():
			return "probe canceled"
		}
	}
	r := &probeResult{done: make(chan struct{})}
	p.results[rawURL] = r
	p.mu.Unlock()
	defer close(r.done)

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		r.reason = "probe canceled"
		return r.reason
	}
	defer func() { <-p.sem }()

	start := time.Now()
	err := p.check(ctx, rawURL)
	p.recorder.ObserveLinkProbe(time.Since(start), err == nil)

	if err != nil {
		r.reason = err.Error()
	}
	return r.reason
}

// check issues a HEAD request and falls back to GET when the server
// rejects HEAD with 404 or 405, since some servers only implement GET.
func (p *prober) check(ctx context.Context, rawURL string) error {
	status, err := p.request(ctx, http.MethodHead, rawURL)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound || status == http.StatusMethodNotAllowed {
		status, err = p.request(ctx, http.MethodGet, rawURL)
		if err != nil {
			return err
		}
	}
	if status >= 400 && !reachableStatus(status) {
		return fmt.Errorf("HTTP %d", status)
	}
	return nil
}

func (p *prober) request(ctx context.Context, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

// reachableStatus reports error statuses that still prove the target
// exists: auth walls and rate limits.
func reachableStatus(status int) bool {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden,
		http.StatusMethodNotAllowed, http.StatusTooManyRequests:
		return true
	}
	return false
}
