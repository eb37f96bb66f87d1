package collyfetcher

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// robotsCacheTransport memoizes robots.txt responses per host. Colly consults
// robots.txt before every request when IgnoreRobotsTxt is false; without the
// cache a batch of detail fetches would hammer the same file.
type robotsCacheTransport struct {
	base http.RoundTripper

	mu    sync.Mutex
	cache map[string]*cachedRobots
}

type cachedRobots struct {
	status int
	header http.Header
	body   []byte
}

func newRobotsCacheTransport(base http.RoundTripper) *robotsCacheTransport {
	return &robotsCacheTransport{
		base:  base,
		cache: make(map[string]*cachedRobots),
	}
}

func (t *robotsCacheTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("robots transport received nil request")
	}
	if !isRobotsTxtRequest(req) {
		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return nil, fmt.Errorf("robots transport base roundtrip: %w", err)
		}
		return resp, nil
	}

	host := req.URL.Host
	t.mu.Lock()
	entry, ok := t.cache[host]
	t.mu.Unlock()
	if ok {
		return entry.response(req), nil
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("robots fetch: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("read robots body: %w", err)
	}

	entry = &cachedRobots{
		status: resp.StatusCode,
		header: resp.Header.Clone(),
		body:   body,
	}
	t.mu.Lock()
	t.cache[host] = entry
	t.mu.Unlock()
	return entry.response(req), nil
}

func (e *cachedRobots) response(req *http.Request) *http.Response {
	return &http.Response{
		StatusCode:    e.status,
		Status:        fmt.Sprintf("%d %s", e.status, http.StatusText(e.status)),
		Header:        e.header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(e.body)),
		ContentLength: int64(len(e.body)),
		Request:       req,
	}
}

func isRobotsTxtRequest(req *http.Request) bool {
	if req == nil || req.URL == nil {
		return false
	}
	return strings.EqualFold(req.URL.Path, "/robots.txt")
}
