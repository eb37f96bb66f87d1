package collyfetcher

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRobotsCacheTransportCachesPerHost(t *testing.T) {
	t.Parallel()

	base := &countingRoundTripper{}
	transport := newRobotsCacheTransport(base)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "https://example.com/robots.txt", nil)
		resp, err := transport.RoundTrip(req)
		if err != nil {
			t.Fatalf("RoundTrip %d: %v", i, err)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if cerr := resp.Body.Close(); cerr != nil {
			t.Fatalf("close body: %v", cerr)
		}
		if string(body) != "User-agent: *\nDisallow:" {
			t.Fatalf("unexpected body: %q", string(body))
		}
	}
	if base.calls != 1 {
		t.Fatalf("expected one upstream robots fetch, got %d", base.calls)
	}

	// A different host is a separate cache entry.
	req := httptest.NewRequest(http.MethodGet, "https://other.example.com/robots.txt", nil)
	if _, err := transport.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip other host: %v", err)
	}
	if base.calls != 2 {
		t.Fatalf("expected second upstream robots fetch, got %d", base.calls)
	}
}

func TestRobotsCacheTransportPassesThroughOtherPaths(t *testing.T) {
	t.Parallel()

	base := &countingRoundTripper{}
	transport := newRobotsCacheTransport(base)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "https://example.com/tag54.html", nil)
		resp, err := transport.RoundTrip(req)
		if err != nil {
			t.Fatalf("RoundTrip %d: %v", i, err)
		}
		if cerr := resp.Body.Close(); cerr != nil {
			t.Fatalf("close body: %v", cerr)
		}
	}
	if base.calls != 2 {
		t.Fatalf("expected every page request to pass through, got %d calls", base.calls)
	}
}

type countingRoundTripper struct {
	calls int
}

func (c *countingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	c.calls++
	const body = "User-agent: *\nDisallow:"
	return &http.Response{
		StatusCode:    http.StatusOK,
		Status:        "200 OK",
		Header:        make(http.Header),
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}, nil
}
