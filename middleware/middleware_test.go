package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace/noop"
)

func okTransport(seen *[]*http.Request) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		*seen = append(*seen, req)
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader("OK")),
			Request:    req,
		}, nil
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.RoundTripper) http.RoundTripper {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(req)
			})
		}
	}

	var seen []*http.Request
	rt := Chain(okTransport(&seen), mark("first"), nil, mark("second"))

	req := httptest.NewRequest(http.MethodPost, "http://example.com/upload", nil)
	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatal(err)
	}

	if strings.Join(order, ",") != "first,second" {
		t.Errorf("unexpected middleware order: %v", order)
	}
	if len(seen) != 1 {
		t.Errorf("expected 1 request at the transport, got %d", len(seen))
	}
}

func TestRequestID(t *testing.T) {
	var seen []*http.Request
	rt := Chain(okTransport(&seen), RequestID())

	req := httptest.NewRequest(http.MethodPost, "http://example.com/upload", nil)
	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatal(err)
	}
	if seen[0].Header.Get(RequestIDHeader) == "" {
		t.Error("expected request ID header to be set")
	}
	if req.Header.Get(RequestIDHeader) != "" {
		t.Error("caller's request should not be mutated")
	}

	req = httptest.NewRequest(http.MethodPost, "http://example.com/upload", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatal(err)
	}
	if got := seen[1].Header.Get(RequestIDHeader); got != "fixed-id" {
		t.Errorf("expected existing request ID to be kept, got %s", got)
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)

	failing := RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadRequest,
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader(`{"error":"bad input"}`)),
			Request:    req,
		}, nil
	})

	rt := Chain(failing, RequestID(), Logging(logger))
	req := httptest.NewRequest(http.MethodPost, "http://example.com/upload", nil)

	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", resp.StatusCode)
	}

	out := buf.String()
	for _, want := range []string{"Request started", "client error", "status=400", "request_id="} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log output to contain %q, got %s", want, out)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(time.Hour, 1)

	if !rl.Allow() {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow() {
		t.Fatal("second request should be limited")
	}

	var seen []*http.Request
	rt := Chain(okTransport(&seen), rl.RoundTripper)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "http://example.com/upload", nil).WithContext(ctx)

	if _, err := rt.RoundTrip(req); err == nil {
		t.Fatal("expected rate limiter to give up when the context expires")
	}
	if len(seen) != 0 {
		t.Errorf("expected no request to reach the transport, got %d", len(seen))
	}
}

func TestTracingPassesThrough(t *testing.T) {
	var seen []*http.Request
	rt := Chain(okTransport(&seen), Tracing(noop.NewTracerProvider().Tracer("test")))

	req := httptest.NewRequest(http.MethodPost, "http://example.com/compress", nil)
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if len(seen) != 1 {
		t.Errorf("expected 1 request at the transport, got %d", len(seen))
	}
}
