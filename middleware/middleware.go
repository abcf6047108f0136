package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const RequestIDHeader = "X-Request-ID"

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Chain wraps rt so that the first middleware sees the request first.
func Chain(rt http.RoundTripper, middlewares ...func(http.RoundTripper) http.RoundTripper) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] != nil {
			rt = middlewares[i](rt)
		}
	}
	return rt
}

// RequestID tags outgoing requests with an X-Request-ID unless the caller
// already set one.
func RequestID() func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get(RequestIDHeader) != "" {
				return next.RoundTrip(req)
			}
			req = req.Clone(req.Context())
			req.Header.Set(RequestIDHeader, uuid.New().String())
			return next.RoundTrip(req)
		})
	}
}

// Logging logs the start and outcome of every request.
func Logging(logger *logrus.Logger) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()

			entry := logger.WithFields(logrus.Fields{
				"request_id": req.Header.Get(RequestIDHeader),
				"method":     req.Method,
				"url":        req.URL.String(),
				"size":       req.ContentLength,
			})
			entry.Debug("Request started")

			resp, err := next.RoundTrip(req)
			duration := time.Since(start)

			if err != nil {
				entry.WithError(err).WithField("duration", duration).Error("Request failed")
				return nil, err
			}

			entry = entry.WithFields(logrus.Fields{
				"status":        resp.StatusCode,
				"duration":      duration,
				"response_size": resp.ContentLength,
			})

			switch {
			case resp.StatusCode >= 500:
				entry.Error("Request completed with server error")
			case resp.StatusCode >= 400:
				entry.Warn("Request completed with client error")
			default:
				entry.Info("Request completed successfully")
			}

			return resp, nil
		})
	}
}

type RateLimiter interface {
	Allow() bool
	Wait(context.Context) error
	RoundTripper(http.RoundTripper) http.RoundTripper
}

type rateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows burst requests up front, refilling one token
// per interval.
func NewRateLimiter(interval time.Duration, burst int) RateLimiter {
	return &rateLimiter{
		limiter: rate.NewLimiter(rate.Every(interval), burst),
	}
}

func (rl *rateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

func (rl *rateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

// RoundTripper blocks until a token is available or the request context
// is done.
func (rl *rateLimiter) RoundTripper(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if err := rl.Wait(req.Context()); err != nil {
			return nil, err
		}
		return next.RoundTrip(req)
	})
}
