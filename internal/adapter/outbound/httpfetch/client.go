package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/markweb/markweb-mcp/internal/domain"
)

// Client implements the usecase.Fetcher interface using standard net/http.
// It issues single GETs and follows 301/302 redirects itself so the hop
// count can be bounded and the header set re-sent on every hop.
type Client struct {
	client       *http.Client
	maxRedirects int
	timeout      time.Duration
	logger       *slog.Logger
}

// New creates a new fetch client. The passed http.Client's automatic
// redirect handling is disabled; redirects are followed explicitly in Fetch.
func New(client *http.Client, maxRedirects int, timeout time.Duration, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{}
	}
	c := *client
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &Client{
		client:       &c,
		maxRedirects: maxRedirects,
		timeout:      timeout,
		logger:       logger.With("component", "http_fetch"),
	}
}

// Fetch performs one GET against target with the given headers, follows up
// to maxRedirects 301/302 hops, and returns the full response body as text.
// The response body is passed through whatever the status code; judging the
// payload is the upstream proxy's job, not this client's.
//
// Failure modes: domain.TimeoutError once the per-request deadline expires,
// domain.TooManyRedirectsError past the hop cap, and domain.NetworkError for
// any transport-level failure, with the underlying message intact.
func (c *Client) Fetch(ctx context.Context, target string, headers map[string]string) (string, error) {
	log := c.logger.With(slog.String("url", target))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	current := target
	for hop := 0; ; hop++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current, nil)
		if err != nil {
			return "", &domain.NetworkError{Err: fmt.Errorf("invalid request URL %s: %w", current, err)}
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				log.Warn("Request deadline expired.", slog.Duration("timeout", c.timeout))
				return "", &domain.TimeoutError{URL: target, Timeout: c.timeout}
			}
			log.Error("Transport failure.", slog.Any("error", err))
			return "", &domain.NetworkError{Err: err}
		}

		if resp.StatusCode == http.StatusMovedPermanently || resp.StatusCode == http.StatusFound {
			loc := resp.Header.Get("Location")
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			if loc == "" {
				return "", &domain.NetworkError{Err: fmt.Errorf("redirect from %s missing Location header", current)}
			}
			if hop >= c.maxRedirects {
				log.Warn("Redirect cap reached.", slog.Int("limit", c.maxRedirects))
				return "", &domain.TooManyRedirectsError{URL: target, Limit: c.maxRedirects}
			}
			next, err := resp.Request.URL.Parse(loc)
			if err != nil {
				return "", &domain.NetworkError{Err: fmt.Errorf("invalid Location header %q: %w", loc, err)}
			}
			log.Debug("Following redirect.", slog.Int("hop", hop+1), slog.String("location", next.String()))
			current = next.String()
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return "", &domain.TimeoutError{URL: target, Timeout: c.timeout}
			}
			return "", &domain.NetworkError{Err: fmt.Errorf("failed to read response body: %w", err)}
		}

		log.Debug("Fetched response.", slog.Int("status_code", resp.StatusCode), slog.Int("body_bytes", len(body)))
		return string(body), nil
	}
}
