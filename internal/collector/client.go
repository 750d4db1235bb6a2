package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds every upstream request.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxAttempts is the retry budget of a single fetch.
	DefaultMaxAttempts = 3

	// DefaultBackoffBase scales the delay between attempts.
	DefaultBackoffBase = 500 * time.Millisecond
)

// ResultKind classifies a single request attempt.
type ResultKind int

const (
	ResultOK ResultKind = iota
	ResultRetryable
	ResultFatal
)

func (k ResultKind) String() string {
	switch k {
	case ResultOK:
		return "ok"
	case ResultRetryable:
		return "retryable"
	default:
		return "fatal"
	}
}

// Result is the outcome of one attempt.
type Result struct {
	Kind ResultKind
	Body []byte
	JSON any
	Err  error
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d, body: %s", e.StatusCode, e.Body)
}

// ExhaustedError is returned once every attempt of a fetch has failed.
type ExhaustedError struct {
	URL      string // redacted
	Attempts int
	Err      error // last attempt error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("fetch %s: %d attempts exhausted: %v", e.URL, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Client performs upstream GETs with timeout, rate limiting and retry.
type Client struct {
	HTTP        *http.Client
	MaxAttempts int
	BackoffBase time.Duration
	Limiter     *rate.Limiter
	Sleep       SleepFunc
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithRetry sets the attempt budget and backoff base.
func WithRetry(maxAttempts int, backoffBase time.Duration) ClientOption {
	return func(c *Client) {
		c.MaxAttempts = maxAttempts
		c.BackoffBase = backoffBase
	}
}

// WithRateLimit caps requests per second; zero or negative disables the cap.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.Limiter = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.Limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithSleep replaces the backoff wait, mainly for tests.
func WithSleep(s SleepFunc) ClientOption {
	return func(c *Client) { c.Sleep = s }
}

// NewClient creates a client with optional proxy support.
func NewClient(timeout time.Duration, proxyURL string, opts ...ClientOption) *Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		HTTP: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		MaxAttempts: DefaultMaxAttempts,
		BackoffBase: DefaultBackoffBase,
		Sleep:       Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchJSON GETs rawURL and returns the decoded JSON document.
// Numbers are kept as json.Number so payloads round-trip unchanged.
func (c *Client) FetchJSON(ctx context.Context, rawURL string) (any, error) {
	res, err := c.do(ctx, rawURL, true)
	if err != nil {
		return nil, err
	}
	return res.JSON, nil
}

// FetchBinary GETs rawURL and returns the response body.
func (c *Client) FetchBinary(ctx context.Context, rawURL string) ([]byte, error) {
	res, err := c.do(ctx, rawURL, false)
	if err != nil {
		return nil, err
	}
	return res.Body, nil
}

func (c *Client) do(ctx context.Context, rawURL string, decode bool) (*Result, error) {
	attempts := c.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := c.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	safe := RedactURL(rawURL)

	var last Result
	for i := 1; i <= attempts; i++ {
		if i > 1 {
			if err := sleep(ctx, c.BackoffBase*time.Duration(i)); err != nil {
				return nil, err
			}
		}
		last = c.attempt(ctx, rawURL, decode)
		switch last.Kind {
		case ResultOK:
			return &last, nil
		case ResultFatal:
			return nil, fmt.Errorf("fetch %s: %w", safe, last.Err)
		}
		log.Printf("[WARN] fetch failed (%s), attempt %d/%d: %v", safe, i, attempts, last.Err)
	}
	return nil, &ExhaustedError{URL: safe, Attempts: attempts, Err: last.Err}
}

func (c *Client) attempt(ctx context.Context, rawURL string, decode bool) Result {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return Result{Kind: ResultFatal, Err: err}
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{Kind: ResultFatal, Err: err}
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{Kind: ResultFatal, Err: ctx.Err()}
		}
		return Result{Kind: ResultRetryable, Err: scrub(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Kind: ResultRetryable, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{Kind: ResultRetryable, Err: &StatusError{StatusCode: resp.StatusCode, Body: truncate(body, 256)}}
	}
	if !decode {
		return Result{Kind: ResultOK, Body: body}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Result{Kind: ResultRetryable, Err: fmt.Errorf("decode: %w", err)}
	}
	return Result{Kind: ResultOK, Body: body, JSON: v}
}

// RedactURL hides the API key of an upstream URL.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	q := u.Query()
	changed := false
	for _, k := range []string{"apikey", "api_token"} {
		if q.Has(k) {
			q.Set(k, "REDACTED")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// scrub removes the request URL, which carries the key, from transport errors.
func scrub(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s %s: %w", uerr.Op, RedactURL(uerr.URL), uerr.Err)
	}
	return err
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
