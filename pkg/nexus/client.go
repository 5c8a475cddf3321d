// Package nexus is a small client for the Nexus Repository Manager REST API.
// It lists components and assets page by page and deletes them by id.
package nexus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"

	"github.com/glorpus-work/reposweep/pkg/model"
)

const (
	apiPrefix         = "/service/rest/v1"
	defaultUserAgent  = "reposweep"
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	defaultBaseDelay  = 500 * time.Millisecond
	maxErrorBody      = 512
)

// Client talks to a single repository manager instance.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	auth       Authenticator
	userAgent  string
	maxRetries int
	baseDelay  time.Duration
	breaker    *circuit.Breaker
	logger     *slog.Logger

	stop      chan struct{}
	closeOnce sync.Once
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the DNS-caching default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAuthenticator sets the credentials applied to every request.
func WithAuthenticator(a Authenticator) Option {
	return func(c *Client) { c.auth = a }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithMaxRetries sets how often a 429, 5xx or transport failure is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithBaseDelay sets the initial backoff interval.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) { c.baseDelay = d }
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the instance at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid repository manager URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid repository manager URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		userAgent:  defaultUserAgent,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		logger:     slog.Default().With("component", "nexus"),
		stop:       make(chan struct{}),
	}
	c.httpClient = &http.Client{
		Timeout:   defaultTimeout,
		Transport: newCachingTransport(c.stop),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = newBreaker()
	return c, nil
}

// Close stops background work owned by the client.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.stop) })
}

func newBreaker() *circuit.Breaker {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	return circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(5),
	})
}

// Status checks that the instance is reachable and able to serve requests.
func (c *Client) Status(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, apiPrefix+"/status", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return nil
}

// ListComponents returns every component of a repository. Maven components
// get their name rewritten to "group:artifact".
func (c *Client) ListComponents(ctx context.Context, repository string) ([]model.Component, error) {
	components, err := list[model.Component](ctx, c, apiPrefix+"/components", repository)
	if err != nil {
		return nil, err
	}
	for i := range components {
		comp := &components[i]
		if comp.Repository == "" {
			comp.Repository = repository
		}
		if comp.Format == model.FormatMaven {
			comp.Name = model.MavenName(comp.Group, comp.Name)
		}
	}
	return components, nil
}

// ListAssets returns every asset of a repository.
func (c *Client) ListAssets(ctx context.Context, repository string) ([]model.Asset, error) {
	return list[model.Asset](ctx, c, apiPrefix+"/assets", repository)
}

// DeleteComponent removes a component and all of its assets.
func (c *Client) DeleteComponent(ctx context.Context, id string) error {
	return c.delete(ctx, apiPrefix+"/components/"+url.PathEscape(id))
}

// DeleteAsset removes a single asset.
func (c *Client) DeleteAsset(ctx context.Context, id string) error {
	return c.delete(ctx, apiPrefix+"/assets/"+url.PathEscape(id))
}

func (c *Client) delete(ctx context.Context, path string) error {
	resp, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("delete %s: %w", path, ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("delete %s: %w", path, ErrConflict)
	default:
		return statusError(resp)
	}
}

type page[T any] struct {
	Items             []T     `json:"items"`
	ContinuationToken *string `json:"continuationToken"`
}

func list[T any](ctx context.Context, c *Client, path, repository string) ([]T, error) {
	var all []T
	token := ""
	for {
		query := url.Values{"repository": {repository}}
		if token != "" {
			query.Set("continuationToken", token)
		}

		resp, err := c.do(ctx, http.MethodGet, path, query)
		if err != nil {
			return nil, err
		}

		var p page[T]
		err = decodePage(resp, &p)
		if err != nil {
			return nil, fmt.Errorf("list %s of %s: %w", path, repository, err)
		}
		all = append(all, p.Items...)

		if p.ContinuationToken == nil || *p.ContinuationToken == "" {
			return all, nil
		}
		if *p.ContinuationToken == token {
			return nil, fmt.Errorf("list %s of %s: continuation token did not advance", path, repository)
		}
		token = *p.ContinuationToken
		c.logger.Debug("fetching next page", "path", path, "repository", repository, "items", len(all))
	}
}

func decodePage[T any](resp *http.Response, p *page[T]) error {
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(p)
}

// do sends a request through the circuit breaker, retrying transport
// failures, 429 and 5xx answers with exponential backoff. Any other
// response is returned to the caller with an open body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values) (*http.Response, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	target := u.String()

	if !c.breaker.Ready() {
		return nil, fmt.Errorf("%s %s: %w", method, target, ErrUpstreamDown)
	}

	var resp *http.Response
	err := c.breaker.Call(func() error {
		var err error
		resp, err = c.retry(ctx, method, target)
		return err
	}, 0)
	if errors.Is(err, circuit.ErrBreakerOpen) {
		return nil, fmt.Errorf("%s %s: %w", method, target, ErrUpstreamDown)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) retry(ctx context.Context, method, target string) (*http.Response, error) {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.baseDelay
	expBackoff.MaxElapsedTime = 0

	retries := c.maxRetries
	if retries < 0 {
		retries = 0
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, uint64(retries)), ctx)

	var resp *http.Response
	attempt := 0
	op := func() error {
		attempt++
		r, err := c.send(ctx, method, target)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			c.logger.Debug("request failed", "method", method, "url", target, "attempt", attempt, "error", err)
			return err
		}
		if r.StatusCode == http.StatusTooManyRequests || r.StatusCode >= 500 {
			httpErr := statusError(r)
			r.Body.Close()
			c.logger.Debug("retryable status", "method", method, "url", target, "attempt", attempt, "status", r.StatusCode)
			return httpErr
		}
		resp = r
		return nil
	}

	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, method, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.auth != nil {
		if err := c.auth.Apply(req); err != nil {
			return nil, fmt.Errorf("apply %s auth: %w", c.auth.Type(), err)
		}
	}
	return c.httpClient.Do(req)
}

func statusError(resp *http.Response) *HTTPError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	target := ""
	method := ""
	if resp.Request != nil {
		method = resp.Request.Method
		if resp.Request.URL != nil {
			target = resp.Request.URL.String()
		}
	}
	return &HTTPError{
		Method:     method,
		URL:        target,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
