// Package bookapi is a client for the remote book catalog service.
package bookapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/blackwell-systems/bookstorectl/internal/apperr"
)

// Routes are endpoint paths relative to the base URL. "{id}" is replaced
// with the path-escaped book ID.
type Routes struct {
	List      string
	Create    string
	Delete    string
	AccessURL string
	Stream    string
}

// DefaultRoutes matches the catalog service contract.
var DefaultRoutes = Routes{
	List:      "books",
	Create:    "books",
	Delete:    "books/{id}",
	AccessURL: "books/{id}/access-url",
	Stream:    "books/{id}/stream",
}

// Options configures a Client. Zero values get sensible defaults.
type Options struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	RateLimit  float64 // requests per second; 0 disables limiting
	Retries    int     // extra attempts for access-url lookups
	Routes     Routes
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the catalog service over REST.
type Client struct {
	base    string
	ua      string
	http    *http.Client
	limiter *rate.Limiter
	retries int
	routes  Routes
	log     *slog.Logger
}

// New creates a Client from opts.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 2 * time.Minute // generous for large uploads
		}
		hc = &http.Client{Timeout: timeout}
	}
	routes := opts.Routes
	if routes.List == "" {
		routes.List = DefaultRoutes.List
	}
	if routes.Create == "" {
		routes.Create = DefaultRoutes.Create
	}
	if routes.Delete == "" {
		routes.Delete = DefaultRoutes.Delete
	}
	if routes.AccessURL == "" {
		routes.AccessURL = DefaultRoutes.AccessURL
	}
	if routes.Stream == "" {
		routes.Stream = DefaultRoutes.Stream
	}
	c := &Client{
		base:    strings.TrimRight(opts.BaseURL, "/"),
		ua:      opts.UserAgent,
		http:    hc,
		retries: opts.Retries,
		routes:  routes,
		log:     opts.Logger,
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	if c.log == nil {
		c.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.ua == "" {
		c.ua = "bookstorectl"
	}
	return c
}

// url builds an absolute URL for route, substituting id.
func (c *Client) url(route, id string) string {
	path := strings.TrimLeft(route, "/")
	if id != "" {
		path = strings.ReplaceAll(path, "{id}", url.PathEscape(id))
	}
	return c.base + "/" + path
}

// do executes req with standard headers after waiting on the rate limiter.
// Transport failures come back as KindNetwork.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, apperr.Wrap(apperr.KindNetwork, "rate limit", err)
		}
	}
	reqID := uuid.NewString()
	req.Header.Set("User-Agent", c.ua)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed",
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
			slog.String("request_id", reqID),
			slog.String("error", err.Error()))
		return nil, apperr.Wrap(apperr.KindNetwork, strings.ToLower(req.Method)+" "+req.URL.Path, err)
	}
	c.log.Debug("request",
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
		slog.Int("status", resp.StatusCode),
		slog.String("request_id", reqID),
		slog.Duration("elapsed", time.Since(start)))
	return resp, nil
}

// getBody performs a GET, retrying transport failures and 5xx/429 responses
// up to retries times with exponential backoff.
func (c *Client) getBody(ctx context.Context, op, u string, retries int) ([]byte, error) {
	var body []byte
	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		if err := checkStatus(op, resp); err != nil {
			if retryableStatus(resp.StatusCode) {
				return err
			}
			return backoff.Permanent(err)
		}
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return apperr.Wrap(apperr.KindNetwork, op, err)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxElapsedTime = 30 * time.Second
	var policy backoff.BackOff = backoff.WithMaxRetries(b, uint64(max(retries, 0)))
	err := backoff.RetryNotify(attempt, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
		c.log.Debug("retrying", slog.String("op", op), slog.Duration("wait", wait), slog.String("error", err.Error()))
	})
	if err != nil {
		if apperr.KindOf(err) != "" {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.KindNetwork, op, err)
	}
	return body, nil
}

// checkStatus returns a classified error for non-2xx responses. 404 is
// KindNotFound; anything else carries the service's own message.
func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg := serviceMessage(resp)
	if resp.StatusCode == http.StatusNotFound {
		return &apperr.Error{Kind: apperr.KindNotFound, Op: op, Msg: msg}
	}
	return &apperr.Error{Kind: apperr.KindService, Op: op, Msg: msg}
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// serviceMessage extracts {"message"} or {"error"} from an error body,
// falling back to the raw body and then the status text.
func serviceMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return s
	}
	return strings.ToLower(http.StatusText(resp.StatusCode))
}
