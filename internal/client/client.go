package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Client issues API calls. It is safe for concurrent use.
type Client struct {
	cfg          Config
	http         *http.Client
	tokens       TokenStore
	unauthorized *unauthorizedTransport

	mu            sync.Mutex
	session       context.Context
	cancelSession context.CancelCauseFunc

	Auth     *AuthService
	Posts    *PostService
	Likes    *LikeService
	Comments *CommentService
	Search   *SearchService
}

// Option customizes a Client.
type Option func(*options)

type options struct {
	tokens         TokenStore
	base           http.RoundTripper
	tracer         trace.TracerProvider
	onUnauthorized func()
}

// WithTokenStore sets where the bearer token is kept. The default is memory.
func WithTokenStore(ts TokenStore) Option { return func(o *options) { o.tokens = ts } }

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option { return func(o *options) { o.base = rt } }

// WithTracerProvider sets where request spans go. The default is the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) Option { return func(o *options) { o.tracer = tp } }

// WithOnUnauthorized sets the hook run when an authenticated call gets 401.
func WithOnUnauthorized(fn func()) Option { return func(o *options) { o.onUnauthorized = fn } }

// New builds a client for cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	o := options{tokens: NewMemoryTokenStore(), base: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}

	traceOpts := []otelhttp.Option{
		otelhttp.WithPropagators(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		)),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "tourismcam " + r.Method + " " + r.URL.Path
		}),
	}
	if o.tracer != nil {
		traceOpts = append(traceOpts, otelhttp.WithTracerProvider(o.tracer))
	}
	traced := otelhttp.NewTransport(o.base, traceOpts...)

	unauthorized := &unauthorizedTransport{next: traced, hook: o.onUnauthorized}
	c := &Client{
		cfg:    cfg,
		tokens: o.tokens,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &bearerTransport{next: unauthorized, tokens: o.tokens},
		},
		unauthorized: unauthorized,
	}
	c.session, c.cancelSession = context.WithCancelCause(context.Background())

	c.Auth = &AuthService{c: c}
	c.Posts = &PostService{c: c}
	c.Likes = &LikeService{c: c}
	c.Comments = &CommentService{c: c}
	c.Search = &SearchService{c: c}
	return c, nil
}

// Tokens returns the client's token store.
func (c *Client) Tokens() TokenStore { return c.tokens }

// Config returns the normalized configuration.
func (c *Client) Config() Config { return c.cfg }

// SetOnUnauthorized replaces the 401 hook.
func (c *Client) SetOnUnauthorized(fn func()) { c.unauthorized.setHook(fn) }

// ResetSession cancels every request started before the call. Later
// requests run normally.
func (c *Client) ResetSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelSession(ErrSessionReset)
	c.session, c.cancelSession = context.WithCancelCause(context.Background())
}

func (c *Client) sessionContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

type baseURL int

const (
	apiBase baseURL = iota
	postsBase
)

func (c *Client) endpoint(base baseURL, path string, query url.Values) string {
	root := c.cfg.APIURL
	if base == postsBase {
		root = c.cfg.PostsAPIURL
	}
	u := root + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do sends one request and decodes a JSON success body into out. Any
// failure comes back as *APIError.
func (c *Client) do(ctx context.Context, method string, base baseURL, path string, query url.Values, in, out any) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	stop := context.AfterFunc(c.sessionContext(), func() { cancel(ErrSessionReset) })
	defer stop()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return &APIError{Kind: KindValidation, Message: "Could not encode request", Err: err}
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(base, path, query), body)
	if err != nil {
		return &APIError{Kind: KindValidation, Message: "Could not build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{Kind: KindServer, Status: resp.StatusCode, Message: MsgServer, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func pageQuery(limit, offset int) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if offset > 0 {
		q.Set("offset", fmt.Sprint(offset))
	}
	return q
}
