package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"portbridge/config"
	"portbridge/logger"
)

const defaultUserAgent = "portbridge-go/1.0"

// Client sends signed requests to the OpenAPI HTTP endpoint. It is safe for
// concurrent use; connection reuse is left to net/http.
type Client struct {
	cfg     Config
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	log     *logger.Log
	now     func() time.Time
}

// New validates cfg and builds a client. No network I/O happens here.
func New(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.HTTPURL == "" {
		cfg.HTTPURL = config.DefaultHTTPURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.HTTPURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, &Error{Kind: KindInvalidConfig, Cause: fmt.Errorf("invalid http url %q", cfg.HTTPURL)}
	}
	agent := cfg.UserAgent
	if agent == "" {
		agent = defaultUserAgent
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		cfg:     cfg,
		base:    base,
		http:    &http.Client{Transport: userAgentTransport{agent: agent, base: http.DefaultTransport}, Timeout: cfg.Timeout},
		limiter: limiter,
		log:     logger.GetLogger(),
		now:     time.Now,
	}, nil
}

// FromEnv builds a client from PORTBRIDGE_* environment variables.
func FromEnv() (*Client, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// Config returns the configuration the client was built with.
func (c *Client) Config() Config {
	return c.cfg
}

// Close releases idle connections held by the client.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// Request starts building a request for method and path. path may carry a
// query string.
func (c *Client) Request(method Method, path string) *RequestBuilder {
	return &RequestBuilder{
		client:  c,
		method:  method,
		path:    path,
		query:   url.Values{},
		headers: http.Header{},
	}
}

// RequestBuilder accumulates one outbound call. It is not reusable.
type RequestBuilder struct {
	client  *Client
	method  Method
	path    string
	query   url.Values
	headers http.Header
	body    []byte
	bodyErr error
}

// Header adds a header. Keys are canonicalised, so "x-foo" and "X-Foo"
// name the same header and the last value set wins.
func (r *RequestBuilder) Header(key, value string) *RequestBuilder {
	r.headers.Set(key, value)
	return r
}

func (r *RequestBuilder) Query(key, value string) *RequestBuilder {
	r.query.Add(key, value)
	return r
}

// JSONBody serialises v as the request body.
func (r *RequestBuilder) JSONBody(v any) *RequestBuilder {
	if raw, ok := v.(json.RawMessage); ok {
		r.body = raw
		return r
	}
	data, err := json.Marshal(v)
	if err != nil {
		r.bodyErr = err
		return r
	}
	r.body = data
	return r
}

type apiEnvelope struct {
	Code    *int64 `json:"code"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
	TraceID string `json:"trace_id"`
}

// Send performs the request and returns the verbatim response body.
func (r *RequestBuilder) Send(ctx context.Context) (json.RawMessage, error) {
	if r.bodyErr != nil {
		return nil, &Error{Kind: KindInvalidRequest, Cause: fmt.Errorf("encode body: %w", r.bodyErr)}
	}
	c := r.client
	log := c.log.WithComponent("http_client").WithFields(logger.Fields{"method": r.method.String(), "path": r.path})

	req, err := r.build(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &Error{Kind: KindNetwork, Cause: err}
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Debug("request failed")
		return nil, &Error{Kind: KindNetwork, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Cause: fmt.Errorf("read body: %w", err)}
	}
	logger.LogPerformanceEntry(log.WithField("status", resp.StatusCode), "http_client", "request", c.now().Sub(start), nil)

	return decodeResponse(resp, body)
}

func (r *RequestBuilder) build(ctx context.Context) (*http.Request, error) {
	c := r.client
	path, rawQuery, _ := strings.Cut(r.path, "?")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(r.query) > 0 {
		extra := r.query.Encode()
		if rawQuery == "" {
			rawQuery = extra
		} else {
			rawQuery += "&" + extra
		}
	}

	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	u.RawQuery = rawQuery

	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method.String(), u.String(), body)
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Cause: err}
	}
	for k, vs := range r.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	if req.Header.Get("X-Request-Id") == "" {
		req.Header.Set("X-Request-Id", uuid.NewString())
	}
	req.Header.Set("X-Api-Key", c.cfg.AppKey)
	req.Header.Set("Authorization", c.cfg.AccessToken)
	req.Header.Set("X-Timestamp", strconv.FormatFloat(float64(c.now().UnixMilli())/1000, 'f', 3, 64))
	req.Header.Set("X-Api-Signature", sign(r.method.String(), u.Path, rawQuery, req.Header, r.body, c.cfg.AppSecret))
	return req, nil
}

func decodeResponse(resp *http.Response, body []byte) (json.RawMessage, error) {
	traceID := resp.Header.Get("X-Trace-Id")
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		if ok {
			return json.RawMessage("null"), nil
		}
		return nil, &Error{Kind: KindBadStatus, Status: resp.StatusCode, TraceID: traceID}
	}

	var env apiEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		if !ok {
			return nil, &Error{Kind: KindBadStatus, Status: resp.StatusCode, TraceID: traceID}
		}
		if !json.Valid(trimmed) {
			return nil, &Error{Kind: KindDecodeResponse, Status: resp.StatusCode, Cause: err}
		}
		// valid JSON that is not an object, such as an array
		return json.RawMessage(trimmed), nil
	}

	if env.Code != nil && (*env.Code != 0 || !ok) {
		if traceID == "" {
			traceID = env.TraceID
		}
		message := env.Message
		if message == "" {
			message = env.Msg
		}
		return nil, &Error{Kind: KindOpenAPI, Status: resp.StatusCode, Code: *env.Code, Message: message, TraceID: traceID}
	}
	if !ok {
		return nil, &Error{Kind: KindBadStatus, Status: resp.StatusCode, TraceID: traceID}
	}
	return json.RawMessage(trimmed), nil
}
