package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/park285/Cheese-Predict-bot/pkg/predictdto"
)

const defaultPath = "/predict"

// HeaderProvider allows injecting per-request headers
type HeaderProvider func() map[string]string

// Client posts user names to the prediction backend. It never retries and
// sets no deadline of its own; a deadline on the caller's context is honoured.
type Client struct {
	baseURL string
	path    string
	http    *fasthttp.Client
	headers HeaderProvider
}

type Option func(*Client)

// WithPath overrides the endpoint path. An empty path posts to the base URL.
func WithPath(path string) Option {
	return func(c *Client) { c.path = path }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		path:    defaultPath,
		http:    &fasthttp.Client{MaxConnsPerHost: 16},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL requests are posted to.
func (c *Client) Endpoint() string {
	path := strings.TrimSpace(c.path)
	if path == "" {
		return c.baseURL + "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Predict issues exactly one request for username and normalizes the reply.
func (c *Client) Predict(ctx context.Context, username string) (*predictdto.Result, error) {
	payload, err := json.Marshal(predictdto.Request{Username: username})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(c.Endpoint())
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}
	req.SetBody(payload)

	if dl, ok := ctx.Deadline(); ok {
		err = c.http.DoDeadline(req, resp, dl)
	} else {
		err = c.http.Do(req, resp)
	}
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	status := resp.StatusCode()
	body := resp.Body()
	if status < 200 || status >= 300 {
		return nil, &RequestError{Status: status, Detail: detailFrom(body)}
	}

	var decoded predictdto.Response
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &MalformedResponseError{Reason: "decode response", Err: err}
	}
	return Normalize(&decoded)
}

// detailFrom extracts a string detail; anything else yields "".
func detailFrom(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var eb predictdto.ErrorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(eb.Detail, &detail); err != nil {
		return ""
	}
	return strings.TrimSpace(detail)
}
