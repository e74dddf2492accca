// Package restapi is the HTTP/JSON client for the remote restaurant API.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/fjod/foodclub/internal/logger"
)

const maxResponseBytes = 10 << 20 // 10MB

type Options struct {
	Timeout            time.Duration
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
	// Transport is wrapped with otelhttp. http.DefaultTransport when nil.
	Transport http.RoundTripper
	// TracerProvider for client spans. The global provider when nil.
	TracerProvider trace.TracerProvider
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[response]
	log     logrus.FieldLogger
}

type response struct {
	status int
	body   []byte
}

// Envelope is the wrapper every restaurant API response uses.
type Envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Success    *bool           `json:"success,omitempty"`
	Data       json.RawMessage `json:"data"`
}

type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	// Body is encoded as JSON unless RawBody is set.
	Body        interface{}
	RawBody     io.Reader
	ContentType string
	// Bare marks endpoints that answer with the payload itself instead of
	// an Envelope.
	Bare bool
	// Sensitive requests carry credentials in the URL and get no client span,
	// since span attributes record the full URL.
	Sensitive bool
}

type sensitiveKey struct{}

func traced(r *http.Request) bool {
	sensitive, _ := r.Context().Value(sensitiveKey{}).(bool)
	return !sensitive
}

func New(baseURL string, opts Options, log logrus.FieldLogger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid api base url")
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid api base url %q", baseURL)
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	maxFailures := opts.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	otelOpts := []otelhttp.Option{otelhttp.WithFilter(traced)}
	if opts.TracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(opts.TracerProvider))
	}

	c := &Client{
		baseURL: u,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(transport, otelOpts...),
		},
		log: log,
	}
	c.breaker = gobreaker.NewCircuitBreaker[response](gobreaker.Settings{
		Name:    "restaurant-api",
		Timeout: opts.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
	return c, nil
}

// Do sends req and decodes the envelope's data into out (when out is non-nil).
// Any non-2xx answer is returned as *StatusError.
func (c *Client) Do(ctx context.Context, req Request, out interface{}) (*Envelope, error) {
	if req.Sensitive {
		ctx = context.WithValue(ctx, sensitiveKey{}, true)
	}
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	res, err := c.breaker.Execute(func() (response, error) {
		resp, err := c.http.Do(httpReq)
		if err != nil {
			return response{}, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return response{}, err
		}
		r := response{status: resp.StatusCode, body: body}
		if r.status >= http.StatusInternalServerError {
			// counted by the breaker
			return r, newStatusError(r)
		}
		return r, nil
	})
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return nil, se
		}
		logger.FromContext(ctx, c.log).WithError(err).
			WithField("path", req.Path).Warn("restaurant api unreachable")
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.Path)
	}
	if res.status < 200 || res.status >= 300 {
		return nil, newStatusError(res)
	}

	env := &Envelope{StatusCode: res.status}
	if len(bytes.TrimSpace(res.body)) == 0 {
		return env, nil
	}
	if req.Bare {
		env.Data = res.body
		if out != nil {
			if err := json.Unmarshal(res.body, out); err != nil {
				return nil, errors.Wrapf(err, "failed to decode %s %s response", req.Method, req.Path)
			}
		}
		return env, nil
	}
	if err := json.Unmarshal(res.body, env); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s %s response", req.Method, req.Path)
	}
	if out != nil && len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, errors.Wrapf(err, "failed to decode %s %s data", req.Method, req.Path)
		}
	}
	return env, nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	contentType := req.ContentType
	switch {
	case req.RawBody != nil:
		body = req.RawBody
	case req.Body != nil:
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode request body")
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	return httpReq, nil
}

// Succeeded reports whether a 2xx envelope also reports success in its body.
func (e *Envelope) Succeeded() bool {
	if e.Success != nil && !*e.Success {
		return false
	}
	if e.StatusCode != 0 && (e.StatusCode < 200 || e.StatusCode >= 300) {
		return false
	}
	return true
}

func (e *Envelope) String() string {
	return fmt.Sprintf("statusCode=%d message=%q", e.StatusCode, e.Message)
}
