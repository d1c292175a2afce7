package httpprobe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonwraymond/checkops/probe"
)

// maxBody caps the bytes read from a response.
const maxBody = 4 << 20

type client struct {
	http    *http.Client
	base    *url.URL
	headers map[string]string
}

func newClient(cfg Config) (*client, error) {
	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // user-configured
	}
	return &client{
		http:    &http.Client{Transport: transport},
		base:    base,
		headers: cfg.Headers,
	}, nil
}

// Exec performs one request. Request keys: path, method, headers, body,
// accept. A transport error is returned as the error; any HTTP status
// yields values.
func (c *client) Exec(ctx context.Context, req probe.Request) (probe.Values, error) {
	target := *c.base
	if p, _ := req["path"].(string); p != "" {
		ref, err := url.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("parse path: %w", err)
		}
		target = *c.base.ResolveReference(ref)
	}
	method, _ := req["method"].(string)
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if b, _ := req["body"].(string); b != "" {
		body = strings.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	if extra, ok := req["headers"].(map[string]any); ok {
		for k, v := range extra {
			if s, ok := v.(string); ok {
				httpReq.Header.Set(k, s)
			}
		}
	}
	if accept, _ := req["accept"].(string); accept != "" {
		httpReq.Header.Set("Accept", accept)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	latency := float64(time.Since(start).Microseconds()) / 1000

	headers := make(map[string]any, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}
	return probe.Values{
		"statusCode":    resp.StatusCode,
		"latencyMs":     latency,
		"contentLength": len(raw),
		"body":          string(raw),
		"headers":       headers,
	}, nil
}

func (c *client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// checkStatus fails values whose status code is unexpected. Without an
// expected status, 4xx and 5xx fail.
func checkStatus(values probe.Values, expected int) error {
	code, _ := values.Float("statusCode")
	switch {
	case expected != 0 && int(code) != expected:
		return fmt.Errorf("unexpected status %d, want %d", int(code), expected)
	case expected == 0 && code >= 400:
		return fmt.Errorf("unexpected status %d", int(code))
	}
	return nil
}
