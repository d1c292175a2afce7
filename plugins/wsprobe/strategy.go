package wsprobe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jonwraymond/checkops/aggregate"
	"github.com/jonwraymond/checkops/probe"
	"github.com/jonwraymond/checkops/schema"
)

// ID is the strategy id.
const ID = "websocket"

// Config is the decoded strategy config.
type Config struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Message string            `json:"message,omitempty"`
	Expect  string            `json:"expect,omitempty"`
	Timeout int               `json:"timeout,omitempty"`
}

// Strategy probes WebSocket endpoints.
type Strategy struct {
	dialer *websocket.Dialer
}

// New creates the strategy. A nil dialer uses websocket.DefaultDialer.
func New(dialer *websocket.Dialer) *Strategy {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return &Strategy{dialer: dialer}
}

func (s *Strategy) Meta() probe.Meta {
	return probe.Meta{ID: ID, DisplayName: "WebSocket", Description: "Opens a WebSocket and exchanges a message"}
}

func (s *Strategy) ConfigSchema() *schema.Versioned { return configSchema }
func (s *Strategy) ResultSchema() *schema.Versioned { return resultSchema }

func (s *Strategy) CreateClient(ctx context.Context, config map[string]any) (probe.Client, error) {
	cfg, err := schema.DecodeMap[Config](config)
	if err != nil {
		return nil, err
	}
	header := make(http.Header, len(cfg.Headers))
	for k, v := range cfg.Headers {
		header.Set(k, v)
	}

	start := time.Now()
	conn, resp, err := s.dialer.DialContext(ctx, cfg.URL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("handshake: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("handshake: %w", err)
	}
	return &client{conn: conn, handshakeMs: float64(time.Since(start).Microseconds()) / 1000}, nil
}

func (s *Strategy) Probe(ctx context.Context, config map[string]any, c probe.Client) (probe.Values, error) {
	values, err := c.Exec(ctx, probe.Request{"message": config["message"], "expect": config["expect"]})
	if err != nil {
		return nil, err
	}
	if expect, _ := config["expect"].(string); expect != "" && !values.Bool("replyMatched") {
		return values, fmt.Errorf("reply does not contain %q", expect)
	}
	return values, nil
}

func (s *Strategy) MergeResult(agg aggregate.Set, result probe.Values) aggregate.Set {
	ms, ok := result.Float("handshakeMs")
	agg = agg.Average("handshakeMs", ms, ok).Rate("connected", result.Bool("connected"))
	if result.Has("replyMatched") {
		agg = agg.Rate("replyMatched", result.Bool("replyMatched"))
	}
	return agg
}

type client struct {
	conn        *websocket.Conn
	handshakeMs float64
}

// Exec writes req["message"] when set and reads one reply.
func (c *client) Exec(ctx context.Context, req probe.Request) (probe.Values, error) {
	values := probe.Values{"connected": true, "handshakeMs": c.handshakeMs}
	message, _ := req["message"].(string)
	expect, _ := req["expect"].(string)
	if message == "" && expect == "" {
		return values, nil
	}

	deadline, _ := ctx.Deadline()
	if message != "" {
		_ = c.conn.SetWriteDeadline(deadline)
		if err := c.conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
			return nil, fmt.Errorf("write: %w", err)
		}
	}
	_ = c.conn.SetReadDeadline(deadline)
	_, reply, err := c.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	values["reply"] = string(reply)
	values["replyMatched"] = strings.Contains(string(reply), expect)
	return values, nil
}

// Close sends a close frame before closing the connection.
func (c *client) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}

var (
	_ probe.Strategy = (*Strategy)(nil)
	_ probe.Prober   = (*Strategy)(nil)
)
