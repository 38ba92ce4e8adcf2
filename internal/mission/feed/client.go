// Package feed connects the station to an external WebSocket sensor feed and
// serves a simulated one.
package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AstroAssist-core/server/internal/mission/model"
	logx "github.com/AstroAssist-core/server/pkg/logger"
)

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// Applier receives decoded feed updates.
type Applier interface {
	ApplyFeed(u model.SensorUpdate) model.Snapshot
}

// Client reads {oxygen, pressure, power, ...} messages from url and applies
// them. Fields the message omits are left untouched.
type Client struct {
	url    string
	target Applier
	dialer *websocket.Dialer
}

func NewClient(url string, target Applier) *Client {
	return &Client{url: url, target: target, dialer: websocket.DefaultDialer}
}

// Run keeps a connection open until ctx is done, reconnecting with
// exponential backoff.
func (c *Client) Run(ctx context.Context) {
	backoff := minBackoff
	for {
		applied, err := c.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if applied > 0 {
			backoff = minBackoff
		}
		logx.Warn().Err(err).Str("url", c.url).Dur("retry_in", backoff).Msg("sensor feed disconnected")

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// session runs one connection and returns how many updates it applied.
func (c *Client) session(ctx context.Context) (int, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return 0, err
	}
	defer conn.Close()
	logx.Info().Str("url", c.url).Msg("sensor feed connected")

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	applied := 0
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return applied, err
		}
		var u model.SensorUpdate
		if err := json.Unmarshal(data, &u); err != nil {
			logx.Warn().Err(err).Msg("malformed sensor feed message")
			continue
		}
		if u.Empty() {
			continue
		}
		c.target.ApplyFeed(u)
		applied++
	}
}
