package relay

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"hushwire/internal/domain"
)

// Stream subscribes to live delivery for user over a websocket and invokes
// deliver once per envelope on the read loop. It returns when ctx ends or
// the connection drops; reconnecting is the caller's call.
func (c *Client) Stream(ctx context.Context, user domain.Username, deliver func(domain.Envelope)) error {
	target, err := wsURL(c.base, "/stream/"+url.PathEscape(string(user)))
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("relay stream dial: %w", err)
	}
	defer conn.Close()

	// ReadJSON has no context; closing the connection unblocks it.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(time.Second)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var env domain.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("relay stream read: %w", err)
		}
		deliver(env)
	}
}

// wsURL rewrites an http(s) base into its websocket counterpart.
func wsURL(base, path string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("relay stream: unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String(), nil
}
