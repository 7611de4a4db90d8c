package control

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// Client is the operator side of the control channel, used by
// wifirelay-ctl to push configuration and stream status notifications.
type Client struct {
	conn *websocket.Conn
}

// Dial attaches to a daemon's control endpoint at host:port.
func Dial(ctx context.Context, addr string) (*Client, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: ControlPath}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to attach to %s (HTTP %d): %w", addr, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to attach to %s: %w", addr, err)
	}

	return &Client{conn: conn}, nil
}

// SendConfig writes a configuration payload. The payload must be a JSON
// object; field validation happens daemon-side.
func (c *Client) SendConfig(payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send configuration: %w", err)
	}
	return nil
}

// NextStatus blocks until the next status notification arrives, or the
// timeout elapses.
func (c *Client) NextStatus(timeout time.Duration) ([]byte, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to read status notification: %w", err)
	}
	return data, nil
}

// Close detaches from the daemon.
func (c *Client) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}
