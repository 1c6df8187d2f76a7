// Package ws fetches dataset snapshots from a WebSocket feed
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rotisserie/eris"
)

// SnapshotSuffix is appended to the topic to form the snapshot message type.
const SnapshotSuffix = ":snapshot"

// Message represents a WebSocket message from the server
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// subscribeMsg asks the server for a topic
type subscribeMsg struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}

// Client dials a feed, subscribes to one topic and returns its first snapshot.
type Client struct {
	dialer websocket.Dialer
	token  string
}

// NewClient creates a snapshot client. token, when set, is sent as a
// bearer credential in Sec-WebSocket-Protocol.
func NewClient(handshakeTimeout time.Duration, token string) *Client {
	if handshakeTimeout <= 0 {
		handshakeTimeout = 10 * time.Second
	}
	return &Client{
		dialer: websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		token:  token,
	}
}

// Topic derives the subscription topic from ?topics= or the last path element.
func Topic(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if t := u.Query().Get("topics"); t != "" {
		return strings.Split(t, ",")[0]
	}
	return path.Base(strings.TrimSuffix(u.Path, "/"))
}

// Snapshot dials rawURL and blocks until the topic's snapshot arrives or ctx ends.
func (c *Client) Snapshot(ctx context.Context, rawURL string) (json.RawMessage, error) {
	topic := Topic(rawURL)
	if topic == "" || topic == "." || topic == "/" {
		return nil, eris.Errorf("ws: no topic in %s", rawURL)
	}

	header := http.Header{}
	if c.token != "" {
		header.Set("Sec-WebSocket-Protocol", "Bearer, "+c.token)
	}

	conn, _, err := c.dialer.DialContext(ctx, rawURL, header)
	if err != nil {
		return nil, eris.Wrapf(err, "ws: dial %s", rawURL)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := conn.WriteJSON(subscribeMsg{Action: "subscribe", Topics: []string{topic}}); err != nil {
		return nil, eris.Wrap(err, "ws: subscribe")
	}

	want := topic + SnapshotSuffix
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, eris.Wrap(ctxErr, "ws: read")
			}
			return nil, eris.Wrap(err, "ws: read")
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == want {
			return msg.Data, nil
		}
	}
}
