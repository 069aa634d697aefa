package live

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSChannel carries the live protocol over a websocket. Writes are
// serialized behind a mutex; reads belong to the session's receive loop.
type WSChannel struct {
	conn *websocket.Conn
	mu   sync.Mutex
	once sync.Once
}

// WSDialer opens live channels against the backend's websocket endpoint.
type WSDialer struct {
	URL   string // ws(s)://host/ws/live
	Token string // bearer token forwarded during the handshake
}

func (d WSDialer) Dial(ctx context.Context, mode string) (Channel, error) {
	hdr := http.Header{}
	if d.Token != "" {
		hdr.Set("Authorization", "Bearer "+d.Token)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, d.URL, hdr)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	return &WSChannel{conn: conn}, nil
}

func (c *WSChannel) Send(frame ClientFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(frame)
}

func (c *WSChannel) Receive() (ServerFrame, error) {
	var frame ServerFrame
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	err := c.conn.ReadJSON(&frame)
	return frame, err
}

func (c *WSChannel) Close() error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.mu.Unlock()
		err = c.conn.Close()
	})
	return err
}
