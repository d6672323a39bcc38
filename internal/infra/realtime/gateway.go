package realtime

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tradepost/internal/domain/user"
)

var errChannelClosed = errors.New("realtime: channel closed")

// Gateway upgrades authenticated HTTP requests to websocket sessions and
// keeps the registry in sync with connects and disconnects.
type Gateway struct {
	Registry     *Registry
	Logger       *slog.Logger
	SendBuffer   int
	WriteTimeout time.Duration

	upgrader websocket.Upgrader
	once     sync.Once
}

const (
	defaultSendBuffer   = 32
	defaultWriteTimeout = 10 * time.Second
	pongWait            = 60 * time.Second
	pingPeriod          = 54 * time.Second
)

// Serve runs the session for an already-authenticated user. It blocks
// until the client disconnects.
func (g *Gateway) Serve(w http.ResponseWriter, r *http.Request, id user.ID) error {
	g.once.Do(func() {
		g.upgrader = websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect cross-origin in local setups.
			CheckOrigin: func(*http.Request) bool { return true },
		}
	})
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := newWSClient(conn, g.sendBuffer(), g.writeTimeout())
	g.Registry.Register(id, client)
	defer g.Registry.Unregister(id, client)

	go client.writePump()
	client.readPump()
	return nil
}

func (g *Gateway) sendBuffer() int {
	if g.SendBuffer > 0 {
		return g.SendBuffer
	}
	return defaultSendBuffer
}

func (g *Gateway) writeTimeout() time.Duration {
	if g.WriteTimeout > 0 {
		return g.WriteTimeout
	}
	return defaultWriteTimeout
}

// wsClient is one live websocket session. Outbound frames go through a
// buffered channel so Send never blocks the sending request.
type wsClient struct {
	conn         *websocket.Conn
	send         chan []byte
	writeTimeout time.Duration
	closeOnce    sync.Once
	done         chan struct{}
}

func newWSClient(conn *websocket.Conn, buffer int, writeTimeout time.Duration) *wsClient {
	return &wsClient{
		conn:         conn,
		send:         make(chan []byte, buffer),
		writeTimeout: writeTimeout,
		done:         make(chan struct{}),
	}
}

func (c *wsClient) Send(payload []byte) error {
	select {
	case <-c.done:
		return errChannelClosed
	case c.send <- payload:
		return nil
	default:
		return errors.New("realtime: send buffer full, frame dropped")
	}
}

func (c *wsClient) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// readPump drains inbound frames until the peer goes away. Clients do
// not send application data upstream; the read loop exists to observe
// disconnects and answer pings.
func (c *wsClient) readPump() {
	defer c.Close()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ Channel = (*wsClient)(nil)
