package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/darts-backend/internal/config"
)

// client is one websocket connection. Outbound messages go through a bounded
// queue; a client that cannot keep up is disconnected.
type client struct {
	conn *websocket.Conn
	conf config.Socket

	send chan []byte
	done chan struct{}
	once sync.Once
}

const (
	minSendBuffer   = 8
	defaultPongWait = 60 * time.Second
	defaultTimeout  = 10 * time.Second
)

func newClient(conn *websocket.Conn, conf config.Socket) *client {
	conf.SendBuffer = max(conf.SendBuffer, minSendBuffer)
	if conf.PongWait <= 0 {
		conf.PongWait = defaultPongWait
	}
	if conf.WriteTimeout <= 0 {
		conf.WriteTimeout = defaultTimeout
	}

	return &client{
		conn: conn,
		conf: conf,
		send: make(chan []byte, conf.SendBuffer),
		done: make(chan struct{}),
	}
}

// Send queues data without blocking.
func (that *client) Send(data []byte) bool {
	select {
	case <-that.done:
		return false
	default:
	}

	select {
	case that.send <- data:
		return true
	case <-that.done:
		return false
	default:
		that.shutdown()
		return false
	}
}

func (that *client) shutdown() {
	that.once.Do(func() {
		close(that.done)
	})
}

func (that *client) pingPeriod() time.Duration {
	return that.conf.PongWait * 9 / 10
}

func (that *client) readPump(handle func(data []byte)) {
	that.conn.SetReadLimit(that.conf.ReadLimit)
	_ = that.conn.SetReadDeadline(time.Now().Add(that.conf.PongWait))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(that.conf.PongWait))
	})

	for {
		_, data, err := that.conn.ReadMessage()
		if err != nil {
			return
		}

		select {
		case <-that.done:
			return
		default:
		}

		handle(data)
	}
}

func (that *client) writePump() {
	ticker := time.NewTicker(that.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case data := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(that.conf.WriteTimeout))
			if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				that.shutdown()
				return
			}

		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(that.conf.WriteTimeout))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				that.shutdown()
				return
			}

		case <-that.done:
			_ = that.conn.SetWriteDeadline(time.Now().Add(that.conf.WriteTimeout))
			_ = that.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
