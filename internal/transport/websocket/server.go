package websocket

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/darts-backend/internal/config"
	"github.com/rocketscienceinc/darts-backend/internal/service"
)

type hub interface {
	Open(ctx context.Context, conn service.Conn) (string, error)
	Receive(ctx context.Context, participantID string, data []byte) error
	Close(ctx context.Context, participantID string) error
}

type Server struct {
	logger   *slog.Logger
	hub      hub
	conf     config.Socket
	upgrader websocket.Upgrader
}

func New(logger *slog.Logger, hub hub, conf config.Socket) *Server {
	return &Server{
		logger: logger.With("component", "websocket"),
		hub:    hub,
		conf:   conf,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP upgrades the request and pumps messages until either side hangs up.
func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP", "remote", req.RemoteAddr)

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Warn("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(conn, that.conf)

	// the request context ends with the hijacked connection, so the session
	// outlives it on a detached one
	ctx := context.WithoutCancel(req.Context())

	participantID, err := that.hub.Open(ctx, client)
	if err != nil {
		log.Error("failed to open session", "error", err)
		client.shutdown()
		_ = conn.Close()
		return
	}

	log = log.With("participant_id", participantID)
	log.Info("WebSocket connection established")

	go client.writePump()

	client.readPump(func(data []byte) {
		if err := that.hub.Receive(ctx, participantID, data); err != nil {
			log.Warn("failed to forward message", "error", err)
		}
	})

	client.shutdown()

	if err := that.hub.Close(ctx, participantID); err != nil {
		log.Warn("failed to close session", "error", err)
	}

	log.Info("WebSocket connection closed")
}
