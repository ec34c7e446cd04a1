package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/darts-backend/internal/entity"
	"github.com/rocketscienceinc/darts-backend/internal/service"
)

const defaultInboxSize = 256

var ErrHubStopped = errors.New("hub is stopped")

type hubMsg interface{ isHubMsg() }

type openConn struct {
	conn  service.Conn
	reply chan string
}

type inboundData struct {
	participantID string
	data          []byte
}

type closeConn struct {
	participantID string
}

type deferredCall struct {
	fn func(ctx context.Context)
}

type listingRequest struct {
	reply chan []entity.ListingEntry
}

func (openConn) isHubMsg()       {}
func (inboundData) isHubMsg()    {}
func (closeConn) isHubMsg()      {}
func (deferredCall) isHubMsg()   {}
func (listingRequest) isHubMsg() {}

type sessionHandler interface {
	Open(ctx context.Context, conn service.Conn) string
	Handle(ctx context.Context, participantID string, data []byte)
	Close(ctx context.Context, participantID string)
	Listing() []entity.ListingEntry
}

// Hub is the single goroutine that applies every session event and every timer
// callback, one at a time.
type Hub struct {
	logger *slog.Logger

	inbox chan hubMsg
	done  chan struct{}
}

func NewHub(logger *slog.Logger, inboxSize int) *Hub {
	if inboxSize <= 0 {
		inboxSize = defaultInboxSize
	}

	return &Hub{
		logger: logger.With("component", "hub"),
		inbox:  make(chan hubMsg, inboxSize),
		done:   make(chan struct{}),
	}
}

// Run drains the inbox until ctx is canceled.
func (that *Hub) Run(ctx context.Context, session sessionHandler) {
	defer close(that.done)

	that.logger.Info("hub started")

	for {
		select {
		case <-ctx.Done():
			that.logger.Info("hub stopped")
			return
		case msg := <-that.inbox:
			that.handle(ctx, session, msg)
		}
	}
}

func (that *Hub) handle(ctx context.Context, session sessionHandler, msg hubMsg) {
	defer func() {
		if r := recover(); r != nil {
			that.logger.Error("recovered from panic in hub", "panic", r)
		}
	}()

	switch m := msg.(type) {
	case openConn:
		m.reply <- session.Open(ctx, m.conn)
	case inboundData:
		session.Handle(ctx, m.participantID, m.data)
	case closeConn:
		session.Close(ctx, m.participantID)
	case deferredCall:
		m.fn(ctx)
	case listingRequest:
		m.reply <- session.Listing()
	}
}

// Open registers a new connection and returns its participant id.
func (that *Hub) Open(ctx context.Context, conn service.Conn) (string, error) {
	reply := make(chan string, 1)
	if err := that.post(ctx, openConn{conn: conn, reply: reply}); err != nil {
		return "", err
	}

	select {
	case id := <-reply:
		return id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-that.done:
		return "", ErrHubStopped
	}
}

func (that *Hub) Receive(ctx context.Context, participantID string, data []byte) error {
	return that.post(ctx, inboundData{participantID: participantID, data: data})
}

func (that *Hub) Close(ctx context.Context, participantID string) error {
	return that.post(ctx, closeConn{participantID: participantID})
}

// Listing reads the room listing from inside the hub.
func (that *Hub) Listing(ctx context.Context) ([]entity.ListingEntry, error) {
	reply := make(chan []entity.ListingEntry, 1)
	if err := that.post(ctx, listingRequest{reply: reply}); err != nil {
		return nil, err
	}

	select {
	case listing := <-reply:
		return listing, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-that.done:
		return nil, ErrHubStopped
	}
}

// AfterFunc schedules fn to run inside the hub after d.
func (that *Hub) AfterFunc(d time.Duration, fn func(ctx context.Context)) func() {
	timer := time.AfterFunc(d, func() {
		select {
		case that.inbox <- deferredCall{fn: fn}:
		case <-that.done:
		}
	})

	return func() { timer.Stop() }
}

func (that *Hub) post(ctx context.Context, msg hubMsg) error {
	select {
	case <-that.done:
		return ErrHubStopped
	default:
	}

	select {
	case that.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-that.done:
		return ErrHubStopped
	}
}
