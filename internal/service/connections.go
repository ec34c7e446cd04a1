package service

import (
	"cmp"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/darts-backend/internal/apperror"
	"github.com/rocketscienceinc/darts-backend/internal/entity"
)

// Conn is the outbound side of a client connection.
type Conn interface {
	// Send queues an encoded message without blocking; false means it was dropped.
	Send(data []byte) bool
}

type connection struct {
	participant entity.Participant
	conn        Conn
	seq         uint64
}

// Connections maps participant ids to their names and connections.
type Connections struct {
	logger *slog.Logger

	mu          sync.RWMutex
	connections map[string]*connection
	seq         uint64
}

func NewConnections(logger *slog.Logger) *Connections {
	return &Connections{
		logger:      logger.With("component", "connections"),
		connections: make(map[string]*connection),
	}
}

// Register assigns a fresh participant id to the connection.
func (that *Connections) Register(conn Conn) entity.Participant {
	participant := entity.Participant{ID: uuid.NewString()}

	that.mu.Lock()
	that.seq++
	that.connections[participant.ID] = &connection{participant: participant, conn: conn, seq: that.seq}
	that.mu.Unlock()

	return participant
}

func (that *Connections) Remove(id string) {
	that.mu.Lock()
	delete(that.connections, id)
	that.mu.Unlock()
}

func (that *Connections) Get(id string) (entity.Participant, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	c, ok := that.connections[id]
	if !ok {
		return entity.Participant{}, false
	}

	return c.participant, true
}

// Name returns the display name, empty when the participant is unknown or anonymous.
func (that *Connections) Name(id string) string {
	participant, _ := that.Get(id)
	return participant.Name
}

func (that *Connections) SetName(id, name string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	c, ok := that.connections[id]
	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrUnknownPlayer, id)
	}

	c.participant.Name = name

	return nil
}

// Online lists logged in display names in connection order.
func (that *Connections) Online() []string {
	type online struct {
		seq  uint64
		name string
	}

	that.mu.RLock()
	found := make([]online, 0, len(that.connections))
	for _, c := range that.connections {
		if c.participant.IsLoggedIn() {
			found = append(found, online{seq: c.seq, name: c.participant.Name})
		}
	}
	that.mu.RUnlock()

	slices.SortFunc(found, func(a, b online) int {
		return cmp.Compare(a.seq, b.seq)
	})

	names := make([]string, 0, len(found))
	for _, o := range found {
		names = append(names, o.name)
	}

	return names
}

func (that *Connections) Send(id string, msg entity.Message) {
	that.SendTo([]string{id}, msg)
}

// SendTo delivers msg to every listed participant; a failed recipient never
// stops delivery to the rest.
func (that *Connections) SendTo(ids []string, msg entity.Message) {
	data, ok := that.encode(msg)
	if !ok {
		return
	}

	that.mu.RLock()
	targets := make([]*connection, 0, len(ids))
	for _, id := range ids {
		if c, found := that.connections[id]; found {
			targets = append(targets, c)
		}
	}
	that.mu.RUnlock()

	that.deliver(targets, msg.Type, data)
}

func (that *Connections) Broadcast(msg entity.Message) {
	data, ok := that.encode(msg)
	if !ok {
		return
	}

	that.mu.RLock()
	targets := make([]*connection, 0, len(that.connections))
	for _, c := range that.connections {
		targets = append(targets, c)
	}
	that.mu.RUnlock()

	that.deliver(targets, msg.Type, data)
}

func (that *Connections) encode(msg entity.Message) ([]byte, bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		that.logger.Error("failed to marshal message", "type", msg.Type, "error", err)
		return nil, false
	}

	return data, true
}

func (that *Connections) deliver(targets []*connection, msgType string, data []byte) {
	for _, c := range targets {
		if !c.conn.Send(data) {
			that.logger.Warn("message dropped", "type", msgType, "participantID", c.participant.ID)
		}
	}
}
