package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/darts-backend/internal/apperror"
	"github.com/rocketscienceinc/darts-backend/internal/entity"
)

type fakeConn struct {
	mu     sync.Mutex
	closed bool
	got    []entity.Message
}

func (that *fakeConn) Send(data []byte) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return false
	}

	var msg entity.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return false
	}
	that.got = append(that.got, msg)

	return true
}

func (that *fakeConn) types() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	out := make([]string, 0, len(that.got))
	for _, m := range that.got {
		out = append(out, m.Type)
	}
	return out
}

func newTestConnections() *Connections {
	return NewConnections(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestConnections_RegisterAndName(t *testing.T) {
	// Given: two registered connections
	conns := newTestConnections()
	first := conns.Register(&fakeConn{})
	second := conns.Register(&fakeConn{})

	// Then: ids are unique and nobody is logged in
	assert.NotEqual(t, first.ID, second.ID)
	assert.Empty(t, conns.Online())

	// When: both log in, second first
	require.NoError(t, conns.SetName(second.ID, "bob"))
	require.NoError(t, conns.SetName(first.ID, "ann"))

	// Then: online names follow connection order
	assert.Equal(t, []string{"ann", "bob"}, conns.Online())

	participant, ok := conns.Get(first.ID)
	require.True(t, ok)
	assert.Equal(t, "ann", participant.Name)
	assert.Equal(t, "bob", conns.Name(second.ID))

	// When: the first disconnects
	conns.Remove(first.ID)

	// Then: it is gone
	_, ok = conns.Get(first.ID)
	assert.False(t, ok)
	assert.Equal(t, []string{"bob"}, conns.Online())
	assert.Empty(t, conns.Name(first.ID))
	require.ErrorIs(t, conns.SetName(first.ID, "ann"), apperror.ErrUnknownPlayer)
}

func TestConnections_OnlineWhileRenaming(t *testing.T) {
	// Given: a logged in connection
	conns := newTestConnections()
	participant := conns.Register(&fakeConn{})
	require.NoError(t, conns.SetName(participant.ID, "ann"))

	// When: the name changes while the online list is read
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = conns.SetName(participant.ID, fmt.Sprintf("ann-%d", i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			names := conns.Online()
			assert.Len(t, names, 1)
		}
	}()
	wg.Wait()

	// Then: the list holds the latest name
	assert.Equal(t, []string{"ann-199"}, conns.Online())
}

func TestConnections_DeliveryIsBestEffort(t *testing.T) {
	// Given: three connections, the middle one closed
	conns := newTestConnections()
	a, b, c := &fakeConn{}, &fakeConn{closed: true}, &fakeConn{}
	pa := conns.Register(a)
	pb := conns.Register(b)
	pc := conns.Register(c)

	// When: a message is sent to all three and one unknown id
	conns.SendTo([]string{pa.ID, pb.ID, "ghost", pc.ID}, entity.InfoMessage("hello"))

	// Then: the open connections still received it
	assert.Equal(t, []string{entity.MsgInfo}, a.types())
	assert.Equal(t, []string{entity.MsgInfo}, c.types())
	assert.Empty(t, b.types())

	// When: a broadcast goes out
	conns.Broadcast(entity.Message{Type: entity.MsgRoomUpdate, Payload: []entity.ListingEntry{}})

	// Then: every open connection got it
	assert.Equal(t, []string{entity.MsgInfo, entity.MsgRoomUpdate}, a.types())
	assert.Equal(t, []string{entity.MsgInfo, entity.MsgRoomUpdate}, c.types())
}
