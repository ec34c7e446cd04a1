package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rocketscienceinc/darts-backend/internal/entity"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockRoomMirror struct {
	mock.Mock
}

func (m *mockRoomMirror) PublishListing(ctx context.Context, listing []entity.ListingEntry) error {
	return m.Called(ctx, listing).Error(0)
}

func (m *mockRoomMirror) SaveRoom(ctx context.Context, state entity.RoomState) error {
	return m.Called(ctx, state).Error(0)
}

func (m *mockRoomMirror) DeleteRoom(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func newPermissiveMirror() *mockRoomMirror {
	mirror := &mockRoomMirror{}
	mirror.On("PublishListing", mock.Anything, mock.Anything).Return(nil).Maybe()
	mirror.On("SaveRoom", mock.Anything, mock.Anything).Return(nil).Maybe()
	mirror.On("DeleteRoom", mock.Anything, mock.Anything).Return(nil).Maybe()
	return mirror
}

type delivery struct {
	to  []string // nil means broadcast
	msg entity.Message
}

type recordingNotifier struct {
	mu         sync.Mutex
	deliveries []delivery
}

func (that *recordingNotifier) Send(id string, msg entity.Message) {
	that.SendTo([]string{id}, msg)
}

func (that *recordingNotifier) SendTo(ids []string, msg entity.Message) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.deliveries = append(that.deliveries, delivery{to: slices.Clone(ids), msg: msg})
}

func (that *recordingNotifier) Broadcast(msg entity.Message) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.deliveries = append(that.deliveries, delivery{msg: msg})
}

func (that *recordingNotifier) reset() {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.deliveries = nil
}

// received lists the messages of the given type that reached id, broadcasts included.
func (that *recordingNotifier) received(id, msgType string) []entity.Message {
	that.mu.Lock()
	defer that.mu.Unlock()

	var out []entity.Message
	for _, d := range that.deliveries {
		if d.msg.Type != msgType {
			continue
		}
		if d.to == nil || slices.Contains(d.to, id) {
			out = append(out, d.msg)
		}
	}
	return out
}

func (that *recordingNotifier) broadcasts(msgType string) []entity.Message {
	that.mu.Lock()
	defer that.mu.Unlock()

	var out []entity.Message
	for _, d := range that.deliveries {
		if d.to == nil && d.msg.Type == msgType {
			out = append(out, d.msg)
		}
	}
	return out
}

func (that *recordingNotifier) lastState(id string) entity.RoomState {
	states := that.received(id, entity.MsgGameState)
	if len(states) == 0 {
		panic(fmt.Sprintf("no game_state delivered to %s", id))
	}
	return states[len(states)-1].Payload.(entity.RoomState)
}

func (that *recordingNotifier) lastListing() []entity.ListingEntry {
	listings := that.broadcasts(entity.MsgRoomUpdate)
	if len(listings) == 0 {
		return nil
	}
	return listings[len(listings)-1].Payload.([]entity.ListingEntry)
}

type scheduledCall struct {
	delay     time.Duration
	fn        func(ctx context.Context)
	cancelled bool
}

// manualScheduler never fires on its own; tests fire calls explicitly.
type manualScheduler struct {
	calls []*scheduledCall
}

func (that *manualScheduler) AfterFunc(d time.Duration, fn func(ctx context.Context)) func() {
	call := &scheduledCall{delay: d, fn: fn}
	that.calls = append(that.calls, call)
	return func() { call.cancelled = true }
}

// fire runs the call regardless of cancellation, like a timer that already
// queued its callback before being stopped.
func (that *manualScheduler) fire(i int) {
	that.calls[i].fn(context.Background())
}

func newTestRoomManager(ids ...string) (*RoomManager, *recordingNotifier, *manualScheduler, *mockRoomMirror) {
	notifier := &recordingNotifier{}
	scheduler := &manualScheduler{}
	mirror := newPermissiveMirror()

	manager := NewRoomManager(discardLogger(), notifier, mirror, scheduler, RoomSettings{
		Seats:       2,
		DeleteGrace: 15 * time.Second,
		StartScore:  501,
		UndoDepth:   64,
	})

	next := 0
	manager.newRoomID = func() (string, error) {
		if next < len(ids) {
			next++
			return ids[next-1], nil
		}
		next++
		return fmt.Sprintf("R%05d", next), nil
	}

	return manager, notifier, scheduler, mirror
}
