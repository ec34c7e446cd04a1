package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/rocketscienceinc/darts-backend/internal/apperror"
	"github.com/rocketscienceinc/darts-backend/internal/darts"
	"github.com/rocketscienceinc/darts-backend/internal/entity"
	"github.com/rocketscienceinc/darts-backend/internal/pkg"
)

const maxRoomCodeAttempts = 16

var ErrRoomCodeExhausted = errors.New("could not generate a free room code")

// Notifier delivers messages to connected participants.
type Notifier interface {
	Send(id string, msg entity.Message)
	SendTo(ids []string, msg entity.Message)
	Broadcast(msg entity.Message)
}

type roomMirror interface {
	PublishListing(ctx context.Context, listing []entity.ListingEntry) error
	SaveRoom(ctx context.Context, state entity.RoomState) error
	DeleteRoom(ctx context.Context, id string) error
}

// Scheduler runs fn after d on the same path as every other room mutation.
// The returned func cancels the call if it has not fired yet.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func(ctx context.Context)) (cancel func())
}

type RoomSettings struct {
	Seats       int
	DeleteGrace time.Duration
	StartScore  int
	UndoDepth   int
}

// RoomRequest is the client supplied part of a new room.
type RoomRequest struct {
	Name       string
	Variant    string
	StartScore int
}

// StartOptions override the room configuration for a single game.
type StartOptions struct {
	StartingPlayerID   string
	StartingPlayerName string
	Variant            string
	StartScore         int
}

type ActionKind int

const (
	ActionThrow ActionKind = iota
	ActionUndo
)

type Action struct {
	Kind  ActionKind
	Throw darts.Throw
}

type pendingDelete struct {
	token  uint64
	cancel func()
}

// RoomManager owns every room. It is not safe for concurrent use: all calls
// are expected to come from the Hub goroutine.
type RoomManager struct {
	logger    *slog.Logger
	notifier  Notifier
	mirror    roomMirror
	scheduler Scheduler
	settings  RoomSettings

	rooms    map[string]*entity.Room
	order    []string
	memberOf map[string]string
	pending  map[string]pendingDelete
	tokens   uint64

	newRoomID func() (string, error)
}

func NewRoomManager(
	logger *slog.Logger,
	notifier Notifier,
	mirror roomMirror,
	scheduler Scheduler,
	settings RoomSettings,
) *RoomManager {
	if settings.Seats < 2 {
		settings.Seats = 2
	}
	if settings.StartScore < 2 {
		settings.StartScore = darts.DefaultStartScore
	}

	return &RoomManager{
		logger:    logger.With("component", "room_manager"),
		notifier:  notifier,
		mirror:    mirror,
		scheduler: scheduler,
		settings:  settings,

		rooms:    make(map[string]*entity.Room),
		memberOf: make(map[string]string),
		pending:  make(map[string]pendingDelete),

		newRoomID: pkg.GenerateRoomCode,
	}
}

// CreateRoom opens a new room with the owner in seat 0 and returns its id.
func (that *RoomManager) CreateRoom(ctx context.Context, ownerID, ownerName string, req RoomRequest) (string, error) {
	log := that.logger.With("method", "CreateRoom", "owner_id", ownerID)

	if ownerName == "" {
		return "", apperror.ErrEmptyName
	}

	variant, err := darts.ParseVariant(req.Variant)
	if err != nil {
		return "", err
	}

	roomID, err := that.freeRoomID()
	if err != nil {
		return "", err
	}

	that.leave(ctx, ownerID)

	startScore := req.StartScore
	if startScore < 2 {
		startScore = that.settings.StartScore
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = ownerName + "'s room"
	}

	room := entity.NewRoom(roomID, name, that.settings.Seats, entity.RoomConfig{
		Variant:    variant,
		StartScore: startScore,
	})
	room.OwnerID = ownerID
	room.OwnerName = ownerName
	room.Sit(0, ownerID, ownerName)

	that.rooms[roomID] = room
	that.order = append(that.order, roomID)
	that.memberOf[ownerID] = roomID

	log.Info("room created", "room_id", roomID, "variant", variant)

	that.notifier.Send(ownerID, entity.Message{
		Type:    entity.MsgRoomCreated,
		Payload: entity.RoomCreatedPayload{RoomID: roomID},
	})
	that.pushState(ctx, room)
	that.publishListing(ctx)

	return roomID, nil
}

// JoinRoom seats the participant. A name that held a seat before takes that seat
// back together with its game progress.
func (that *RoomManager) JoinRoom(ctx context.Context, participantID, name, roomID string) error {
	log := that.logger.With("method", "JoinRoom", "participant_id", participantID, "room_id", roomID)

	room, ok := that.rooms[roomID]
	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, roomID)
	}

	if name == "" {
		return apperror.ErrEmptyName
	}

	seat := room.SeatByName(name)
	if seat >= 0 && boundToOtherSeat(room, seat, participantID) {
		log.Debug("join refused, participant holds another game slot", "seat", seat)
		return apperror.ErrSeatBound
	}

	if current, seated := that.memberOf[participantID]; seated {
		if current == roomID && room.SeatOf(participantID) >= 0 {
			that.pushState(ctx, room)
			return nil
		}
		that.leave(ctx, participantID)
	}

	if seat >= 0 {
		that.reclaimSeat(room, seat, participantID, name)
		log.Info("seat reclaimed", "seat", seat, "name", name)
	} else {
		seat = room.FirstEmptySeat()
		if seat < 0 {
			log.Debug("join ignored, room is full")
			return apperror.ErrRoomFull
		}
		room.Sit(seat, participantID, name)
		log.Info("seat taken", "seat", seat, "name", name)
	}

	that.cancelDeletion(roomID)
	that.memberOf[participantID] = roomID

	that.pushState(ctx, room)
	that.publishListing(ctx)

	return nil
}

func (that *RoomManager) reclaimSeat(room *entity.Room, seat int, participantID, name string) {
	previous := room.LastIDs[seat]

	if holder := room.Seats[seat]; holder != entity.EmptySeat && holder != participantID {
		delete(that.memberOf, holder)
		that.notifier.Send(holder, entity.InfoMessage(fmt.Sprintf("%s joined from another connection", name)))
	}

	room.Sit(seat, participantID, name)

	if room.Game != nil && previous != "" && previous != participantID {
		room.Game.Rebind(previous, participantID)
	}

	if name == room.OwnerName {
		room.OwnerID = participantID
	}
}

// boundToOtherSeat reports whether the participant still owns a player slot of the
// running game through a seat other than seat.
func boundToOtherSeat(room *entity.Room, seat int, participantID string) bool {
	if room.Game == nil {
		return false
	}

	for i, id := range room.LastIDs {
		if i != seat && id == participantID {
			return slices.Contains(room.Game.Snapshot().Players, participantID)
		}
	}

	return false
}

// LeaveRoom frees the participant's seat and schedules deletion of an emptied room.
func (that *RoomManager) LeaveRoom(ctx context.Context, participantID string) error {
	if _, ok := that.memberOf[participantID]; !ok {
		return apperror.ErrNotSeated
	}

	that.leave(ctx, participantID)

	return nil
}

func (that *RoomManager) leave(ctx context.Context, participantID string) {
	roomID, ok := that.memberOf[participantID]
	if !ok {
		return
	}
	delete(that.memberOf, participantID)

	room, ok := that.rooms[roomID]
	if !ok {
		return
	}

	if seat := room.SeatOf(participantID); seat >= 0 {
		room.Vacate(seat)
	}

	that.logger.Info("participant left room", "method", "LeaveRoom", "participant_id", participantID, "room_id", roomID)

	if room.IsEmpty() {
		that.scheduleDeletion(roomID)
	}

	that.pushState(ctx, room)
	that.publishListing(ctx)
}

func (that *RoomManager) scheduleDeletion(roomID string) {
	that.cancelDeletion(roomID)

	that.tokens++
	token := that.tokens

	cancel := that.scheduler.AfterFunc(that.settings.DeleteGrace, func(ctx context.Context) {
		that.expire(ctx, roomID, token)
	})

	that.pending[roomID] = pendingDelete{token: token, cancel: cancel}
}

func (that *RoomManager) cancelDeletion(roomID string) {
	pending, ok := that.pending[roomID]
	if !ok {
		return
	}

	pending.cancel()
	delete(that.pending, roomID)
}

func (that *RoomManager) expire(ctx context.Context, roomID string, token uint64) {
	log := that.logger.With("method", "expire", "room_id", roomID)

	pending, ok := that.pending[roomID]
	if !ok || pending.token != token {
		log.Debug("stale deletion timer")
		return
	}
	delete(that.pending, roomID)

	room, ok := that.rooms[roomID]
	if !ok || !room.IsEmpty() {
		return
	}

	delete(that.rooms, roomID)
	that.order = slices.DeleteFunc(that.order, func(id string) bool { return id == roomID })

	if err := that.mirror.DeleteRoom(ctx, roomID); err != nil {
		log.Warn("failed to delete room from mirror", "error", err)
	}

	log.Info("room deleted")

	that.publishListing(ctx)
}

// StartGame starts a fresh game from the filled seats. Only the owner may call it.
func (that *RoomManager) StartGame(ctx context.Context, requesterID string, opts StartOptions) error {
	room, err := that.roomOf(requesterID)
	if err != nil {
		return err
	}

	if room.OwnerID != requesterID {
		return apperror.ErrNotOwner
	}

	return that.start(ctx, room, opts)
}

// RequestStart lets any seated participant ask for a start. With the owner seated
// the game starts on the owner's behalf; otherwise the requester starts it with the
// room configuration. Only the owner's own request may override variant or score.
func (that *RoomManager) RequestStart(ctx context.Context, requesterID string, opts StartOptions) error {
	room, err := that.roomOf(requesterID)
	if err != nil {
		return err
	}

	if !room.OwnerSeated() {
		return that.start(ctx, room, StartOptions{
			StartingPlayerID:   opts.StartingPlayerID,
			StartingPlayerName: opts.StartingPlayerName,
		})
	}

	if room.OwnerID != requesterID {
		opts = StartOptions{
			StartingPlayerID:   opts.StartingPlayerID,
			StartingPlayerName: opts.StartingPlayerName,
		}
	}

	if err = that.start(ctx, room, opts); err != nil {
		return err
	}

	if room.OwnerID != requesterID {
		requesterName := room.SeatNames[room.SeatOf(requesterID)]
		that.notifier.Send(room.OwnerID, entity.InfoMessage(fmt.Sprintf("%s started the game", requesterName)))
		that.notifier.Send(requesterID, entity.InfoMessage(fmt.Sprintf("game started by %s", room.OwnerName)))
	}

	return nil
}

func (that *RoomManager) start(ctx context.Context, room *entity.Room, opts StartOptions) error {
	log := that.logger.With("method", "StartGame", "room_id", room.ID)

	players := room.Occupants()
	if len(players) < 2 {
		return apperror.ErrNotEnoughPlayers
	}

	config := room.Config
	if opts.Variant != "" {
		variant, err := darts.ParseVariant(opts.Variant)
		if err != nil {
			return err
		}
		config.Variant = variant
	}
	if opts.StartScore > 1 {
		config.StartScore = opts.StartScore
	}

	first := opts.StartingPlayerID
	if first == "" && opts.StartingPlayerName != "" {
		if seat := room.SeatByName(opts.StartingPlayerName); seat >= 0 {
			first = room.Seats[seat]
		}
	}
	if idx := slices.Index(players, first); idx > 0 {
		players = append(slices.Clone(players[idx:]), players[:idx]...)
	}

	game, err := darts.NewEngine(config.Variant, players, darts.Options{
		StartScore: config.StartScore,
		UndoDepth:  that.settings.UndoDepth,
	})
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}

	room.Config = config
	room.Game = game

	log.Info("game started", "variant", config.Variant, "players", players)

	that.pushState(ctx, room)
	that.publishListing(ctx)

	return nil
}

// Dispatch forwards a throw or an undo to the game of the participant's room.
func (that *RoomManager) Dispatch(ctx context.Context, participantID string, action Action) error {
	room, err := that.roomOf(participantID)
	if err != nil {
		return err
	}

	if room.Game == nil {
		return apperror.ErrGameIsNotStarted
	}

	switch action.Kind {
	case ActionThrow:
		err = room.Game.Apply(participantID, action.Throw)
	case ActionUndo:
		err = room.Game.Undo()
	default:
		err = apperror.ErrUnknownMessage
	}
	if err != nil {
		return err
	}

	that.pushState(ctx, room)
	that.publishListing(ctx)

	return nil
}

// Listing returns the room listing in creation order.
func (that *RoomManager) Listing() []entity.ListingEntry {
	listing := make([]entity.ListingEntry, 0, len(that.order))
	for _, id := range that.order {
		listing = append(listing, that.rooms[id].Listing())
	}
	return listing
}

func (that *RoomManager) RoomState(roomID string) (entity.RoomState, error) {
	room, ok := that.rooms[roomID]
	if !ok {
		return entity.RoomState{}, apperror.ErrRoomNotFound
	}
	return room.State(), nil
}

// RoomOf returns the id of the room the participant is seated in.
func (that *RoomManager) RoomOf(participantID string) (string, bool) {
	roomID, ok := that.memberOf[participantID]
	return roomID, ok
}

func (that *RoomManager) roomOf(participantID string) (*entity.Room, error) {
	roomID, ok := that.memberOf[participantID]
	if !ok {
		return nil, apperror.ErrNotSeated
	}

	room, ok := that.rooms[roomID]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	return room, nil
}

func (that *RoomManager) freeRoomID() (string, error) {
	for i := 0; i < maxRoomCodeAttempts; i++ {
		id, err := that.newRoomID()
		if err != nil {
			return "", err
		}
		if _, taken := that.rooms[id]; !taken {
			return id, nil
		}
	}
	return "", ErrRoomCodeExhausted
}

func (that *RoomManager) pushState(ctx context.Context, room *entity.Room) {
	state := room.State()

	that.notifier.SendTo(room.Occupants(), entity.Message{Type: entity.MsgGameState, Payload: state})

	if err := that.mirror.SaveRoom(ctx, state); err != nil {
		that.logger.Warn("failed to mirror room", "room_id", room.ID, "error", err)
	}
}

func (that *RoomManager) publishListing(ctx context.Context) {
	listing := that.Listing()

	that.notifier.Broadcast(entity.Message{Type: entity.MsgRoomUpdate, Payload: listing})

	if err := that.mirror.PublishListing(ctx, listing); err != nil {
		that.logger.Warn("failed to mirror listing", "error", err)
	}
}
