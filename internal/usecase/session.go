package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rocketscienceinc/darts-backend/internal/apperror"
	"github.com/rocketscienceinc/darts-backend/internal/darts"
	"github.com/rocketscienceinc/darts-backend/internal/entity"
	"github.com/rocketscienceinc/darts-backend/internal/service"
)

const (
	TypeLogin            = "login"
	TypeLogout           = "logout"
	TypeCreateRoom       = "create_room"
	TypeJoinRoom         = "join_room"
	TypeLeaveRoom        = "leave_room"
	TypeStartGame        = "start_game"
	TypeRequestStartGame = "request_start_game"
	TypePlayerThrow      = "player_throw"
	TypeScoreInput       = "score_input"
	TypeUndo             = "undo"
	TypeListRooms        = "list_rooms"
)

type connections interface {
	Notifier

	Register(conn service.Conn) entity.Participant
	Remove(id string)
	Get(id string) (entity.Participant, bool)
	SetName(id, name string) error
	Online() []string
}

type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Action  json.RawMessage `json:"action"`
}

type loginPayload struct {
	Name string `json:"name"`
}

type createRoomPayload struct {
	Name       string `json:"name"`
	PlayerName string `json:"player_name"`
	Variant    string `json:"variant"`
	StartScore int    `json:"start_score"`
}

type joinRoomPayload struct {
	RoomID     string `json:"room_id"`
	PlayerName string `json:"player_name"`
}

type startPayload struct {
	StartingPlayer     string `json:"starting_player"`
	StartingPlayerName string `json:"starting_player_name"`
	StartWithMe        bool   `json:"start_with_me"`
	Variant            string `json:"variant"`
	StartScore         int    `json:"start_score"`
}

type handlerFunc func(ctx context.Context, participantID string, payload json.RawMessage) error

// Session turns inbound client messages into registry calls.
type Session struct {
	logger      *slog.Logger
	connections connections
	rooms       *RoomManager

	handlers map[string]handlerFunc
}

func NewSession(logger *slog.Logger, connections connections, rooms *RoomManager) *Session {
	that := &Session{
		logger:      logger.With("component", "session"),
		connections: connections,
		rooms:       rooms,
	}

	that.handlers = map[string]handlerFunc{
		TypeLogin:            that.login,
		TypeLogout:           that.logout,
		TypeCreateRoom:       that.createRoom,
		TypeJoinRoom:         that.joinRoom,
		TypeLeaveRoom:        that.leaveRoom,
		TypeStartGame:        that.startGame,
		TypeRequestStartGame: that.requestStartGame,
		TypePlayerThrow:      that.throw,
		TypeScoreInput:       that.throw,
		TypeUndo:             that.undo,
		TypeListRooms:        that.listRooms,
	}

	return that
}

// Open registers the connection and greets it with its id and the room listing.
func (that *Session) Open(_ context.Context, conn service.Conn) string {
	participant := that.connections.Register(conn)

	that.logger.Info("participant connected", "participant_id", participant.ID)

	that.connections.Send(participant.ID, entity.Message{
		Type:    entity.MsgConnected,
		Payload: entity.ConnectedPayload{ID: participant.ID},
	})
	that.connections.Send(participant.ID, entity.Message{Type: entity.MsgRoomUpdate, Payload: that.rooms.Listing()})
	that.connections.Send(participant.ID, entity.Message{Type: entity.MsgOnlineList, Payload: that.connections.Online()})

	return participant.ID
}

// Handle decodes one inbound message and runs its handler. Rejections are
// reported back to the sender only.
func (that *Session) Handle(ctx context.Context, participantID string, data []byte) {
	log := that.logger.With("method", "Handle", "participant_id", participantID)

	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Debug("failed to decode message", "error", err)
		that.reject(participantID, "", apperror.ErrMalformedMessage)
		return
	}

	handler, ok := that.handlers[msg.Type]
	if !ok {
		that.reject(participantID, msg.Type, fmt.Errorf("%w: %q", apperror.ErrUnknownMessage, msg.Type))
		return
	}

	payload := msg.Payload
	if isEmpty(payload) {
		payload = msg.Action
	}

	if err := handler(ctx, participantID, payload); err != nil {
		that.reject(participantID, msg.Type, err)
	}
}

// Close runs the implicit leave and forgets the participant.
func (that *Session) Close(ctx context.Context, participantID string) {
	if err := that.rooms.LeaveRoom(ctx, participantID); err != nil && !errors.Is(err, apperror.ErrNotSeated) {
		that.logger.Warn("failed to leave room on close", "participant_id", participantID, "error", err)
	}

	participant, ok := that.connections.Get(participantID)
	that.connections.Remove(participantID)

	that.logger.Info("participant disconnected", "participant_id", participantID)

	if ok && participant.IsLoggedIn() {
		that.broadcastOnline()
	}
}

// Listing serves read only listing requests.
func (that *Session) Listing() []entity.ListingEntry {
	return that.rooms.Listing()
}

func (that *Session) reject(participantID, msgType string, err error) {
	if errors.Is(err, apperror.ErrRoomFull) {
		return
	}

	that.logger.Debug("message rejected", "participant_id", participantID, "type", msgType, "error", err)
	that.connections.Send(participantID, entity.ErrorMessage(err.Error()))
}

func (that *Session) login(_ context.Context, participantID string, payload json.RawMessage) error {
	var body loginPayload
	if err := decode(payload, &body); err != nil {
		return err
	}

	name := strings.TrimSpace(body.Name)
	if name == "" {
		return apperror.ErrEmptyName
	}

	if err := that.connections.SetName(participantID, name); err != nil {
		return err
	}

	that.broadcastOnline()

	return nil
}

func (that *Session) logout(ctx context.Context, participantID string, _ json.RawMessage) error {
	if err := that.rooms.LeaveRoom(ctx, participantID); err != nil && !errors.Is(err, apperror.ErrNotSeated) {
		return err
	}

	if err := that.connections.SetName(participantID, ""); err != nil {
		return err
	}

	that.broadcastOnline()

	return nil
}

func (that *Session) createRoom(ctx context.Context, participantID string, payload json.RawMessage) error {
	var body createRoomPayload
	if err := decode(payload, &body); err != nil {
		return err
	}

	name, err := that.displayName(participantID, body.PlayerName)
	if err != nil {
		return err
	}

	_, err = that.rooms.CreateRoom(ctx, participantID, name, RoomRequest{
		Name:       body.Name,
		Variant:    body.Variant,
		StartScore: body.StartScore,
	})

	return err
}

func (that *Session) joinRoom(ctx context.Context, participantID string, payload json.RawMessage) error {
	var body joinRoomPayload
	if err := decode(payload, &body); err != nil {
		return err
	}

	name, err := that.displayName(participantID, body.PlayerName)
	if err != nil {
		return err
	}

	return that.rooms.JoinRoom(ctx, participantID, name, strings.TrimSpace(body.RoomID))
}

func (that *Session) leaveRoom(ctx context.Context, participantID string, _ json.RawMessage) error {
	return that.rooms.LeaveRoom(ctx, participantID)
}

func (that *Session) startGame(ctx context.Context, participantID string, payload json.RawMessage) error {
	opts, err := that.startOptions(participantID, payload)
	if err != nil {
		return err
	}

	return that.rooms.StartGame(ctx, participantID, opts)
}

func (that *Session) requestStartGame(ctx context.Context, participantID string, payload json.RawMessage) error {
	opts, err := that.startOptions(participantID, payload)
	if err != nil {
		return err
	}

	return that.rooms.RequestStart(ctx, participantID, opts)
}

func (that *Session) startOptions(participantID string, payload json.RawMessage) (StartOptions, error) {
	var body startPayload
	if err := decode(payload, &body); err != nil {
		return StartOptions{}, err
	}

	opts := StartOptions{
		StartingPlayerID:   body.StartingPlayer,
		StartingPlayerName: body.StartingPlayerName,
		Variant:            body.Variant,
		StartScore:         body.StartScore,
	}
	if body.StartWithMe {
		opts.StartingPlayerID = participantID
	}

	return opts, nil
}

func (that *Session) throw(ctx context.Context, participantID string, payload json.RawMessage) error {
	t, err := darts.ParseThrow(payload)
	if err != nil {
		return err
	}

	return that.rooms.Dispatch(ctx, participantID, Action{Kind: ActionThrow, Throw: t})
}

func (that *Session) undo(ctx context.Context, participantID string, _ json.RawMessage) error {
	return that.rooms.Dispatch(ctx, participantID, Action{Kind: ActionUndo})
}

func (that *Session) listRooms(_ context.Context, participantID string, _ json.RawMessage) error {
	that.connections.Send(participantID, entity.Message{Type: entity.MsgRoomUpdate, Payload: that.rooms.Listing()})
	return nil
}

// displayName prefers the name given with the request and remembers it for the
// connection; otherwise the login name is used.
func (that *Session) displayName(participantID, requested string) (string, error) {
	participant, ok := that.connections.Get(participantID)
	if !ok {
		return "", apperror.ErrUnknownPlayer
	}

	name := strings.TrimSpace(requested)
	if name == "" {
		name = participant.Name
	}
	if name == "" {
		return "", apperror.ErrEmptyName
	}

	if name != participant.Name {
		if err := that.connections.SetName(participantID, name); err != nil {
			return "", err
		}
		that.broadcastOnline()
	}

	return name, nil
}

func (that *Session) broadcastOnline() {
	that.connections.Broadcast(entity.Message{Type: entity.MsgOnlineList, Payload: that.connections.Online()})
}

func decode(payload json.RawMessage, v any) error {
	if isEmpty(payload) {
		return nil
	}

	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrMalformedMessage, err)
	}

	return nil
}

func isEmpty(payload json.RawMessage) bool {
	trimmed := bytes.TrimSpace(payload)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
