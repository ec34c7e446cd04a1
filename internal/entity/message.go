package entity

import "github.com/rocketscienceinc/darts-backend/internal/darts"

const (
	MsgConnected   = "connected"
	MsgRoomCreated = "room_created"
	MsgRoomUpdate  = "room_update"
	MsgGameState   = "game_state"
	MsgOnlineList  = "online_list"
	MsgError       = "error"
	MsgInfo        = "info"
)

// Message is the envelope of every server to client message.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type ListingEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerName string `json:"owner_name"`
	Players   int    `json:"players"`
	Capacity  int    `json:"capacity"`
	Started   bool   `json:"started"`
}

type RoomState struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	OwnerID   string          `json:"owner_id"`
	OwnerName string          `json:"owner_name"`
	Seats     []string        `json:"seats"`
	SeatNames []string        `json:"seat_names"`
	Capacity  int             `json:"capacity"`
	Config    RoomConfig      `json:"config"`
	Game      *darts.Snapshot `json:"game,omitempty"`
}

type ConnectedPayload struct {
	ID string `json:"id"`
}

type RoomCreatedPayload struct {
	RoomID string `json:"room_id"`
}

type TextPayload struct {
	Message string `json:"message"`
}

func ErrorMessage(text string) Message {
	return Message{Type: MsgError, Payload: TextPayload{Message: text}}
}

func InfoMessage(text string) Message {
	return Message{Type: MsgInfo, Payload: TextPayload{Message: text}}
}
