package entity

import (
	"slices"

	"github.com/rocketscienceinc/darts-backend/internal/darts"
)

const EmptySeat = ""

// RoomConfig is the game configuration a room starts its games with.
type RoomConfig struct {
	Variant    darts.Variant `json:"variant"`
	StartScore int           `json:"start_score"`
}

// Room is a fixed set of seats plus the game being played in it. Seats, SeatNames
// and LastIDs are parallel; a vacated seat keeps its name and last participant id
// so the player can come back to the same game slot.
type Room struct {
	ID        string
	Name      string
	OwnerID   string
	OwnerName string
	Seats     []string
	SeatNames []string
	LastIDs   []string
	Config    RoomConfig
	Game      darts.Engine
}

func NewRoom(id, name string, capacity int, config RoomConfig) *Room {
	return &Room{
		ID:        id,
		Name:      name,
		Seats:     make([]string, capacity),
		SeatNames: make([]string, capacity),
		LastIDs:   make([]string, capacity),
		Config:    config,
	}
}

func (that *Room) Capacity() int {
	return len(that.Seats)
}

// SeatOf returns the seat index held by the participant or -1.
func (that *Room) SeatOf(participantID string) int {
	if participantID == EmptySeat {
		return -1
	}
	return slices.Index(that.Seats, participantID)
}

// SeatByName returns the seat last held under the given display name or -1.
func (that *Room) SeatByName(name string) int {
	if name == "" {
		return -1
	}
	return slices.Index(that.SeatNames, name)
}

func (that *Room) FirstEmptySeat() int {
	return slices.Index(that.Seats, EmptySeat)
}

func (that *Room) Sit(seat int, participantID, name string) {
	that.Seats[seat] = participantID
	that.SeatNames[seat] = name
	that.LastIDs[seat] = participantID
}

// Vacate empties the seat but keeps the name for reconnects.
func (that *Room) Vacate(seat int) {
	that.Seats[seat] = EmptySeat
}

// Occupants lists the seated participant ids in seat order.
func (that *Room) Occupants() []string {
	ids := make([]string, 0, len(that.Seats))
	for _, id := range that.Seats {
		if id != EmptySeat {
			ids = append(ids, id)
		}
	}
	return ids
}

func (that *Room) IsEmpty() bool {
	return len(that.Occupants()) == 0
}

func (that *Room) OwnerSeated() bool {
	return that.SeatOf(that.OwnerID) >= 0
}

func (that *Room) IsStarted() bool {
	return that.Game != nil
}

func (that *Room) Listing() ListingEntry {
	return ListingEntry{
		ID:        that.ID,
		Name:      that.Name,
		OwnerName: that.OwnerName,
		Players:   len(that.Occupants()),
		Capacity:  that.Capacity(),
		Started:   that.IsStarted(),
	}
}

// State is the full room view pushed to seated participants.
func (that *Room) State() RoomState {
	state := RoomState{
		ID:        that.ID,
		Name:      that.Name,
		OwnerID:   that.OwnerID,
		OwnerName: that.OwnerName,
		Seats:     slices.Clone(that.Seats),
		SeatNames: slices.Clone(that.SeatNames),
		Capacity:  that.Capacity(),
		Config:    that.Config,
	}

	if that.Game != nil {
		snap := that.Game.Snapshot()
		state.Game = &snap
	}

	return state
}
