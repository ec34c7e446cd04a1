package darts

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rocketscienceinc/darts-backend/internal/apperror"
)

type Variant string

const (
	VariantCountdown Variant = "countdown"
	VariantCricket   Variant = "cricket"
)

const (
	DefaultStartScore = 501
	DefaultUndoDepth  = 64

	dartsPerTurn = 3
)

// Engine is a turn-based scoring state machine for one game.
type Engine interface {
	Variant() Variant
	Apply(playerID string, t Throw) error
	Undo() error
	// Rebind moves a player's seat state to a new participant id after a reconnect.
	Rebind(oldID, newID string)
	Snapshot() Snapshot
}

type Options struct {
	StartScore int
	UndoDepth  int
}

// Snapshot is the complete, copy-safe view of a game. Fields that belong to one
// variant only are left empty by the other.
type Snapshot struct {
	Variant       Variant        `json:"variant"`
	Players       []string       `json:"players"`
	CurrentPlayer string         `json:"current_player"`
	CurrentIndex  int            `json:"current_index"`
	Winner        string         `json:"winner"`
	Scores        map[string]int `json:"scores"`
	DartsThrown   int            `json:"darts_thrown"`

	StartScore int                  `json:"start_score,omitempty"`
	History    map[string][]int     `json:"history,omitempty"`
	Outcomes   map[string][]Outcome `json:"outcomes,omitempty"`

	Marks      map[string]map[int]int `json:"marks,omitempty"`
	TurnThrows []Throw                `json:"turn_throws,omitempty"`
}

// ParseVariant maps a client supplied variant name, empty meaning countdown.
func ParseVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", string(VariantCountdown), "x01", "501", "301":
		return VariantCountdown, nil
	case string(VariantCricket), "closing", "closing-number":
		return VariantCricket, nil
	default:
		return "", fmt.Errorf("%w: %q", apperror.ErrUnknownVariant, name)
	}
}

func NewEngine(variant Variant, players []string, opts Options) (Engine, error) {
	if err := validatePlayers(players); err != nil {
		return nil, err
	}

	switch variant {
	case VariantCountdown:
		return newCountdown(players, opts), nil
	case VariantCricket:
		return newCricket(players), nil
	default:
		return nil, fmt.Errorf("%w: %q", apperror.ErrUnknownVariant, variant)
	}
}

func validatePlayers(players []string) error {
	if len(players) < 2 {
		return fmt.Errorf("%w: need at least 2 players, got %d", apperror.ErrInvalidPlayers, len(players))
	}

	seen := make(map[string]struct{}, len(players))
	for _, id := range players {
		if id == "" {
			return fmt.Errorf("%w: empty player id", apperror.ErrInvalidPlayers)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate player %s", apperror.ErrInvalidPlayers, id)
		}
		seen[id] = struct{}{}
	}

	return nil
}

// order keeps the player sequence and the current turn index.
type order struct {
	players []string
	current int
}

func newOrder(players []string) order {
	return order{players: slices.Clone(players)}
}

func (that *order) currentID() string {
	return that.players[that.current]
}

func (that *order) next() {
	that.current = (that.current + 1) % len(that.players)
}

func (that *order) previousID() string {
	n := len(that.players)
	return that.players[(that.current-1+n)%n]
}

func (that *order) indexOf(id string) int {
	return slices.Index(that.players, id)
}

func (that *order) rename(oldID, newID string) {
	if i := that.indexOf(oldID); i >= 0 {
		that.players[i] = newID
	}
}

func renameKey[V any](m map[string]V, oldID, newID string) {
	if v, ok := m[oldID]; ok {
		delete(m, oldID)
		m[newID] = v
	}
}

