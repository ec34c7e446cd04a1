package darts

import (
	"fmt"
	"maps"
	"slices"

	"github.com/rocketscienceinc/darts-backend/internal/apperror"
)

const (
	Bull = 25
	Miss = 0

	closedMarks = 3
)

// Targets are the seven numbers a cricket player has to close.
var Targets = []int{20, 19, 18, 17, 16, 15, Bull}

// cricket closes the seven targets and scores on numbers the opponent left open.
type cricket struct {
	order

	marks      map[string]map[int]int
	scores     map[string]int
	turnThrows []Throw
	winner     string
}

func newCricket(players []string) *cricket {
	game := &cricket{
		order:  newOrder(players),
		marks:  make(map[string]map[int]int, len(players)),
		scores: make(map[string]int, len(players)),
	}

	for _, id := range players {
		game.marks[id] = emptyMarks()
		game.scores[id] = 0
	}

	return game
}

func emptyMarks() map[int]int {
	marks := make(map[int]int, len(Targets))
	for _, target := range Targets {
		marks[target] = 0
	}
	return marks
}

func IsTarget(target int) bool {
	return slices.Contains(Targets, target)
}

func (that *cricket) Variant() Variant {
	return VariantCricket
}

func (that *cricket) Apply(playerID string, t Throw) error {
	if that.currentID() != playerID {
		return apperror.ErrNotYourTurn
	}

	if that.winner != "" {
		return apperror.ErrGameFinished
	}

	if t.Target != Miss && !IsTarget(t.Target) {
		return fmt.Errorf("%w: target %d", apperror.ErrInvalidThrow, t.Target)
	}

	if t.Multiplier < 1 || t.Multiplier > 3 {
		return fmt.Errorf("%w: multiplier %d", apperror.ErrInvalidThrow, t.Multiplier)
	}

	if t.Target != Miss {
		for i := 0; i < t.Multiplier; i++ {
			that.hit(playerID, t.Target)
		}
	}

	that.turnThrows = append(that.turnThrows, Throw{Target: t.Target, Multiplier: t.Multiplier})

	if that.hasWon(playerID) {
		that.winner = playerID
		return nil
	}

	if len(that.turnThrows) >= dartsPerTurn {
		that.next()
		that.turnThrows = nil
	}

	return nil
}

func (that *cricket) hit(playerID string, target int) {
	if that.marks[playerID][target] < closedMarks {
		that.marks[playerID][target]++
		return
	}

	if that.openForOpponent(playerID, target) {
		that.scores[playerID] += target
	}
}

func (that *cricket) openForOpponent(playerID string, target int) bool {
	for _, id := range that.players {
		if id != playerID && that.marks[id][target] < closedMarks {
			return true
		}
	}
	return false
}

// hasWon requires every target closed and a score at least equal to the best
// opponent; with no opponent the score check always passes.
func (that *cricket) hasWon(playerID string) bool {
	for _, target := range Targets {
		if that.marks[playerID][target] < closedMarks {
			return false
		}
	}

	best := -1
	for _, id := range that.players {
		if id != playerID && that.scores[id] > best {
			best = that.scores[id]
		}
	}

	return that.scores[playerID] >= best
}

func (that *cricket) Undo() error {
	return apperror.ErrUndoUnsupported
}

func (that *cricket) Rebind(oldID, newID string) {
	if oldID == newID || that.indexOf(oldID) < 0 || that.indexOf(newID) >= 0 {
		return
	}

	that.rename(oldID, newID)
	renameKey(that.marks, oldID, newID)
	renameKey(that.scores, oldID, newID)

	if that.winner == oldID {
		that.winner = newID
	}
}

func (that *cricket) Snapshot() Snapshot {
	marks := make(map[string]map[int]int, len(that.marks))
	for id, m := range that.marks {
		marks[id] = maps.Clone(m)
	}

	return Snapshot{
		Variant:       VariantCricket,
		Players:       slices.Clone(that.players),
		CurrentPlayer: that.currentID(),
		CurrentIndex:  that.current,
		Winner:        that.winner,
		Scores:        maps.Clone(that.scores),
		DartsThrown:   len(that.turnThrows),
		Marks:         marks,
		TurnThrows:    slices.Clone(that.turnThrows),
	}
}
