package darts

import (
	"fmt"
	"maps"
	"slices"

	"github.com/rocketscienceinc/darts-backend/internal/apperror"
)

const (
	maxThrowPoints = 180

	OutcomeScore = "score"
	OutcomeBust  = "bust"
	OutcomeWin   = "win"
)

// Outcome records one accepted countdown throw and the score it started from.
type Outcome struct {
	Points      int    `json:"points"`
	Result      string `json:"result"`
	ScoreBefore int    `json:"score_before"`
}

// countdown reduces each player's score from a start value to exactly zero.
type countdown struct {
	order

	startScore int
	scores     map[string]int
	history    map[string][]int
	outcomes   map[string][]Outcome
	darts      int
	winner     string

	actors    []string
	undoDepth int
}

func newCountdown(players []string, opts Options) *countdown {
	start := opts.StartScore
	if start <= 1 {
		start = DefaultStartScore
	}

	depth := opts.UndoDepth
	if depth <= 0 {
		depth = DefaultUndoDepth
	}

	game := &countdown{
		order:      newOrder(players),
		startScore: start,
		scores:     make(map[string]int, len(players)),
		history:    make(map[string][]int, len(players)),
		outcomes:   make(map[string][]Outcome, len(players)),
		undoDepth:  depth,
	}

	for _, id := range players {
		game.scores[id] = start
		game.history[id] = []int{}
		game.outcomes[id] = []Outcome{}
	}

	return game
}

func (that *countdown) Variant() Variant {
	return VariantCountdown
}

func (that *countdown) Apply(playerID string, t Throw) error {
	if that.winner != "" {
		return apperror.ErrGameFinished
	}

	if t.Points < 0 || t.Points > maxThrowPoints {
		return fmt.Errorf("%w: %d points", apperror.ErrInvalidThrow, t.Points)
	}

	if that.currentID() != playerID {
		return apperror.ErrNotYourTurn
	}

	before := that.scores[playerID]
	newScore := before - t.Points

	that.history[playerID] = append(that.history[playerID], t.Points)
	that.remember(playerID)

	switch {
	case newScore < 0 || newScore == 1:
		that.outcomes[playerID] = append(that.outcomes[playerID], Outcome{Points: t.Points, Result: OutcomeBust, ScoreBefore: before})
		that.advance()
	case newScore == 0:
		that.scores[playerID] = 0
		that.outcomes[playerID] = append(that.outcomes[playerID], Outcome{Points: t.Points, Result: OutcomeWin, ScoreBefore: before})
		that.winner = playerID
	default:
		that.scores[playerID] = newScore
		that.outcomes[playerID] = append(that.outcomes[playerID], Outcome{Points: t.Points, Result: OutcomeScore, ScoreBefore: before})
		that.darts++
		if that.darts >= dartsPerTurn {
			that.advance()
		}
	}

	return nil
}

// Undo reverts the latest throw of whoever acted last, clearing any winner.
func (that *countdown) Undo() error {
	playerID := that.lastActor()

	history := that.history[playerID]
	outcomes := that.outcomes[playerID]
	if len(history) == 0 || len(outcomes) == 0 {
		return apperror.ErrNothingToUndo
	}

	if n := len(that.actors); n > 0 {
		that.actors = that.actors[:n-1]
	}

	last := outcomes[len(outcomes)-1]
	that.history[playerID] = history[:len(history)-1]
	that.outcomes[playerID] = outcomes[:len(outcomes)-1]
	that.scores[playerID] = last.ScoreBefore
	that.winner = ""
	that.current = that.indexOf(playerID)
	that.darts = len(that.history[playerID]) % dartsPerTurn

	return nil
}

func (that *countdown) Rebind(oldID, newID string) {
	if oldID == newID || that.indexOf(oldID) < 0 || that.indexOf(newID) >= 0 {
		return
	}

	that.rename(oldID, newID)
	renameKey(that.scores, oldID, newID)
	renameKey(that.history, oldID, newID)
	renameKey(that.outcomes, oldID, newID)

	for i, id := range that.actors {
		if id == oldID {
			that.actors[i] = newID
		}
	}

	if that.winner == oldID {
		that.winner = newID
	}
}

func (that *countdown) Snapshot() Snapshot {
	history := make(map[string][]int, len(that.history))
	for id, h := range that.history {
		history[id] = slices.Clone(h)
	}

	outcomes := make(map[string][]Outcome, len(that.outcomes))
	for id, o := range that.outcomes {
		outcomes[id] = slices.Clone(o)
	}

	return Snapshot{
		Variant:       VariantCountdown,
		Players:       slices.Clone(that.players),
		CurrentPlayer: that.currentID(),
		CurrentIndex:  that.current,
		Winner:        that.winner,
		Scores:        maps.Clone(that.scores),
		DartsThrown:   that.darts,
		StartScore:    that.startScore,
		History:       history,
		Outcomes:      outcomes,
	}
}

func (that *countdown) advance() {
	that.next()
	that.darts = 0
}

func (that *countdown) remember(playerID string) {
	that.actors = append(that.actors, playerID)
	if over := len(that.actors) - that.undoDepth; over > 0 {
		that.actors = slices.Delete(that.actors, 0, over)
	}
}

// lastActor is the player whose throw an undo reverts. Once the bounded log is
// exhausted it falls back to the player before the current turn.
func (that *countdown) lastActor() string {
	if n := len(that.actors); n > 0 {
		return that.actors[n-1]
	}
	return that.previousID()
}
