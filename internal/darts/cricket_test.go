package darts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/darts-backend/internal/apperror"
)

func newTestCricket(t *testing.T) *cricket {
	t.Helper()

	game, err := NewEngine(VariantCricket, []string{"a", "b"}, Options{})
	require.NoError(t, err)

	return game.(*cricket)
}

func TestCricket_ScoresOnClosedNumber(t *testing.T) {
	// Given: a fresh cricket game
	game := newTestCricket(t)

	// When: a hits a triple 20 and then a single 20
	require.NoError(t, game.Apply("a", Throw{Target: 20, Multiplier: 3}))
	require.NoError(t, game.Apply("a", Throw{Target: 20, Multiplier: 1}))

	// Then: 20 is closed for a and the extra hit scores 20
	snap := game.Snapshot()
	assert.Equal(t, 3, snap.Marks["a"][20])
	assert.Equal(t, 20, snap.Scores["a"])
	assert.Equal(t, "a", snap.CurrentPlayer)
	assert.Len(t, snap.TurnThrows, 2)
}

func TestCricket_NoScoreWhenOpponentClosed(t *testing.T) {
	// Given: both players have closed 19
	game := newTestCricket(t)
	game.marks["a"][19] = 3
	game.marks["b"][19] = 3

	// When: a hits a triple 19
	require.NoError(t, game.Apply("a", Throw{Target: 19, Multiplier: 3}))

	// Then: marks stay capped and nothing is scored
	snap := game.Snapshot()
	assert.Equal(t, 3, snap.Marks["a"][19])
	assert.Equal(t, 0, snap.Scores["a"])
}

func TestCricket_MarksNeverExceedThree(t *testing.T) {
	// Given: a fresh game
	game := newTestCricket(t)

	// When: a hits triple bull twice
	require.NoError(t, game.Apply("a", Throw{Target: Bull, Multiplier: 3}))
	require.NoError(t, game.Apply("a", Throw{Target: Bull, Multiplier: 3}))

	// Then: marks are capped and the surplus scores 25 each
	snap := game.Snapshot()
	assert.Equal(t, 3, snap.Marks["a"][Bull])
	assert.Equal(t, 75, snap.Scores["a"])
}

func TestCricket_TurnAdvancesAfterThreeDarts(t *testing.T) {
	// Given: a fresh game
	game := newTestCricket(t)

	// When: a throws three darts, one of them a miss
	require.NoError(t, game.Apply("a", Throw{Target: 15, Multiplier: 1}))
	require.NoError(t, game.Apply("a", Throw{Target: Miss, Multiplier: 1}))
	require.NoError(t, game.Apply("a", Throw{Target: 16, Multiplier: 2}))

	// Then: b is up with an empty turn buffer
	snap := game.Snapshot()
	assert.Equal(t, "b", snap.CurrentPlayer)
	assert.Empty(t, snap.TurnThrows)
	assert.Equal(t, 0, snap.DartsThrown)
	assert.Equal(t, 1, snap.Marks["a"][15])
	assert.Equal(t, 2, snap.Marks["a"][16])
}

func TestCricket_Win(t *testing.T) {
	t.Run("Wins on equal score once everything is closed", func(t *testing.T) {
		// Given: a has closed everything but bull, scores are level
		game := newTestCricket(t)
		for _, target := range Targets[:6] {
			game.marks["a"][target] = 3
		}

		// When: a closes bull
		require.NoError(t, game.Apply("a", Throw{Target: Bull, Multiplier: 3}))

		// Then: a wins immediately with darts left in the turn
		snap := game.Snapshot()
		assert.Equal(t, "a", snap.Winner)
		assert.Equal(t, "a", snap.CurrentPlayer)

		err := game.Apply("a", Throw{Target: 20, Multiplier: 1})
		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})

	t.Run("No win while behind on points", func(t *testing.T) {
		// Given: a has closed everything but bull and trails b
		game := newTestCricket(t)
		for _, target := range Targets[:6] {
			game.marks["a"][target] = 3
		}
		game.scores["b"] = 40

		// When: a closes bull
		require.NoError(t, game.Apply("a", Throw{Target: Bull, Multiplier: 3}))

		// Then: no winner yet
		assert.Empty(t, game.Snapshot().Winner)
	})
}

func TestCricket_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		player  string
		throw   Throw
		wantErr error
	}{
		{name: "Wrong player", player: "b", throw: Throw{Target: 20, Multiplier: 1}, wantErr: apperror.ErrNotYourTurn},
		{name: "Unknown target", player: "a", throw: Throw{Target: 14, Multiplier: 1}, wantErr: apperror.ErrInvalidThrow},
		{name: "Points only", player: "a", throw: Throw{Points: 60, Target: NoTarget, Multiplier: 1}, wantErr: apperror.ErrInvalidThrow},
		{name: "Multiplier too high", player: "a", throw: Throw{Target: 20, Multiplier: 4}, wantErr: apperror.ErrInvalidThrow},
		{name: "Multiplier zero", player: "a", throw: Throw{Target: 20, Multiplier: 0}, wantErr: apperror.ErrInvalidThrow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Given: a fresh game
			game := newTestCricket(t)
			before := game.Snapshot()

			// When: an illegal throw is submitted
			err := game.Apply(tc.player, tc.throw)

			// Then: nothing changed
			require.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, before, game.Snapshot())
		})
	}
}

func TestCricket_UndoUnsupported(t *testing.T) {
	game := newTestCricket(t)
	require.NoError(t, game.Apply("a", Throw{Target: 20, Multiplier: 1}))

	err := game.Undo()

	require.ErrorIs(t, err, apperror.ErrUndoUnsupported)
	assert.Equal(t, 1, game.Snapshot().Marks["a"][20])
}

func TestCricket_Rebind(t *testing.T) {
	game := newTestCricket(t)
	require.NoError(t, game.Apply("a", Throw{Target: 18, Multiplier: 2}))

	game.Rebind("a", "a2")

	snap := game.Snapshot()
	assert.Equal(t, []string{"a2", "b"}, snap.Players)
	assert.Equal(t, 2, snap.Marks["a2"][18])
	require.NoError(t, game.Apply("a2", Throw{Target: 18, Multiplier: 1}))
}

func TestCricket_RebindOntoExistingPlayerIsIgnored(t *testing.T) {
	game := newTestCricket(t)
	require.NoError(t, game.Apply("a", Throw{Target: 18, Multiplier: 2}))

	game.Rebind("a", "b")

	snap := game.Snapshot()
	assert.Equal(t, []string{"a", "b"}, snap.Players)
	assert.Equal(t, 2, snap.Marks["a"][18])
	assert.Equal(t, 0, snap.Marks["b"][18])
}
