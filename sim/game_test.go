package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diaosuyidsy/cerealbar/game"
	"github.com/diaosuyidsy/cerealbar/replay"
	"github.com/diaosuyidsy/cerealbar/segment"
)

func followerAt(x, y int32, f game.Facing) game.StateDelta {
	return game.StateDelta{
		Leader:   game.Pose{Position: game.Position{X: 20, Y: 20}},
		Follower: game.Pose{Position: game.Position{X: x, Y: y}, Facing: f},
	}
}

func TestExecuteMovementUpdatesPose(t *testing.T) {
	g := NewGame(nil)
	g.Reset(followerAt(5, 5, 0), nil, nil, 10)

	// Facing 0 points toward +X.
	require.NoError(t, g.ExecuteAction(game.ActionForward))

	state := g.State()
	assert.Equal(t, game.Position{X: 6, Y: 5}, state.Follower.Position)
	assert.Equal(t, 9, g.StepsRemaining())
	assert.True(t, g.Valid())

	require.NoError(t, g.ExecuteAction(game.ActionRotateRight))
	assert.Equal(t, game.Facing(1), g.State().Follower.Facing)
	assert.Equal(t, 8, g.StepsRemaining())
}

func TestInvalidMoveMarksStateInvalid(t *testing.T) {
	hexes := []game.Hex{
		{Terrain: game.TerrainWater, Position: game.Position{X: 6, Y: 5}},
	}
	g := NewGame(hexes)
	g.Reset(followerAt(5, 5, 0), nil, nil, 10)

	err := g.ExecuteAction(game.ActionForward)
	require.ErrorIs(t, err, ErrInvalidMove)
	assert.False(t, g.Valid())

	// Once invalid, nothing else executes.
	err = g.ExecuteAction(game.ActionRotateRight)
	assert.Error(t, err)
}

func TestWalkingOffBoardIsInvalid(t *testing.T) {
	g := NewGame(nil)
	g.Reset(followerAt(0, 0, 3), nil, nil, 10) // facing 3 points toward -X

	err := g.ExecuteAction(game.ActionForward)
	require.ErrorIs(t, err, ErrInvalidMove)
	assert.False(t, g.Valid())
}

func TestCardSelectionCompletesSet(t *testing.T) {
	onPath := game.Card{Position: game.Position{X: 6, Y: 5}, Color: game.ColorRed, Shape: game.ShapeStar, Count: 1}
	selectedA := game.Card{Position: game.Position{X: 1, Y: 1}, Color: game.ColorBlue, Shape: game.ShapeHeart, Count: 2, Selected: true}
	selectedB := game.Card{Position: game.Position{X: 2, Y: 2}, Color: game.ColorGreen, Shape: game.ShapeCircle, Count: 3, Selected: true}
	respawn := game.Card{Position: game.Position{X: 9, Y: 9}, Color: game.ColorYellow, Shape: game.ShapeCross, Count: 2}

	state := followerAt(5, 5, 0)
	state.Cards = []game.Card{onPath, selectedA, selectedB}

	g := NewGame(nil)
	g.Reset(state, nil, []segment.SetDelta{{Added: []game.Card{respawn}}}, 10)

	require.NoError(t, g.ExecuteAction(game.ActionForward))

	assert.Equal(t, 1, g.Score())
	cards := g.State().Cards
	require.Len(t, cards, 1)
	assert.Equal(t, respawn, cards[0])
}

func TestSteppingOnCardTogglesSelection(t *testing.T) {
	card := game.Card{Position: game.Position{X: 6, Y: 5}, Color: game.ColorRed, Shape: game.ShapeStar, Count: 1}

	state := followerAt(5, 5, 0)
	state.Cards = []game.Card{card}

	g := NewGame(nil)
	g.Reset(state, nil, nil, 10)

	require.NoError(t, g.ExecuteAction(game.ActionForward))
	require.True(t, g.State().Cards[0].Selected)

	// Step off and back on: selection flips off again.
	require.NoError(t, g.ExecuteAction(game.ActionBackward))
	require.NoError(t, g.ExecuteAction(game.ActionForward))
	assert.False(t, g.State().Cards[0].Selected)
	assert.Equal(t, 0, g.Score())
}

func TestTurnExhaustionPlaysLeaderTurn(t *testing.T) {
	leaderTurn := []replay.GameplayAction{
		&replay.MovementAction{Agent: game.Leader, Move: game.ActionForward},
		&replay.InstructionAction{Tokens: []string{"come", "here"}, Completed: true},
	}

	g := NewGame(nil)
	g.Reset(followerAt(5, 5, 0), [][]replay.GameplayAction{leaderTurn}, nil, 1)

	// The last follower step ends the turn: the leader turn replays and the
	// budget resets.
	require.NoError(t, g.ExecuteAction(game.ActionRotateRight))

	assert.Equal(t, segment.FollowerTurnBudget, g.StepsRemaining())
	assert.Equal(t, game.Position{X: 21, Y: 20}, g.State().Leader.Position)

	pending := g.PendingInstructions()
	require.Len(t, pending, 1)
	assert.Equal(t, []string{"come", "here"}, pending[0])
}

func TestFinishAllLeaderActions(t *testing.T) {
	turns := [][]replay.GameplayAction{
		{&replay.MovementAction{Agent: game.Leader, Move: game.ActionForward}},
		{&replay.MovementAction{Agent: game.Leader, Move: game.ActionForward}},
	}

	g := NewGame(nil)
	g.Reset(followerAt(5, 5, 0), turns, nil, 10)

	g.FinishAllLeaderActions()
	assert.Equal(t, game.Position{X: 22, Y: 20}, g.State().Leader.Position)

	// Idempotent once drained.
	g.FinishAllLeaderActions()
	assert.Equal(t, game.Position{X: 22, Y: 20}, g.State().Leader.Position)
}

func TestStopFinishesCommand(t *testing.T) {
	g := NewGame(nil)
	g.Reset(followerAt(5, 5, 0), nil, nil, 10)
	g.SendCommand([]string{"wait", "there"})

	require.NoError(t, g.ExecuteAction(game.ActionStop))
	assert.Empty(t, g.PendingInstructions())

	// STOP does not consume a step.
	assert.Equal(t, 10, g.StepsRemaining())
}
