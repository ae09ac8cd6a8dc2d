package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/diaosuyidsy/cerealbar/game"
)

func stateAt(x, y int32, cards ...game.Card) game.StateDelta {
	return game.StateDelta{
		Follower: game.Pose{Position: game.Position{X: x, Y: y}},
		Cards:    cards,
	}
}

func TestSequenceAccuracy(t *testing.T) {
	gold := []string{"MF", "RR", "MF", "STOP"}

	assert.Equal(t, 1.0, ComputeSequenceAccuracy([]string{"MF", "RR", "MF", "STOP"}, gold))
	assert.Equal(t, 0.0, ComputeSequenceAccuracy([]string{"MF", "RL", "MF", "STOP"}, gold))
	assert.Equal(t, 0.0, ComputeSequenceAccuracy([]string{"MF", "RR", "MF"}, gold))
}

func TestCardAccuracyIgnoresOrder(t *testing.T) {
	a := game.Card{Position: game.Position{X: 1, Y: 1}, Color: game.ColorRed, Shape: game.ShapeStar, Count: 1}
	b := game.Card{Position: game.Position{X: 2, Y: 2}, Color: game.ColorBlue, Shape: game.ShapeHeart, Count: 2}

	assert.Equal(t, 1.0, ComputeCardAccuracy([]game.Card{a, b}, []game.Card{b, a}))

	selected := a
	selected.Selected = true
	assert.Equal(t, 0.0, ComputeCardAccuracy([]game.Card{selected, b}, []game.Card{a, b}))
}

func TestEnvironmentAccuracy(t *testing.T) {
	gold := stateAt(5, 5)

	assert.Equal(t, 1.0, ComputeExactEnvironmentAccuracy(stateAt(5, 5), gold))
	assert.Equal(t, 0.0, ComputeExactEnvironmentAccuracy(stateAt(6, 5), gold))

	// One hex off passes relaxed accuracy at threshold 1, not 0.
	assert.Equal(t, 1.0, ComputeRelaxedEnvironmentAccuracy(stateAt(6, 5), gold, 1))
	assert.Equal(t, 0.0, ComputeRelaxedEnvironmentAccuracy(stateAt(6, 5), gold, 0))

	// Wrong cards fail relaxed accuracy regardless of distance.
	withCard := stateAt(5, 5, game.Card{Position: game.Position{X: 3, Y: 3}, Color: game.ColorRed, Shape: game.ShapeStar, Count: 1})
	assert.Equal(t, 0.0, ComputeRelaxedEnvironmentAccuracy(withCard, gold, 5))
}

func TestAgentDistance(t *testing.T) {
	assert.Equal(t, 0.0, ComputeAgentDistance(stateAt(5, 5), stateAt(5, 5)))
	assert.Equal(t, 3.0, ComputeAgentDistance(stateAt(8, 5), stateAt(5, 5)))
}

func TestMeanScalesAccuracies(t *testing.T) {
	assert.Equal(t, 50.0, Mean(SequenceAccuracy, []float64{1, 0}))
	assert.Equal(t, 1.5, Mean(AgentDistance, []float64{1, 2}))
	assert.Equal(t, 0.0, Mean(Score, nil))
}
