package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diaosuyidsy/cerealbar/game"
	"github.com/diaosuyidsy/cerealbar/metrics"
	"github.com/diaosuyidsy/cerealbar/replay"
	"github.com/diaosuyidsy/cerealbar/segment"
	"github.com/diaosuyidsy/cerealbar/sim"
)

// forwardExample is one instruction whose gold trajectory is a single step
// forward followed by STOP.
func forwardExample(id string, index int) *segment.Example {
	start := game.StateDelta{
		Leader:   game.Pose{Position: game.Position{X: 20, Y: 20}},
		Follower: game.Pose{Position: game.Position{X: 5, Y: 5}},
	}
	end := start
	end.Follower.Position = game.Position{X: 6, Y: 5}

	return &segment.Example{
		Instruction: []string{"move", "forward"},
		Trajectory: []segment.Step{
			{State: start, Action: game.ActionForward},
			{State: end, Action: game.ActionStop},
		},
		Game:                  &replay.Game{ID: id},
		Index:                 index,
		StepsRemainingAtStart: 10,
	}
}

// replayGold drives the simulator along the gold trajectory.
var replayGold = GeneratorFunc(func(ex *segment.Example, g *sim.Game) ([]game.Action, error) {
	var out []game.Action
	for _, s := range ex.Trajectory {
		if err := g.ExecuteAction(s.Action); err != nil {
			return nil, err
		}
		out = append(out, s.Action)
	}
	return out, nil
})

// stopImmediately predicts STOP without moving.
var stopImmediately = GeneratorFunc(func(ex *segment.Example, g *sim.Game) ([]game.Action, error) {
	if err := g.ExecuteAction(game.ActionStop); err != nil {
		return nil, err
	}
	return []game.Action{game.ActionStop}, nil
})

func TestEvaluatePerfectGenerator(t *testing.T) {
	examples := []*segment.Example{forwardExample("g1", 0), forwardExample("g1", 1)}

	result, err := Evaluate(replayGold, examples, Options{DistanceThreshold: 1})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Examples)
	assert.Equal(t, 0, result.Invalid)
	assert.Equal(t, 100.0, result.Means[metrics.SequenceAccuracy])
	assert.Equal(t, 100.0, result.Means[metrics.ExactEnvironmentAccuracy])
	assert.Equal(t, 100.0, result.Means[metrics.CardAccuracy])
	assert.Equal(t, 0.0, result.Means[metrics.AgentDistance])
	assert.Equal(t, 0.0, result.Means[metrics.Score])
}

func TestEvaluateStationaryGenerator(t *testing.T) {
	examples := []*segment.Example{forwardExample("g1", 0)}

	result, err := Evaluate(stopImmediately, examples, Options{DistanceThreshold: 1})
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.Means[metrics.SequenceAccuracy])
	assert.Equal(t, 0.0, result.Means[metrics.ExactEnvironmentAccuracy])
	// One hex short of the gold position still passes at threshold 1.
	assert.Equal(t, 100.0, result.Means[metrics.RelaxedEnvironmentAccuracy])
	assert.Equal(t, 1.0, result.Means[metrics.AgentDistance])
}

func TestEvaluateMixedGenerators(t *testing.T) {
	examples := []*segment.Example{forwardExample("g1", 0), forwardExample("g1", 1)}

	calls := 0
	alternating := GeneratorFunc(func(ex *segment.Example, g *sim.Game) ([]game.Action, error) {
		calls++
		if calls == 1 {
			return replayGold.Predict(ex, g)
		}
		return stopImmediately.Predict(ex, g)
	})

	result, err := Evaluate(alternating, examples, Options{DistanceThreshold: 0})
	require.NoError(t, err)

	assert.Equal(t, 50.0, result.Means[metrics.SequenceAccuracy])
	assert.Equal(t, 0.5, result.Means[metrics.AgentDistance])
}
