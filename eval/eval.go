// Package eval replays a generator's predicted action sequences against the
// embedded simulator, one example at a time, and aggregates metrics.
package eval

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/diaosuyidsy/cerealbar/game"
	"github.com/diaosuyidsy/cerealbar/metrics"
	"github.com/diaosuyidsy/cerealbar/segment"
	"github.com/diaosuyidsy/cerealbar/sim"
)

// Generator produces a follower action sequence for one instruction. It may
// drive the simulator while predicting (the simulator is already reset to
// the example's starting snapshot and holds the instruction); whatever it
// returns is treated as the predicted sequence, STOP included.
type Generator interface {
	Predict(example *segment.Example, g *sim.Game) ([]game.Action, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(example *segment.Example, g *sim.Game) ([]game.Action, error)

func (f GeneratorFunc) Predict(example *segment.Example, g *sim.Game) ([]game.Action, error) {
	return f(example, g)
}

// Options configure an evaluation run.
type Options struct {
	// DistanceThreshold is the hex radius for relaxed environment accuracy.
	DistanceThreshold int32
	Logger            *slog.Logger
}

// Result aggregates one evaluation run. Means reports accuracy metrics as
// percentages; Score and AgentDistance stay in their natural units.
type Result struct {
	Means    map[metrics.Metric]float64
	Examples int
	Invalid  int
}

// Evaluate runs the generator over every example and averages the metrics.
func Evaluate(gen Generator, examples []*segment.Example, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	values := make(map[metrics.Metric][]float64)
	invalid := 0

	for _, ex := range examples {
		g := sim.NewGame(ex.Game.Hexes)
		g.Reset(ex.InitialState(), ex.LeaderActions, ex.SetsMade, ex.StepsRemainingAtStart)
		g.SendCommand(ex.Instruction)

		logger.Info("evaluating example",
			"example", ex.ID(),
			"instruction", ex.InstructionText(),
		)

		predicted, err := gen.Predict(ex, g)
		if err != nil {
			return nil, fmt.Errorf("example %s: %w", ex.ID(), err)
		}

		if g.Valid() {
			g.FinishAllLeaderActions()
		} else {
			invalid++
		}

		predictedStrings := make([]string, len(predicted))
		for i, a := range predicted {
			predictedStrings[i] = string(a)
		}
		gold := ex.ActionSequence()
		final := g.State()
		goldState := ex.Trajectory[len(ex.Trajectory)-1].State

		values[metrics.Score] = append(values[metrics.Score], float64(g.Score()))
		for _, m := range metrics.InstructionMetrics {
			v := metrics.Compute(m, predictedStrings, gold, final, goldState, opts.DistanceThreshold)
			values[m] = append(values[m], v)
		}
	}

	means := make(map[metrics.Metric]float64, len(values))
	for m, vs := range values {
		means[m] = metrics.Mean(m, vs)
	}

	return &Result{Means: means, Examples: len(examples), Invalid: invalid}, nil
}
