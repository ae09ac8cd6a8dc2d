// Package metrics scores a predicted follower trajectory against the
// recorded gold one. All functions are pure; aggregation lives in eval.
package metrics

import (
	"github.com/diaosuyidsy/cerealbar/game"
)

// Metric names one per-instruction statistic.
type Metric string

const (
	Score                      Metric = "score"
	SequenceAccuracy           Metric = "sequence_accuracy"
	CardAccuracy               Metric = "card_accuracy"
	ExactEnvironmentAccuracy   Metric = "exact_environment_accuracy"
	RelaxedEnvironmentAccuracy Metric = "relaxed_environment_accuracy"
	AgentDistance              Metric = "agent_distance"
)

// InstructionMetrics are the metrics computed per example, Score excluded
// because it comes from the simulator rather than a state comparison.
var InstructionMetrics = []Metric{
	SequenceAccuracy,
	CardAccuracy,
	ExactEnvironmentAccuracy,
	RelaxedEnvironmentAccuracy,
	AgentDistance,
}

// IsAccuracy reports whether the metric is a 0/1 rate. Accuracy means are
// reported as percentages.
func (m Metric) IsAccuracy() bool {
	switch m {
	case SequenceAccuracy, CardAccuracy, ExactEnvironmentAccuracy, RelaxedEnvironmentAccuracy:
		return true
	}
	return false
}

// ComputeSequenceAccuracy is 1 when the predicted action strings exactly
// match the gold sequence, STOP included.
func ComputeSequenceAccuracy(predicted, gold []string) float64 {
	if len(predicted) != len(gold) {
		return 0
	}
	for i := range predicted {
		if predicted[i] != gold[i] {
			return 0
		}
	}
	return 1
}

// ComputeCardAccuracy is 1 when the cards on the board after execution
// match the gold final cards, attribute for attribute, order ignored.
func ComputeCardAccuracy(final, gold []game.Card) float64 {
	if game.CardsEqual(final, gold) {
		return 1
	}
	return 0
}

// ComputeExactEnvironmentAccuracy is 1 when the follower ends in the gold
// pose and the cards match.
func ComputeExactEnvironmentAccuracy(final, gold game.StateDelta) float64 {
	if final.Follower == gold.Follower && game.CardsEqual(final.Cards, gold.Cards) {
		return 1
	}
	return 0
}

// ComputeRelaxedEnvironmentAccuracy is 1 when the cards match and the
// follower ends within threshold hexes of the gold position. Facing is
// ignored.
func ComputeRelaxedEnvironmentAccuracy(final, gold game.StateDelta, threshold int32) float64 {
	if !game.CardsEqual(final.Cards, gold.Cards) {
		return 0
	}
	if game.HexDistance(final.Follower.Position, gold.Follower.Position) > threshold {
		return 0
	}
	return 1
}

// ComputeAgentDistance is the hex distance between the predicted and gold
// final follower positions.
func ComputeAgentDistance(final, gold game.StateDelta) float64 {
	return float64(game.HexDistance(final.Follower.Position, gold.Follower.Position))
}

// Compute dispatches one instruction metric.
func Compute(m Metric, predicted, gold []string, final, goldState game.StateDelta, threshold int32) float64 {
	switch m {
	case SequenceAccuracy:
		return ComputeSequenceAccuracy(predicted, gold)
	case CardAccuracy:
		return ComputeCardAccuracy(final.Cards, goldState.Cards)
	case ExactEnvironmentAccuracy:
		return ComputeExactEnvironmentAccuracy(final, goldState)
	case RelaxedEnvironmentAccuracy:
		return ComputeRelaxedEnvironmentAccuracy(final, goldState, threshold)
	case AgentDistance:
		return ComputeAgentDistance(final, goldState)
	}
	return 0
}

// Mean averages values; accuracy metrics scale to percentages.
func Mean(m Metric, values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if m.IsAccuracy() {
		mean *= 100
	}
	return mean
}
