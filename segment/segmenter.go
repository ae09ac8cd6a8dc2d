package segment

import (
	"errors"
	"fmt"

	"github.com/diaosuyidsy/cerealbar/game"
	"github.com/diaosuyidsy/cerealbar/replay"
)

// ErrIntegrity marks a fatal inconsistency between the reconstruction and
// the recorded game: either the instruction/segment counts cannot be paired
// or a densified leader-turn range disagrees with the ground truth. A game
// that trips this produces no examples at all; a guessed-correct
// segmentation is never emitted.
var ErrIntegrity = errors.New("segmentation integrity violation")

// SetEvent is one completed card set, attributed to the example that was
// being followed when it happened. ExampleIndex is -1 when a set completes
// before the first example's follower ever moved.
type SetEvent struct {
	ExampleIndex int
	Removed      []game.Card
	Added        []game.Card
}

// Segmenter cuts one game's action log into examples.
//
// MaxExamples caps how many examples a single game may produce; once the cap
// is reached the rest of the log is not scanned. Negative means unlimited.
type Segmenter struct {
	MaxExamples int
}

// NewSegmenter returns a Segmenter with no example cap.
func NewSegmenter() *Segmenter {
	return &Segmenter{MaxExamples: -1}
}

// SegmentGame scans the game's action log once, in order, and returns the
// per-instruction examples plus the game-wide ledger of completed sets.
//
// The scan is a deterministic fold: rerunning it on the same log reproduces
// identical results. Each game's pass owns all of its state, so scans of
// different games can run concurrently without synchronization.
func (s *Segmenter) SegmentGame(g *replay.Game) ([]*Example, []SetEvent, error) {
	instructions, err := validateLog(g)
	if err != nil {
		return nil, nil, err
	}

	tracker := NewTurnTracker()
	obs := g.FirstPartialObservation()

	var examples []*Example
	var allSets []SetEvent

	// Per-run state, reset at every FinishCommand.
	var trajectory []Step
	var runSets []SetDelta
	following := false
	spansClosed := 0
	initialSteps := tracker.StepsRemaining
	initialBuffer := tracker.BufferSize

	for _, action := range g.Actions {
		switch a := action.(type) {
		case *replay.MovementAction:
			if a.Agent == game.Follower {
				trajectory = append(trajectory, Step{State: a.Prior, Action: a.Move, Observation: obs})
				if !following {
					// First follower move of the run: the counters as they
					// stand now are the example's starting values.
					initialSteps = tracker.StepsRemaining
					initialBuffer = tracker.BufferSize
				}
				following = true
				tracker.StepsRemaining--
			} else if following {
				tracker.RecordLeaderAction(a)
			}

			if removed, added, changed := SetDifference(a.Prior.Cards, a.Posterior.Cards); changed {
				idx := spansClosed
				if !following {
					// Leader solo play before the follower starts belongs to
					// the previous instruction.
					idx = spansClosed - 1
				}
				allSets = append(allSets, SetEvent{ExampleIndex: idx, Removed: removed, Added: added})
				if following {
					runSets = append(runSets, SetDelta{Removed: removed, Added: added})
				}
			}

			obs = game.UpdateObservation(obs, a.Posterior)

		case *replay.EndTurnAction:
			if a.Agent == game.Follower {
				tracker.StepsRemaining = FollowerTurnBudget
			} else {
				if following {
					tracker.EnsureBucket()
				}
				tracker.LeaderTurn++
			}

		case *replay.InstructionAction:
			if !a.Completed {
				continue
			}
			if following {
				tracker.RecordLeaderAction(a)
			}
			tracker.BufferSize++

		case *replay.FinishCommandAction:
			if !following {
				// A run the follower never moved in still needs valid
				// starting counters.
				initialBuffer = tracker.BufferSize
			}
			tracker.BufferSize--
			trajectory = append(trajectory, Step{State: a.Prior, Action: game.ActionStop, Observation: obs})

			firstTurn, dense := tracker.Densify()
			if err := checkLeaderTurns(g, firstTurn, dense); err != nil {
				return nil, nil, err
			}

			if s.MaxExamples >= 0 && len(examples) >= s.MaxExamples {
				return examples, allSets, nil
			}

			if spansClosed < len(instructions) {
				examples = append(examples, &Example{
					Instruction:           instructions[spansClosed].Tokens,
					Trajectory:            trajectory,
					Game:                  g,
					Index:                 spansClosed,
					LeaderActions:         dense,
					FirstLeaderTurn:       firstTurn,
					SetsMade:              runSets,
					StepsRemainingAtStart: initialSteps,
					BufferSizeAtStart:     initialBuffer,
				})
			}
			spansClosed++

			if s.MaxExamples >= 0 && len(examples) >= s.MaxExamples {
				return examples, allSets, nil
			}

			tracker.ResetBuckets()
			trajectory = nil
			runSets = nil
			following = false
			initialSteps = tracker.StepsRemaining
			initialBuffer = tracker.BufferSize

		default:
			return nil, nil, fmt.Errorf("game %s: unhandled action variant %T", g.ID, action)
		}
	}

	return examples, allSets, nil
}

// validateLog collects the completed instructions up front and checks the
// pairing invariant: the i-th completed instruction pairs with the i-th
// finish-command span, so their counts must match exactly or the spans may
// exceed the instructions by one (the final span then pairs with nothing).
func validateLog(g *replay.Game) ([]*replay.InstructionAction, error) {
	var instructions []*replay.InstructionAction
	spans := 0
	for _, action := range g.Actions {
		switch a := action.(type) {
		case *replay.InstructionAction:
			if a.Completed {
				instructions = append(instructions, a)
			}
		case *replay.FinishCommandAction:
			spans++
		}
	}

	if len(instructions) != spans && len(instructions) != spans-1 {
		return nil, fmt.Errorf("game %s: %d completed instructions cannot pair with %d spans: %w",
			g.ID, len(instructions), spans, ErrIntegrity)
	}
	return instructions, nil
}

// checkLeaderTurns verifies the densified reconstruction against the
// ground-truth leader-turn grouping for the same turn range.
func checkLeaderTurns(g *replay.Game, firstTurn int, dense [][]replay.GameplayAction) error {
	if firstTurn < 0 || firstTurn+len(dense) > len(g.LeaderActions) {
		return fmt.Errorf("game %s: reconstructed leader turns [%d,%d) exceed ground truth (%d turns): %w",
			g.ID, firstTurn, firstTurn+len(dense), len(g.LeaderActions), ErrIntegrity)
	}
	truth := g.LeaderActions[firstTurn : firstTurn+len(dense)]
	if !replay.BucketsEqual(truth, dense) {
		return fmt.Errorf("game %s: reconstructed leader turns [%d,%d) disagree with ground truth: %w",
			g.ID, firstTurn, firstTurn+len(dense), ErrIntegrity)
	}
	return nil
}
