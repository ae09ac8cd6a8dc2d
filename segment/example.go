package segment

import (
	"strconv"
	"strings"

	"github.com/diaosuyidsy/cerealbar/game"
	"github.com/diaosuyidsy/cerealbar/replay"
)

// Step is one trajectory entry: the state before the action, the action
// taken, and the follower's accumulated observation at that moment.
type Step struct {
	State       game.StateDelta
	Action      game.Action
	Observation game.PartialObservation
}

// SetDelta is one completed set as seen from inside an example: the cards
// that disappeared and the cards that replaced them.
type SetDelta struct {
	Removed []game.Card
	Added   []game.Card
}

// Example is one instruction paired with the follower's gold trajectory and
// everything needed to resume simulation at the point the instruction was
// issued. Trajectory always ends with a synthetic STOP step.
type Example struct {
	Instruction []string
	Trajectory  []Step
	Game        *replay.Game
	Index       int

	// LeaderActions is the dense leader-turn bucket list covering the turns
	// the follower was executing this instruction; FirstLeaderTurn is the
	// index of its first entry.
	LeaderActions   [][]replay.GameplayAction
	FirstLeaderTurn int

	SetsMade []SetDelta

	// Counter values at the moment the follower started the instruction.
	StepsRemainingAtStart int
	BufferSizeAtStart     int
}

// ID uniquely names the example within its corpus.
func (e *Example) ID() string {
	return e.Game.ID + "-" + strconv.Itoa(e.Index)
}

// InstructionText returns the instruction as one string.
func (e *Example) InstructionText() string {
	return strings.Join(e.Instruction, " ")
}

// ActionSequence returns the gold actions as strings, STOP included.
func (e *Example) ActionSequence() []string {
	out := make([]string, len(e.Trajectory))
	for i, s := range e.Trajectory {
		out[i] = string(s.Action)
	}
	return out
}

// StateDeltas returns the pre-action snapshots along the trajectory.
func (e *Example) StateDeltas() []game.StateDelta {
	out := make([]game.StateDelta, len(e.Trajectory))
	for i, s := range e.Trajectory {
		out[i] = s.State
	}
	return out
}

// InitialState is the snapshot at the moment the instruction started.
func (e *Example) InitialState() game.StateDelta {
	return e.Trajectory[0].State
}

// InitialCards are the cards on the board when the instruction started.
func (e *Example) InitialCards() []game.Card {
	return e.InitialState().Cards
}

// VisitedPositions returns the distinct positions the follower occupies
// along the trajectory from startIdx on. With includeStart false, the
// starting position is excluded until the follower first leaves it; if the
// path later returns there, the revisit counts normally.
func (e *Example) VisitedPositions(includeStart bool, startIdx int) []game.Position {
	deltas := e.StateDeltas()[startIdx:]

	if includeStart {
		return dedupePositions(deltas, func(game.Position) bool { return true })
	}

	origin := deltas[0].Follower.Position
	hasMoved := false
	var out []game.Position
	seen := make(map[game.Position]bool)
	for _, d := range deltas {
		p := d.Follower.Position
		if p == origin && !hasMoved {
			continue
		}
		hasMoved = true
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

func dedupePositions(deltas []game.StateDelta, keep func(game.Position) bool) []game.Position {
	var out []game.Position
	seen := make(map[game.Position]bool)
	for _, d := range deltas {
		p := d.Follower.Position
		if !keep(p) || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// TouchedCards returns the cards the follower touched along the gold
// trajectory. Two distinct algorithms exist, selected by allowDuplicates:
// true intersects the cards at startIdx with the visited positions; false
// instead collects every card that changed between consecutive snapshots
// over the whole trajectory. The flag's intent was undocumented in the
// system this data format comes from, so both behaviors are kept as is
// rather than merged.
func (e *Example) TouchedCards(startIdx int, includeStartPosition, allowDuplicates bool) []game.Card {
	if allowDuplicates {
		state := e.Trajectory[startIdx].State

		visited := make(map[game.Position]bool)
		for _, p := range e.VisitedPositions(includeStartPosition, startIdx) {
			visited[p] = true
		}

		var reached []game.Card
		for _, c := range state.Cards {
			if visited[c.Position] {
				reached = append(reached, c)
			}
		}
		return reached
	}
	return changedCardsAlongTrajectory(e.StateDeltas())
}

// changedCardsAlongTrajectory unions every card that appears in a
// consecutive-snapshot difference, deduplicated attribute-wise in order of
// first appearance.
func changedCardsAlongTrajectory(deltas []game.StateDelta) []game.Card {
	var out []game.Card
	seen := make(map[game.Card]bool)
	record := func(cards []game.Card) {
		for _, c := range cards {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	for i := 1; i < len(deltas); i++ {
		removed, added, changed := SetDifference(deltas[i-1].Cards, deltas[i].Cards)
		if !changed {
			continue
		}
		record(removed)
		record(added)
	}
	return out
}

// TrajectoryDistribution spreads unit probability mass over the board.
// Weighted by time, every timestep contributes 1/pathLength to its cell, so
// revisited cells accumulate mass; otherwise each of the k distinct visited
// positions gets exactly 1/k. Either way the grid sums to 1 for any
// nonempty trajectory. The grid is indexed [x][y].
func (e *Example) TrajectoryDistribution(weightByTime bool) [][]float64 {
	grid := make([][]float64, game.EnvironmentWidth)
	for x := range grid {
		grid[x] = make([]float64, game.EnvironmentDepth)
	}

	if weightByTime {
		deltas := e.StateDeltas()
		weight := 1.0 / float64(len(deltas))
		for _, d := range deltas {
			p := d.Follower.Position
			grid[p.X][p.Y] += weight
		}
		return grid
	}

	visited := e.VisitedPositions(true, 0)
	weight := 1.0 / float64(len(visited))
	for _, p := range visited {
		grid[p.X][p.Y] = weight
	}
	return grid
}
