package segment

import (
	"math"
	"testing"

	"github.com/diaosuyidsy/cerealbar/game"
	"github.com/diaosuyidsy/cerealbar/replay"
)

// exampleAt builds an Example whose follower occupies the given positions in
// order, with the final position repeated for the synthetic STOP step. Cards
// ride along unchanged unless cardsAt overrides a step.
func exampleAt(positions []game.Position, cards []game.Card, cardsAt map[int][]game.Card) *Example {
	steps := make([]Step, 0, len(positions)+1)
	current := cards
	for i, p := range positions {
		if override, ok := cardsAt[i]; ok {
			current = override
		}
		state := game.StateDelta{
			Follower: game.Pose{Position: p},
			Cards:    current,
		}
		action := game.ActionForward
		steps = append(steps, Step{State: state, Action: action})
	}
	last := steps[len(steps)-1].State
	steps = append(steps, Step{State: last, Action: game.ActionStop})

	return &Example{
		Instruction: []string{"test"},
		Trajectory:  steps,
		Game:        &replay.Game{ID: "test-game"},
		Index:       0,
	}
}

func pos(x, y int32) game.Position { return game.Position{X: x, Y: y} }

func TestVisitedPositionsIncludeStart(t *testing.T) {
	ex := exampleAt([]game.Position{pos(1, 1), pos(2, 1), pos(2, 2), pos(2, 1)}, nil, nil)

	visited := ex.VisitedPositions(true, 0)
	want := map[game.Position]bool{pos(1, 1): true, pos(2, 1): true, pos(2, 2): true}
	if len(visited) != len(want) {
		t.Fatalf("visited = %v, want %d distinct positions", visited, len(want))
	}
	for _, p := range visited {
		if !want[p] {
			t.Errorf("unexpected position %v", p)
		}
	}
}

func TestVisitedPositionsExcludeStart(t *testing.T) {
	// Stays at start for two steps, leaves, then returns to the start.
	ex := exampleAt([]game.Position{pos(1, 1), pos(1, 1), pos(2, 1), pos(1, 1)}, nil, nil)

	visited := ex.VisitedPositions(false, 0)
	want := map[game.Position]bool{pos(2, 1): true, pos(1, 1): true}
	if len(visited) != len(want) {
		t.Fatalf("visited = %v, want %v", visited, want)
	}

	// Never leaving the start means nothing is visited.
	stationary := exampleAt([]game.Position{pos(3, 3)}, nil, nil)
	if got := stationary.VisitedPositions(false, 0); len(got) != 0 {
		t.Errorf("stationary visited = %v, want none", got)
	}
}

func TestTouchedCardsIntersection(t *testing.T) {
	onPath := game.Card{Position: pos(2, 1), Color: game.ColorRed, Shape: game.ShapeStar, Count: 1}
	offPath := game.Card{Position: pos(9, 9), Color: game.ColorBlue, Shape: game.ShapeHeart, Count: 2}
	atStart := game.Card{Position: pos(1, 1), Color: game.ColorGreen, Shape: game.ShapeCircle, Count: 3}

	cards := []game.Card{onPath, offPath, atStart}
	ex := exampleAt([]game.Position{pos(1, 1), pos(2, 1)}, cards, nil)

	touched := ex.TouchedCards(0, false, true)
	if len(touched) != 1 || touched[0] != onPath {
		t.Errorf("touched = %v, want [%v]", touched, onPath)
	}

	// Including the start position picks up the card under the follower.
	touched = ex.TouchedCards(0, true, true)
	if len(touched) != 2 {
		t.Errorf("touched with start = %v, want 2 cards", touched)
	}
}

func TestTouchedCardsChangedAlongTrajectory(t *testing.T) {
	stays := game.Card{Position: pos(9, 9), Color: game.ColorBlue, Shape: game.ShapeHeart, Count: 2}
	vanishes := game.Card{Position: pos(2, 1), Color: game.ColorRed, Shape: game.ShapeStar, Count: 1}

	ex := exampleAt(
		[]game.Position{pos(1, 1), pos(2, 1), pos(3, 1)},
		[]game.Card{stays, vanishes},
		map[int][]game.Card{2: {stays}},
	)

	touched := ex.TouchedCards(0, false, false)
	if len(touched) != 1 || touched[0] != vanishes {
		t.Errorf("changed cards = %v, want [%v]", touched, vanishes)
	}
}

func TestTrajectoryDistributionWeightByTime(t *testing.T) {
	// Path revisits (1,1): 4 states including STOP (repeats last position).
	ex := exampleAt([]game.Position{pos(1, 1), pos(2, 1), pos(1, 1)}, nil, nil)

	grid := ex.TrajectoryDistribution(true)

	sum := 0.0
	for x := range grid {
		for y := range grid[x] {
			sum += grid[x][y]
		}
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("distribution sums to %f, want 1.0", sum)
	}

	// 4 timesteps: (1,1) three times (incl. STOP), (2,1) once.
	if math.Abs(grid[1][1]-0.75) > 1e-9 {
		t.Errorf("grid[1][1] = %f, want 0.75", grid[1][1])
	}
	if math.Abs(grid[2][1]-0.25) > 1e-9 {
		t.Errorf("grid[2][1] = %f, want 0.25", grid[2][1])
	}
}

func TestTrajectoryDistributionUniform(t *testing.T) {
	ex := exampleAt([]game.Position{pos(1, 1), pos(2, 1), pos(1, 1), pos(3, 1)}, nil, nil)

	grid := ex.TrajectoryDistribution(false)

	// 3 distinct positions, each exactly 1/3 regardless of revisits.
	want := 1.0 / 3.0
	for _, p := range []game.Position{pos(1, 1), pos(2, 1), pos(3, 1)} {
		if math.Abs(grid[p.X][p.Y]-want) > 1e-9 {
			t.Errorf("grid[%d][%d] = %f, want %f", p.X, p.Y, grid[p.X][p.Y], want)
		}
	}

	sum := 0.0
	for x := range grid {
		for y := range grid[x] {
			sum += grid[x][y]
		}
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("distribution sums to %f, want 1.0", sum)
	}
}

func TestExampleAccessors(t *testing.T) {
	ex := exampleAt([]game.Position{pos(1, 1), pos(2, 1)}, nil, nil)

	if got := ex.ID(); got != "test-game-0" {
		t.Errorf("ID = %q, want %q", got, "test-game-0")
	}

	seq := ex.ActionSequence()
	if len(seq) != 3 || seq[len(seq)-1] != "STOP" {
		t.Errorf("action sequence = %v, want trailing STOP", seq)
	}

	if got := ex.InitialState().Follower.Position; got != pos(1, 1) {
		t.Errorf("initial position = %v, want %v", got, pos(1, 1))
	}
}
