package game

import "testing"

func TestNeighborRoundTrip(t *testing.T) {
	// Stepping forward then backward returns to the origin from any facing
	// and from rows of both parities.
	for _, start := range []Position{{X: 10, Y: 10}, {X: 10, Y: 11}} {
		for f := Facing(0); f < NumFacings; f++ {
			p := Pose{Position: start, Facing: f}
			moved := p.StepForward().StepBackward()
			if moved.Position != start {
				t.Errorf("facing %d from %v: forward+backward = %v", f, start, moved.Position)
			}
		}
	}
}

func TestNeighborsAreAdjacent(t *testing.T) {
	center := Position{X: 12, Y: 13}
	seen := make(map[Position]bool)
	for f := Facing(0); f < NumFacings; f++ {
		n := center.Neighbor(f)
		if d := HexDistance(center, n); d != 1 {
			t.Errorf("facing %d: neighbor %v at distance %d", f, n, d)
		}
		if seen[n] {
			t.Errorf("facing %d: duplicate neighbor %v", f, n)
		}
		seen[n] = true
	}
}

func TestRotateFullCircle(t *testing.T) {
	p := Pose{Position: Position{X: 5, Y: 5}, Facing: 2}
	right := p
	for i := 0; i < NumFacings; i++ {
		right = right.RotateRight()
	}
	if right != p {
		t.Errorf("six right rotations = %v, want %v", right, p)
	}
	if got := p.RotateRight().RotateLeft(); got != p {
		t.Errorf("right+left = %v, want %v", got, p)
	}
}

func TestHexDistance(t *testing.T) {
	cases := []struct {
		a, b Position
		want int32
	}{
		{Position{0, 0}, Position{0, 0}, 0},
		{Position{3, 4}, Position{4, 4}, 1},
		{Position{0, 0}, Position{3, 0}, 3},
		{Position{5, 5}, Position{5, 9}, 4},
	}
	for _, c := range cases {
		if got := HexDistance(c.a, c.b); got != c.want {
			t.Errorf("HexDistance(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
		}
		if got := HexDistance(c.b, c.a); got != c.want {
			t.Errorf("HexDistance(%v, %v) = %d, want %d (symmetry)", c.b, c.a, got, c.want)
		}
	}
}

func TestIsValidSet(t *testing.T) {
	valid := []Card{
		{Position: Position{1, 1}, Color: ColorRed, Shape: ShapeStar, Count: 1, Selected: true},
		{Position: Position{2, 2}, Color: ColorBlue, Shape: ShapeHeart, Count: 2, Selected: true},
		{Position: Position{3, 3}, Color: ColorGreen, Shape: ShapeCircle, Count: 3, Selected: true},
	}
	if !IsValidSet(valid) {
		t.Error("distinct colors/shapes with counts 1,2,3 should be a valid set")
	}

	repeatColor := make([]Card, 3)
	copy(repeatColor, valid)
	repeatColor[1].Color = ColorRed
	if IsValidSet(repeatColor) {
		t.Error("repeated color accepted as a set")
	}

	repeatCount := make([]Card, 3)
	copy(repeatCount, valid)
	repeatCount[1].Count = 1
	if IsValidSet(repeatCount) {
		t.Error("repeated count accepted as a set")
	}

	if IsValidSet(valid[:2]) {
		t.Error("two cards accepted as a set")
	}
}

func TestStateDeltaEqual(t *testing.T) {
	a := StateDelta{
		Follower: Pose{Position: Position{1, 1}},
		Cards: []Card{
			{Position: Position{2, 2}, Color: ColorRed, Shape: ShapeStar, Count: 1},
			{Position: Position{3, 3}, Color: ColorBlue, Shape: ShapeHeart, Count: 2},
		},
	}
	b := a.Clone()
	// Card order must not matter.
	b.Cards[0], b.Cards[1] = b.Cards[1], b.Cards[0]
	if !a.Equal(b) {
		t.Error("reordered cards broke snapshot equality")
	}

	b.Cards[0].Count = 3
	if a.Equal(b) {
		t.Error("attribute change not detected")
	}
}

func TestObservationGrowsMonotonically(t *testing.T) {
	initial := StateDelta{Follower: Pose{Position: Position{3, 3}}}
	obs := NewPartialObservation(initial)

	if !obs.Observed(Position{3, 3}) {
		t.Fatal("follower's own hex not observed")
	}
	far := Position{20, 20}
	if obs.Observed(far) {
		t.Fatal("hex outside visibility radius observed at start")
	}

	before := obs.NumObserved()

	moved := StateDelta{Follower: Pose{Position: Position{18, 18}}}
	updated := UpdateObservation(obs, moved)

	if !updated.Observed(far) {
		t.Error("hex near new position not revealed")
	}
	if !updated.Observed(Position{3, 3}) {
		t.Error("previously observed hex forgotten")
	}
	if updated.NumObserved() < before {
		t.Errorf("coverage shrank: %d -> %d", before, updated.NumObserved())
	}

	// The prior value is unaffected by the merge.
	if obs.Observed(far) {
		t.Error("merge mutated the input observation")
	}
	if obs.NumObserved() != before {
		t.Errorf("input observation changed size: %d -> %d", before, obs.NumObserved())
	}
}

func TestObservationCardKnowledge(t *testing.T) {
	near := Card{Position: Position{4, 3}, Color: ColorRed, Shape: ShapeStar, Count: 1}
	far := Card{Position: Position{20, 20}, Color: ColorBlue, Shape: ShapeHeart, Count: 2}

	initial := StateDelta{
		Follower: Pose{Position: Position{3, 3}},
		Cards:    []Card{near, far},
	}
	obs := NewPartialObservation(initial)

	known := obs.KnownCards()
	if len(known) != 1 || known[0] != near {
		t.Fatalf("known cards = %v, want [%v]", known, near)
	}

	// The near card disappears while in view: belief updates.
	next := StateDelta{
		Follower: Pose{Position: Position{3, 3}},
		Cards:    []Card{far},
	}
	obs = UpdateObservation(obs, next)
	if got := obs.KnownCards(); len(got) != 0 {
		t.Errorf("known cards = %v, want none (in-view removal observed)", got)
	}
}
