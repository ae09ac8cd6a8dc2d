package segment

import (
	"testing"

	"github.com/diaosuyidsy/cerealbar/game"
)

func TestSetDifferenceIdentical(t *testing.T) {
	a := []game.Card{
		card(1, 1, game.ColorRed, game.ShapeStar, 1),
		card(2, 2, game.ColorBlue, game.ShapeHeart, 2),
	}
	// Same cards, different order.
	b := []game.Card{a[1], a[0]}

	if _, _, ok := SetDifference(a, a); ok {
		t.Error("SetDifference(A, A) reported a difference")
	}
	if _, _, ok := SetDifference(a, b); ok {
		t.Error("SetDifference is order-sensitive; reordering reported a difference")
	}
	if _, _, ok := SetDifference(nil, nil); ok {
		t.Error("SetDifference(nil, nil) reported a difference")
	}
}

func TestSetDifferenceSymmetry(t *testing.T) {
	x := card(1, 1, game.ColorRed, game.ShapeStar, 1)
	y := card(2, 2, game.ColorBlue, game.ShapeHeart, 2)
	shared := card(3, 3, game.ColorGreen, game.ShapeCircle, 3)

	before := []game.Card{x, shared}
	after := []game.Card{shared, y}

	removed, added, ok := SetDifference(before, after)
	if !ok {
		t.Fatal("expected a difference")
	}
	if len(removed) != 1 || removed[0] != x {
		t.Errorf("removed = %v, want [%v]", removed, x)
	}
	if len(added) != 1 || added[0] != y {
		t.Errorf("added = %v, want [%v]", added, y)
	}

	// Swapping the arguments swaps the roles.
	removed2, added2, ok := SetDifference(after, before)
	if !ok {
		t.Fatal("expected a difference in the reverse direction")
	}
	if len(removed2) != 1 || removed2[0] != y {
		t.Errorf("reverse removed = %v, want [%v]", removed2, y)
	}
	if len(added2) != 1 || added2[0] != x {
		t.Errorf("reverse added = %v, want [%v]", added2, x)
	}
}

func TestSetDifferenceMultiset(t *testing.T) {
	dup := card(4, 4, game.ColorYellow, game.ShapeCross, 2)

	before := []game.Card{dup, dup}
	after := []game.Card{dup}

	removed, added, ok := SetDifference(before, after)
	if !ok {
		t.Fatal("expected a difference for duplicate counts")
	}
	if len(removed) != 1 || removed[0] != dup {
		t.Errorf("removed = %v, want one copy of %v", removed, dup)
	}
	if len(added) != 0 {
		t.Errorf("added = %v, want none", added)
	}
}

func TestSetDifferenceSelectionChange(t *testing.T) {
	c := card(5, 5, game.ColorBlack, game.ShapeSquare, 1)
	selected := c
	selected.Selected = true

	// Selection flips count as attribute changes: the unselected card is
	// gone and a selected one appeared in its place.
	removed, added, ok := SetDifference([]game.Card{c}, []game.Card{selected})
	if !ok {
		t.Fatal("expected a difference for a selection flip")
	}
	if len(removed) != 1 || removed[0] != c {
		t.Errorf("removed = %v", removed)
	}
	if len(added) != 1 || added[0] != selected {
		t.Errorf("added = %v", added)
	}
}
