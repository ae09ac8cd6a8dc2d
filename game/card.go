package game

import "sort"

// Card colors and shapes as they appear in recorded games.
type Color string

const (
	ColorBlack  Color = "black"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorOrange Color = "orange"
	ColorPink   Color = "pink"
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
)

type Shape string

const (
	ShapeCircle   Shape = "circle"
	ShapeCross    Shape = "cross"
	ShapeDiamond  Shape = "diamond"
	ShapeHeart    Shape = "heart"
	ShapeSquare   Shape = "square"
	ShapeStar     Shape = "star"
	ShapeTriangle Shape = "triangle"
)

// Card is a card on the board. Equality is attribute-wise: two cards are the
// same card iff every field matches, regardless of which snapshot they came
// from.
type Card struct {
	Position Position `json:"position"`
	Color    Color    `json:"color"`
	Shape    Shape    `json:"shape"`
	Count    int32    `json:"count"`
	Selected bool     `json:"selected"`
}

// SortCards orders cards by position then attributes, for deterministic
// comparison and output.
func SortCards(cards []Card) {
	sort.Slice(cards, func(i, j int) bool {
		a, b := cards[i], cards[j]
		if a.Position != b.Position {
			if a.Position.Y != b.Position.Y {
				return a.Position.Y < b.Position.Y
			}
			return a.Position.X < b.Position.X
		}
		if a.Color != b.Color {
			return a.Color < b.Color
		}
		if a.Shape != b.Shape {
			return a.Shape < b.Shape
		}
		if a.Count != b.Count {
			return a.Count < b.Count
		}
		return !a.Selected && b.Selected
	})
}

// IsValidSet reports whether three cards form a scorable set:
// counts 1, 2, 3 with pairwise-distinct colors and shapes.
func IsValidSet(cards []Card) bool {
	if len(cards) != 3 {
		return false
	}
	var countSeen [4]bool
	colors := make(map[Color]bool, 3)
	shapes := make(map[Shape]bool, 3)
	for _, c := range cards {
		if c.Count < 1 || c.Count > 3 || countSeen[c.Count] {
			return false
		}
		countSeen[c.Count] = true
		if colors[c.Color] || shapes[c.Shape] {
			return false
		}
		colors[c.Color] = true
		shapes[c.Shape] = true
	}
	return true
}
