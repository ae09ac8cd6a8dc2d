// Package game defines the core environment types for CerealBar.
//
// These types represent the minimal state needed for log segmentation and
// replay simulation: hex positions and poses, cards, state snapshots, and
// the follower's accumulated partial observation. Values compare
// structurally, never by identity, so snapshots taken at different times
// can be checked for equality.
package game

// Environment dimensions in hexes. All recorded games use the same board.
const (
	EnvironmentWidth = 25
	EnvironmentDepth = 25
)

// Position is a board coordinate in odd-r offset hex layout.
// (0,0) is the top-left corner; Y selects the row.
type Position struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// Facing is one of the six hex headings, increasing clockwise.
// Facing 0 points toward +X along the row.
type Facing int32

const NumFacings = 6

// oddRowOffsets[parity][facing] gives the neighbor delta for a row of the
// given parity (0 = even row, 1 = odd row).
var oddRowOffsets = [2][NumFacings]Position{
	{{1, 0}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}, {0, 1}},
	{{1, 0}, {1, -1}, {0, -1}, {-1, 0}, {0, 1}, {1, 1}},
}

// Neighbor returns the adjacent position along the given facing.
func (p Position) Neighbor(f Facing) Position {
	d := oddRowOffsets[p.Y&1][((f%NumFacings)+NumFacings)%NumFacings]
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

// InBounds reports whether the position lies on the board.
func (p Position) InBounds() bool {
	return p.X >= 0 && p.X < EnvironmentWidth && p.Y >= 0 && p.Y < EnvironmentDepth
}

// cube converts to cube coordinates for distance math.
func (p Position) cube() (q, r, s int32) {
	q = p.X - (p.Y-(p.Y&1))/2
	r = p.Y
	return q, r, -q - r
}

// HexDistance returns the number of hex steps between two positions.
func HexDistance(a, b Position) int32 {
	aq, ar, as := a.cube()
	bq, br, bs := b.cube()
	return (abs32(aq-bq) + abs32(ar-br) + abs32(as-bs)) / 2
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// Pose is an agent's position plus heading.
type Pose struct {
	Position Position `json:"position"`
	Facing   Facing   `json:"facing"`
}

// RotateRight returns the pose turned one facing clockwise in place.
func (p Pose) RotateRight() Pose {
	p.Facing = (p.Facing + 1) % NumFacings
	return p
}

// RotateLeft returns the pose turned one facing counter-clockwise in place.
func (p Pose) RotateLeft() Pose {
	p.Facing = (p.Facing + NumFacings - 1) % NumFacings
	return p
}

// StepForward returns the pose advanced one hex along its facing.
func (p Pose) StepForward() Pose {
	p.Position = p.Position.Neighbor(p.Facing)
	return p
}

// StepBackward returns the pose moved one hex opposite its facing,
// without changing the facing.
func (p Pose) StepBackward() Pose {
	p.Position = p.Position.Neighbor((p.Facing + 3) % NumFacings)
	return p
}
