package game

// StateDelta is an immutable snapshot of the mutable game state at one
// instant: both agent poses plus every card on the board. Terrain is static
// per game and lives on the game container, not here.
type StateDelta struct {
	Leader   Pose   `json:"leader"`
	Follower Pose   `json:"follower"`
	Cards    []Card `json:"cards"`
}

// Clone performs a deep copy of the snapshot.
func (s StateDelta) Clone() StateDelta {
	out := StateDelta{Leader: s.Leader, Follower: s.Follower}
	if len(s.Cards) > 0 {
		out.Cards = make([]Card, len(s.Cards))
		copy(out.Cards, s.Cards)
	}
	return out
}

// Equal compares two snapshots by structural value. Card order is not
// significant.
func (s StateDelta) Equal(other StateDelta) bool {
	if s.Leader != other.Leader || s.Follower != other.Follower {
		return false
	}
	return CardsEqual(s.Cards, other.Cards)
}

// CardAt returns the card occupying the position, if any.
func (s StateDelta) CardAt(p Position) (Card, bool) {
	for _, c := range s.Cards {
		if c.Position == p {
			return c, true
		}
	}
	return Card{}, false
}

// CardsEqual reports whether two card collections contain the same cards,
// attribute-wise, ignoring order.
func CardsEqual(a, b []Card) bool {
	if len(a) != len(b) {
		return false
	}
	as := make([]Card, len(a))
	bs := make([]Card, len(b))
	copy(as, a)
	copy(bs, b)
	SortCards(as)
	SortCards(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
