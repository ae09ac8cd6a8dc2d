package game

// VisibilityRadius is how far, in hexes, the follower can see around its
// current position. Recorded games all use the same fog-of-war settings.
const VisibilityRadius = 6

// PartialObservation is the follower's accumulated knowledge of the board.
// Coverage only ever grows: a hex observed once stays observed for the rest
// of the game. Card knowledge for a hex reflects the most recent time the
// hex was in view, so stale beliefs persist until the hex is seen again.
//
// Values are immutable; UpdateObservation returns a new value and never
// mutates its input, so a snapshot held by one trajectory step is unaffected
// by later merges.
type PartialObservation struct {
	observed map[Position]struct{}
	cards    map[Position]Card
}

// NewPartialObservation builds the follower's view at the start of a game.
func NewPartialObservation(initial StateDelta) PartialObservation {
	return UpdateObservation(PartialObservation{}, initial)
}

// UpdateObservation merges the hexes visible in the snapshot into the
// accumulated observation and returns the result.
func UpdateObservation(obs PartialObservation, delta StateDelta) PartialObservation {
	out := PartialObservation{
		observed: make(map[Position]struct{}, len(obs.observed)+16),
		cards:    make(map[Position]Card, len(obs.cards)+8),
	}
	for p := range obs.observed {
		out.observed[p] = struct{}{}
	}
	for p, c := range obs.cards {
		out.cards[p] = c
	}

	center := delta.Follower.Position
	for y := int32(0); y < EnvironmentDepth; y++ {
		for x := int32(0); x < EnvironmentWidth; x++ {
			p := Position{X: x, Y: y}
			if HexDistance(center, p) > VisibilityRadius {
				continue
			}
			out.observed[p] = struct{}{}
			if c, ok := delta.CardAt(p); ok {
				out.cards[p] = c
			} else {
				delete(out.cards, p)
			}
		}
	}
	return out
}

// Observed reports whether the hex has ever been in view.
func (o PartialObservation) Observed(p Position) bool {
	_, ok := o.observed[p]
	return ok
}

// NumObserved returns the number of hexes revealed so far.
func (o PartialObservation) NumObserved() int {
	return len(o.observed)
}

// KnownCards returns the cards the follower believes are on the board, in
// deterministic order.
func (o PartialObservation) KnownCards() []Card {
	out := make([]Card, 0, len(o.cards))
	for _, c := range o.cards {
		out = append(out, c)
	}
	SortCards(out)
	return out
}
