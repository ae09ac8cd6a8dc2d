package replay

import (
	"github.com/diaosuyidsy/cerealbar/game"
)

// Game is one fully recorded interaction. Actions is the complete
// chronological log; LeaderActions is the independently derived ground-truth
// grouping of leader activity by leader-turn index, which the segmenter uses
// as its correctness oracle.
type Game struct {
	ID           string
	Hexes        []game.Hex
	InitialState game.StateDelta

	Actions       []GameplayAction
	LeaderActions [][]GameplayAction
}

// NewGame builds a Game from a decoded log. The ground-truth leader-turn
// grouping is derived here, sharing the same action values the log holds.
func NewGame(id string, hexes []game.Hex, initial game.StateDelta, actions []GameplayAction) *Game {
	return &Game{
		ID:            id,
		Hexes:         hexes,
		InitialState:  initial,
		Actions:       actions,
		LeaderActions: LeaderActionsByTurn(actions),
	}
}

// FirstPartialObservation is the follower's view before anything has moved.
func (g *Game) FirstPartialObservation() game.PartialObservation {
	return game.NewPartialObservation(g.InitialState)
}

// ObstaclePositions returns every hex the follower can never stand on.
func (g *Game) ObstaclePositions() []game.Position {
	var out []game.Position
	for _, h := range g.Hexes {
		if h.Terrain.IsObstacle() {
			out = append(out, h.Position)
		}
	}
	return out
}

// LeaderActionsByTurn groups leader activity by leader-turn index: leader
// movements and completed instructions land in the bucket for the turn they
// occurred in, and a leader EndTurn advances the index. The result is dense
// from turn 0 through the last leader turn, with empty buckets for turns
// where the leader only ended the turn.
func LeaderActionsByTurn(actions []GameplayAction) [][]GameplayAction {
	buckets := [][]GameplayAction{nil}
	turn := 0
	for _, action := range actions {
		switch a := action.(type) {
		case *MovementAction:
			if a.Agent == game.Leader {
				buckets[turn] = append(buckets[turn], a)
			}
		case *EndTurnAction:
			if a.Agent == game.Leader {
				turn++
				buckets = append(buckets, nil)
			}
		case *InstructionAction:
			if a.Completed {
				buckets[turn] = append(buckets[turn], a)
			}
		case *FinishCommandAction:
		}
	}
	return buckets
}
