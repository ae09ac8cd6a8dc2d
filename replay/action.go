// Package replay models one recorded CerealBar interaction: the closed set
// of gameplay actions appearing in a log, and the Game container the
// segmenter consumes.
package replay

import (
	"strings"

	"github.com/diaosuyidsy/cerealbar/game"
)

// GameplayAction is one entry of a recorded action log. The variant set is
// closed: every consumer matches exhaustively and treats an unknown dynamic
// type as a decoding bug rather than falling through silently.
type GameplayAction interface {
	gameplayAction()
}

// MovementAction is a single movement by either agent, recorded with the
// full state snapshot before and after the move.
type MovementAction struct {
	Agent     game.Agent
	Prior     game.StateDelta
	Posterior game.StateDelta
	Move      game.Action
}

// EndTurnAction marks the end of one agent's turn.
type EndTurnAction struct {
	Agent game.Agent
}

// InstructionAction is a leader command. Completed is false while the leader
// is still typing; only completed instructions take part in segmentation.
type InstructionAction struct {
	Tokens    []string
	Completed bool
}

// FinishCommandAction is the follower marking the current instruction done.
// Prior is the state at the moment the command was issued.
type FinishCommandAction struct {
	Prior game.StateDelta
}

func (*MovementAction) gameplayAction()      {}
func (*EndTurnAction) gameplayAction()       {}
func (*InstructionAction) gameplayAction()   {}
func (*FinishCommandAction) gameplayAction() {}

// Instruction returns the instruction as one string.
func (a *InstructionAction) Instruction() string {
	return strings.Join(a.Tokens, " ")
}

// ActionsEqual compares two gameplay actions structurally: same variant and
// equal fields, with snapshots compared by value.
func ActionsEqual(a, b GameplayAction) bool {
	switch x := a.(type) {
	case *MovementAction:
		y, ok := b.(*MovementAction)
		return ok && x.Agent == y.Agent && x.Move == y.Move &&
			x.Prior.Equal(y.Prior) && x.Posterior.Equal(y.Posterior)
	case *EndTurnAction:
		y, ok := b.(*EndTurnAction)
		return ok && x.Agent == y.Agent
	case *InstructionAction:
		y, ok := b.(*InstructionAction)
		if !ok || x.Completed != y.Completed || len(x.Tokens) != len(y.Tokens) {
			return false
		}
		for i := range x.Tokens {
			if x.Tokens[i] != y.Tokens[i] {
				return false
			}
		}
		return true
	case *FinishCommandAction:
		y, ok := b.(*FinishCommandAction)
		return ok && x.Prior.Equal(y.Prior)
	default:
		return false
	}
}

// ActionSlicesEqual compares two ordered action lists structurally.
func ActionSlicesEqual(a, b []GameplayAction) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !ActionsEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// BucketsEqual compares two leader-turn bucket lists structurally.
func BucketsEqual(a, b [][]GameplayAction) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !ActionSlicesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
