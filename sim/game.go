// Package sim replays board dynamics from a recorded starting snapshot.
// An evaluation harness resets it to an example's initial state, feeds it
// predicted follower actions, and lets the recorded leader turns play back
// between follower turns.
package sim

import (
	"errors"
	"fmt"

	"github.com/diaosuyidsy/cerealbar/game"
	"github.com/diaosuyidsy/cerealbar/replay"
	"github.com/diaosuyidsy/cerealbar/segment"
)

// ErrInvalidMove marks a predicted movement that walks off the board or
// into an obstacle. After one the game state is no longer trusted.
var ErrInvalidMove = errors.New("invalid move")

// Game is an embedded simulator over one recorded board.
type Game struct {
	obstacles map[game.Position]bool

	state          game.StateDelta
	leaderTurns    [][]replay.GameplayAction
	nextLeaderTurn int

	// expectedSets replays the recorded card respawns: each time the
	// follower or leader completes a set, the next delta's added cards
	// land on the board exactly where the log says they did.
	expectedSets []segment.SetDelta
	nextSet      int

	stepsRemaining int
	score          int
	valid          bool

	pendingInstructions [][]string
}

// NewGame builds a simulator for a static board.
func NewGame(hexes []game.Hex) *Game {
	obstacles := make(map[game.Position]bool)
	for _, h := range hexes {
		if h.Terrain.IsObstacle() {
			obstacles[h.Position] = true
		}
	}
	return &Game{obstacles: obstacles}
}

// Reset rewinds the simulator to a snapshot: the state at the moment an
// instruction was issued, the leader turns recorded after that moment, the
// card respawns those turns produced, and the follower's step budget.
func (g *Game) Reset(state game.StateDelta, leaderTurns [][]replay.GameplayAction, expectedSets []segment.SetDelta, stepsRemaining int) {
	g.state = state.Clone()
	g.leaderTurns = leaderTurns
	g.nextLeaderTurn = 0
	g.expectedSets = expectedSets
	g.nextSet = 0
	g.stepsRemaining = stepsRemaining
	g.score = 0
	g.valid = true
	g.pendingInstructions = nil
}

// SendCommand queues an instruction for the follower.
func (g *Game) SendCommand(tokens []string) {
	g.pendingInstructions = append(g.pendingInstructions, tokens)
}

// ExecuteAction applies one predicted follower action. STOP finishes the
// current command without consuming a step. Every other action consumes a
// step, and exhausting the budget ends the follower's turn: the next
// recorded leader turn plays back and the budget resets.
func (g *Game) ExecuteAction(a game.Action) error {
	if !g.valid {
		return fmt.Errorf("game state invalid, reset required")
	}

	if a == game.ActionStop {
		if len(g.pendingInstructions) > 0 {
			g.pendingInstructions = g.pendingInstructions[1:]
		}
		return nil
	}

	next := a.Apply(g.state.Follower)
	if a == game.ActionForward || a == game.ActionBackward {
		if !g.passable(next.Position) {
			g.valid = false
			return fmt.Errorf("%w: %s from %v", ErrInvalidMove, a, g.state.Follower.Position)
		}
	}
	moved := next.Position != g.state.Follower.Position
	g.state.Follower = next
	if moved {
		g.touchCard(next.Position)
	}

	g.stepsRemaining--
	if g.stepsRemaining <= 0 {
		g.endFollowerTurn()
	}
	return nil
}

func (g *Game) passable(p game.Position) bool {
	if !p.InBounds() {
		return false
	}
	if g.obstacles[p] {
		return false
	}
	return p != g.state.Leader.Position
}

// touchCard toggles the selection of a card under an agent that just
// stepped onto it, then resolves any completed set.
func (g *Game) touchCard(p game.Position) {
	for i := range g.state.Cards {
		if g.state.Cards[i].Position == p {
			g.state.Cards[i].Selected = !g.state.Cards[i].Selected
			break
		}
	}
	g.resolveSets()
}

func (g *Game) resolveSets() {
	var selected []game.Card
	for _, c := range g.state.Cards {
		if c.Selected {
			selected = append(selected, c)
		}
	}
	if !game.IsValidSet(selected) {
		return
	}

	remaining := g.state.Cards[:0]
	for _, c := range g.state.Cards {
		if !c.Selected {
			remaining = append(remaining, c)
		}
	}
	g.state.Cards = remaining
	g.score++

	if g.nextSet < len(g.expectedSets) {
		g.state.Cards = append(g.state.Cards, g.expectedSets[g.nextSet].Added...)
		g.nextSet++
	}
}

func (g *Game) endFollowerTurn() {
	g.playNextLeaderTurn()
	g.stepsRemaining = segment.FollowerTurnBudget
}

// playNextLeaderTurn replays one recorded leader turn: movements drive the
// leader pose and card interactions, completed instructions join the queue.
func (g *Game) playNextLeaderTurn() {
	if g.nextLeaderTurn >= len(g.leaderTurns) {
		return
	}
	turn := g.leaderTurns[g.nextLeaderTurn]
	g.nextLeaderTurn++

	for _, action := range turn {
		switch a := action.(type) {
		case *replay.MovementAction:
			next := a.Move.Apply(g.state.Leader)
			moved := next.Position != g.state.Leader.Position
			g.state.Leader = next
			if moved {
				g.touchCard(next.Position)
			}
		case *replay.InstructionAction:
			g.pendingInstructions = append(g.pendingInstructions, a.Tokens)
		}
	}
}

// FinishAllLeaderActions replays every remaining recorded leader turn.
// Called once the follower stops acting so trailing leader sets still score.
func (g *Game) FinishAllLeaderActions() {
	for g.nextLeaderTurn < len(g.leaderTurns) {
		g.playNextLeaderTurn()
	}
}

// Valid reports whether every executed action so far was legal.
func (g *Game) Valid() bool { return g.valid }

// Score is the number of sets completed since the last Reset.
func (g *Game) Score() int { return g.score }

// StepsRemaining is the follower's remaining budget this turn.
func (g *Game) StepsRemaining() int { return g.stepsRemaining }

// State returns a snapshot of the current board.
func (g *Game) State() game.StateDelta { return g.state.Clone() }

// PendingInstructions returns the queued instructions, oldest first.
func (g *Game) PendingInstructions() [][]string {
	out := make([][]string, len(g.pendingInstructions))
	copy(out, g.pendingInstructions)
	return out
}
