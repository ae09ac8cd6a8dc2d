package replay

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/diaosuyidsy/cerealbar/game"
)

// Recorded-game JSON layout. One document per game:
//
//	{
//	  "game_id": "...",
//	  "hexes": [{"terrain": "grass", "position": {"x": 0, "y": 0}}, ...],
//	  "initial_state": {"leader": {...}, "follower": {...}, "cards": [...]},
//	  "events": [
//	    {"type": "movement", "agent": "leader", "move": "MF",
//	     "prior": {...}, "posterior": {...}},
//	    {"type": "end_turn", "agent": "leader"},
//	    {"type": "instruction", "tokens": ["go", "left"], "completed": true},
//	    {"type": "finish_command", "prior": {...}}
//	  ]
//	}
type gameRecord struct {
	GameID       string          `json:"game_id"`
	Hexes        []game.Hex      `json:"hexes"`
	InitialState game.StateDelta `json:"initial_state"`
	Events       []eventRecord   `json:"events"`
}

type eventRecord struct {
	Type      string           `json:"type"`
	Agent     string           `json:"agent,omitempty"`
	Move      string           `json:"move,omitempty"`
	Prior     *game.StateDelta `json:"prior,omitempty"`
	Posterior *game.StateDelta `json:"posterior,omitempty"`
	Tokens    []string         `json:"tokens,omitempty"`
	Completed bool             `json:"completed,omitempty"`
}

// DecodeGame reads one recorded game document.
func DecodeGame(r io.Reader) (*Game, error) {
	var rec gameRecord
	dec := json.NewDecoder(r)
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode game: %w", err)
	}
	if rec.GameID == "" {
		return nil, fmt.Errorf("decode game: missing game_id")
	}

	actions := make([]GameplayAction, 0, len(rec.Events))
	for i, ev := range rec.Events {
		action, err := decodeEvent(ev)
		if err != nil {
			return nil, fmt.Errorf("game %s event %d: %w", rec.GameID, i, err)
		}
		actions = append(actions, action)
	}

	return NewGame(rec.GameID, rec.Hexes, rec.InitialState, actions), nil
}

// LoadGameFile reads a recorded game from a JSON file on disk.
func LoadGameFile(path string) (*Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open game file: %w", err)
	}
	defer f.Close()
	return DecodeGame(f)
}

// DecodeEventJSON decodes a single event document, as streamed by a remote
// game engine.
func DecodeEventJSON(data []byte) (GameplayAction, error) {
	var ev eventRecord
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return decodeEvent(ev)
}

func decodeEvent(ev eventRecord) (GameplayAction, error) {
	switch ev.Type {
	case "movement":
		agent, err := decodeAgent(ev.Agent)
		if err != nil {
			return nil, err
		}
		move, err := game.ParseAction(ev.Move)
		if err != nil {
			return nil, err
		}
		if ev.Prior == nil || ev.Posterior == nil {
			return nil, fmt.Errorf("movement event missing prior/posterior state")
		}
		return &MovementAction{Agent: agent, Prior: *ev.Prior, Posterior: *ev.Posterior, Move: move}, nil
	case "end_turn":
		agent, err := decodeAgent(ev.Agent)
		if err != nil {
			return nil, err
		}
		return &EndTurnAction{Agent: agent}, nil
	case "instruction":
		return &InstructionAction{Tokens: ev.Tokens, Completed: ev.Completed}, nil
	case "finish_command":
		if ev.Prior == nil {
			return nil, fmt.Errorf("finish_command event missing prior state")
		}
		return &FinishCommandAction{Prior: *ev.Prior}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}
}

func decodeAgent(s string) (game.Agent, error) {
	switch s {
	case "leader":
		return game.Leader, nil
	case "follower":
		return game.Follower, nil
	default:
		return 0, fmt.Errorf("unknown agent %q", s)
	}
}
