package replay

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// EncodeGame writes one recorded game document, the same layout DecodeGame
// reads.
func EncodeGame(w io.Writer, g *Game) error {
	events, err := encodeEvents(g.Actions)
	if err != nil {
		return fmt.Errorf("game %s: %w", g.ID, err)
	}
	rec := gameRecord{
		GameID:       g.ID,
		Hexes:        g.Hexes,
		InitialState: g.InitialState,
		Events:       events,
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("encode game %s: %w", g.ID, err)
	}
	return nil
}

// SaveGameFile writes the game to a JSON file, through a temp file and an
// atomic rename so readers never see a partial document.
func SaveGameFile(path string, g *Game) error {
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open tmp game file: %w", err)
	}
	if err := EncodeGame(f, g); err != nil {
		f.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close tmp game file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename game file: %w", err)
	}
	return nil
}

// MarshalActions encodes an action slice as a JSON event array, usable as a
// self-contained blob in exported rows.
func MarshalActions(actions []GameplayAction) ([]byte, error) {
	events, err := encodeEvents(actions)
	if err != nil {
		return nil, err
	}
	return json.Marshal(events)
}

// MarshalTurns encodes per-turn action buckets as a JSON array of event
// arrays, preserving turn boundaries.
func MarshalTurns(turns [][]GameplayAction) ([]byte, error) {
	out := make([][]eventRecord, len(turns))
	for i, turn := range turns {
		events, err := encodeEvents(turn)
		if err != nil {
			return nil, fmt.Errorf("turn %d: %w", i, err)
		}
		out[i] = events
	}
	return json.Marshal(out)
}

func encodeEvents(actions []GameplayAction) ([]eventRecord, error) {
	events := make([]eventRecord, 0, len(actions))
	for i, action := range actions {
		ev, err := encodeEvent(action)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

func encodeEvent(action GameplayAction) (eventRecord, error) {
	switch a := action.(type) {
	case *MovementAction:
		prior, posterior := a.Prior, a.Posterior
		return eventRecord{
			Type:      "movement",
			Agent:     a.Agent.String(),
			Move:      string(a.Move),
			Prior:     &prior,
			Posterior: &posterior,
		}, nil
	case *EndTurnAction:
		return eventRecord{Type: "end_turn", Agent: a.Agent.String()}, nil
	case *InstructionAction:
		return eventRecord{Type: "instruction", Tokens: a.Tokens, Completed: a.Completed}, nil
	case *FinishCommandAction:
		prior := a.Prior
		return eventRecord{Type: "finish_command", Prior: &prior}, nil
	default:
		return eventRecord{}, fmt.Errorf("unencodable action %T", action)
	}
}
