// Package store exports segmented examples as parquet training shards and
// tracks which games have already been processed.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/diaosuyidsy/cerealbar/game"
	"github.com/diaosuyidsy/cerealbar/replay"
	"github.com/diaosuyidsy/cerealbar/segment"
)

// SchemaName tags every shard so trainers can detect layout drift.
const SchemaName = "instruction_example_v1"

// ExampleRow is one instruction-following training sample.
//
// Trajectory is a self-contained JSON snapshot sequence for this example.
// It is intentionally model-agnostic: trainers featurize it however they
// like. TrajectoryFormat names the blob layout.
type ExampleRow struct {
	GameID       string `parquet:"game_id,dict"`
	ExampleIndex int32  `parquet:"example_index"`

	Instruction string   `parquet:"instruction"`
	Actions     []string `parquet:"actions"`

	TrajectoryFormat string `parquet:"trajectory_format,dict"`
	Trajectory       []byte `parquet:"trajectory,zstd"`

	// LeaderActions is the JSON event array for the dense leader turns
	// covering this example, FirstLeaderTurn the index of its first turn.
	LeaderActions   []byte `parquet:"leader_actions,optional,zstd"`
	FirstLeaderTurn int32  `parquet:"first_leader_turn"`

	Sets     []byte `parquet:"sets,optional,zstd"`
	SetsMade int32  `parquet:"sets_made"`

	StepsRemainingAtStart int32 `parquet:"steps_remaining_at_start"`
	BufferSizeAtStart     int32 `parquet:"buffer_size_at_start"`

	Source string `parquet:"source,dict"`
}

// trajectoryStep mirrors one trajectory entry in the JSON blob.
type trajectoryStep struct {
	State  game.StateDelta `json:"state"`
	Action string          `json:"action"`
}

// RowForExample flattens one example into its shard row.
func RowForExample(ex *segment.Example, source string) (ExampleRow, error) {
	steps := make([]trajectoryStep, len(ex.Trajectory))
	for i, s := range ex.Trajectory {
		steps[i] = trajectoryStep{State: s.State, Action: string(s.Action)}
	}
	trajectory, err := json.Marshal(steps)
	if err != nil {
		return ExampleRow{}, fmt.Errorf("example %s: marshal trajectory: %w", ex.ID(), err)
	}

	var leaderActions []byte
	if len(ex.LeaderActions) > 0 {
		leaderActions, err = replay.MarshalTurns(ex.LeaderActions)
		if err != nil {
			return ExampleRow{}, fmt.Errorf("example %s: marshal leader actions: %w", ex.ID(), err)
		}
	}

	var sets []byte
	if len(ex.SetsMade) > 0 {
		sets, err = json.Marshal(ex.SetsMade)
		if err != nil {
			return ExampleRow{}, fmt.Errorf("example %s: marshal sets: %w", ex.ID(), err)
		}
	}

	return ExampleRow{
		GameID:                ex.Game.ID,
		ExampleIndex:          int32(ex.Index),
		Instruction:           ex.InstructionText(),
		Actions:               ex.ActionSequence(),
		TrajectoryFormat:      "step_json_v1",
		Trajectory:            trajectory,
		LeaderActions:         leaderActions,
		FirstLeaderTurn:       int32(ex.FirstLeaderTurn),
		Sets:                  sets,
		SetsMade:              int32(len(ex.SetsMade)),
		StepsRemainingAtStart: int32(ex.StepsRemainingAtStart),
		BufferSizeAtStart:     int32(ex.BufferSizeAtStart),
		Source:                source,
	}, nil
}

// RowsForGame flattens every example emitted for one game.
func RowsForGame(result segment.GameResult, source string) ([]ExampleRow, error) {
	rows := make([]ExampleRow, 0, len(result.Examples))
	for _, ex := range result.Examples {
		row, err := RowForExample(ex, source)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteShard writes rows to a parquet file through a temp file and an
// atomic rename.
func WriteShard(outPath string, rows []ExampleRow) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	// Avoid page bounds for the raw snapshot blobs.
	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.SkipPageBounds("trajectory"),
		parquet.KeyValueMetadata("schema", SchemaName),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

// WriteShardBatch writes a batch shard named by timestamp into outDir,
// staged under outDir/tmp so readers never observe a partial file. Returns
// the final path.
func WriteShardBatch(outDir string, rows []ExampleRow) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	tmpDir := filepath.Join(outDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("shard_%d.parquet", time.Now().UnixNano())
	finalPath := filepath.Join(outDir, name)
	tmpPath := filepath.Join(tmpDir, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.SkipPageBounds("trajectory"),
		parquet.KeyValueMetadata("schema", SchemaName),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return finalPath, nil
}
