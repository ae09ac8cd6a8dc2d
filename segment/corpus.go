package segment

import (
	"fmt"
	"sort"

	"github.com/diaosuyidsy/cerealbar/replay"
)

// GameResult bundles everything one game's scan produced.
type GameResult struct {
	Game     *replay.Game
	Examples []*Example
	Sets     []SetEvent
}

// SegmentCorpus scans every game in order and returns one result per game.
// A single game tripping an integrity check fails the whole corpus; partial
// corpora make for silently skewed training data.
func SegmentCorpus(games []*replay.Game, maxExamples int) ([]GameResult, error) {
	seg := &Segmenter{MaxExamples: maxExamples}
	out := make([]GameResult, 0, len(games))
	for _, g := range games {
		examples, sets, err := seg.SegmentGame(g)
		if err != nil {
			return nil, err
		}
		out = append(out, GameResult{Game: g, Examples: examples, Sets: sets})
	}
	return out, nil
}

// ConstructExamples segments a keyed corpus and returns every example
// indexed by its ID. Games are processed in sorted key order so the result
// is deterministic.
func ConstructExamples(games map[string]*replay.Game, maxExamples int) (map[string]*Example, error) {
	ids := make([]string, 0, len(games))
	for id := range games {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	seg := &Segmenter{MaxExamples: maxExamples}
	out := make(map[string]*Example, len(games))
	for _, id := range ids {
		examples, _, err := seg.SegmentGame(games[id])
		if err != nil {
			return nil, fmt.Errorf("construct examples: %w", err)
		}
		for _, ex := range examples {
			out[ex.ID()] = ex
		}
	}
	return out, nil
}
