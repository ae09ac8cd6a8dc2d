// Package segment implements the core of the pipeline: a single pass over a
// recorded action log that cuts it into per-instruction training examples,
// attributes interleaved leader activity to the right example, detects card
// set completions, and cross-validates its own reconstruction against the
// game's ground-truth leader turns.
package segment

import "github.com/diaosuyidsy/cerealbar/game"

// SetDifference compares two card collections as multisets and returns the
// cards present only in before (removed) and only in after (added), each in
// order of appearance. ok is false when the collections are attribute-wise
// identical.
//
// SetDifference(A, A) yields ok=false; swapping the arguments swaps removed
// and added.
func SetDifference(before, after []game.Card) (removed, added []game.Card, ok bool) {
	counts := make(map[game.Card]int, len(before))
	for _, c := range before {
		counts[c]++
	}
	for _, c := range after {
		counts[c]--
	}

	remaining := make(map[game.Card]int, len(counts))
	for c, n := range counts {
		if n != 0 {
			remaining[c] = n
		}
	}
	if len(remaining) == 0 {
		return nil, nil, false
	}

	for _, c := range before {
		if remaining[c] > 0 {
			removed = append(removed, c)
			remaining[c]--
		}
	}
	for _, c := range after {
		if remaining[c] < 0 {
			added = append(added, c)
			remaining[c]++
		}
	}
	return removed, added, true
}
