package segment

import "github.com/diaosuyidsy/cerealbar/replay"

// FollowerTurnBudget is the number of steps the follower may take per turn.
const FollowerTurnBudget = 10

// TurnTracker carries the ambient counters of one game's scan: the
// follower's remaining step budget, how many completed instructions are
// queued but unfinished, the current leader-turn index, and the sparse
// per-turn buckets of leader activity for the run in progress. It is owned
// exclusively by the Segmenter for the duration of one pass.
type TurnTracker struct {
	StepsRemaining int
	BufferSize     int
	LeaderTurn     int

	buckets map[int][]replay.GameplayAction
}

func NewTurnTracker() *TurnTracker {
	return &TurnTracker{
		StepsRemaining: FollowerTurnBudget,
		buckets:        make(map[int][]replay.GameplayAction),
	}
}

// RecordLeaderAction appends an action to the bucket for the current leader
// turn, creating the bucket lazily.
func (t *TurnTracker) RecordLeaderAction(a replay.GameplayAction) {
	t.buckets[t.LeaderTurn] = append(t.buckets[t.LeaderTurn], a)
}

// EnsureBucket guarantees a (possibly empty) bucket exists for the current
// leader turn, so turns with no leader activity survive densification.
func (t *TurnTracker) EnsureBucket() {
	if _, ok := t.buckets[t.LeaderTurn]; !ok {
		t.buckets[t.LeaderTurn] = nil
	}
}

// ResetBuckets clears the bucket mapping for the next run. Counters persist
// across runs; only the per-run buckets are discarded.
func (t *TurnTracker) ResetBuckets() {
	t.buckets = make(map[int][]replay.GameplayAction)
}

// Densify flattens the sparse bucket mapping into a contiguous list covering
// min..max of the turn indices present, with explicit empty entries for
// turns in between that never got a bucket. When no buckets exist it returns
// the current leader turn and a nil list.
func (t *TurnTracker) Densify() (firstTurn int, dense [][]replay.GameplayAction) {
	if len(t.buckets) == 0 {
		return t.LeaderTurn, nil
	}

	first, last := -1, -1
	for turn := range t.buckets {
		if first == -1 || turn < first {
			first = turn
		}
		if turn > last {
			last = turn
		}
	}

	dense = make([][]replay.GameplayAction, 0, last-first+1)
	for turn := first; turn <= last; turn++ {
		dense = append(dense, t.buckets[turn])
	}
	return first, dense
}
