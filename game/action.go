package game

import "fmt"

// Agent identifies which role performed an action.
type Agent int32

const (
	Leader Agent = iota
	Follower
)

func (a Agent) String() string {
	switch a {
	case Leader:
		return "leader"
	case Follower:
		return "follower"
	default:
		return fmt.Sprintf("agent(%d)", int32(a))
	}
}

// Action is a single movement command. STOP is only ever synthesized at the
// end of a trajectory; recorded logs mark completion with a finish-command
// event instead.
type Action string

const (
	ActionForward     Action = "MF"
	ActionBackward    Action = "MB"
	ActionRotateRight Action = "RR"
	ActionRotateLeft  Action = "RL"
	ActionStop        Action = "STOP"
)

// ParseAction maps a recorded action string to an Action.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionForward, ActionBackward, ActionRotateRight, ActionRotateLeft, ActionStop:
		return Action(s), nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Apply returns the pose after executing the action. STOP leaves the pose
// unchanged.
func (a Action) Apply(p Pose) Pose {
	switch a {
	case ActionForward:
		return p.StepForward()
	case ActionBackward:
		return p.StepBackward()
	case ActionRotateRight:
		return p.RotateRight()
	case ActionRotateLeft:
		return p.RotateLeft()
	default:
		return p
	}
}
