package engine

import "fmt"

type State int

const (
	StateIdle State = iota
	StateRendering
	// StateSuspended means the surface has no area or the window is minimized. Nothing is
	// acquired or presented until the window comes back.
	StateSuspended
	// StateTerminated is absorbing.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRendering:
		return "Rendering"
	case StateSuspended:
		return "Suspended"
	case StateTerminated:
		return "Terminated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}
