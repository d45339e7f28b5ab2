// internal/browser/state.go
package browser

// State is a step in the session lifecycle:
// Uninitialized -> Initializing -> Ready -> TearingDown -> Closed.
// Closed is terminal.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateTearingDown
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateTearingDown:
		return "tearing down"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
