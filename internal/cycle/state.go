package cycle

// State is a step of the cycle state machine.
type State int

// Cycle states in the order a successful attempt visits them.
const (
	StateIdle State = iota
	StateFetching
	StateExtracting
	StateRendering
	StatePublishing
	StateDone
	StateRetrying
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateExtracting:
		return "extracting"
	case StateRendering:
		return "rendering"
	case StatePublishing:
		return "publishing"
	case StateDone:
		return "done"
	case StateRetrying:
		return "retrying"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// stage names the pipeline step an attempt failed in, for logs and metrics.
func (s State) stage() string {
	switch s {
	case StateFetching:
		return "fetch"
	case StateExtracting:
		return "extract"
	case StateRendering:
		return "render"
	case StatePublishing:
		return "publish"
	default:
		return s.String()
	}
}
