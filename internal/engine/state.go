package engine

// State is the lifecycle state of a target.
type State int

const (
	Idle State = iota
	AwaitingMarkup
	Resolving
	Retrying
	Applied
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingMarkup:
		return "awaiting-markup"
	case Resolving:
		return "resolving"
	case Retrying:
		return "retrying"
	case Applied:
		return "applied"
	default:
		return "unknown"
	}
}
