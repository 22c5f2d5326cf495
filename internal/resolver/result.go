package resolver

// ResultCode is the outcome a resolver reports for a fixture. It mirrors
// the wire protocol's small-integer codes; anything a plugin returns
// outside [0,5] is clamped to Unresolved by the dispatcher and handled by
// the settlement fallback path.
type ResultCode uint8

const (
	Unresolved ResultCode = iota // 0: no result yet, or dispatch failure
	BackerLoses
	BackerWins
	HalfLose
	HalfWin
	Push
)

// maxResult is the highest code a plugin may legitimately return.
const maxResult = Push

func (r ResultCode) String() string {
	switch r {
	case Unresolved:
		return "UNRESOLVED"
	case BackerLoses:
		return "BACKER_LOSES"
	case BackerWins:
		return "BACKER_WINS"
	case HalfLose:
		return "HALF_LOSE"
	case HalfWin:
		return "HALF_WIN"
	case Push:
		return "PUSH"
	default:
		return "UNKNOWN"
	}
}

// InRange reports whether r is a code the protocol defines.
func (r ResultCode) InRange() bool { return r <= maxResult }
