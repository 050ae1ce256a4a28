package auth

// State is the position of a Flow in the authorization state machine.
type State int

const (
	Unauthenticated State = iota
	AwaitingAuthorization
	Authenticated
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case AwaitingAuthorization:
		return "awaiting_authorization"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}
